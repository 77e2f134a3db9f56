// Package engine implements the compilation backend of the pipeline on top
// of wazero.
//
// The engine owns a shared compilation cache so that a module compiled once
// during the compile stage is loaded cheaply by every sandbox region that
// later instantiates it. Validation runs against the full wasm feature set;
// code generation runs against the fixed feature set the harness supports,
// which is how "unsupported language feature" failures are distinguished
// from genuine defects.
package engine
