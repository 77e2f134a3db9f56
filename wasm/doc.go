// Package wasm provides structural decoding of core WebAssembly binaries.
//
// The deserialize stage of the pipeline uses ParseModule to split
// "malformed binary" failures from semantic validation failures: this
// package checks only binary well-formedness (magic, version, section
// framing, entity encodings), never type correctness. Semantic validation
// belongs to the engine.
//
// The package also carries a small ModuleBuilder used to synthesize fixture
// modules in tests.
package wasm
