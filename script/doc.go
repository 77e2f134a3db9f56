// Package script implements the four script-facing operations of the
// conformance harness — instantiate, run, register, delete-last — over the
// compilation pipeline and the instance registry.
//
// Directive execution is strictly sequential; Env is not safe for
// concurrent use.
package script
