// Package errors defines the closed failure taxonomy of the conformance
// harness.
//
// Every pipeline stage maps its failure to exactly one Kind at the boundary
// where it occurs; nothing retries and nothing is silently recovered.
// Conformance scripts intentionally feed invalid modules, so validation
// failures carry a distinct kind from infrastructure errors, and failures
// whose underlying cause is a codegen-unsupported language feature can be
// detected with IsUnsupported so the harness records a skip instead of a
// failure.
//
// Use the convenience constructors for common stages:
//
//	err := errors.Validation(cause)
//	err := errors.Codegen("write object", cause)
//	err := errors.MalformedScript("no instance named %s", name)
//
// or the Builder when extra context is needed:
//
//	err := errors.New(errors.KindCompile).
//		Detail("compile %q", name).
//		Cause(cause).
//		Unsupported().
//		Build()
//
// All errors implement the standard error interface and support
// errors.Is/As.
package errors
