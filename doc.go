// Package spectest provides the execution core of a WebAssembly
// conformance-test harness for ahead-of-time compiled, sandboxed modules.
//
// Given a stream of structured script directives (define a module, invoke an
// export, register an instance under a name, delete the last instance), the
// core compiles each module through a native-code pipeline, loads the
// resulting artifact into an isolated sandbox region, tracks live instances
// by optional name, and classifies every failure into a closed taxonomy the
// surrounding comparator can act on.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	spectest/            Root package with shared value and binding types
//	├── script/          High-level environment driving script directives
//	├── pipeline/        Compile → codegen → link → load → instantiate pipeline
//	├── instance/        Live instances and the ordered name registry
//	├── engine/          wazero-backed program building, compilation, loading
//	├── sandbox/         Isolated memory regions and guest invocation
//	├── wasm/            Core wasm binary structural decoding
//	└── errors/          Structured failure taxonomy for the harness
//
// # Quick Start
//
// Execute a define/invoke pair the way a conformance script would:
//
//	env := script.NewEnv(script.DefaultConfig())
//	defer env.Close(ctx)
//
//	if err := env.Instantiate(ctx, wasmBytes, ""); err != nil {
//	    log.Fatal(err)
//	}
//	ret, err := env.Run(ctx, "", "answer")
//	fmt.Println(ret.I32()) // 42
//
// # Error Classification
//
// Every pipeline failure maps to exactly one errors.Kind. Conformance
// scripts intentionally feed invalid modules, so validation failures are
// distinguished from infrastructure errors, and failures caused by
// codegen-unsupported language features can be detected with
// errors.IsUnsupported so the harness skips rather than fails those cases.
//
// # Concurrency
//
// Directive execution is single-threaded and sequential. The script
// environment and its registry are not safe for concurrent use.
package spectest
