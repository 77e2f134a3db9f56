package script

import (
	"context"
	"os"
	"testing"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/pipeline"
	"github.com/wasmforge/spectest/wasm"
)

// copyLinker stands in for the external linker: the object image already
// has the loadable layout, so linking is a byte-for-byte repackage.
func copyLinker() pipeline.Linker {
	return pipeline.LinkFunc(func(_ context.Context, objPath, outPath string) error {
		data, err := os.ReadFile(objPath)
		if err != nil {
			return err
		}
		return os.WriteFile(outPath, data, 0o644)
	})
}

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	env := NewEnv(Config{Pipeline: pipeline.Config{Linker: copyLinker()}})
	t.Cleanup(func() {
		if err := env.Close(context.Background()); err != nil {
			t.Errorf("close env: %v", err)
		}
	})
	return env
}

// answerModule exports answer() -> i32 returning 42.
func answerModule() []byte {
	return wasm.NewModuleBuilder().
		Func("answer", nil, []wasm.ValType{wasm.ValI32}, wasm.I32Const(42)).
		Build()
}

// identityModule exports identity(i32) -> i32.
func identityModule() []byte {
	return wasm.NewModuleBuilder().
		Func("identity", []wasm.ValType{wasm.ValI32}, []wasm.ValType{wasm.ValI32}, wasm.LocalGet(0)).
		Build()
}

func TestInstantiateAndRun(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, answerModule(), ""); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	ret, err := env.Run(ctx, "", "answer")
	if err != nil {
		t.Fatalf("run answer: %v", err)
	}
	if ret.I32() != 42 {
		t.Errorf("answer = %d, want 42", ret.I32())
	}
}

func TestRun_LastCreatedWins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// M1 unnamed, then M2 named "adder": the empty name must resolve to M2.
	if err := env.Instantiate(ctx, answerModule(), ""); err != nil {
		t.Fatalf("instantiate M1: %v", err)
	}
	if err := env.Instantiate(ctx, identityModule(), "adder"); err != nil {
		t.Fatalf("instantiate M2: %v", err)
	}

	ret, err := env.Run(ctx, "", "identity", spectest.I32(7))
	if err != nil {
		t.Fatalf("run identity on last instance: %v", err)
	}
	if ret.I32() != 7 {
		t.Errorf("identity(7) = %d, want 7", ret.I32())
	}

	// M1 is no longer last; its export is only reachable by position until
	// it gets a name.
	if _, err := env.Run(ctx, "", "answer"); err == nil {
		t.Error("run answer on M2 should fail")
	}
}

func TestRegister_AliasPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, answerModule(), ""); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	before, err := env.Resolve("")
	if err != nil {
		t.Fatalf("resolve unnamed: %v", err)
	}

	if err := env.Register("", "first"); err != nil {
		t.Fatalf("register: %v", err)
	}

	after, err := env.Resolve("first")
	if err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	if before != after {
		t.Error("registration changed instance identity")
	}
}

func TestRegister_RenamedNotAppended(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, answerModule(), "m"); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if err := env.Register("m", "renamed"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// The old name is gone: registration overwrites the stored name.
	if _, err := env.Resolve("m"); !errors.IsKind(err, errors.KindMalformedScript) {
		t.Errorf("resolve old name = %v, want malformed_script", err)
	}
	if _, err := env.Resolve("renamed"); err != nil {
		t.Errorf("resolve new name: %v", err)
	}
}

func TestRegister_AfterSuperseded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// M1 unnamed, superseded by named M2. M1 is still addressable by
	// position only until M2 arrives, so name M1 before defining M2...
	if err := env.Instantiate(ctx, answerModule(), ""); err != nil {
		t.Fatalf("instantiate M1: %v", err)
	}
	if err := env.Register("", "first"); err != nil {
		t.Fatalf("register M1: %v", err)
	}
	m1, err := env.Resolve("first")
	if err != nil {
		t.Fatalf("resolve first: %v", err)
	}

	if err := env.Instantiate(ctx, identityModule(), "adder"); err != nil {
		t.Fatalf("instantiate M2: %v", err)
	}

	// ...and "first" must still resolve to M1, not M2.
	got, err := env.Resolve("first")
	if err != nil {
		t.Fatalf("resolve first after M2: %v", err)
	}
	if got != m1 {
		t.Error("alias resolved to a different instance after new define")
	}

	ret, err := env.Run(ctx, "first", "answer")
	if err != nil {
		t.Fatalf("run answer on first: %v", err)
	}
	if ret.I32() != 42 {
		t.Errorf("answer = %d, want 42", ret.I32())
	}
}

func TestRun_UnknownName(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, answerModule(), ""); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	_, err := env.Run(ctx, "missing", "f")
	if !errors.IsKind(err, errors.KindMalformedScript) {
		t.Fatalf("error = %v, want malformed_script", err)
	}
}

func TestRun_EmptyRegistry(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Run(context.Background(), "", "f")
	if !errors.IsKind(err, errors.KindMalformedScript) {
		t.Fatalf("error = %v, want malformed_script", err)
	}
}

func TestDeleteLast(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, answerModule(), "first"); err != nil {
		t.Fatalf("instantiate first: %v", err)
	}
	if err := env.Instantiate(ctx, identityModule(), "second"); err != nil {
		t.Fatalf("instantiate second: %v", err)
	}

	if err := env.DeleteLast(ctx); err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if env.Len() != 1 {
		t.Fatalf("registry size = %d, want 1", env.Len())
	}

	// The prior entry is the new "last".
	ret, err := env.Run(ctx, "", "answer")
	if err != nil {
		t.Fatalf("run after delete: %v", err)
	}
	if ret.I32() != 42 {
		t.Errorf("answer = %d, want 42", ret.I32())
	}

	if err := env.DeleteLast(ctx); err != nil {
		t.Fatalf("delete last again: %v", err)
	}
	if err := env.DeleteLast(ctx); !errors.IsKind(err, errors.KindMalformedScript) {
		t.Errorf("delete on empty = %v, want malformed_script", err)
	}
}

func TestInstantiate_FailureLeavesRegistryUnchanged(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, answerModule(), ""); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if err := env.Instantiate(ctx, []byte("not wasm"), "bad"); err == nil {
		t.Fatal("instantiate garbage should fail")
	}
	if env.Len() != 1 {
		t.Errorf("registry size = %d after failed instantiate, want 1", env.Len())
	}
	if _, err := env.Resolve("bad"); !errors.IsKind(err, errors.KindMalformedScript) {
		t.Errorf("failed instantiate left a registry entry: %v", err)
	}
}

func TestRun_Trap(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	bin := wasm.NewModuleBuilder().
		Func("boom", nil, nil, wasm.Unreachable()).
		Build()
	if err := env.Instantiate(ctx, bin, ""); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	_, err := env.Run(ctx, "", "boom")
	if !errors.IsKind(err, errors.KindRuntime) {
		t.Fatalf("trap error = %v, want runtime", err)
	}
}

func TestRun_MissingExportAndBadArgs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.Instantiate(ctx, identityModule(), ""); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if _, err := env.Run(ctx, "", "nope"); !errors.IsKind(err, errors.KindRuntime) {
		t.Errorf("missing export = %v, want runtime", err)
	}
	if _, err := env.Run(ctx, "", "identity"); !errors.IsKind(err, errors.KindRuntime) {
		t.Errorf("missing argument = %v, want runtime", err)
	}
	if _, err := env.Run(ctx, "", "identity", spectest.F64(1)); !errors.IsKind(err, errors.KindRuntime) {
		t.Errorf("wrong argument type = %v, want runtime", err)
	}
}

func TestInstantiate_SpectestImports(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	bin := wasm.NewModuleBuilder().
		ImportFunc("spectest", "print_i32", []wasm.ValType{wasm.ValI32}, nil).
		Func("go", nil, nil, wasm.Cat(wasm.I32Const(7), wasm.Call(0))).
		Build()

	if err := env.Instantiate(ctx, bin, ""); err != nil {
		t.Fatalf("instantiate with spectest import: %v", err)
	}
	if _, err := env.Run(ctx, "", "go"); err != nil {
		t.Fatalf("run with host call: %v", err)
	}
}
