package engine

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/wasm"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	t.Cleanup(func() {
		if err := e.Close(context.Background()); err != nil {
			t.Errorf("close engine: %v", err)
		}
	})
	return e
}

func parse(t *testing.T, bin []byte) *wasm.Module {
	t.Helper()
	m, err := wasm.ParseModule(bin)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return m
}

func answerModule(t *testing.T) *wasm.Module {
	return parse(t, wasm.NewModuleBuilder().
		Func("answer", nil, []wasm.ValType{wasm.ValI32}, wasm.I32Const(42)).
		Build())
}

func TestBuildProgram(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	bindings := spectest.SpecBindings()
	heap := spectest.DefaultHeap()

	t.Run("plain module", func(t *testing.T) {
		p, err := e.BuildProgram(ctx, answerModule(t), bindings, heap)
		if err != nil {
			t.Fatalf("build program: %v", err)
		}
		if p.Module == nil {
			t.Error("program should retain the structural module")
		}
	})

	t.Run("bound spectest import", func(t *testing.T) {
		m := parse(t, wasm.NewModuleBuilder().
			ImportFunc("spectest", "print_f64", []wasm.ValType{wasm.ValF64}, nil).
			Func("f", nil, nil, nil).
			Build())
		if _, err := e.BuildProgram(ctx, m, bindings, heap); err != nil {
			t.Fatalf("build program: %v", err)
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		m := parse(t, wasm.NewModuleBuilder().
			Func("bad", nil, []wasm.ValType{wasm.ValI32}, nil).
			Build())
		_, err := e.BuildProgram(ctx, m, bindings, heap)
		if !errors.IsKind(err, errors.KindValidation) {
			t.Fatalf("error = %v, want validation", err)
		}
		if errors.IsUnsupported(err) {
			t.Error("validation failure must not be unsupported")
		}
	})

	t.Run("unknown import is program error", func(t *testing.T) {
		m := parse(t, wasm.NewModuleBuilder().
			ImportFunc("env", "mystery", nil, nil).
			Func("f", nil, nil, nil).
			Build())
		_, err := e.BuildProgram(ctx, m, bindings, heap)
		if !errors.IsKind(err, errors.KindProgram) {
			t.Fatalf("error = %v, want program", err)
		}
		if errors.IsUnsupported(err) {
			t.Error("unknown import is a defect, not an unsupported feature")
		}
	})

	t.Run("memory import is unsupported", func(t *testing.T) {
		m := parse(t, wasm.NewModuleBuilder().
			ImportMemory("spectest", "memory", 1).
			Build())
		_, err := e.BuildProgram(ctx, m, bindings, heap)
		if !errors.IsKind(err, errors.KindProgram) {
			t.Fatalf("error = %v, want program", err)
		}
		if !errors.IsUnsupported(err) {
			t.Error("non-function imports should classify as unsupported")
		}
	})

	t.Run("heap budget exceeded", func(t *testing.T) {
		m := parse(t, wasm.NewModuleBuilder().Memory(heap.MaxPages+1).Build())
		_, err := e.BuildProgram(ctx, m, bindings, heap)
		if !errors.IsKind(err, errors.KindProgram) {
			t.Fatalf("error = %v, want program", err)
		}
	})
}

func TestCompile_Unsupported(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	// i32.extend8_s validates under the full feature set but sits outside
	// CodegenFeatures.
	body := append(wasm.I32Const(1), 0xc0)
	m := parse(t, wasm.NewModuleBuilder().
		Func("ext", nil, []wasm.ValType{wasm.ValI32}, body).
		Build())

	p, err := e.BuildProgram(ctx, m, spectest.SpecBindings(), spectest.DefaultHeap())
	if err != nil {
		t.Fatalf("build program: %v", err)
	}

	_, err = e.Compile(ctx, p, "ext", spectest.OptDefault)
	if !errors.IsKind(err, errors.KindCompile) {
		t.Fatalf("error = %v, want compile", err)
	}
	if !errors.IsUnsupported(err) {
		t.Errorf("IsUnsupported = false for feature-gated module: %v", err)
	}
}

func TestCodegenLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	p, err := e.BuildProgram(ctx, answerModule(t), spectest.SpecBindings(), spectest.DefaultHeap())
	if err != nil {
		t.Fatalf("build program: %v", err)
	}
	unit, err := e.Compile(ctx, p, "roundtrip", spectest.OptDefault)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	object, err := unit.Codegen()
	if err != nil {
		t.Fatalf("codegen: %v", err)
	}

	path := filepath.Join(t.TempDir(), "a.so")
	if err := os.WriteFile(path, object, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	lm, err := e.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lm.Name() != "roundtrip" {
		t.Errorf("loaded name = %q, want roundtrip", lm.Name())
	}
	if len(lm.WasmBytes()) == 0 {
		t.Error("loaded module has no image bytes")
	}
}

func TestLoad_Errors(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()

	write := func(t *testing.T, name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "nope.so")},
		{name: "bad magic", path: write(t, "badmagic.so", []byte("ELF\x7fwhatever"))},
		{name: "truncated", path: write(t, "short.so", []byte("WAOT"))},
		{name: "bad version", path: write(t, "badver.so", []byte{'W', 'A', 'O', 'T', 9, 0, 0, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Load(tt.path)
			if !errors.IsKind(err, errors.KindLoad) {
				t.Errorf("error = %v, want load", err)
			}
		})
	}
}

func TestIsFeatureDisabled(t *testing.T) {
	if !isFeatureDisabled(stderrors.New(`invalid instruction 0xc0: feature "sign-extension-ops" is disabled`)) {
		t.Error("disabled-feature message should classify as unsupported")
	}
	if isFeatureDisabled(stderrors.New("type mismatch on stack")) {
		t.Error("ordinary compile errors must not classify as unsupported")
	}
	if isFeatureDisabled(nil) {
		t.Error("nil is never unsupported")
	}
}
