package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/wasm"
)

// Program is the validated in-memory form of a module bound against the
// harness import bindings and heap configuration. It is owned by the
// pipeline during one instantiation and retained afterward only on the
// resulting instance, for introspection.
type Program struct {
	Module   *wasm.Module
	Bindings spectest.Bindings
	Heap     spectest.HeapConfig
}

// BuildProgram binds a structurally decoded module against the fixed host
// bindings and heap budget, then runs full semantic validation.
//
// Failures split by sub-kind: a module that violates wasm semantic rules
// yields a validation error; an import shape the harness cannot bind yields
// a program error, flagged unsupported when the shape is a capability the
// harness intentionally does not implement (non-function imports).
func (e *Engine) BuildProgram(ctx context.Context, m *wasm.Module, bindings spectest.Bindings, heap spectest.HeapConfig) (*Program, error) {
	if err := e.validate(ctx, m.Raw); err != nil {
		return nil, errors.Validation(err)
	}

	for _, imp := range m.Imports {
		if imp.Kind != wasm.ExternFunc {
			return nil, errors.New(errors.KindProgram).
				Detail("import %s.%s: %s imports are not supported", imp.Module, imp.Field, imp.Kind).
				Unsupported().
				Build()
		}
		ft, ok := bindings.Lookup(imp.Module, imp.Field)
		if !ok {
			return nil, errors.New(errors.KindProgram).
				Detail("no binding for import %s.%s", imp.Module, imp.Field).
				Build()
		}
		if imp.TypeIndex >= uint32(len(m.Types)) {
			return nil, errors.New(errors.KindProgram).
				Detail("import %s.%s: type index %d out of range", imp.Module, imp.Field, imp.TypeIndex).
				Build()
		}
		if !signatureMatches(m.Types[imp.TypeIndex], ft) {
			return nil, errors.New(errors.KindProgram).
				Detail("import %s.%s: signature does not match binding", imp.Module, imp.Field).
				Build()
		}
	}

	for _, mem := range m.Memories {
		if mem.Min > heap.MaxPages {
			return nil, errors.New(errors.KindProgram).
				Detail("memory requires %d pages, heap budget is %d", mem.Min, heap.MaxPages).
				Build()
		}
	}

	e.logger.Debug("program built",
		zap.Int("imports", len(m.Imports)),
		zap.Int("exports", len(m.Exports)))

	return &Program{Module: m, Bindings: bindings, Heap: heap}, nil
}

// validate runs wazero's validator over the binary without caching the
// result. The full V2 feature set is enabled here so that feature gaps in
// the code generator surface at compile time, not as validation failures.
func (e *Engine) validate(ctx context.Context, raw []byte) error {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().
		WithCoreFeatures(api.CoreFeaturesV2))
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, raw)
	if err != nil {
		return err
	}
	return compiled.Close(ctx)
}

func signatureMatches(t wasm.FuncType, binding spectest.FuncType) bool {
	if len(t.Params) != len(binding.Params) || len(t.Results) != len(binding.Results) {
		return false
	}
	for i, p := range t.Params {
		if kindOf(p) != binding.Params[i] {
			return false
		}
	}
	for i, r := range t.Results {
		if kindOf(r) != binding.Results[i] {
			return false
		}
	}
	return true
}

func kindOf(v wasm.ValType) spectest.ValKind {
	switch v {
	case wasm.ValI32:
		return spectest.KindI32
	case wasm.ValI64:
		return spectest.KindI64
	case wasm.ValF32:
		return spectest.KindF32
	case wasm.ValF64:
		return spectest.KindF64
	default:
		panic(fmt.Sprintf("unreachable value type 0x%02x", byte(v)))
	}
}
