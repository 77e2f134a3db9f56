package sandbox

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/engine"
)

// Region is an isolated memory arena for one or more instances. It owns
// the raw memory backing every sandbox instantiated inside it.
type Region struct {
	runtime wazero.Runtime
	limits  spectest.Limits
	nextID  atomic.Uint64
}

// Create allocates a region against the engine's compilation cache with
// the given heap budget and resource limits, and installs the host
// bindings every guest may import.
func Create(ctx context.Context, eng *engine.Engine, limits spectest.Limits, bindings spectest.Bindings) (*Region, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCoreFeatures(engine.CodegenFeatures).
		WithCompilationCache(eng.Cache()).
		WithMemoryLimitPages(limits.MemoryPages))

	r := &Region{runtime: rt, limits: limits}
	if err := r.installBindings(ctx, bindings); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return r, nil
}

func (r *Region) installBindings(ctx context.Context, bindings spectest.Bindings) error {
	namespaces := make([]string, 0, len(bindings))
	for ns := range bindings {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		builder := r.runtime.NewHostModuleBuilder(ns)
		names := make([]string, 0, len(bindings[ns]))
		for name := range bindings[ns] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ft := bindings[ns][name]
			results := toAPITypes(ft.Results)
			builder.NewFunctionBuilder().
				WithGoFunction(hostStub(len(results)), toAPITypes(ft.Params), results).
				Export(name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return fmt.Errorf("install host bindings %q: %w", ns, err)
		}
	}
	return nil
}

// hostStub returns a host function that ignores its arguments and returns
// zeros. The reference interpreter's spectest module only observes calls;
// the harness compares return values of the guest, not host side effects.
func hostStub(nresults int) api.GoFunc {
	return api.GoFunc(func(_ context.Context, stack []uint64) {
		for i := 0; i < nresults; i++ {
			stack[i] = 0
		}
	})
}

// Instantiate creates a live sandbox for a loaded module inside this
// region. The module's start function runs to completion before
// Instantiate returns; a start trap is an instantiation failure.
func (r *Region) Instantiate(ctx context.Context, lm *engine.LoadableModule) (*Instance, error) {
	compiled, err := r.runtime.CompileModule(ctx, lm.WasmBytes())
	if err != nil {
		return nil, fmt.Errorf("open loadable module %q: %w", lm.Name(), err)
	}

	modName := fmt.Sprintf("%s.%d", lm.Name(), r.nextID.Add(1))
	mod, err := r.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(modName).WithStartFunctions())
	if err != nil {
		return nil, err
	}

	return &Instance{module: mod, region: r}, nil
}

// Close tears down the region and every instance inside it.
func (r *Region) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

func toAPITypes(kinds []spectest.ValKind) []api.ValueType {
	out := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		out[i] = toAPIType(k)
	}
	return out
}

func toAPIType(k spectest.ValKind) api.ValueType {
	switch k {
	case spectest.KindI32:
		return api.ValueTypeI32
	case spectest.KindI64:
		return api.ValueTypeI64
	case spectest.KindF32:
		return api.ValueTypeF32
	default:
		return api.ValueTypeF64
	}
}
