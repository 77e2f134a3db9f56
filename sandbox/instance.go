package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge/spectest"
)

// Instance is one live sandbox execution context inside a region.
type Instance struct {
	module api.Module
	region *Region
}

// Call invokes the named export with the given arguments, exactly once.
// Missing exports, argument mismatches and guest traps all surface as
// plain sandbox errors; the layer above classifies them.
func (i *Instance) Call(ctx context.Context, field string, args ...spectest.Value) (spectest.RetVal, error) {
	fn := i.module.ExportedFunction(field)
	if fn == nil {
		return spectest.RetVal{}, fmt.Errorf("no exported function %q", field)
	}

	params := fn.Definition().ParamTypes()
	if len(params) != len(args) {
		return spectest.RetVal{}, fmt.Errorf("%q takes %d arguments, got %d", field, len(params), len(args))
	}

	raw := make([]uint64, len(args))
	for idx, arg := range args {
		if toAPIType(arg.Kind()) != params[idx] {
			return spectest.RetVal{}, fmt.Errorf("%q argument %d: have %s, want %s",
				field, idx, arg.Kind(), api.ValueTypeName(params[idx]))
		}
		raw[idx] = arg.Raw()
	}

	results, err := fn.Call(ctx, raw...)
	if err != nil {
		return spectest.RetVal{}, err
	}

	if len(results) == 0 {
		return spectest.RetVal{}, nil
	}
	return spectest.Ret(results[0]), nil
}

// Exports returns the names of the instance's exported functions.
func (i *Instance) Exports() []string {
	defs := i.module.ExportedFunctionDefinitions()
	out := make([]string, 0, len(defs))
	for name := range defs {
		out = append(out, name)
	}
	return out
}
