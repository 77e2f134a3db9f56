package instance

import (
	"context"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/engine"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/sandbox"
)

// Instance is the live, runnable unit produced by a successful pipeline
// run: the program representation kept for introspection, the shared
// loadable module handle, the region that owns the instance memory, and
// the live sandbox context.
type Instance struct {
	program *engine.Program
	module  *engine.LoadableModule
	region  *sandbox.Region
	sb      *sandbox.Instance
}

// New bundles the pipeline outputs into an instance.
func New(program *engine.Program, module *engine.LoadableModule, region *sandbox.Region, sb *sandbox.Instance) *Instance {
	return &Instance{program: program, module: module, region: region, sb: sb}
}

// Program returns the program representation the instance was built from.
func (i *Instance) Program() *engine.Program { return i.program }

// Module returns the shared loadable module handle.
func (i *Instance) Module() *engine.LoadableModule { return i.module }

// Run invokes the named export inside the sandbox. Any sandbox-level
// fault (trap, argument mismatch, missing export) is reported as a
// runtime error wrapping the underlying sandbox error. Invocation is
// exactly-once; there is no retry.
func (i *Instance) Run(ctx context.Context, field string, args ...spectest.Value) (spectest.RetVal, error) {
	ret, err := i.sb.Call(ctx, field, args...)
	if err != nil {
		return spectest.RetVal{}, errors.Runtime(err)
	}
	return ret, nil
}

// Exports lists the exported function names, for diagnostics.
func (i *Instance) Exports() []string {
	return i.sb.Exports()
}

// Close tears down the instance's region and releases its memory.
func (i *Instance) Close(ctx context.Context) error {
	return i.region.Close(ctx)
}
