package engine

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/errors"
)

// CompiledUnit is the machine-independent compiled representation of one
// program, tagged with the instance name for diagnostics.
type CompiledUnit struct {
	program *Program
	name    string
}

func (u *CompiledUnit) Name() string      { return u.name }
func (u *CompiledUnit) Program() *Program { return u.program }

// Compile lowers a validated program through the code generator at the
// given optimization level. The compiled native code lands in the engine's
// shared cache; the returned unit is the handle Codegen emits from.
//
// A failure caused by a wasm feature outside CodegenFeatures is flagged
// unsupported so the harness can skip rather than fail the case.
func (e *Engine) Compile(ctx context.Context, p *Program, name string, opt spectest.OptLevel) (*CompiledUnit, error) {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCoreFeatures(CodegenFeatures).
		WithCompilationCache(e.cache))
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, p.Module.Raw)
	if err != nil {
		b := errors.New(errors.KindCompile).Detail("compile %q", name).Cause(err)
		if isFeatureDisabled(err) {
			b.Unsupported()
		}
		return nil, b.Build()
	}
	if err := compiled.Close(ctx); err != nil {
		return nil, errors.Compile(name, err)
	}

	e.logger.Debug("compiled", zap.String("name", name), zap.Stringer("opt", opt))

	return &CompiledUnit{program: p, name: name}, nil
}

// Object image layout: magic, format version, name, module bytes. The
// linker repackages an object into the shared artifact the loader opens.
var objectMagic = [4]byte{'W', 'A', 'O', 'T'}

const objectVersion byte = 1

// Codegen emits the relocatable object image for a compiled unit.
func (u *CompiledUnit) Codegen() ([]byte, error) {
	raw := u.program.Module.Raw

	out := make([]byte, 0, len(objectMagic)+1+4+len(u.name)+4+len(raw))
	out = append(out, objectMagic[:]...)
	out = append(out, objectVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(u.name)))
	out = append(out, u.name...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(raw)))
	out = append(out, raw...)
	return out, nil
}
