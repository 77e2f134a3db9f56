package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/engine"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/instance"
	"github.com/wasmforge/spectest/sandbox"
	"github.com/wasmforge/spectest/wasm"
)

// fallbackName tags compiled output of unnamed modules for diagnostics.
const fallbackName = "default"

// Config carries the fixed per-run settings every instantiation shares.
type Config struct {
	Bindings spectest.Bindings
	Heap     spectest.HeapConfig
	Limits   spectest.Limits
	OptLevel spectest.OptLevel
	Linker   Linker
	Logger   *zap.Logger
}

// DefaultConfig returns the harness defaults: spectest bindings, minimal
// heap budget, default limits, the system linker, no logging.
func DefaultConfig() Config {
	return Config{
		Bindings: spectest.SpecBindings(),
		Heap:     spectest.DefaultHeap(),
		Limits:   spectest.DefaultLimits(),
		OptLevel: spectest.OptDefault,
		Linker:   DefaultLinker(),
		Logger:   zap.NewNop(),
	}
}

// Pipeline compiles module bytes into live instances.
type Pipeline struct {
	engine *engine.Engine
	cfg    Config
	logger *zap.Logger
}

// New creates a pipeline over the given engine. Zero-value Config fields
// are filled from DefaultConfig.
func New(eng *engine.Engine, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.Bindings == nil {
		cfg.Bindings = def.Bindings
	}
	if cfg.Heap == (spectest.HeapConfig{}) {
		cfg.Heap = def.Heap
	}
	if cfg.Limits == (spectest.Limits{}) {
		cfg.Limits = def.Limits
	}
	if cfg.Linker == nil {
		cfg.Linker = def.Linker
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return &Pipeline{engine: eng, cfg: cfg, logger: cfg.Logger}
}

// Instantiate runs the full pipeline for one module. On success the
// returned instance is live and owned by the caller; on failure nothing
// the caller can observe has changed — partially created sandbox state is
// torn down and the scoped temporary directory is removed either way.
func (p *Pipeline) Instantiate(ctx context.Context, moduleBytes []byte, name string) (*instance.Instance, error) {
	m, err := wasm.ParseModule(moduleBytes)
	if err != nil {
		return nil, errors.Deserialize(err)
	}

	program, err := p.engine.BuildProgram(ctx, m, p.cfg.Bindings, p.cfg.Heap)
	if err != nil {
		return nil, err
	}

	compileName := name
	if compileName == "" {
		compileName = fallbackName
	}
	unit, err := p.engine.Compile(ctx, program, compileName, p.cfg.OptLevel)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "codegen")
	if err != nil {
		return nil, errors.IO(err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			p.logger.Warn("remove codegen dir", zap.String("dir", dir), zap.Error(rmErr))
		}
	}()

	objPath := filepath.Join(dir, "a.o")
	soPath := filepath.Join(dir, "a.so")

	object, err := unit.Codegen()
	if err != nil {
		return nil, errors.Codegen("emit object", err)
	}
	if err := os.WriteFile(objPath, object, 0o644); err != nil {
		return nil, errors.Codegen("write object", err)
	}

	if err := p.cfg.Linker.Link(ctx, objPath, soPath); err != nil {
		return nil, errors.Codegen("link shared object", err)
	}

	loadable, err := p.engine.Load(soPath)
	if err != nil {
		return nil, err
	}

	region, err := sandbox.Create(ctx, p.engine, p.cfg.Limits, p.cfg.Bindings)
	if err != nil {
		return nil, errors.Instantiate(err)
	}

	sb, err := region.Instantiate(ctx, loadable)
	if err != nil {
		// Roll back the partially created region so a failed directive
		// leaves no live sandbox behind.
		if closeErr := region.Close(ctx); closeErr != nil {
			p.logger.Warn("close region after failed instantiate", zap.Error(closeErr))
		}
		return nil, errors.Instantiate(err)
	}

	p.logger.Debug("instantiated",
		zap.String("name", compileName),
		zap.Strings("exports", m.ExportNames()))

	return instance.New(program, loadable, region, sb), nil
}
