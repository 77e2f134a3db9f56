package script

import (
	"context"

	"go.uber.org/zap"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/engine"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/instance"
	"github.com/wasmforge/spectest/pipeline"
)

// Config configures a script environment. The zero value is usable and
// equivalent to DefaultConfig.
type Config struct {
	Pipeline pipeline.Config
	Logger   *zap.Logger
}

// DefaultConfig returns the harness defaults.
func DefaultConfig() Config {
	return Config{
		Pipeline: pipeline.DefaultConfig(),
		Logger:   zap.NewNop(),
	}
}

// Env owns the registry of live instances and executes script directives
// against it. Every directive either succeeds or yields exactly one
// classified error for the comparator to record.
type Env struct {
	engine   *engine.Engine
	pipeline *pipeline.Pipeline
	registry *instance.Registry
	logger   *zap.Logger
}

// NewEnv creates a fresh environment with an empty registry.
func NewEnv(cfg Config) *Env {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Pipeline.Logger == nil {
		cfg.Pipeline.Logger = cfg.Logger
	}

	eng := engine.New(engine.WithLogger(cfg.Logger))
	return &Env{
		engine:   eng,
		pipeline: pipeline.New(eng, cfg.Pipeline),
		registry: instance.NewRegistry(),
		logger:   cfg.Logger,
	}
}

// Instantiate compiles and instantiates a module, appending it to the
// registry under an optional name. The registry is unchanged on failure.
func (e *Env) Instantiate(ctx context.Context, moduleBytes []byte, name string) error {
	inst, err := e.pipeline.Instantiate(ctx, moduleBytes, name)
	if err != nil {
		e.logger.Debug("instantiate failed", zap.String("name", name), zap.Error(err))
		return err
	}
	e.registry.Append(name, inst)
	e.logger.Info("instance defined",
		zap.String("name", name),
		zap.Int("registry", e.registry.Len()))
	return nil
}

// Run resolves an instance by optional name and invokes the named export.
func (e *Env) Run(ctx context.Context, name, field string, args ...spectest.Value) (spectest.RetVal, error) {
	inst, err := e.registry.Resolve(name)
	if err != nil {
		return spectest.RetVal{}, err
	}
	return inst.Run(ctx, field, args...)
}

// Register re-registers the instance resolved by name under the alias.
func (e *Env) Register(name, alias string) error {
	if alias == "" {
		return errors.MalformedScript("register requires a name")
	}
	if err := e.registry.Register(name, alias); err != nil {
		return err
	}
	e.logger.Info("instance registered", zap.String("as", alias))
	return nil
}

// DeleteLast removes and tears down the most recently defined instance.
// Calling it with an empty registry is a script authoring error.
func (e *Env) DeleteLast(ctx context.Context) error {
	if e.registry.Len() == 0 {
		return errors.MalformedScript("delete with no defined instances")
	}
	inst := e.registry.DeleteLast()
	if err := inst.Close(ctx); err != nil {
		e.logger.Warn("close deleted instance", zap.Error(err))
	}
	return nil
}

// Resolve exposes read-only instance lookup to the comparator.
func (e *Env) Resolve(name string) (*instance.Instance, error) {
	return e.registry.Resolve(name)
}

// Len returns the number of live instances.
func (e *Env) Len() int {
	return e.registry.Len()
}

// Close tears down every remaining instance and releases the engine.
func (e *Env) Close(ctx context.Context) error {
	err := e.registry.Close(ctx)
	if engErr := e.engine.Close(ctx); err == nil {
		err = engErr
	}
	return err
}
