package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// CodegenFeatures is the wasm feature set the code generator implements.
// Modules that validate but require features outside this set fail
// compilation with an unsupported-feature classification.
const CodegenFeatures = api.CoreFeaturesV1

// Engine is the compilation backend. It is safe to share one Engine across
// every pipeline invocation of a script run; the compilation cache is the
// shared state that makes loaded modules cheap to re-instantiate.
type Engine struct {
	cache  wazero.CompilationCache
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine with a fresh compilation cache.
func New(opts ...Option) *Engine {
	e := &Engine{
		cache:  wazero.NewCompilationCache(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache exposes the shared compilation cache to sandbox regions.
func (e *Engine) Cache() wazero.CompilationCache {
	return e.cache
}

// Close releases the compilation cache. All regions must be closed first.
func (e *Engine) Close(ctx context.Context) error {
	return e.cache.Close(ctx)
}
