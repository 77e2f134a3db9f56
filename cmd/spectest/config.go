package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/pipeline"
	"github.com/wasmforge/spectest/script"
)

// Config is the CLI configuration, loadable from a YAML file and
// overridable through SPECTEST_* environment variables
// (e.g. SPECTEST_LINKER_PATH, SPECTEST_LOGLEVEL).
type Config struct {
	Linker struct {
		Path string   `koanf:"path"`
		Args []string `koanf:"args"`
	} `koanf:"linker"`
	Heap struct {
		MinPages uint32 `koanf:"minpages"`
		MaxPages uint32 `koanf:"maxpages"`
	} `koanf:"heap"`
	Limits struct {
		MemoryPages   uint32 `koanf:"memorypages"`
		TableElements uint32 `koanf:"tableelements"`
	} `koanf:"limits"`
	OptLevel string `koanf:"optlevel"`
	LogLevel string `koanf:"loglevel"`
}

func defaultCLIConfig() Config {
	var cfg Config
	cfg.Linker.Path = "ld"
	cfg.Linker.Args = []string{"-shared"}
	heap := spectest.DefaultHeap()
	cfg.Heap.MinPages = heap.MinPages
	cfg.Heap.MaxPages = heap.MaxPages
	limits := spectest.DefaultLimits()
	cfg.Limits.MemoryPages = limits.MemoryPages
	cfg.Limits.TableElements = limits.TableElements
	cfg.OptLevel = "default"
	cfg.LogLevel = "warn"
	return cfg
}

func loadConfig(path string) (Config, error) {
	cfg := defaultCLIConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, err
		}
	}

	// SPECTEST_LINKER_PATH -> linker.path
	err := k.Load(env.Provider("SPECTEST_", ".", func(key string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, "SPECTEST_")), "_", ".", -1)
	}), nil)
	if err != nil {
		return cfg, err
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) optLevel() (spectest.OptLevel, error) {
	switch c.OptLevel {
	case "none":
		return spectest.OptNone, nil
	case "", "default":
		return spectest.OptDefault, nil
	case "speed":
		return spectest.OptSpeed, nil
	default:
		return 0, fmt.Errorf("unknown opt level %q", c.OptLevel)
	}
}

func (c Config) buildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	return zcfg.Build()
}

func (c Config) envConfig(logger *zap.Logger) script.Config {
	opt, err := c.optLevel()
	if err != nil {
		opt = spectest.OptDefault
		logger.Warn("unknown opt level, using default", zap.String("optlevel", c.OptLevel))
	}

	return script.Config{
		Logger: logger,
		Pipeline: pipeline.Config{
			Bindings: spectest.SpecBindings(),
			Heap:     spectest.HeapConfig{MinPages: c.Heap.MinPages, MaxPages: c.Heap.MaxPages},
			Limits:   spectest.Limits{MemoryPages: c.Limits.MemoryPages, TableElements: c.Limits.TableElements},
			OptLevel: opt,
			Linker:   pipeline.NewExecLinker(c.Linker.Path, c.Linker.Args...),
			Logger:   logger,
		},
	}
}
