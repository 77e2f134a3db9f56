package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/wasmforge/spectest/errors"
)

// LoadableModule is a shareable handle to a loaded artifact. The registry
// entry and the sandbox region that instantiates it hold the same handle;
// the native code behind it lives in the engine cache for as long as the
// engine does.
type LoadableModule struct {
	engine *Engine
	name   string
	raw    []byte
}

func (m *LoadableModule) Name() string { return m.name }

// WasmBytes returns the module image a region compiles against the shared
// cache. The slice must not be mutated.
func (m *LoadableModule) WasmBytes() []byte { return m.raw }

// Load opens a shared artifact produced by the linker.
func (e *Engine) Load(path string) (*LoadableModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(err)
	}

	name, raw, err := parseArtifact(data)
	if err != nil {
		return nil, errors.Load(fmt.Errorf("%s: %w", path, err))
	}

	return &LoadableModule{engine: e, name: name, raw: raw}, nil
}

func parseArtifact(data []byte) (string, []byte, error) {
	header := len(objectMagic) + 1
	if len(data) < header {
		return "", nil, fmt.Errorf("artifact truncated at %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(objectMagic)], objectMagic[:]) {
		return "", nil, fmt.Errorf("bad artifact magic %q", data[:len(objectMagic)])
	}
	if v := data[len(objectMagic)]; v != objectVersion {
		return "", nil, fmt.Errorf("artifact format version %d, want %d", v, objectVersion)
	}

	rest := data[header:]
	if len(rest) < 4 {
		return "", nil, fmt.Errorf("artifact name header truncated")
	}
	nameLen := binary.LittleEndian.Uint32(rest)
	rest = rest[4:]
	if uint32(len(rest)) < nameLen {
		return "", nil, fmt.Errorf("artifact name truncated")
	}
	name := string(rest[:nameLen])
	rest = rest[nameLen:]

	if len(rest) < 4 {
		return "", nil, fmt.Errorf("artifact module header truncated")
	}
	rawLen := binary.LittleEndian.Uint32(rest)
	rest = rest[4:]
	if uint32(len(rest)) != rawLen {
		return "", nil, fmt.Errorf("artifact module length %d, have %d bytes", rawLen, len(rest))
	}

	return name, rest, nil
}
