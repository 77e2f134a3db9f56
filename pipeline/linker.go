package pipeline

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/wasmforge/spectest/errors"
)

// Linker turns an object file into a shared loadable artifact.
type Linker interface {
	// Link reads objPath and writes the artifact to outPath.
	Link(ctx context.Context, objPath, outPath string) error
}

// LinkFunc adapts a function to the Linker interface.
type LinkFunc func(ctx context.Context, objPath, outPath string) error

func (f LinkFunc) Link(ctx context.Context, objPath, outPath string) error {
	return f(ctx, objPath, outPath)
}

// ExecLinker invokes an external linker process as
//
//	path args... objPath -o outPath
//
// A non-zero exit status is reported as a structured errors.LinkerError
// carrying the object path and the captured diagnostic stream.
type ExecLinker struct {
	Path string
	Args []string
}

// NewExecLinker builds an ExecLinker for the given command.
func NewExecLinker(path string, args ...string) *ExecLinker {
	return &ExecLinker{Path: path, Args: args}
}

// DefaultLinker links shared objects with the system linker, the way the
// native toolchain contract specifies.
func DefaultLinker() Linker {
	return NewExecLinker("ld", "-shared")
}

func (l *ExecLinker) Link(ctx context.Context, objPath, outPath string) error {
	args := make([]string, 0, len(l.Args)+3)
	args = append(args, l.Args...)
	args = append(args, objPath, "-o", outPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.Path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &errors.LinkerError{
			ObjectPath: objPath,
			Stderr:     stderr.String(),
			Err:        err,
		}
	}
	return nil
}
