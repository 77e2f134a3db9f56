package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind categorizes a script failure. The taxonomy is closed: every failure
// the core reports carries exactly one of these.
type Kind string

const (
	KindDeserialize     Kind = "deserialize"      // malformed binary
	KindValidation      Kind = "validation"       // module violates wasm semantic rules
	KindProgram         Kind = "program"          // program construction (imports, heap)
	KindCompile         Kind = "compile"          // lowering to compiled representation
	KindCodegen         Kind = "codegen"          // object emission or linking
	KindLoad            Kind = "load"             // opening the shared artifact
	KindInstantiate     Kind = "instantiate"      // sandbox instantiation
	KindRuntime         Kind = "runtime"          // guest invocation fault
	KindMalformedScript Kind = "malformed_script" // script authoring defect
	KindIO              Kind = "io"               // filesystem / temp dir
)

// Error is the structured error type used throughout the harness.
type Error struct {
	Cause       error
	Kind        Kind
	Detail      string
	Unsupported bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.Detail != "" {
		b.WriteByte(' ')
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is (or wraps) a taxonomy error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == k
}

// IsUnsupported reports whether err is a program or compile failure whose
// underlying cause is a language feature the code generator intentionally
// does not implement. The harness treats such cases as expected skips.
// All other kinds always report false.
func IsUnsupported(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	if e.Kind != KindProgram && e.Kind != KindCompile {
		return false
	}
	return e.Unsupported
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder for the given kind.
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Unsupported marks the failure as an unsupported-feature case.
func (b *Builder) Unsupported() *Builder {
	b.err.Unsupported = true
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors, one per pipeline boundary.

// Deserialize wraps a binary parse failure.
func Deserialize(cause error) *Error {
	return &Error{Kind: KindDeserialize, Cause: cause}
}

// Validation wraps a wasm semantic validation failure.
func Validation(cause error) *Error {
	return &Error{Kind: KindValidation, Cause: cause}
}

// Program wraps a program construction failure.
func Program(cause error) *Error {
	return &Error{Kind: KindProgram, Cause: cause}
}

// Compile wraps a compilation failure for the named program.
func Compile(name string, cause error) *Error {
	return &Error{Kind: KindCompile, Detail: fmt.Sprintf("compile %q", name), Cause: cause}
}

// Codegen wraps an object emission or linking failure.
func Codegen(detail string, cause error) *Error {
	return &Error{Kind: KindCodegen, Detail: detail, Cause: cause}
}

// Load wraps a failure to open a shared artifact.
func Load(cause error) *Error {
	return &Error{Kind: KindLoad, Cause: cause}
}

// Instantiate wraps a sandbox instantiation failure.
func Instantiate(cause error) *Error {
	return &Error{Kind: KindInstantiate, Cause: cause}
}

// Runtime wraps a guest invocation fault.
func Runtime(cause error) *Error {
	return &Error{Kind: KindRuntime, Cause: cause}
}

// MalformedScript reports a script authoring defect (unknown instance name,
// empty registry). Always caller-facing and non-fatal.
func MalformedScript(msg string, args ...any) *Error {
	return &Error{Kind: KindMalformedScript, Detail: fmt.Sprintf(msg, args...)}
}

// IO wraps a filesystem or temporary-directory failure.
func IO(cause error) *Error {
	return &Error{Kind: KindIO, Cause: cause}
}

// LinkerError is the structured payload of an external linker failure: the
// object that was being linked, the diagnostic stream the linker produced,
// and the process error. It is always surfaced wrapped in a KindCodegen
// Error.
type LinkerError struct {
	Err        error
	ObjectPath string
	Stderr     string
}

func (e *LinkerError) Error() string {
	var b strings.Builder
	b.WriteString("link ")
	b.WriteString(e.ObjectPath)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		b.WriteString(": ")
		b.WriteString(diag)
	}
	return b.String()
}

func (e *LinkerError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error type.
func (e *LinkerError) Is(target error) bool {
	_, ok := target.(*LinkerError)
	return ok
}
