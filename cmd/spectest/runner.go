package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wasmforge/spectest"
	"github.com/wasmforge/spectest/errors"
	"github.com/wasmforge/spectest/script"
)

// Directive is one structured script command. Script parsing proper lives
// upstream; the runner consumes directives that are already structured.
type Directive struct {
	Op string `json:"op"` // module, invoke, register, delete_last

	// module
	Path string `json:"path,omitempty"` // wasm file, relative to the script
	Hex  string `json:"hex,omitempty"`  // inline module bytes, hex-encoded
	Name string `json:"name,omitempty"`

	// invoke
	Instance string `json:"instance,omitempty"`
	Field    string `json:"field,omitempty"`
	Args     []Arg  `json:"args,omitempty"`
	Expect   *Arg   `json:"expect,omitempty"`

	// register
	As string `json:"as,omitempty"`

	// ExpectError names the taxonomy kind this directive is expected to
	// fail with (assert_invalid and friends).
	ExpectError string `json:"expect_error,omitempty"`
}

// Arg is one typed value, as a decimal string or raw bit pattern.
type Arg struct {
	Type  string `json:"type"`            // i32, i64, f32, f64
	Value string `json:"value,omitempty"` // decimal
	Bits  string `json:"bits,omitempty"`  // hex bit pattern, for NaN payloads
}

func (a Arg) decode() (spectest.Value, error) {
	if a.Bits != "" {
		bits, err := strconv.ParseUint(a.Bits, 0, 64)
		if err != nil {
			return spectest.Value{}, fmt.Errorf("bits %q: %w", a.Bits, err)
		}
		switch a.Type {
		case "i32":
			return spectest.I32(int32(uint32(bits))), nil
		case "i64":
			return spectest.I64(int64(bits)), nil
		case "f32":
			return spectest.F32Bits(uint32(bits)), nil
		case "f64":
			return spectest.F64Bits(bits), nil
		}
		return spectest.Value{}, fmt.Errorf("unknown value type %q", a.Type)
	}

	switch a.Type {
	case "i32":
		v, err := strconv.ParseInt(a.Value, 0, 32)
		if err != nil {
			// i32 literals may be written unsigned.
			u, uerr := strconv.ParseUint(a.Value, 0, 32)
			if uerr != nil {
				return spectest.Value{}, err
			}
			return spectest.I32(int32(uint32(u))), nil
		}
		return spectest.I32(int32(v)), nil
	case "i64":
		v, err := strconv.ParseInt(a.Value, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(a.Value, 0, 64)
			if uerr != nil {
				return spectest.Value{}, err
			}
			return spectest.I64(int64(u)), nil
		}
		return spectest.I64(v), nil
	case "f32":
		v, err := strconv.ParseFloat(a.Value, 32)
		if err != nil {
			return spectest.Value{}, err
		}
		return spectest.F32(float32(v)), nil
	case "f64":
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil {
			return spectest.Value{}, err
		}
		return spectest.F64(v), nil
	default:
		return spectest.Value{}, fmt.Errorf("unknown value type %q", a.Type)
	}
}

// matches compares a return value against the expectation, bit-exactly.
func (a Arg) matches(ret spectest.RetVal) bool {
	want, err := a.decode()
	if err != nil {
		return false
	}
	switch a.Type {
	case "i32", "f32":
		return uint32(want.Raw()) == uint32(ret.Bits())
	default:
		return want.Raw() == ret.Bits()
	}
}

// Outcome classifies one executed directive.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeFail
	OutcomeSkip // unsupported feature, expected by the harness
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "skip"
	}
}

// Result is the recorded outcome of one directive.
type Result struct {
	Err     error
	Detail  string
	Index   int
	Op      string
	Outcome Outcome
}

// Runner executes directives sequentially against one environment.
type Runner struct {
	env     *script.Env
	baseDir string
}

func NewRunner(env *script.Env, baseDir string) *Runner {
	return &Runner{env: env, baseDir: baseDir}
}

// Execute runs every directive to completion, recording one result each.
// A failing directive never stops the script; the comparator decides what
// a failure means.
func (r *Runner) Execute(ctx context.Context, directives []Directive) []Result {
	results := make([]Result, 0, len(directives))
	for i, d := range directives {
		res := r.execute(ctx, d)
		res.Index = i
		res.Op = d.Op
		results = append(results, res)
	}
	return results
}

func (r *Runner) execute(ctx context.Context, d Directive) Result {
	switch d.Op {
	case "module":
		bytes, err := r.moduleBytes(d)
		if err != nil {
			return Result{Outcome: OutcomeFail, Err: err}
		}
		return r.record(d, r.env.Instantiate(ctx, bytes, d.Name))

	case "invoke":
		args := make([]spectest.Value, 0, len(d.Args))
		for _, a := range d.Args {
			v, err := a.decode()
			if err != nil {
				return Result{Outcome: OutcomeFail, Err: err}
			}
			args = append(args, v)
		}
		ret, err := r.env.Run(ctx, d.Instance, d.Field, args...)
		res := r.record(d, err)
		if res.Outcome == OutcomePass && d.Expect != nil && !d.Expect.matches(ret) {
			res.Outcome = OutcomeFail
			res.Detail = fmt.Sprintf("%s returned %#x, want %s %s",
				d.Field, ret.Bits(), d.Expect.Type, d.Expect.Value)
		}
		return res

	case "register":
		return r.record(d, r.env.Register(d.Instance, d.As))

	case "delete_last":
		return r.record(d, r.env.DeleteLast(ctx))

	default:
		return Result{Outcome: OutcomeFail, Err: fmt.Errorf("unknown directive op %q", d.Op)}
	}
}

func (r *Runner) moduleBytes(d Directive) ([]byte, error) {
	if d.Hex != "" {
		return hex.DecodeString(d.Hex)
	}
	if d.Path == "" {
		return nil, fmt.Errorf("module directive needs path or hex")
	}
	path := d.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// record folds an operation error and the directive's expectation into an
// outcome.
func (r *Runner) record(d Directive, err error) Result {
	if d.ExpectError != "" {
		if err == nil {
			return Result{
				Outcome: OutcomeFail,
				Detail:  fmt.Sprintf("expected %s error, directive succeeded", d.ExpectError),
			}
		}
		if errors.IsKind(err, errors.Kind(d.ExpectError)) {
			return Result{Outcome: OutcomePass, Err: err}
		}
		return Result{
			Outcome: OutcomeFail,
			Err:     err,
			Detail:  fmt.Sprintf("expected %s error", d.ExpectError),
		}
	}

	if err == nil {
		return Result{Outcome: OutcomePass}
	}
	if errors.IsUnsupported(err) {
		return Result{Outcome: OutcomeSkip, Err: err}
	}
	return Result{Outcome: OutcomeFail, Err: err}
}

func countOutcome(results []Result, o Outcome) int {
	n := 0
	for _, r := range results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}
