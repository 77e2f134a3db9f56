package spectest

import (
	"fmt"
	"math"
)

// ValKind identifies one of the four core wasm value types.
type ValKind uint8

const (
	KindI32 ValKind = iota
	KindI64
	KindF32
	KindF64
)

func (k ValKind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	default:
		return fmt.Sprintf("valkind(%d)", uint8(k))
	}
}

// Value is one typed argument to a guest function. Floats are stored by
// their raw bit pattern so NaN payloads survive the trip through the
// sandbox unchanged.
type Value struct {
	bits uint64
	kind ValKind
}

func I32(v int32) Value   { return Value{bits: uint64(uint32(v)), kind: KindI32} }
func I64(v int64) Value   { return Value{bits: uint64(v), kind: KindI64} }
func F32(v float32) Value { return Value{bits: uint64(math.Float32bits(v)), kind: KindF32} }
func F64(v float64) Value { return Value{bits: math.Float64bits(v), kind: KindF64} }

// F32Bits and F64Bits construct float values from raw bit patterns, as
// conformance scripts express NaN expectations.
func F32Bits(bits uint32) Value { return Value{bits: uint64(bits), kind: KindF32} }
func F64Bits(bits uint64) Value { return Value{bits: bits, kind: KindF64} }

func (v Value) Kind() ValKind { return v.kind }

// Raw returns the value packed into 64 bits the way the sandbox ABI
// expects: integers zero-extended, floats by bit pattern.
func (v Value) Raw() uint64 { return v.bits }

func (v Value) I32() int32   { return int32(uint32(v.bits)) }
func (v Value) I64() int64   { return int64(v.bits) }
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }

func (v Value) String() string {
	switch v.kind {
	case KindI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case KindI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case KindF32:
		return fmt.Sprintf("f32:%g", v.F32())
	default:
		return fmt.Sprintf("f64:%g", v.F64())
	}
}

// RetVal is the untyped return of a guest invocation. The comparator knows
// the expected type from the script, so accessors reinterpret the raw bits
// on demand; a void function yields the zero RetVal.
type RetVal struct {
	bits uint64
}

// Ret wraps raw return bits from the sandbox.
func Ret(bits uint64) RetVal { return RetVal{bits: bits} }

func (r RetVal) Bits() uint64 { return r.bits }
func (r RetVal) I32() int32   { return int32(uint32(r.bits)) }
func (r RetVal) I64() int64   { return int64(r.bits) }
func (r RetVal) F32() float32 { return math.Float32frombits(uint32(r.bits)) }
func (r RetVal) F64() float64 { return math.Float64frombits(r.bits) }
