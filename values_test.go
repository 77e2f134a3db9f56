package spectest

import (
	"math"
	"testing"
)

func TestValue_Raw(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind ValKind
		raw  uint64
	}{
		{name: "i32", v: I32(42), kind: KindI32, raw: 42},
		{name: "i32 negative", v: I32(-1), kind: KindI32, raw: 0xffffffff},
		{name: "i64", v: I64(-1), kind: KindI64, raw: 0xffffffffffffffff},
		{name: "f32", v: F32(1.5), kind: KindF32, raw: uint64(math.Float32bits(1.5))},
		{name: "f64", v: F64(-0.5), kind: KindF64, raw: math.Float64bits(-0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Kind() != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.v.Kind(), tt.kind)
			}
			if tt.v.Raw() != tt.raw {
				t.Errorf("Raw = %#x, want %#x", tt.v.Raw(), tt.raw)
			}
		})
	}
}

func TestValue_NaNPayloadPreserved(t *testing.T) {
	// A quiet NaN with a nonstandard payload must round-trip bit-exactly.
	const payload = uint32(0x7fc00001)
	v := F32Bits(payload)
	if math.Float32bits(v.F32()) != payload {
		t.Errorf("f32 NaN payload = %#x, want %#x", math.Float32bits(v.F32()), payload)
	}

	const payload64 = uint64(0x7ff8000000000001)
	w := F64Bits(payload64)
	if math.Float64bits(w.F64()) != payload64 {
		t.Errorf("f64 NaN payload = %#x, want %#x", math.Float64bits(w.F64()), payload64)
	}
}

func TestRetVal(t *testing.T) {
	r := Ret(uint64(uint32(math.Float32bits(2.5))))
	if r.F32() != 2.5 {
		t.Errorf("F32 = %g, want 2.5", r.F32())
	}

	r = Ret(0xffffffffffffffff)
	if r.I64() != -1 {
		t.Errorf("I64 = %d, want -1", r.I64())
	}
	if r.I32() != -1 {
		t.Errorf("I32 = %d, want -1", r.I32())
	}

	var zero RetVal
	if zero.Bits() != 0 {
		t.Errorf("zero RetVal bits = %d", zero.Bits())
	}
}

func TestBindings_Lookup(t *testing.T) {
	b := SpecBindings()

	ft, ok := b.Lookup("spectest", "print_i32")
	if !ok {
		t.Fatal("print_i32 should be bound")
	}
	if len(ft.Params) != 1 || ft.Params[0] != KindI32 || len(ft.Results) != 0 {
		t.Errorf("print_i32 signature = %+v", ft)
	}

	if _, ok := b.Lookup("spectest", "mystery"); ok {
		t.Error("unknown field should not resolve")
	}
	if _, ok := b.Lookup("env", "print"); ok {
		t.Error("unknown namespace should not resolve")
	}
}
