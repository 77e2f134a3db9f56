package spectest

// OptLevel selects the code generator's optimization level. Conformance
// runs pin a single level so results are reproducible across directives.
type OptLevel uint8

const (
	OptNone OptLevel = iota
	OptDefault
	OptSpeed
)

func (o OptLevel) String() string {
	switch o {
	case OptNone:
		return "none"
	case OptDefault:
		return "default"
	case OptSpeed:
		return "speed"
	default:
		return "unknown"
	}
}

// HeapConfig bounds the linear memory a program may request. Pages are
// wasm pages (64KiB).
type HeapConfig struct {
	// MinPages is the number of pages reserved up front for each instance.
	MinPages uint32
	// MaxPages caps growth; instantiation fails when a module declares a
	// larger minimum.
	MaxPages uint32
}

// DefaultHeap returns the harness heap budget: minimal reservation, modest
// growth ceiling. Spec-suite modules are tiny.
func DefaultHeap() HeapConfig {
	return HeapConfig{MinPages: 1, MaxPages: 64}
}

// Limits bounds the resources a sandbox region grants its instances.
type Limits struct {
	// MemoryPages is the hard ceiling on linear memory per instance.
	MemoryPages uint32
	// TableElements caps indirect-call table size.
	TableElements uint32
}

// DefaultLimits returns the default per-region resource limits.
func DefaultLimits() Limits {
	return Limits{MemoryPages: 64, TableElements: 1024}
}
