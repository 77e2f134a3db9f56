package wasm

// Binary format constants.
const (
	Magic   uint32 = 0x6d736100 // "\0asm"
	Version uint32 = 1
)

// Section IDs.
const (
	SectionCustom    byte = 0
	SectionType      byte = 1
	SectionImport    byte = 2
	SectionFunction  byte = 3
	SectionTable     byte = 4
	SectionMemory    byte = 5
	SectionGlobal    byte = 6
	SectionExport    byte = 7
	SectionStart     byte = 8
	SectionElement   byte = 9
	SectionCode      byte = 10
	SectionData      byte = 11
	SectionDataCount byte = 12
)

// ValType is a core wasm value type byte.
type ValType byte

const (
	ValI32 ValType = 0x7f
	ValI64 ValType = 0x7e
	ValF32 ValType = 0x7d
	ValF64 ValType = 0x7c
)

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ExternKind discriminates import and export entities.
type ExternKind byte

const (
	ExternFunc   ExternKind = 0
	ExternTable  ExternKind = 1
	ExternMemory ExternKind = 2
	ExternGlobal ExternKind = 3
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Import is one import entry. TypeIndex is meaningful only for ExternFunc.
type Import struct {
	Module    string
	Field     string
	Kind      ExternKind
	TypeIndex uint32
}

// Export is one export entry. Index is into the combined (imports first)
// index space of the entity kind.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Limits is a memory or table size range. Max is meaningful when HasMax.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Module is the structural form of a parsed binary: enough shape for the
// pipeline to bind imports and name exports, none of the code.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type indices of locally defined functions
	Memories []Limits
	Exports  []Export
	Raw      []byte // the original binary, retained for the compiler
}

// ImportedFuncs returns only the function imports, in declaration order.
func (m *Module) ImportedFuncs() []Import {
	var out []Import
	for _, imp := range m.Imports {
		if imp.Kind == ExternFunc {
			out = append(out, imp)
		}
	}
	return out
}

// ExportNames returns the names of all function exports.
func (m *Module) ExportNames() []string {
	var out []string
	for _, e := range m.Exports {
		if e.Kind == ExternFunc {
			out = append(out, e.Name)
		}
	}
	return out
}
