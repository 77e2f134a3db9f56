package wasm

// Opcodes used when synthesizing fixture modules.
const (
	OpUnreachable byte = 0x00
	OpEnd         byte = 0x0b
	OpCall        byte = 0x10
	OpDrop        byte = 0x1a
	OpLocalGet    byte = 0x20
	OpI32Const    byte = 0x41
)

// Instruction helpers for fixture bodies.

func I32Const(v int32) []byte {
	return append([]byte{OpI32Const}, sleb32(v)...)
}

func LocalGet(idx uint32) []byte {
	return append([]byte{OpLocalGet}, uleb(idx)...)
}

func Call(idx uint32) []byte {
	return append([]byte{OpCall}, uleb(idx)...)
}

func Unreachable() []byte {
	return []byte{OpUnreachable}
}

// Cat concatenates instruction sequences into one body.
func Cat(instrs ...[]byte) []byte {
	var out []byte
	for _, ins := range instrs {
		out = append(out, ins...)
	}
	return out
}

type builderFunc struct {
	export  string
	body    []byte
	typeIdx uint32
}

type builderImport struct {
	module  string
	field   string
	kind    ExternKind
	typeIdx uint32 // ExternFunc
	memMin  uint32 // ExternMemory
}

// ModuleBuilder synthesizes small core wasm binaries for tests. Function
// bodies are raw instruction bytes without local declarations or the
// trailing end opcode; the builder frames them.
type ModuleBuilder struct {
	types   []FuncType
	imports []builderImport
	funcs   []builderFunc
	memory  *Limits
}

func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{}
}

// ImportFunc declares a function import. Imports occupy the low function
// indices, in declaration order, and must be declared before local funcs
// are referenced by Call.
func (b *ModuleBuilder) ImportFunc(module, field string, params, results []ValType) *ModuleBuilder {
	b.imports = append(b.imports, builderImport{
		module:  module,
		field:   field,
		kind:    ExternFunc,
		typeIdx: b.typeIndex(params, results),
	})
	return b
}

// ImportMemory declares a memory import of min pages with no maximum.
func (b *ModuleBuilder) ImportMemory(module, field string, min uint32) *ModuleBuilder {
	b.imports = append(b.imports, builderImport{
		module: module,
		field:  field,
		kind:   ExternMemory,
		memMin: min,
	})
	return b
}

// Func declares a local function. A non-empty export name exports it.
func (b *ModuleBuilder) Func(export string, params, results []ValType, body []byte) *ModuleBuilder {
	b.funcs = append(b.funcs, builderFunc{
		export:  export,
		body:    body,
		typeIdx: b.typeIndex(params, results),
	})
	return b
}

// Memory declares a linear memory of min pages with no maximum.
func (b *ModuleBuilder) Memory(min uint32) *ModuleBuilder {
	b.memory = &Limits{Min: min}
	return b
}

func (b *ModuleBuilder) typeIndex(params, results []ValType) uint32 {
	for i, t := range b.types {
		if typeEqual(t.Params, params) && typeEqual(t.Results, results) {
			return uint32(i)
		}
	}
	b.types = append(b.types, FuncType{Params: params, Results: results})
	return uint32(len(b.types) - 1)
}

func typeEqual(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Build encodes the module.
func (b *ModuleBuilder) Build() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(b.types) > 0 {
		var p []byte
		p = append(p, uleb(uint32(len(b.types)))...)
		for _, t := range b.types {
			p = append(p, 0x60)
			p = append(p, uleb(uint32(len(t.Params)))...)
			for _, v := range t.Params {
				p = append(p, byte(v))
			}
			p = append(p, uleb(uint32(len(t.Results)))...)
			for _, v := range t.Results {
				p = append(p, byte(v))
			}
		}
		out = section(out, SectionType, p)
	}

	if len(b.imports) > 0 {
		var p []byte
		p = append(p, uleb(uint32(len(b.imports)))...)
		for _, imp := range b.imports {
			p = append(p, name(imp.module)...)
			p = append(p, name(imp.field)...)
			p = append(p, byte(imp.kind))
			switch imp.kind {
			case ExternFunc:
				p = append(p, uleb(imp.typeIdx)...)
			case ExternMemory:
				p = append(p, 0x00)
				p = append(p, uleb(imp.memMin)...)
			}
		}
		out = section(out, SectionImport, p)
	}

	if len(b.funcs) > 0 {
		var p []byte
		p = append(p, uleb(uint32(len(b.funcs)))...)
		for _, f := range b.funcs {
			p = append(p, uleb(f.typeIdx)...)
		}
		out = section(out, SectionFunction, p)
	}

	if b.memory != nil {
		p := []byte{0x01, 0x00}
		p = append(p, uleb(b.memory.Min)...)
		out = section(out, SectionMemory, p)
	}

	importedFuncs := 0
	for _, imp := range b.imports {
		if imp.kind == ExternFunc {
			importedFuncs++
		}
	}
	var exports []Export
	for i, f := range b.funcs {
		if f.export != "" {
			exports = append(exports, Export{
				Name:  f.export,
				Kind:  ExternFunc,
				Index: uint32(importedFuncs + i),
			})
		}
	}
	if len(exports) > 0 {
		var p []byte
		p = append(p, uleb(uint32(len(exports)))...)
		for _, e := range exports {
			p = append(p, name(e.Name)...)
			p = append(p, byte(e.Kind))
			p = append(p, uleb(e.Index)...)
		}
		out = section(out, SectionExport, p)
	}

	if len(b.funcs) > 0 {
		var p []byte
		p = append(p, uleb(uint32(len(b.funcs)))...)
		for _, f := range b.funcs {
			body := []byte{0x00} // no local declarations
			body = append(body, f.body...)
			body = append(body, OpEnd)
			p = append(p, uleb(uint32(len(body)))...)
			p = append(p, body...)
		}
		out = section(out, SectionCode, p)
	}

	return out
}

func section(dst []byte, id byte, payload []byte) []byte {
	dst = append(dst, id)
	dst = append(dst, uleb(uint32(len(payload)))...)
	return append(dst, payload...)
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb32(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
