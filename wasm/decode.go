package wasm

import (
	"errors"
	"fmt"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule decodes the structure of a core WebAssembly binary. It checks
// binary well-formedness only; a module that parses here can still fail
// semantic validation later.
func ParseModule(data []byte) (*Module, error) {
	r := newReader(data)

	magic, err := r.u32le()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.u32le()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{Raw: data}

	// Non-custom sections must appear in canonical order; DataCount sits
	// between Element and Code.
	var lastOrder int

	for r.len() > 0 {
		id, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("section header: %w", err)
		}
		size, err := r.uleb()
		if err != nil {
			return nil, fmt.Errorf("section size: %w", err)
		}
		payload, err := r.bytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}

		if id != SectionCustom {
			order := sectionOrder(id)
			if order < 0 {
				return nil, fmt.Errorf("unknown section id %d", id)
			}
			if order <= lastOrder {
				return nil, fmt.Errorf("section %d appears out of order", id)
			}
			lastOrder = order
		}

		sr := newReader(payload)
		switch id {
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionImport:
			err = parseImportSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		default:
			// Tables, globals, code and data are framed but not modeled;
			// the engine revalidates the full binary.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
		if sr.len() > 0 {
			return nil, fmt.Errorf("section %d: %d trailing bytes", id, sr.len())
		}
	}

	return m, nil
}

func sectionOrder(id byte) int {
	switch id {
	case SectionType, SectionImport, SectionFunction, SectionTable,
		SectionMemory, SectionGlobal, SectionExport, SectionStart,
		SectionElement:
		return int(id)
	case SectionDataCount:
		return int(SectionElement) + 1
	case SectionCode:
		return int(SectionElement) + 2
	case SectionData:
		return int(SectionElement) + 3
	default:
		return -1
	}
}

func parseTypeSection(r *reader, m *Module) error {
	count, err := r.uleb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		form, err := r.byte()
		if err != nil {
			return err
		}
		if form != 0x60 {
			return fmt.Errorf("type %d: unexpected form 0x%02x", i, form)
		}
		var ft FuncType
		if ft.Params, err = parseValTypes(r); err != nil {
			return fmt.Errorf("type %d params: %w", i, err)
		}
		if ft.Results, err = parseValTypes(r); err != nil {
			return fmt.Errorf("type %d results: %w", i, err)
		}
		m.Types = append(m.Types, ft)
	}
	return nil
}

func parseValTypes(r *reader) ([]ValType, error) {
	count, err := r.uleb()
	if err != nil {
		return nil, err
	}
	out := make([]ValType, 0, count)
	for i := uint32(0); i < count; i++ {
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		switch ValType(b) {
		case ValI32, ValI64, ValF32, ValF64:
			out = append(out, ValType(b))
		default:
			return nil, fmt.Errorf("invalid value type 0x%02x", b)
		}
	}
	return out, nil
}

func parseImportSection(r *reader, m *Module) error {
	count, err := r.uleb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		var imp Import
		if imp.Module, err = r.name(); err != nil {
			return fmt.Errorf("import %d module: %w", i, err)
		}
		if imp.Field, err = r.name(); err != nil {
			return fmt.Errorf("import %d field: %w", i, err)
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		imp.Kind = ExternKind(kind)
		switch imp.Kind {
		case ExternFunc:
			if imp.TypeIndex, err = r.uleb(); err != nil {
				return fmt.Errorf("import %d type index: %w", i, err)
			}
		case ExternTable:
			if _, err = r.byte(); err != nil { // reftype
				return err
			}
			if _, err = parseLimits(r); err != nil {
				return fmt.Errorf("import %d table: %w", i, err)
			}
		case ExternMemory:
			if _, err = parseLimits(r); err != nil {
				return fmt.Errorf("import %d memory: %w", i, err)
			}
		case ExternGlobal:
			if _, err = r.bytes(2); err != nil { // valtype + mutability
				return err
			}
		default:
			return fmt.Errorf("import %d: invalid kind 0x%02x", i, kind)
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func parseFunctionSection(r *reader, m *Module) error {
	count, err := r.uleb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		idx, err := r.uleb()
		if err != nil {
			return fmt.Errorf("func %d: %w", i, err)
		}
		m.Funcs = append(m.Funcs, idx)
	}
	return nil
}

func parseMemorySection(r *reader, m *Module) error {
	count, err := r.uleb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		lim, err := parseLimits(r)
		if err != nil {
			return fmt.Errorf("memory %d: %w", i, err)
		}
		m.Memories = append(m.Memories, lim)
	}
	return nil
}

func parseLimits(r *reader) (Limits, error) {
	flag, err := r.byte()
	if err != nil {
		return Limits{}, err
	}
	if flag > 1 {
		return Limits{}, fmt.Errorf("invalid limits flag 0x%02x", flag)
	}
	var lim Limits
	if lim.Min, err = r.uleb(); err != nil {
		return Limits{}, err
	}
	if flag == 1 {
		lim.HasMax = true
		if lim.Max, err = r.uleb(); err != nil {
			return Limits{}, err
		}
	}
	return lim, nil
}

func parseExportSection(r *reader, m *Module) error {
	count, err := r.uleb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		var exp Export
		if exp.Name, err = r.name(); err != nil {
			return fmt.Errorf("export %d name: %w", i, err)
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		if kind > byte(ExternGlobal) {
			return fmt.Errorf("export %d: invalid kind 0x%02x", i, kind)
		}
		exp.Kind = ExternKind(kind)
		if exp.Index, err = r.uleb(); err != nil {
			return fmt.Errorf("export %d index: %w", i, err)
		}
		m.Exports = append(m.Exports, exp)
	}
	return nil
}
