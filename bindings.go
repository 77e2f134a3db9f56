package spectest

// FuncType is the signature of one host import binding.
type FuncType struct {
	Params  []ValKind
	Results []ValKind
}

// Bindings is the fixed set of host import bindings a program may link
// against, keyed by module namespace then field name. The harness binds
// every module against the same set; an import outside it is a program
// construction failure, not a validation failure.
type Bindings map[string]map[string]FuncType

// Lookup returns the binding for module.field, if present.
func (b Bindings) Lookup(module, field string) (FuncType, bool) {
	fields, ok := b[module]
	if !ok {
		return FuncType{}, false
	}
	ft, ok := fields[field]
	return ft, ok
}

// SpecBindings returns the reference interpreter's "spectest" host module
// surface: the print functions negative and link tests import.
func SpecBindings() Bindings {
	return Bindings{
		"spectest": {
			"print":         {},
			"print_i32":     {Params: []ValKind{KindI32}},
			"print_i64":     {Params: []ValKind{KindI64}},
			"print_f32":     {Params: []ValKind{KindF32}},
			"print_f64":     {Params: []ValKind{KindF64}},
			"print_f64_f64": {Params: []ValKind{KindF64, KindF64}},
		},
	}
}
