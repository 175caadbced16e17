// Package runtime declares the fixed ABI of the small C runtime the
// generated IR is linked against: symbol names and signatures,
// bit-exact. internal/sema reads it to seed the user-callable builtins;
// internal/ir names the runtime helpers it calls directly and does not
// read this table.
package runtime

import "latte/internal/types"

// Symbol is one runtime-provided function: its link name, parameter
// types, and return type. The IR printer emits no extern declarations
// from this table, and the generator's own runtime call sites are not
// checked against it.
type Symbol struct {
	Name   string
	Params []types.Type
	Ret    types.Type
}

// Symbols is every runtime entry point the generated IR may call.
// __str_eq__ supports string `==`/`!=`, which compiles to a runtime
// equality call rather than a raw pointer comparison; named
// consistently with the table's other __str_*__ entries. See DESIGN.md.
var Symbols = []Symbol{
	{Name: "printInt", Params: []types.Type{types.IntType{}}, Ret: types.VoidType{}},
	{Name: "printString", Params: []types.Type{types.StrType{}}, Ret: types.VoidType{}},
	{Name: "readInt", Params: nil, Ret: types.IntType{}},
	{Name: "readString", Params: nil, Ret: types.StrType{}},
	{Name: "error", Params: nil, Ret: types.VoidType{}},
	{Name: "__str_init__", Params: []types.Type{types.IntType{}}, Ret: types.StrType{}},
	{Name: "__str_concat__", Params: []types.Type{types.StrType{}, types.StrType{}}, Ret: types.StrType{}},
	{Name: "__array_init__", Params: []types.Type{types.IntType{}}, Ret: types.StrType{}},
	{Name: "__str_eq__", Params: []types.Type{types.StrType{}, types.StrType{}}, Ret: types.BoolType{}},
}

// Lookup finds a runtime symbol by name.
func Lookup(name string) (Symbol, bool) {
	for _, s := range Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// BuiltinFunctionNames returns the names of every free function the
// type checker should treat as already declared, so user programs can
// call printInt/printString/readInt/readString as ordinary function
// calls without their own declaration.
func BuiltinFunctionNames() []string {
	names := make([]string, 0, len(Symbols))
	for _, s := range Symbols {
		if s.Name == "error" || s.Name == "__str_eq__" {
			continue // internal-only: not user-callable from Latte source
		}
		if len(s.Name) >= 2 && s.Name[:2] == "__" {
			continue
		}
		names = append(names, s.Name)
	}
	return names
}
