package ir

import "latte/internal/sema"

// buildClassIR emits the struct layout and vtable for one resolved
// class. Field types are read straight off the resolved ClassInfo
// (already parent-first), so the struct's slot order matches
// internal/sema's FieldOffset numbering with +1 for the implicit
// vtable-pointer slot 0.
func (g *Generator) buildClassIR(ci *sema.ClassInfo) *ClassIR {
	out := &ClassIR{
		Name:       ci.Name,
		StructName: structName(ci.Name),
		VTableName: vtableSymbol(ci.Name),
	}
	for _, f := range ci.Fields {
		out.FieldTypes = append(out.FieldTypes, f.Type)
	}
	for _, m := range ci.Methods {
		out.VTableFns = append(out.VTableFns, methodSymbol(m.Owner, m.Name))
	}
	return out
}
