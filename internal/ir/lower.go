// Package ir is the SSA code generator and printer.
package ir

import (
	"latte/internal/ast"
	"latte/internal/sema"
	"latte/internal/types"
)

// Generator lowers a type-checked *ast.Program into SSA *Program. It is
// stateless across functions (every buildFunction call gets its own
// *FunctionContext); the only state shared across the whole program is
// the string constant pool, rebuilt from scratch for each invocation.
type Generator struct {
	classes *sema.ClassTable
	funcs   *sema.FunctionTable
	strings *StringPool
}

// Lower runs code generation over a program that has already passed
// internal/sema.Check with no errors.
func Lower(prog *ast.Program, classes *sema.ClassTable, funcs *sema.FunctionTable) *Program {
	g := &Generator{classes: classes, funcs: funcs, strings: NewStringPool()}
	out := &Program{}

	for _, name := range prog.FuncOrder {
		out.Functions = append(out.Functions, g.buildFunction(prog.Functions[name], name, nil))
	}
	for _, name := range prog.ClassOrder {
		ci, _ := classes.Get(name)
		out.Classes = append(out.Classes, g.buildClassIR(ci))
		for _, m := range prog.Classes[name].Methods {
			sym := methodSymbol(name, m.Name)
			out.Functions = append(out.Functions, g.buildFunction(m, sym, ci))
		}
	}
	out.Strings = g.strings.Constants()
	return out
}

func methodSymbol(className, methodName string) string { return className + "." + methodName }
func structName(className string) string                { return "class." + className }
func vtableSymbol(className string) string              { return "vtable." + className }

// resolveType maps a syntactic TypeExpr to its semantic type without
// reporting errors: by the time code generation runs, internal/sema has
// already validated every type name in the program.
func resolveType(t ast.TypeExpr, classes *sema.ClassTable) types.Type {
	var base types.Type
	switch t.Name {
	case "int":
		base = types.IntType{}
	case "boolean":
		base = types.BoolType{}
	case "void":
		base = types.VoidType{}
	case "string":
		base = types.StrType{}
	default:
		base = types.ClassType{Name: t.Name}
	}
	if t.IsArray {
		return types.ArrayType{Elem: base}
	}
	return base
}

// funcGen is the per-function lowering pass: a FunctionContext plus the
// current variable environment (name -> the register currently holding
// its value). env is mutated in place as statements lower sequentially;
// at a control-flow join, the lowering code for that construct snapshots
// env on each incoming path and reconciles the two snapshots into phis.
type funcGen struct {
	g       *Generator
	fc      *FunctionContext
	env     map[string]Value
	retType types.Type
}

func (g *Generator) buildFunction(fn *ast.Function, symbol string, self *sema.ClassInfo) *Function {
	fc := NewFunctionContext(g.strings)
	env := map[string]Value{}
	var params []Param

	if self != nil {
		selfReg := fc.NewRegister(types.ClassType{Name: self.Name})
		params = append(params, Param{Name: "self", Type: selfReg.Type})
		env["self"] = selfReg
	}
	for _, p := range fn.Params {
		pt := resolveType(p.Type, g.classes)
		reg := fc.NewRegister(pt)
		params = append(params, Param{Name: p.Name, Type: pt})
		env[p.Name] = reg
	}

	retType := resolveType(fn.ReturnType, g.classes)
	fg := &funcGen{g: g, fc: fc, env: env, retType: retType}

	fc.Open("entry")
	fg.lowerStmts(fn.Body.Stmts)
	if !fc.Current().Terminated() {
		fc.Current().SetTerminator(&ReturnInst{})
	}
	fc.Finalize(fc.Current())

	return &Function{Name: symbol, Params: params, ReturnType: retType, Blocks: fc.Blocks()}
}

func (fg *funcGen) classInfo(name string) *sema.ClassInfo {
	ci, _ := fg.g.classes.Get(name)
	return ci
}

func (fg *funcGen) snapshot() map[string]Value {
	cp := make(map[string]Value, len(fg.env))
	for k, v := range fg.env {
		cp[k] = v
	}
	return cp
}
