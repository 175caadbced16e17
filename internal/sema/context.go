package sema

import (
	"latte/internal/ast"
	"latte/internal/errors"
	"latte/internal/runtime"
	"latte/internal/types"
)

// Analyzer holds all state for one compilation's semantic pass: a
// single long-lived struct threading the class/function tables and an
// error collector through every recursive-descent helper.
type Analyzer struct {
	classes   *ClassTable
	functions *FunctionTable
	scopes    *ScopeStack
	errs      errors.Collector

	// currentClass is non-nil while checking a method body, enabling
	// unqualified field access to resolve against `self`.
	currentClass *ClassInfo
	// currentReturn is the declared return type of the function/method
	// currently being checked, used to validate `return` statements.
	currentReturn types.Type
}

// NewAnalyzer constructs an empty Analyzer and seeds the function table
// with the runtime's user-callable builtins (printInt, printString,
// readInt, readString) so ordinary call sites resolve them without a
// Latte-side declaration.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{functions: NewFunctionTable()}
	for _, name := range runtime.BuiltinFunctionNames() {
		sym, _ := runtime.Lookup(name)
		a.functions.funcs[name] = types.FunctionType{Ret: sym.Ret, Params: sym.Params}
	}
	return a
}

// Analyze runs the full semantic pass over prog and returns the same
// Program with every expression/statement node's
// Metadata annotated in place, plus the collected user errors. An
// empty error slice means prog is now safe to hand to internal/ir.
func (a *Analyzer) Analyze(prog *ast.Program) (*ast.Program, []errors.CompilerError) {
	a.buildClassTable(prog)
	a.buildFunctionTable(prog)
	a.checkEntryPoint(prog)

	for _, name := range prog.FuncOrder {
		a.checkFunction(prog.Functions[name], nil)
	}
	for _, name := range prog.ClassOrder {
		ci, _ := a.classes.Get(name)
		for _, m := range prog.Classes[name].Methods {
			a.checkFunction(m, ci)
		}
	}
	return prog, a.errs.Errors()
}

func (a *Analyzer) buildFunctionTable(prog *ast.Program) {
	// prog.Functions is name-keyed, so a repeated declaration has already
	// collapsed to one entry by the time we get here — walk FuncOrder
	// instead, which still lists every declaration including duplicates.
	seen := map[string]bool{}
	for _, name := range prog.FuncOrder {
		fn := prog.Functions[name]
		if seen[name] {
			a.errs.Addf(errors.KindRedeclaration, fn.GetMetadata().Pos, "function %q is already declared", name)
			continue
		}
		seen[name] = true
		sig := a.functionSignature(fn)
		a.functions.funcs[name] = sig
		a.functions.decls[name] = fn
	}
}

func (a *Analyzer) checkEntryPoint(prog *ast.Program) {
	main, ok := prog.Functions["main"]
	if !ok {
		a.errs.Addf(errors.KindBadEntry, prog.GetMetadata().Pos, "program has no main function")
		return
	}
	sig := a.functionSignature(main)
	wantsInt := types.Equal(sig.Ret, types.IntType{})
	if !wantsInt || len(sig.Params) != 0 {
		a.errs.Addf(errors.KindBadEntry, main.GetMetadata().Pos, "main must have signature int()")
	}
}

func (a *Analyzer) functionSignature(fn *ast.Function) types.FunctionType {
	ret := a.resolveTypeExpr(fn.ReturnType, fn.GetMetadata().Pos)
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = a.resolveTypeExpr(p.Type, p.GetMetadata().Pos)
	}
	return types.FunctionType{Ret: ret, Params: params}
}

// resolveTypeExpr maps the syntactic TypeExpr to a semantic types.Type,
// reporting UnresolvedName for a class type that does not (yet) name a
// known builtin or declared class. Because classes are resolved to a
// fixpoint before any function body is checked, a type naming a forward
// class reference is always resolvable once buildClassTable has run.
func (a *Analyzer) resolveTypeExpr(t ast.TypeExpr, pos ast.Position) types.Type {
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
		if a.classes != nil {
			if _, ok := a.classes.Get(t.Name); ok {
				base = types.ClassType{Name: t.Name}
				break
			}
		}
		a.errs.Addf(errors.KindUnresolvedName, pos, "unknown type %q", t.Name)
		base = types.VoidType{}
	}
	if t.IsArray {
		return types.ArrayType{Elem: base}
	}
	return base
}
