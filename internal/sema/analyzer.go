package sema

import "latte/internal/ast"
import "latte/internal/errors"

// Check is the package-level entry point used by the compiler driver:
// it builds a fresh Analyzer and runs the full pass described in
// context.go's Analyze. The returned *Analyzer stays alive so the
// driver can pull ClassLayouts and FunctionSignatures out of it once
// the error slice is empty.
func Check(prog *ast.Program) (*ast.Program, *Analyzer, []errors.CompilerError) {
	a := NewAnalyzer()
	out, errs := a.Analyze(prog)
	return out, a, errs
}

// ClassLayouts exposes the resolved class table after Analyze has run,
// for internal/ir to consume when emitting struct declarations and
// vtables. The driver calls this immediately after Check succeeds
// (err slice empty).
func (a *Analyzer) ClassLayouts() *ClassTable { return a.classes }

// FunctionSignatures exposes the resolved free-function table.
func (a *Analyzer) FunctionSignatures() *FunctionTable { return a.functions }
