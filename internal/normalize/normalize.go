// Package normalize implements the block normalizer: it decides,
// statically, whether every reachable path through a function body
// ends in a return, appends an implicit return to void functions that
// lack one, and reports MissingReturn for non-void functions that lack
// one. It walks statement lists computing a single derived boolean per
// statement and combines children according to the statement kind.
package normalize

import (
	"latte/internal/ast"
	"latte/internal/errors"
)

// Normalize runs the normalizer over every function and method in prog,
// returning a new Program (functions that already terminate on every
// path are returned unchanged; void functions missing a trailing return
// get one appended). Requires prog to have already been constant-folded
// so that `if (true)`/`if (false)` conditions are literal.
func Normalize(prog *ast.Program) (*ast.Program, []errors.CompilerError) {
	n := &normalizer{}
	out := &ast.Program{
		Base:       prog.Base,
		Functions:  make(map[string]*ast.Function, len(prog.Functions)),
		Classes:    make(map[string]*ast.Class, len(prog.Classes)),
		FuncOrder:  prog.FuncOrder,
		ClassOrder: prog.ClassOrder,
	}
	for name, fn := range prog.Functions {
		out.Functions[name] = n.normalizeFunction(fn)
	}
	for name, cls := range prog.Classes {
		cp := *cls
		methods := make([]*ast.Function, len(cls.Methods))
		for i, m := range cls.Methods {
			methods[i] = n.normalizeFunction(m)
		}
		cp.Methods = methods
		out.Classes[name] = &cp
	}
	return out, n.errs.Errors()
}

type normalizer struct {
	errs errors.Collector
}

func (n *normalizer) normalizeFunction(fn *ast.Function) *ast.Function {
	isVoid := fn.ReturnType.Name == "void" && !fn.ReturnType.IsArray
	returns := n.blockReturns(fn.Body)

	if returns {
		return fn
	}
	if isVoid {
		fp := *fn
		body := *fn.Body
		body.Stmts = append(append([]ast.Stmt{}, fn.Body.Stmts...), &ast.EmptyStmt{})
		fp.Body = &body
		return &fp
	}
	n.errs.Addf(errors.KindMissingReturn, fn.GetMetadata().Pos,
		"function %q does not return on every path", fn.Name)
	return fn
}

// blockReturns: a block `{...; S}` definitely returns iff its last
// statement does (an empty block does not).
func (n *normalizer) blockReturns(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	return n.stmtReturns(b.Stmts[len(b.Stmts)-1])
}

func (n *normalizer) stmtReturns(s ast.Stmt) bool {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Block:
		return n.blockReturns(v)
	case *ast.IfStmt:
		return n.ifReturns(v)
	case *ast.WhileStmt:
		return n.whileReturns(v)
	default:
		// DeclStmt, AssignStmt, ExprStmt, ForEachStmt, EmptyStmt: none of
		// these terminate a path by themselves.
		return false
	}
}

func (n *normalizer) ifReturns(v *ast.IfStmt) bool {
	if lit, ok := v.Cond.(*ast.BoolLit); ok {
		// if(true) S / if(false) S: analyze only the live branch.
		if lit.Value {
			return n.stmtReturns(v.Then)
		}
		if v.Else == nil {
			return false
		}
		return n.stmtReturns(v.Else)
	}
	if v.Else == nil {
		return false
	}
	return n.stmtReturns(v.Then) && n.stmtReturns(v.Else)
}

func (n *normalizer) whileReturns(v *ast.WhileStmt) bool {
	// while(true) S returns iff S contains no reachable break — Latte
	// has no break statement, so any `while (true)` body that is
	// otherwise well-formed never falls through.
	if lit, ok := v.Cond.(*ast.BoolLit); ok && lit.Value {
		return true
	}
	return false
}
