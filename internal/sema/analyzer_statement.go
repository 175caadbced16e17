package sema

import (
	"latte/internal/ast"
	"latte/internal/errors"
	"latte/internal/types"
)

// checkFunction type-checks one function or method body. class is nil
// for free functions; for methods it supplies both the declared return
// type resolution context and the implicit `self` binding.
func (a *Analyzer) checkFunction(fn *ast.Function, class *ClassInfo) {
	prevClass, prevReturn := a.currentClass, a.currentReturn
	a.currentClass = class
	a.currentReturn = a.resolveTypeExpr(fn.ReturnType, fn.GetMetadata().Pos)
	a.scopes = NewScopeStack()

	if class != nil {
		a.scopes.Declare("self", VarBinding{Type: types.ClassType{Name: class.Name}, IsParam: true})
	}
	seen := map[string]bool{}
	for _, p := range fn.Params {
		if seen[p.Name] {
			a.errs.Addf(errors.KindRedeclaration, p.GetMetadata().Pos, "duplicate parameter %q", p.Name)
			continue
		}
		seen[p.Name] = true
		pt := a.resolveTypeExpr(p.Type, p.GetMetadata().Pos)
		a.scopes.Declare(p.Name, VarBinding{Type: pt, DeclaredAt: p.GetMetadata().Pos, IsParam: true})
		p.GetMetadata().Type = pt
	}

	a.checkBlockNewScope(fn.Body)

	a.currentClass, a.currentReturn = prevClass, prevReturn
}

func (a *Analyzer) checkBlockNewScope(b *ast.Block) {
	a.scopes.Push()
	a.checkBlock(b)
	a.scopes.Pop()
}

func (a *Analyzer) checkBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		a.checkStmt(s)
	}
}

func (a *Analyzer) checkStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.Block:
		a.checkBlockNewScope(v)

	case *ast.DeclStmt:
		declType := a.resolveTypeExpr(v.Type, v.GetMetadata().Pos)
		if v.Init != nil {
			initType := a.checkExpr(v.Init)
			if !types.Subtype(a.classes, initType, declType) {
				a.errs.Addf(errors.KindTypeMismatch, v.Init.GetMetadata().Pos,
					"cannot initialize %q of type %s with value of type %s", v.Name, types.Fmt(declType), types.Fmt(initType))
			}
		}
		if !a.scopes.Declare(v.Name, VarBinding{Type: declType, DeclaredAt: v.GetMetadata().Pos}) {
			a.errs.Addf(errors.KindRedeclaration, v.GetMetadata().Pos, "%q is already declared in this scope", v.Name)
		}
		v.GetMetadata().Type = declType

	case *ast.AssignStmt:
		targetType := a.checkExpr(v.Target)
		valueType := a.checkExpr(v.Value)
		if !types.Subtype(a.classes, valueType, targetType) {
			a.errs.Addf(errors.KindTypeMismatch, v.Value.GetMetadata().Pos,
				"cannot assign value of type %s to target of type %s", types.Fmt(valueType), types.Fmt(targetType))
		}

	case *ast.ExprStmt:
		a.checkExpr(v.X)

	case *ast.ReturnStmt:
		if v.Value == nil {
			if !types.Equal(a.currentReturn, types.VoidType{}) {
				a.errs.Addf(errors.KindTypeMismatch, v.GetMetadata().Pos, "missing return value of type %s", types.Fmt(a.currentReturn))
			}
			return
		}
		got := a.checkExpr(v.Value)
		if !types.Subtype(a.classes, got, a.currentReturn) {
			a.errs.Addf(errors.KindTypeMismatch, v.Value.GetMetadata().Pos,
				"return value of type %s is not compatible with declared return type %s", types.Fmt(got), types.Fmt(a.currentReturn))
		}

	case *ast.IfStmt:
		condType := a.checkExpr(v.Cond)
		if !types.Equal(condType, types.BoolType{}) {
			a.errs.Addf(errors.KindTypeMismatch, v.Cond.GetMetadata().Pos, "if condition must be boolean, got %s", types.Fmt(condType))
		}
		a.checkStmt(v.Then)
		if v.Else != nil {
			a.checkStmt(v.Else)
		}

	case *ast.WhileStmt:
		condType := a.checkExpr(v.Cond)
		if !types.Equal(condType, types.BoolType{}) {
			a.errs.Addf(errors.KindTypeMismatch, v.Cond.GetMetadata().Pos, "while condition must be boolean, got %s", types.Fmt(condType))
		}
		a.checkStmt(v.Body)

	case *ast.ForEachStmt:
		arrType := a.checkExpr(v.Array)
		arr, ok := arrType.(types.ArrayType)
		if !ok {
			a.errs.Addf(errors.KindBadIndex, v.Array.GetMetadata().Pos, "for-each requires an array, got %s", types.Fmt(arrType))
		}
		elemType := a.resolveTypeExpr(v.ElemType, v.GetMetadata().Pos)
		if ok && !types.Equal(elemType, arr.Elem) {
			a.errs.Addf(errors.KindTypeMismatch, v.GetMetadata().Pos,
				"for-each variable type %s does not match array element type %s", types.Fmt(elemType), types.Fmt(arr.Elem))
		}
		a.scopes.Push()
		a.scopes.Declare(v.VarName, VarBinding{Type: elemType, DeclaredAt: v.GetMetadata().Pos})
		a.checkStmt(v.Body)
		a.scopes.Pop()

	case *ast.EmptyStmt:
		// nothing to check
	}
}
