package sema

import (
	"latte/internal/ast"
	"latte/internal/errors"
	"latte/internal/types"
)

// checkExpr type-checks e, writes the resolved type (and, for reference
// nodes, the Resolution) into e's Metadata, and returns the resolved
// type for the caller's own checks. On any recoverable error the
// returned type is a best-effort recovery value — callers never see a
// nil Type, so the rest of the pass can keep checking the sibling tree
// without special-casing "unknown".
func (a *Analyzer) checkExpr(e ast.Expr) types.Type {
	t := a.checkExprKind(e)
	e.GetMetadata().Type = t
	return t
}

func (a *Analyzer) checkExprKind(e ast.Expr) types.Type {
	switch v := e.(type) {
	case *ast.IntLit:
		return types.IntType{}
	case *ast.BoolLit:
		return types.BoolType{}
	case *ast.StringLit:
		return types.StrType{}
	case *ast.NullLit:
		return types.NullType{}

	case *ast.IdentExpr:
		return a.checkIdent(v)
	case *ast.UnaryExpr:
		return a.checkUnary(v)
	case *ast.BinaryExpr:
		return a.checkBinary(v)
	case *ast.CallExpr:
		return a.checkCall(v)
	case *ast.MethodCallExpr:
		return a.checkMethodCall(v)
	case *ast.FieldAccessExpr:
		return a.checkFieldAccess(v)
	case *ast.IndexExpr:
		return a.checkIndex(v)
	case *ast.NewObjectExpr:
		return a.checkNewObject(v)
	case *ast.NewArrayExpr:
		return a.checkNewArray(v)
	case *ast.CastExpr:
		return a.checkCast(v)
	}
	return types.VoidType{}
}

func (a *Analyzer) checkIdent(v *ast.IdentExpr) types.Type {
	b, ok := a.scopes.Lookup(v.Name)
	if !ok {
		if a.currentClass != nil {
			if f, ok := a.currentClass.FieldOffset(v.Name); ok {
				v.GetMetadata().Res = &ast.Resolution{Kind: ast.ResolveField, ClassName: a.currentClass.Name, SlotIndex: f.Slot, VarType: f.Type}
				return f.Type
			}
		}
		a.errs.Addf(errors.KindUnresolvedName, v.GetMetadata().Pos, "undefined identifier %q", v.Name)
		return types.VoidType{}
	}
	kind := ast.ResolveLocal
	if b.IsParam {
		kind = ast.ResolveParam
	}
	v.GetMetadata().Res = &ast.Resolution{Kind: kind, VarType: b.Type}
	return b.Type
}

func (a *Analyzer) checkUnary(v *ast.UnaryExpr) types.Type {
	operand := a.checkExpr(v.Operand)
	switch v.Op {
	case ast.OpNeg:
		if !types.Equal(operand, types.IntType{}) {
			a.errs.Addf(errors.KindTypeMismatch, v.GetMetadata().Pos, "unary - requires int, got %s", types.Fmt(operand))
			return types.IntType{}
		}
		return types.IntType{}
	case ast.OpNot:
		if !types.Equal(operand, types.BoolType{}) {
			a.errs.Addf(errors.KindTypeMismatch, v.GetMetadata().Pos, "unary ! requires boolean, got %s", types.Fmt(operand))
			return types.BoolType{}
		}
		return types.BoolType{}
	}
	return types.VoidType{}
}

func (a *Analyzer) checkBinary(v *ast.BinaryExpr) types.Type {
	left := a.checkExpr(v.Left)
	right := a.checkExpr(v.Right)
	pos := v.GetMetadata().Pos

	switch v.Op {
	case ast.OpAdd:
		if types.Equal(left, types.IntType{}) && types.Equal(right, types.IntType{}) {
			return types.IntType{}
		}
		if types.Equal(left, types.StrType{}) && types.Equal(right, types.StrType{}) {
			return types.StrType{}
		}
		a.errs.Addf(errors.KindTypeMismatch, pos, "+ requires (int,int) or (string,string), got (%s,%s)", types.Fmt(left), types.Fmt(right))
		return types.IntType{}

	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if !types.Equal(left, types.IntType{}) || !types.Equal(right, types.IntType{}) {
			a.errs.Addf(errors.KindTypeMismatch, pos, "%s requires (int,int), got (%s,%s)", v.Op, types.Fmt(left), types.Fmt(right))
		}
		return types.IntType{}

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !types.Equal(left, types.IntType{}) || !types.Equal(right, types.IntType{}) {
			a.errs.Addf(errors.KindTypeMismatch, pos, "%s requires (int,int), got (%s,%s)", v.Op, types.Fmt(left), types.Fmt(right))
		}
		return types.BoolType{}

	case ast.OpEq, ast.OpNe:
		if _, ok := types.CommonSupertype(a.classes, left, right); !ok {
			a.errs.Addf(errors.KindTypeMismatch, pos, "%s requires operands with a common type, got (%s,%s)", v.Op, types.Fmt(left), types.Fmt(right))
		}
		return types.BoolType{}

	case ast.OpAnd, ast.OpOr:
		if !types.Equal(left, types.BoolType{}) || !types.Equal(right, types.BoolType{}) {
			a.errs.Addf(errors.KindTypeMismatch, pos, "%s requires (boolean,boolean), got (%s,%s)", v.Op, types.Fmt(left), types.Fmt(right))
		}
		return types.BoolType{}
	}
	return types.VoidType{}
}

func (a *Analyzer) checkArgs(pos ast.Position, calleeDesc string, params []types.Type, args []ast.Expr) {
	if len(params) != len(args) {
		a.errs.Addf(errors.KindBadCall, pos, "%s expects %d argument(s), got %d", calleeDesc, len(params), len(args))
	}
	n := len(params)
	if len(args) < n {
		n = len(args)
	}
	for i := 0; i < n; i++ {
		argType := a.checkExpr(args[i])
		if !types.Subtype(a.classes, argType, params[i]) {
			a.errs.Addf(errors.KindBadCall, args[i].GetMetadata().Pos,
				"%s argument %d: cannot use %s as %s", calleeDesc, i+1, types.Fmt(argType), types.Fmt(params[i]))
		}
	}
	for i := n; i < len(args); i++ {
		a.checkExpr(args[i])
	}
}

func (a *Analyzer) checkCall(v *ast.CallExpr) types.Type {
	sig, ok := a.functions.Get(v.Callee)
	if !ok {
		a.errs.Addf(errors.KindUnresolvedName, v.GetMetadata().Pos, "undefined function %q", v.Callee)
		for _, arg := range v.Args {
			a.checkExpr(arg)
		}
		return types.VoidType{}
	}
	a.checkArgs(v.GetMetadata().Pos, "function "+v.Callee, sig.Params, v.Args)
	v.GetMetadata().Res = &ast.Resolution{Kind: ast.ResolveFunction, Signature: sig}
	return sig.Ret
}

func (a *Analyzer) checkMethodCall(v *ast.MethodCallExpr) types.Type {
	recvType := a.checkExpr(v.Receiver)
	cls, ok := recvType.(types.ClassType)
	if !ok {
		a.errs.Addf(errors.KindBadReceiver, v.Receiver.GetMetadata().Pos, "method call receiver must be an object, got %s", types.Fmt(recvType))
		for _, arg := range v.Args {
			a.checkExpr(arg)
		}
		return types.VoidType{}
	}
	ci, _ := a.classes.Get(cls.Name)
	if ci == nil {
		return types.VoidType{}
	}
	m, ok := ci.MethodSlot(v.Method)
	if !ok {
		a.errs.Addf(errors.KindUnresolvedName, v.GetMetadata().Pos, "class %q has no method %q", cls.Name, v.Method)
		for _, arg := range v.Args {
			a.checkExpr(arg)
		}
		return types.VoidType{}
	}
	a.checkArgs(v.GetMetadata().Pos, "method "+v.Method, m.Signature.Params, v.Args)
	v.GetMetadata().Res = &ast.Resolution{Kind: ast.ResolveMethod, ClassName: cls.Name, SlotIndex: m.Slot, Signature: m.Signature}
	return m.Signature.Ret
}

func (a *Analyzer) checkFieldAccess(v *ast.FieldAccessExpr) types.Type {
	recvType := a.checkExpr(v.Receiver)

	if arr, ok := recvType.(types.ArrayType); ok {
		if v.Field == "length" {
			return types.IntType{}
		}
		a.errs.Addf(errors.KindUnresolvedName, v.GetMetadata().Pos, "array has no field %q (elem %s)", v.Field, types.Fmt(arr.Elem))
		return types.VoidType{}
	}

	cls, ok := recvType.(types.ClassType)
	if !ok {
		a.errs.Addf(errors.KindBadReceiver, v.Receiver.GetMetadata().Pos, "field access requires an object or array, got %s", types.Fmt(recvType))
		return types.VoidType{}
	}
	ci, _ := a.classes.Get(cls.Name)
	if ci == nil {
		return types.VoidType{}
	}
	f, ok := ci.FieldOffset(v.Field)
	if !ok {
		a.errs.Addf(errors.KindUnresolvedName, v.GetMetadata().Pos, "class %q has no field %q", cls.Name, v.Field)
		return types.VoidType{}
	}
	v.GetMetadata().Res = &ast.Resolution{Kind: ast.ResolveField, ClassName: cls.Name, SlotIndex: f.Slot, VarType: f.Type}
	return f.Type
}

func (a *Analyzer) checkIndex(v *ast.IndexExpr) types.Type {
	arrType := a.checkExpr(v.Array)
	idxType := a.checkExpr(v.Index)
	if !types.Equal(idxType, types.IntType{}) {
		a.errs.Addf(errors.KindBadIndex, v.Index.GetMetadata().Pos, "array index must be int, got %s", types.Fmt(idxType))
	}
	arr, ok := arrType.(types.ArrayType)
	if !ok {
		a.errs.Addf(errors.KindBadIndex, v.Array.GetMetadata().Pos, "cannot index non-array type %s", types.Fmt(arrType))
		return types.VoidType{}
	}
	return arr.Elem
}

func (a *Analyzer) checkNewObject(v *ast.NewObjectExpr) types.Type {
	if _, ok := a.classes.Get(v.ClassName); !ok {
		a.errs.Addf(errors.KindUnresolvedName, v.GetMetadata().Pos, "undefined class %q", v.ClassName)
		return types.VoidType{}
	}
	return types.ClassType{Name: v.ClassName}
}

func (a *Analyzer) checkNewArray(v *ast.NewArrayExpr) types.Type {
	sizeType := a.checkExpr(v.Size)
	if !types.Equal(sizeType, types.IntType{}) {
		a.errs.Addf(errors.KindBadIndex, v.Size.GetMetadata().Pos, "array size must be int, got %s", types.Fmt(sizeType))
	}
	elem := a.resolveTypeExpr(v.ElemType, v.GetMetadata().Pos)
	return types.ArrayType{Elem: elem}
}

func (a *Analyzer) checkCast(v *ast.CastExpr) types.Type {
	target := a.resolveTypeExpr(v.Target, v.GetMetadata().Pos)
	_, isClass := target.(types.ClassType)
	_, isArray := target.(types.ArrayType)
	if !isClass && !isArray {
		a.errs.Addf(errors.KindBadCast, v.GetMetadata().Pos, "cast target must be a class or array type, got %s", types.Fmt(target))
	}
	if _, ok := v.Value.(*ast.NullLit); !ok {
		a.errs.Addf(errors.KindBadCast, v.GetMetadata().Pos, "only (T) null is a valid cast")
	} else {
		v.Value.GetMetadata().Type = types.NullType{}
	}
	return target
}
