// Package fold implements the constant folder: a pure, syntactic
// rewrite over expressions that evaluates literal-only sub-expressions
// before the block normalizer and type checker run. One case per
// ast.Expr concrete type, recursing into children first.
package fold

import (
	"latte/internal/ast"
	"latte/internal/errors"
)

// Fold rewrites every expression in prog bottom-up, returning a new
// Program — AST trees are never mutated in place, so earlier phases
// always keep the tree they started with. ConstOverflow (division
// or modulo by zero between literal operands) is the only folding
// failure and is collected rather than aborting immediately, so the
// caller sees every literal divide-by-zero in one pass.
func Fold(prog *ast.Program) (*ast.Program, []errors.CompilerError) {
	f := &folder{}
	out := &ast.Program{
		Base:       prog.Base,
		Functions:  make(map[string]*ast.Function, len(prog.Functions)),
		Classes:    make(map[string]*ast.Class, len(prog.Classes)),
		FuncOrder:  prog.FuncOrder,
		ClassOrder: prog.ClassOrder,
	}
	for name, fn := range prog.Functions {
		out.Functions[name] = f.foldFunction(fn)
	}
	for name, cls := range prog.Classes {
		out.Classes[name] = f.foldClass(cls)
	}
	return out, f.errs.Errors()
}

type folder struct {
	errs errors.Collector
}

func (f *folder) foldClass(c *ast.Class) *ast.Class {
	methods := make([]*ast.Function, len(c.Methods))
	for i, m := range c.Methods {
		methods[i] = f.foldFunction(m)
	}
	cp := *c
	cp.Methods = methods
	return &cp
}

func (f *folder) foldFunction(fn *ast.Function) *ast.Function {
	fp := *fn
	fp.Body = f.foldBlock(fn.Body)
	return &fp
}

func (f *folder) foldBlock(b *ast.Block) *ast.Block {
	stmts := make([]ast.Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = f.foldStmt(s)
	}
	bp := *b
	bp.Stmts = stmts
	return &bp
}

func (f *folder) foldStmt(s ast.Stmt) ast.Stmt {
	switch v := s.(type) {
	case *ast.Block:
		return f.foldBlock(v)
	case *ast.DeclStmt:
		vp := *v
		if v.Init != nil {
			vp.Init = f.foldExpr(v.Init)
		}
		return &vp
	case *ast.AssignStmt:
		vp := *v
		vp.Target = f.foldExpr(v.Target)
		vp.Value = f.foldExpr(v.Value)
		return &vp
	case *ast.ExprStmt:
		vp := *v
		vp.X = f.foldExpr(v.X)
		return &vp
	case *ast.ReturnStmt:
		vp := *v
		if v.Value != nil {
			vp.Value = f.foldExpr(v.Value)
		}
		return &vp
	case *ast.IfStmt:
		vp := *v
		vp.Cond = f.foldExpr(v.Cond)
		vp.Then = f.foldStmt(v.Then)
		if v.Else != nil {
			vp.Else = f.foldStmt(v.Else)
		}
		return &vp
	case *ast.WhileStmt:
		vp := *v
		vp.Cond = f.foldExpr(v.Cond)
		vp.Body = f.foldStmt(v.Body)
		return &vp
	case *ast.ForEachStmt:
		vp := *v
		vp.Array = f.foldExpr(v.Array)
		vp.Body = f.foldStmt(v.Body)
		return &vp
	default:
		return s
	}
}

func (f *folder) foldExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.UnaryExpr:
		operand := f.foldExpr(v.Operand)
		return f.foldUnary(v, operand)
	case *ast.BinaryExpr:
		left := f.foldExpr(v.Left)
		right := f.foldExpr(v.Right)
		return f.foldBinary(v, left, right)
	case *ast.CallExpr:
		vp := *v
		vp.Args = f.foldExprs(v.Args)
		return &vp
	case *ast.MethodCallExpr:
		vp := *v
		vp.Receiver = f.foldExpr(v.Receiver)
		vp.Args = f.foldExprs(v.Args)
		return &vp
	case *ast.FieldAccessExpr:
		vp := *v
		vp.Receiver = f.foldExpr(v.Receiver)
		return &vp
	case *ast.IndexExpr:
		vp := *v
		vp.Array = f.foldExpr(v.Array)
		vp.Index = f.foldExpr(v.Index)
		return &vp
	case *ast.NewArrayExpr:
		vp := *v
		vp.Size = f.foldExpr(v.Size)
		return &vp
	case *ast.CastExpr:
		vp := *v
		vp.Value = f.foldExpr(v.Value)
		return &vp
	default:
		// Literals and idents are already leaves.
		return e
	}
}

func (f *folder) foldExprs(in []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(in))
	for i, e := range in {
		out[i] = f.foldExpr(e)
	}
	return out
}

func (f *folder) foldUnary(orig *ast.UnaryExpr, operand ast.Expr) ast.Expr {
	switch v := operand.(type) {
	case *ast.IntLit:
		if orig.Op == ast.OpNeg {
			return &ast.IntLit{Base: orig.Base, Value: -v.Value}
		}
	case *ast.BoolLit:
		if orig.Op == ast.OpNot {
			return &ast.BoolLit{Base: orig.Base, Value: !v.Value}
		}
	}
	return &ast.UnaryExpr{Base: orig.Base, Op: orig.Op, Operand: operand}
}

func (f *folder) foldBinary(orig *ast.BinaryExpr, left, right ast.Expr) ast.Expr {
	// Short-circuit collapse with a constant operand, preserving
	// short-circuit semantics: with `a && b`, a
	// constant-false `a` makes the whole expression `false` without
	// evaluating `b` for side effects (pure expressions here have none,
	// but the rewrite still must not require b to be foldable).
	if orig.Op == ast.OpAnd {
		if bl, ok := left.(*ast.BoolLit); ok {
			if !bl.Value {
				return &ast.BoolLit{Base: orig.Base, Value: false}
			}
			return right
		}
		if br, ok := right.(*ast.BoolLit); ok {
			if !br.Value {
				return &ast.BoolLit{Base: orig.Base, Value: false}
			}
			return left
		}
	}
	if orig.Op == ast.OpOr {
		if bl, ok := left.(*ast.BoolLit); ok {
			if bl.Value {
				return &ast.BoolLit{Base: orig.Base, Value: true}
			}
			return right
		}
		if br, ok := right.(*ast.BoolLit); ok {
			if br.Value {
				return &ast.BoolLit{Base: orig.Base, Value: true}
			}
			return left
		}
	}

	li, lIsInt := left.(*ast.IntLit)
	ri, rIsInt := right.(*ast.IntLit)
	if lIsInt && rIsInt {
		if folded, ok := f.foldIntBinary(orig, li.Value, ri.Value); ok {
			return folded
		}
	}

	lb, lIsBool := left.(*ast.BoolLit)
	rb, rIsBool := right.(*ast.BoolLit)
	if lIsBool && rIsBool {
		switch orig.Op {
		case ast.OpEq:
			return &ast.BoolLit{Base: orig.Base, Value: lb.Value == rb.Value}
		case ast.OpNe:
			return &ast.BoolLit{Base: orig.Base, Value: lb.Value != rb.Value}
		}
	}

	ls, lIsStr := left.(*ast.StringLit)
	rs, rIsStr := right.(*ast.StringLit)
	if lIsStr && rIsStr && orig.Op == ast.OpAdd {
		return &ast.StringLit{Base: orig.Base, Value: ls.Value + rs.Value}
	}

	return &ast.BinaryExpr{Base: orig.Base, Op: orig.Op, Left: left, Right: right}
}

func (f *folder) foldIntBinary(orig *ast.BinaryExpr, l, r int64) (ast.Expr, bool) {
	switch orig.Op {
	case ast.OpAdd:
		return &ast.IntLit{Base: orig.Base, Value: l + r}, true
	case ast.OpSub:
		return &ast.IntLit{Base: orig.Base, Value: l - r}, true
	case ast.OpMul:
		return &ast.IntLit{Base: orig.Base, Value: l * r}, true
	case ast.OpDiv:
		if r == 0 {
			f.errs.Addf(errors.KindConstOverflow, orig.GetMetadata().Pos, "division by zero in constant expression")
			return orig, true
		}
		return &ast.IntLit{Base: orig.Base, Value: l / r}, true
	case ast.OpMod:
		if r == 0 {
			f.errs.Addf(errors.KindConstOverflow, orig.GetMetadata().Pos, "modulo by zero in constant expression")
			return orig, true
		}
		return &ast.IntLit{Base: orig.Base, Value: l % r}, true
	case ast.OpLt:
		return &ast.BoolLit{Base: orig.Base, Value: l < r}, true
	case ast.OpLe:
		return &ast.BoolLit{Base: orig.Base, Value: l <= r}, true
	case ast.OpGt:
		return &ast.BoolLit{Base: orig.Base, Value: l > r}, true
	case ast.OpGe:
		return &ast.BoolLit{Base: orig.Base, Value: l >= r}, true
	case ast.OpEq:
		return &ast.BoolLit{Base: orig.Base, Value: l == r}, true
	case ast.OpNe:
		return &ast.BoolLit{Base: orig.Base, Value: l != r}, true
	}
	return nil, false
}
