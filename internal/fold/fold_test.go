package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/ast"
)

func intLit(v int64) *ast.IntLit { return &ast.IntLit{Value: v} }

func program(expr ast.Expr) *ast.Program {
	fn := &ast.Function{
		Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: expr}}},
	}
	return &ast.Program{
		Functions: map[string]*ast.Function{"main": fn},
		Classes:   map[string]*ast.Class{},
		FuncOrder: []string{"main"},
	}
}

func TestFoldArithmetic(t *testing.T) {
	expr := &ast.BinaryExpr{Op: ast.OpAdd, Left: intLit(2), Right: &ast.BinaryExpr{
		Op: ast.OpMul, Left: intLit(3), Right: intLit(4),
	}}
	out, errs := Fold(program(expr))
	require.Empty(t, errs)
	got := out.Functions["main"].Body.Stmts[0].(*ast.ExprStmt).X
	lit, ok := got.(*ast.IntLit)
	require.True(t, ok, "expected fully folded literal, got %T", got)
	assert.Equal(t, int64(14), lit.Value)
}

func TestFoldDivisionByZeroReportsConstOverflow(t *testing.T) {
	expr := &ast.BinaryExpr{Op: ast.OpDiv, Left: intLit(1), Right: intLit(0)}
	_, errs := Fold(program(expr))
	require.Len(t, errs, 1)
	assert.Equal(t, "ConstOverflow", string(errs[0].Kind))
}

func TestFoldShortCircuitAndWithFalseLeftDropsRight(t *testing.T) {
	// `false && x` must fold to `false` even when `x` is not itself a
	// foldable literal.
	expr := &ast.BinaryExpr{
		Op:    ast.OpAnd,
		Left:  &ast.BoolLit{Value: false},
		Right: &ast.IdentExpr{Name: "x"},
	}
	out, errs := Fold(program(expr))
	require.Empty(t, errs)
	got := out.Functions["main"].Body.Stmts[0].(*ast.ExprStmt).X
	lit, ok := got.(*ast.BoolLit)
	require.True(t, ok, "expected collapsed bool literal, got %T", got)
	assert.False(t, lit.Value)
}

func TestFoldStringConcat(t *testing.T) {
	expr := &ast.BinaryExpr{
		Op:    ast.OpAdd,
		Left:  &ast.StringLit{Value: "ab"},
		Right: &ast.StringLit{Value: "cd"},
	}
	out, _ := Fold(program(expr))
	got := out.Functions["main"].Body.Stmts[0].(*ast.ExprStmt).X.(*ast.StringLit)
	assert.Equal(t, "abcd", got.Value)
}

func TestFoldIsIdempotent(t *testing.T) {
	expr := &ast.BinaryExpr{Op: ast.OpAdd, Left: intLit(2), Right: intLit(3)}
	once, _ := Fold(program(expr))
	twice, _ := Fold(once)
	a := once.Functions["main"].Body.Stmts[0].(*ast.ExprStmt).X.(*ast.IntLit)
	b := twice.Functions["main"].Body.Stmts[0].(*ast.ExprStmt).X.(*ast.IntLit)
	assert.Equal(t, a.Value, b.Value)
}
