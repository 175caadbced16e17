package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/ast"
)

func fn(name string, retVoid bool, stmts ...ast.Stmt) *ast.Function {
	rt := ast.TypeExpr{Name: "int"}
	if retVoid {
		rt = ast.TypeExpr{Name: "void"}
	}
	return &ast.Function{ReturnType: rt, Name: name, Body: &ast.Block{Stmts: stmts}}
}

func wrap(f *ast.Function) *ast.Program {
	return &ast.Program{
		Functions: map[string]*ast.Function{f.Name: f},
		Classes:   map[string]*ast.Class{},
		FuncOrder: []string{f.Name},
	}
}

func TestDeadElseBranchAccepted(t *testing.T) {
	f := fn("f", false, &ast.IfStmt{
		Cond: &ast.BoolLit{Value: true},
		Then: &ast.ReturnStmt{Value: &ast.IntLit{Value: 1}},
	})
	_, errs := Normalize(wrap(f))
	assert.Empty(t, errs)
}

func TestNonConstantConditionWithoutElseIsMissingReturn(t *testing.T) {
	f := fn("f", false, &ast.IfStmt{
		Cond: &ast.IdentExpr{Name: "x"},
		Then: &ast.ReturnStmt{Value: &ast.IntLit{Value: 1}},
	})
	out, errs := Normalize(wrap(f))
	require.Len(t, errs, 1)
	assert.Equal(t, "MissingReturn", string(errs[0].Kind))
	assert.Same(t, f, out.Functions["f"])
}

func TestIfElseBothReturnSatisfies(t *testing.T) {
	f := fn("f", false, &ast.IfStmt{
		Cond: &ast.IdentExpr{Name: "x"},
		Then: &ast.ReturnStmt{Value: &ast.IntLit{Value: 1}},
		Else: &ast.ReturnStmt{Value: &ast.IntLit{Value: 2}},
	})
	_, errs := Normalize(wrap(f))
	assert.Empty(t, errs)
}

func TestVoidFunctionGetsImplicitReturnAppended(t *testing.T) {
	f := fn("f", true, &ast.ExprStmt{X: &ast.IntLit{Value: 1}})
	out, errs := Normalize(wrap(f))
	require.Empty(t, errs)
	got := out.Functions["f"]
	require.Len(t, got.Body.Stmts, 2)
	_, ok := got.Body.Stmts[1].(*ast.EmptyStmt)
	assert.True(t, ok)
}

func TestWhileTrueWithNoFollowingCodeReturns(t *testing.T) {
	f := fn("f", false, &ast.WhileStmt{
		Cond: &ast.BoolLit{Value: true},
		Body: &ast.Block{},
	})
	_, errs := Normalize(wrap(f))
	assert.Empty(t, errs)
}
