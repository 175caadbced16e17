package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/ast"
	"latte/internal/types"
)

func blankProgram() *ast.Program {
	return &ast.Program{Functions: map[string]*ast.Function{}, Classes: map[string]*ast.Class{}}
}

func addFunc(p *ast.Program, f *ast.Function) {
	p.Functions[f.Name] = f
	p.FuncOrder = append(p.FuncOrder, f.Name)
}

func addClass(p *ast.Program, c *ast.Class) {
	p.Classes[c.Name] = c
	p.ClassOrder = append(p.ClassOrder, c.Name)
}

func intMain(stmts ...ast.Stmt) *ast.Function {
	return &ast.Function{ReturnType: ast.TypeExpr{Name: "int"}, Name: "main", Body: &ast.Block{Stmts: stmts}}
}

func TestMissingMainIsBadEntry(t *testing.T) {
	p := blankProgram()
	_, _, errs := Check(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "BadEntry", string(errs[0].Kind))
}

func TestWrongMainSignatureIsBadEntry(t *testing.T) {
	p := blankProgram()
	addFunc(p, &ast.Function{ReturnType: ast.TypeExpr{Name: "void"}, Name: "main", Body: &ast.Block{}})
	_, _, errs := Check(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "BadEntry", string(errs[0].Kind))
}

func TestUndefinedIdentifierReported(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IdentExpr{Name: "nope"}}))
	_, _, errs := Check(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "UnresolvedName", string(errs[0].Kind))
}

func TestAssignTypeMismatchReported(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(
		&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "x", Init: &ast.IntLit{Value: 1}},
		&ast.AssignStmt{Target: &ast.IdentExpr{Name: "x"}, Value: &ast.BoolLit{Value: true}},
		&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}},
	))
	_, _, errs := Check(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "TypeMismatch", string(errs[0].Kind))
}

func TestDuplicateFunctionIsRedeclaration(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}))
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 1}}))
	_, _, errs := Check(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "Redeclaration", string(errs[0].Kind))
}

func TestDuplicateClassIsRedeclaration(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}))
	addClass(p, &ast.Class{Name: "Animal"})
	addClass(p, &ast.Class{Name: "Animal"})
	_, _, errs := Check(p)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if string(e.Kind) == "Redeclaration" {
			found = true
		}
	}
	assert.True(t, found, "expected a Redeclaration error among: %v", errs)
}

func TestValidProgramHasNoErrors(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(
		&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "x", Init: &ast.IntLit{Value: 1}},
		&ast.ReturnStmt{Value: &ast.IdentExpr{Name: "x"}},
	))
	out, _, errs := Check(p)
	assert.Empty(t, errs)
	decl := out.Functions["main"].Body.Stmts[0].(*ast.DeclStmt)
	assert.True(t, types.Equal(decl.GetMetadata().Type, types.IntType{}))
}

func TestInheritanceCycleDetected(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}))
	addClass(p, &ast.Class{Name: "A", Parent: "B"})
	addClass(p, &ast.Class{Name: "B", Parent: "A"})
	_, _, errs := Check(p)
	found := false
	for _, e := range errs {
		if e.Kind == "InheritanceCycle" {
			found = true
		}
	}
	assert.True(t, found, "expected an InheritanceCycle error, got %v", errs)
}

// TestUnqualifiedIdentResolvesSelfField checks that a bare identifier
// inside a method body that names one of the class's own fields
// resolves against self, the way `self.x` does, rather than reporting
// UnresolvedName.
func TestUnqualifiedIdentResolvesSelfField(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}))
	getMethod := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "get",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.IdentExpr{Name: "x"}},
		}},
	}
	addClass(p, &ast.Class{Name: "A", Fields: []*ast.Field{{Type: ast.TypeExpr{Name: "int"}, Name: "x"}}, Methods: []*ast.Function{getMethod}})
	out, _, errs := Check(p)
	require.Empty(t, errs)
	ident := out.Classes["A"].Methods[0].Body.Stmts[0].(*ast.ReturnStmt).Value.(*ast.IdentExpr)
	res := ident.GetMetadata().Res
	require.NotNil(t, res)
	assert.Equal(t, ast.ResolveField, res.Kind)
	assert.Equal(t, "A", res.ClassName)
}

func TestFieldOffsetStableAcrossOverride(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}))
	setMethod := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "void"}, Name: "set",
		Params: []*ast.Param{{Type: ast.TypeExpr{Name: "int"}, Name: "v"}},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{
				Target: &ast.FieldAccessExpr{Receiver: &ast.IdentExpr{Name: "self"}, Field: "x"},
				Value:  &ast.IdentExpr{Name: "v"},
			},
		}},
	}
	addClass(p, &ast.Class{Name: "A", Fields: []*ast.Field{{Type: ast.TypeExpr{Name: "int"}, Name: "x"}}, Methods: []*ast.Function{setMethod}})
	addClass(p, &ast.Class{Name: "B", Parent: "A"})
	_, analyzer, errs := Check(p)
	require.Empty(t, errs)
	aInfo, _ := analyzer.ClassLayouts().Get("A")
	bInfo, _ := analyzer.ClassLayouts().Get("B")
	af, _ := aInfo.FieldOffset("x")
	bf, _ := bInfo.FieldOffset("x")
	assert.Equal(t, af.Slot, bf.Slot)
}

func TestOverrideSignatureMismatchIsBadOverride(t *testing.T) {
	p := blankProgram()
	addFunc(p, intMain(&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}))
	base := &ast.Function{ReturnType: ast.TypeExpr{Name: "int"}, Name: "f", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 1}}}}}
	override := &ast.Function{ReturnType: ast.TypeExpr{Name: "boolean"}, Name: "f", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.BoolLit{Value: true}}}}}
	addClass(p, &ast.Class{Name: "A", Methods: []*ast.Function{base}})
	addClass(p, &ast.Class{Name: "B", Parent: "A", Methods: []*ast.Function{override}})
	_, _, errs := Check(p)
	found := false
	for _, e := range errs {
		if e.Kind == "BadOverride" {
			found = true
		}
	}
	assert.True(t, found, "expected BadOverride, got %v", errs)
}
