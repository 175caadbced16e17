package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/ast"
)

func TestParseSimpleMainFunction(t *testing.T) {
	prog, errs := ParseString("t.lat", `int main() { printInt(2+3*4); return 0; }`)
	require.Empty(t, errs)
	require.NotNil(t, prog)

	main, ok := prog.Functions["main"]
	require.True(t, ok, "expected a main function")
	require.Len(t, main.Body.Stmts, 2)

	call, ok := main.Body.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	ce, ok := call.X.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "printInt", ce.Callee)

	bin, ok := ce.Args[0].(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op, "+ should bind looser than * per Java precedence")

	ret, ok := main.Body.Stmts[1].(*ast.ReturnStmt)
	require.True(t, ok)
	lit, ok := ret.Value.(*ast.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(0), lit.Value)
}

func TestParseClassWithExtendsAndFieldAssign(t *testing.T) {
	src := `
class A { int x; void set(int v) { self.x = v; } }
class B extends A { }
int main() { B b = new B; b.set(7); printInt(b.x); return 0; }
`
	prog, errs := ParseString("t.lat", src)
	require.Empty(t, errs)

	a, ok := prog.Classes["A"]
	require.True(t, ok)
	require.Len(t, a.Fields, 1)
	assert.Equal(t, "x", a.Fields[0].Name)
	require.Len(t, a.Methods, 1)

	setBody := a.Methods[0].Body.Stmts[0].(*ast.AssignStmt)
	fa, ok := setBody.Target.(*ast.FieldAccessExpr)
	require.True(t, ok)
	recv, ok := fa.Receiver.(*ast.IdentExpr)
	require.True(t, ok)
	assert.Equal(t, "self", recv.Name)
	assert.Equal(t, "x", fa.Field)

	b, ok := prog.Classes["B"]
	require.True(t, ok)
	assert.Equal(t, "A", b.Parent)

	main := prog.Functions["main"]
	decl := main.Body.Stmts[0].(*ast.DeclStmt)
	assert.True(t, decl.Type.Name == "B" && !decl.Type.IsArray)
	_, ok = decl.Init.(*ast.NewObjectExpr)
	assert.True(t, ok)
}

func TestParseForEachOverArrayVariable(t *testing.T) {
	src := `int main() { int[] a = new int[3]; a[0]=1; int s=0; for (int x : a) s = s + x; return s; }`
	prog, errs := ParseString("t.lat", src)
	require.Empty(t, errs)

	main := prog.Functions["main"]
	decl := main.Body.Stmts[0].(*ast.DeclStmt)
	assert.True(t, decl.Type.IsArray)
	na, ok := decl.Init.(*ast.NewArrayExpr)
	require.True(t, ok)
	assert.Equal(t, "int", na.ElemType.Name)

	idxAssign := main.Body.Stmts[1].(*ast.AssignStmt)
	idxExpr, ok := idxAssign.Target.(*ast.IndexExpr)
	require.True(t, ok)
	_, ok = idxExpr.Array.(*ast.IdentExpr)
	assert.True(t, ok)

	forEach := main.Body.Stmts[3].(*ast.ForEachStmt)
	assert.Equal(t, "x", forEach.VarName)
	assert.Equal(t, "int", forEach.ElemType.Name)
}

func TestParseNullCast(t *testing.T) {
	src := `class C { } C make() { return (C) null; }`
	prog, errs := ParseString("t.lat", src)
	require.Empty(t, errs)

	fn := prog.Functions["make"]
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	cast, ok := ret.Value.(*ast.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "C", cast.Target.Name)
	_, ok = cast.Value.(*ast.NullLit)
	assert.True(t, ok)
}

func TestParseStringLiteralEscapes(t *testing.T) {
	prog, errs := ParseString("t.lat", `int main() { string s = "a\nb"; return 0; }`)
	require.Empty(t, errs)
	decl := prog.Functions["main"].Body.Stmts[0].(*ast.DeclStmt)
	lit := decl.Init.(*ast.StringLit)
	assert.Equal(t, "a\nb", lit.Value)
}

func TestParseReportsSyntaxErrorWithOffset(t *testing.T) {
	_, errs := ParseString("t.lat", `int main() { return 0 }`)
	require.Len(t, errs, 1)
	assert.Equal(t, "t.lat", errs[0].Position.Filename)
	assert.Greater(t, errs[0].Position.Offset, 0, "error should point inside the function body")
}
