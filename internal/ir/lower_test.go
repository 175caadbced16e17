package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/ast"
	"latte/internal/sema"
)

// checkProgram runs only the type checker (sema.Check) over a
// hand-built program, with no folding or normalizing, and fails the
// test on any semantic error.
func checkProgram(t *testing.T, p *ast.Program) (*ast.Program, *sema.Analyzer) {
	t.Helper()
	out, analyzer, errs := sema.Check(p)
	require.Empty(t, errs, "unexpected semantic errors: %v", errs)
	return out, analyzer
}

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

// TestLowerWhileLoopPatchesHeaderPhi builds:
//
//	int main() {
//	  int i = 0;
//	  int acc = 0;
//	  while (i < 10) { acc = acc + i; i = i + 1; }
//	  return acc;
//	}
//
// and checks the header block ends up with exactly two loop-carried
// phis (i, acc), each with two incoming edges.
func TestLowerWhileLoopPatchesHeaderPhi(t *testing.T) {
	p := blankProgram()
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.AssignStmt{
			Target: &ast.IdentExpr{Name: "acc"},
			Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.IdentExpr{Name: "acc"}, Right: &ast.IdentExpr{Name: "i"}},
		},
		&ast.AssignStmt{
			Target: &ast.IdentExpr{Name: "i"},
			Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.IdentExpr{Name: "i"}, Right: &ast.IntLit{Value: 1}},
		},
	}}
	main := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "i", Init: &ast.IntLit{Value: 0}},
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "acc", Init: &ast.IntLit{Value: 0}},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: &ast.IdentExpr{Name: "i"}, Right: &ast.IntLit{Value: 10}},
				Body: body,
			},
			&ast.ReturnStmt{Value: &ast.IdentExpr{Name: "acc"}},
		}},
	}
	addFunc(p, main)
	out, analyzer := checkProgram(t, p)

	prog := Lower(out, analyzer.ClassLayouts(), analyzer.FunctionSignatures())
	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]

	var header *BasicBlock
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.Label, "while.cond") {
			header = b
		}
	}
	require.NotNil(t, header, "expected a while.cond header block")
	assert.Len(t, header.Phis, 2, "expected one phi per loop-carried variable (i, acc)")
	for _, phi := range header.Phis {
		assert.Len(t, phi.Incoming, 2, "phi %v should have exactly two incoming edges", phi.Result)
	}
	assert.Len(t, header.Preds, 2, "header should be reached from the preheader and the back-edge")
}

// TestLowerWhileDropsTrivialPhiForUnwrittenVariable checks that a
// variable read but never reassigned inside a loop body does not end
// up with a phi in the header at all — the placeholder collapses via
// FunctionContext.Substitute.
func TestLowerWhileDropsTrivialPhiForUnwrittenVariable(t *testing.T) {
	p := blankProgram()
	main := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "i", Init: &ast.IntLit{Value: 0}},
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "limit", Init: &ast.IntLit{Value: 10}},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: &ast.IdentExpr{Name: "i"}, Right: &ast.IdentExpr{Name: "limit"}},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Target: &ast.IdentExpr{Name: "i"}, Value: &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.IdentExpr{Name: "i"}, Right: &ast.IntLit{Value: 1}}},
				}},
			},
			&ast.ReturnStmt{Value: &ast.IdentExpr{Name: "i"}},
		}},
	}
	addFunc(p, main)
	out, analyzer := checkProgram(t, p)
	prog := Lower(out, analyzer.ClassLayouts(), analyzer.FunctionSignatures())

	var header *BasicBlock
	for _, b := range prog.Functions[0].Blocks {
		if strings.HasPrefix(b.Label, "while.cond") {
			header = b
		}
	}
	require.NotNil(t, header)
	assert.Len(t, header.Phis, 1, "limit is never reassigned, so only i should keep a phi")
}

// TestLowerWhileFoldsConstantBoundWithoutAliasingRegisterZero checks
// that folding away a trivial loop-carried phi for a variable that was
// never anything but a constant going into the loop (`n` below) rewrites
// uses of the placeholder to that constant directly, not to whatever
// happens to occupy register 0.
func TestLowerWhileFoldsConstantBoundWithoutAliasingRegisterZero(t *testing.T) {
	p := blankProgram()
	main := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "n", Init: &ast.IntLit{Value: 5}},
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "int"}, Name: "i", Init: &ast.IntLit{Value: 0}},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: &ast.IdentExpr{Name: "i"}, Right: &ast.IdentExpr{Name: "n"}},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Target: &ast.IdentExpr{Name: "i"}, Value: &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.IdentExpr{Name: "i"}, Right: &ast.IntLit{Value: 1}}},
				}},
			},
			&ast.ReturnStmt{Value: &ast.IdentExpr{Name: "i"}},
		}},
	}
	addFunc(p, main)
	out, analyzer := checkProgram(t, p)
	prog := Lower(out, analyzer.ClassLayouts(), analyzer.FunctionSignatures())

	var header *BasicBlock
	for _, b := range prog.Functions[0].Blocks {
		if strings.HasPrefix(b.Label, "while.cond") {
			header = b
		}
	}
	require.NotNil(t, header)
	assert.Len(t, header.Phis, 1, "n is never reassigned, so only i should keep a phi")

	var cmp *BinOpInst
	for _, inst := range header.Body {
		if b, ok := inst.(*BinOpInst); ok && b.Op == "<" {
			cmp = b
		}
	}
	require.NotNil(t, cmp, "expected the loop condition's comparison in the header")
	assert.True(t, cmp.Right.IsConst, "n folded to the constant 5, not a register")
	assert.Equal(t, int64(5), cmp.Right.IntConst)
}

// TestLowerVirtualMethodDispatchLoadsVTableThenSlot checks that a
// method call lowers to: load vtable ptr from slot 0, GEP+load the
// method's fixed slot, then an indirect call.
func TestLowerVirtualMethodDispatchLoadsVTableThenSlot(t *testing.T) {
	p := blankProgram()
	speak := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "speak",
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 1}}}},
	}
	addClass(p, &ast.Class{Name: "Animal", Methods: []*ast.Function{speak}})
	main := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "Animal"}, Name: "a", Init: &ast.NewObjectExpr{ClassName: "Animal"}},
			&ast.ReturnStmt{Value: &ast.MethodCallExpr{Receiver: &ast.IdentExpr{Name: "a"}, Method: "speak"}},
		}},
	}
	addFunc(p, main)
	out, analyzer := checkProgram(t, p)
	prog := Lower(out, analyzer.ClassLayouts(), analyzer.FunctionSignatures())

	require.Len(t, prog.Classes, 1)
	assert.Equal(t, []string{"Animal.speak"}, prog.Classes[0].VTableFns)

	var mainFn *Function
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			mainFn = fn
		}
	}
	require.NotNil(t, mainFn)

	var loads, geps, calls int
	for _, blk := range mainFn.Blocks {
		for _, inst := range blk.Body {
			switch inst.(type) {
			case *LoadInst:
				loads++
			case *GEPInst:
				geps++
			case *CallInst:
				calls++
			}
		}
	}
	assert.GreaterOrEqual(t, loads, 2, "expect a vtable-ptr load and a fn-ptr load")
	assert.GreaterOrEqual(t, geps, 2, "expect a GEP to slot 0 and a GEP to the method slot")
	assert.GreaterOrEqual(t, calls, 2, "expect the allocator call plus the indirect dispatch call")
}

// TestLowerNestedShortCircuitEveryBlockHasOneTerminator builds
// `a || b && c` (parsed `a || (b && c)` by precedence, so the RHS of
// the outer || is itself a short circuit) and checks that lowering it
// never leaves a block without exactly one terminator, and that every
// phi's predecessor actually branches to the block that phi lives in.
func TestLowerNestedShortCircuitEveryBlockHasOneTerminator(t *testing.T) {
	p := blankProgram()
	main := &ast.Function{
		ReturnType: ast.TypeExpr{Name: "int"}, Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "boolean"}, Name: "a", Init: &ast.BoolLit{Value: true}},
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "boolean"}, Name: "b", Init: &ast.BoolLit{Value: false}},
			&ast.DeclStmt{Type: ast.TypeExpr{Name: "boolean"}, Name: "c", Init: &ast.BoolLit{Value: true}},
			&ast.IfStmt{
				Cond: &ast.BinaryExpr{
					Op:   ast.OpOr,
					Left: &ast.IdentExpr{Name: "a"},
					Right: &ast.BinaryExpr{
						Op: ast.OpAnd, Left: &ast.IdentExpr{Name: "b"}, Right: &ast.IdentExpr{Name: "c"},
					},
				},
				Then: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 1}}}},
				Else: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}}},
			},
		}},
	}
	addFunc(p, main)
	out, analyzer := checkProgram(t, p)
	prog := Lower(out, analyzer.ClassLayouts(), analyzer.FunctionSignatures())

	byLabel := map[string]*BasicBlock{}
	for _, blk := range prog.Functions[0].Blocks {
		byLabel[blk.Label] = blk
		assert.NotNil(t, blk.Terminator, "block %q has no terminator", blk.Label)
	}
	for _, blk := range prog.Functions[0].Blocks {
		for _, phi := range blk.Phis {
			for _, edge := range phi.Incoming {
				pred, ok := byLabel[edge.Pred]
				require.True(t, ok, "phi in %q has incoming edge from unknown block %q", blk.Label, edge.Pred)
				br, ok := pred.Terminator.(*BranchInst)
				require.True(t, ok, "block %q terminates with %T, not a branch, but is listed as a phi predecessor", edge.Pred, pred.Terminator)
				assert.True(t, br.TrueLabel == blk.Label || br.FalseLabel == blk.Label,
					"block %q's terminator does not branch to %q", edge.Pred, blk.Label)
			}
		}
	}
}

func TestPrintIsDeterministic(t *testing.T) {
	p := blankProgram()
	addFunc(p, &ast.Function{ReturnType: ast.TypeExpr{Name: "int"}, Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 42}}}}})
	out, analyzer := checkProgram(t, p)
	prog := Lower(out, analyzer.ClassLayouts(), analyzer.FunctionSignatures())

	first := Print(prog)
	second := Print(prog)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "ret i32 42")
}
