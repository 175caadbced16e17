package grammar

import (
	"strconv"
	"strings"

	"latte/internal/ast"
)

// Convert lowers a parsed concrete syntax tree into the internal/ast
// tree the rest of the pipeline (internal/normalize, internal/sema,
// internal/ir) operates on. Every node gets a Metadata.Pos carrying
// only a byte offset, taken straight off participle's lexer.Position
// for that CST node.
func Convert(filename string, p *Program) *ast.Program {
	c := &converter{filename: filename}
	return c.program(p)
}

type converter struct {
	filename string
}

func (c *converter) program(p *Program) *ast.Program {
	out := &ast.Program{
		Base:      ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: p.Pos.Offset}}},
		Functions: map[string]*ast.Function{},
		Classes:   map[string]*ast.Class{},
	}
	for _, d := range p.Decls {
		switch {
		case d.Class != nil:
			cls := c.class(d.Class)
			out.Classes[cls.Name] = cls
			out.ClassOrder = append(out.ClassOrder, cls.Name)
		case d.Func != nil:
			fn := c.function(d.Func)
			out.Functions[fn.Name] = fn
			out.FuncOrder = append(out.FuncOrder, fn.Name)
		}
	}
	return out
}

func (c *converter) class(d *ClassDecl) *ast.Class {
	out := &ast.Class{
		Base:   ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: d.Pos.Offset}}},
		Name:   d.Name,
		Parent: d.Parent,
	}
	for _, m := range d.Members {
		switch {
		case m.Method != nil:
			out.Methods = append(out.Methods, c.function(m.Method))
		case m.Field != nil:
			out.Fields = append(out.Fields, c.field(m.Field))
		}
	}
	return out
}

func (c *converter) field(d *FieldDecl) *ast.Field {
	return &ast.Field{
		Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: d.Pos.Offset}}},
		Type: c.typeRef(d.Type),
		Name: d.Name,
	}
}

func (c *converter) function(d *FuncDecl) *ast.Function {
	out := &ast.Function{
		Base:       ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: d.Pos.Offset}}},
		ReturnType: c.typeRef(d.Ret),
		Name:       d.Name,
		Body:       c.block(d.Body),
	}
	for _, p := range d.Params {
		out.Params = append(out.Params, &ast.Param{
			Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: p.Pos.Offset}}},
			Type: c.typeRef(p.Type),
			Name: p.Name,
		})
	}
	return out
}

func (c *converter) typeRef(t *TypeRef) ast.TypeExpr {
	return ast.TypeExpr{Name: t.Name, IsArray: t.Bracket != ""}
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (c *converter) block(b *BlockStmt) *ast.Block {
	out := &ast.Block{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: b.Pos.Offset}}}}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, c.stmt(s))
	}
	return out
}

func (c *converter) stmt(s *Stmt) ast.Stmt {
	switch {
	case s.Block != nil:
		return c.block(s.Block)
	case s.If != nil:
		return c.ifStmt(s.If)
	case s.While != nil:
		return c.whileStmt(s.While)
	case s.ForEach != nil:
		return c.forEachStmt(s.ForEach)
	case s.Return != nil:
		return &ast.ReturnStmt{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: s.Return.Pos.Offset}}},
			Value: c.exprOrNil(s.Return.Value),
		}
	case s.Decl != nil:
		return &ast.DeclStmt{
			Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: s.Decl.Pos.Offset}}},
			Type: c.typeRef(s.Decl.Type),
			Name: s.Decl.Name,
			Init: c.exprOrNil(s.Decl.Init),
		}
	case s.Empty != nil:
		return &ast.EmptyStmt{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: s.Empty.Pos.Offset}}}}
	case s.Simple != nil:
		return c.simpleStmt(s.Simple)
	}
	return &ast.EmptyStmt{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: s.Pos.Offset}}}}
}

func (c *converter) ifStmt(d *IfStmt) *ast.IfStmt {
	out := &ast.IfStmt{
		Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: d.Pos.Offset}}},
		Cond: c.expr(d.Cond),
		Then: c.stmt(d.Then),
	}
	if d.Else != nil {
		out.Else = c.stmt(d.Else)
	}
	return out
}

func (c *converter) whileStmt(d *WhileStmt) *ast.WhileStmt {
	return &ast.WhileStmt{
		Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: d.Pos.Offset}}},
		Cond: c.expr(d.Cond),
		Body: c.stmt(d.Body),
	}
}

func (c *converter) forEachStmt(d *ForEachStmt) *ast.ForEachStmt {
	return &ast.ForEachStmt{
		Base:     ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: d.Pos.Offset}}},
		ElemType: c.typeRef(d.Type),
		VarName:  d.Name,
		Array:    c.expr(d.Array),
		Body:     c.stmt(d.Body),
	}
}

// simpleStmt splits into an AssignStmt or an ExprStmt depending on
// whether the "= Expr" suffix was present.
func (c *converter) simpleStmt(d *SimpleStmt) ast.Stmt {
	target := c.expr(d.Target)
	pos := ast.Position{Filename: c.filename, Offset: d.Pos.Offset}
	if d.Value != nil {
		return &ast.AssignStmt{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}, Target: target, Value: c.expr(d.Value)}
	}
	return &ast.ExprStmt{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}, X: target}
}

func (c *converter) exprOrNil(e *Expr) ast.Expr {
	if e == nil {
		return nil
	}
	return c.expr(e)
}

// ---------------------------------------------------------------------
// Expressions — each precedence tier folds its Ops list into a
// left-associative chain of ast.BinaryExpr nodes.
// ---------------------------------------------------------------------

func (c *converter) expr(e *Expr) ast.Expr {
	left := c.andExpr(e.Left)
	for _, op := range e.Ops {
		left = &ast.BinaryExpr{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: op.Pos.Offset}}},
			Op:    ast.OpOr,
			Left:  left,
			Right: c.andExpr(op.Right),
		}
	}
	return left
}

func (c *converter) andExpr(e *AndExpr) ast.Expr {
	left := c.eqExpr(e.Left)
	for _, op := range e.Ops {
		left = &ast.BinaryExpr{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: op.Pos.Offset}}},
			Op:    ast.OpAnd,
			Left:  left,
			Right: c.eqExpr(op.Right),
		}
	}
	return left
}

func (c *converter) eqExpr(e *EqExpr) ast.Expr {
	left := c.relExpr(e.Left)
	for _, op := range e.Ops {
		o := ast.OpEq
		if op.Op == "!=" {
			o = ast.OpNe
		}
		left = &ast.BinaryExpr{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: op.Pos.Offset}}},
			Op:    o,
			Left:  left,
			Right: c.relExpr(op.Right),
		}
	}
	return left
}

func (c *converter) relExpr(e *RelExpr) ast.Expr {
	left := c.addExpr(e.Left)
	for _, op := range e.Ops {
		var o ast.BinOp
		switch op.Op {
		case "<":
			o = ast.OpLt
		case "<=":
			o = ast.OpLe
		case ">":
			o = ast.OpGt
		default:
			o = ast.OpGe
		}
		left = &ast.BinaryExpr{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: op.Pos.Offset}}},
			Op:    o,
			Left:  left,
			Right: c.addExpr(op.Right),
		}
	}
	return left
}

func (c *converter) addExpr(e *AddExpr) ast.Expr {
	left := c.mulExpr(e.Left)
	for _, op := range e.Ops {
		o := ast.OpAdd
		if op.Op == "-" {
			o = ast.OpSub
		}
		left = &ast.BinaryExpr{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: op.Pos.Offset}}},
			Op:    o,
			Left:  left,
			Right: c.mulExpr(op.Right),
		}
	}
	return left
}

func (c *converter) mulExpr(e *MulExpr) ast.Expr {
	left := c.unaryExpr(e.Left)
	for _, op := range e.Ops {
		var o ast.BinOp
		switch op.Op {
		case "*":
			o = ast.OpMul
		case "/":
			o = ast.OpDiv
		default:
			o = ast.OpMod
		}
		left = &ast.BinaryExpr{
			Base:  ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: op.Pos.Offset}}},
			Op:    o,
			Left:  left,
			Right: c.unaryExpr(op.Right),
		}
	}
	return left
}

func (c *converter) unaryExpr(e *UnaryExpr) ast.Expr {
	operand := c.postfixExpr(e.Operand)
	if e.Op == "" {
		return operand
	}
	o := ast.OpNeg
	if e.Op == "!" {
		o = ast.OpNot
	}
	return &ast.UnaryExpr{
		Base:    ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Pos.Offset}}},
		Op:      o,
		Operand: operand,
	}
}

func (c *converter) postfixExpr(e *PostfixExpr) ast.Expr {
	out := c.primaryExpr(e.Primary)
	for _, s := range e.Suffixes {
		pos := ast.Position{Filename: c.filename, Offset: s.Pos.Offset}
		switch {
		case s.Call != nil:
			args := make([]ast.Expr, len(s.Call.Args))
			for i, a := range s.Call.Args {
				args[i] = c.expr(a)
			}
			out = &ast.MethodCallExpr{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}, Receiver: out, Method: s.Call.Name, Args: args}
		case s.Field != nil:
			out = &ast.FieldAccessExpr{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}, Receiver: out, Field: s.Field.Name}
		case s.Index != nil:
			out = &ast.IndexExpr{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}, Array: out, Index: c.expr(s.Index.Index)}
		}
	}
	return out
}

func (c *converter) primaryExpr(e *PrimaryExpr) ast.Expr {
	pos := ast.Position{Filename: c.filename, Offset: e.Pos.Offset}
	switch {
	case e.Int != nil:
		v, _ := strconv.ParseInt(e.Int.Value, 10, 64)
		return &ast.IntLit{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Int.Pos.Offset}}}, Value: v}
	case e.Bool != nil:
		return &ast.BoolLit{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Bool.Pos.Offset}}}, Value: e.Bool.Value == "true"}
	case e.Str != nil:
		return &ast.StringLit{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Str.Pos.Offset}}}, Value: unescapeString(e.Str.Value)}
	case e.Null != nil:
		return &ast.NullLit{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Null.Pos.Offset}}}}
	case e.New != nil:
		if e.New.Size != nil {
			return &ast.NewArrayExpr{
				Base:     ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.New.Pos.Offset}}},
				ElemType: ast.TypeExpr{Name: e.New.Name},
				Size:     c.expr(e.New.Size),
			}
		}
		return &ast.NewObjectExpr{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.New.Pos.Offset}}}, ClassName: e.New.Name}
	case e.Cast != nil:
		return &ast.CastExpr{
			Base:   ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Cast.Pos.Offset}}},
			Target: c.typeRef(e.Cast.Target),
			Value:  &ast.NullLit{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Cast.Pos.Offset}}}},
		}
	case e.Call != nil:
		args := make([]ast.Expr, len(e.Call.Args))
		for i, a := range e.Call.Args {
			args[i] = c.expr(a)
		}
		return &ast.CallExpr{Base: ast.Base{Meta: ast.Metadata{Pos: ast.Position{Filename: c.filename, Offset: e.Call.Pos.Offset}}}, Callee: e.Call.Name, Args: args}
	case e.Ident != nil:
		return &ast.IdentExpr{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}, Name: *e.Ident}
	case e.Paren != nil:
		return c.expr(e.Paren)
	}
	return &ast.NullLit{Base: ast.Base{Meta: ast.Metadata{Pos: pos}}}
}

// unescapeString interprets the standard backslash escapes Latte
// string literals support. s still carries its surrounding quotes, as
// matched by the lexer's String rule.
func unescapeString(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
