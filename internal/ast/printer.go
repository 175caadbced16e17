package ast

import (
	"fmt"
	"strings"
)

// String methods below exist for debugging and for the constant
// folder / normalizer tests to assert on shapes without reaching into
// the SSA IR.

func (p *Program) String() string {
	var b strings.Builder
	for _, name := range p.ClassOrder {
		b.WriteString(p.Classes[name].String())
		b.WriteString("\n")
	}
	for _, name := range p.FuncOrder {
		b.WriteString(p.Functions[name].String())
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Class) String() string {
	var b strings.Builder
	if c.Parent != "" {
		fmt.Fprintf(&b, "class %s extends %s {\n", c.Name, c.Parent)
	} else {
		fmt.Fprintf(&b, "class %s {\n", c.Name)
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&b, "  %s\n", f.String())
	}
	for _, m := range c.Methods {
		b.WriteString("  " + strings.ReplaceAll(m.String(), "\n", "\n  ") + "\n")
	}
	b.WriteString("}")
	return b.String()
}

func (f *Field) String() string { return fmt.Sprintf("%s %s;", f.Type.String(), f.Name) }

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s %s(%s) %s", f.ReturnType.String(), f.Name, strings.Join(params, ", "), f.Body.String())
}

func (p *Param) String() string { return fmt.Sprintf("%s %s", p.Type.String(), p.Name) }

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b.Stmts {
		sb.WriteString("  " + strings.ReplaceAll(s.String(), "\n", "\n  ") + "\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func (d *DeclStmt) String() string {
	if d.Init == nil {
		return fmt.Sprintf("%s %s;", d.Type.String(), d.Name)
	}
	return fmt.Sprintf("%s %s = %s;", d.Type.String(), d.Name, d.Init.String())
}

func (a *AssignStmt) String() string { return fmt.Sprintf("%s = %s;", a.Target.String(), a.Value.String()) }
func (e *ExprStmt) String() string   { return e.X.String() + ";" }

func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", r.Value.String())
}

func (i *IfStmt) String() string {
	if i.Else == nil {
		return fmt.Sprintf("if (%s) %s", i.Cond.String(), i.Then.String())
	}
	return fmt.Sprintf("if (%s) %s else %s", i.Cond.String(), i.Then.String(), i.Else.String())
}

func (w *WhileStmt) String() string {
	return fmt.Sprintf("while (%s) %s", w.Cond.String(), w.Body.String())
}

func (f *ForEachStmt) String() string {
	return fmt.Sprintf("for (%s %s : %s) %s", f.ElemType.String(), f.VarName, f.Array.String(), f.Body.String())
}

func (*EmptyStmt) String() string { return ";" }

func (l *IntLit) String() string    { return fmt.Sprintf("%d", l.Value) }
func (l *BoolLit) String() string   { return fmt.Sprintf("%t", l.Value) }
func (l *StringLit) String() string { return fmt.Sprintf("%q", l.Value) }
func (*NullLit) String() string     { return "null" }
func (i *IdentExpr) String() string { return i.Name }

func (u *UnaryExpr) String() string { return u.Op.String() + u.Operand.String() }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Op.String(), b.Right.String())
}

func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

func (m *MethodCallExpr) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s.%s(%s)", m.Receiver.String(), m.Method, strings.Join(args, ", "))
}

func (f *FieldAccessExpr) String() string { return fmt.Sprintf("%s.%s", f.Receiver.String(), f.Field) }
func (i *IndexExpr) String() string       { return fmt.Sprintf("%s[%s]", i.Array.String(), i.Index.String()) }
func (n *NewObjectExpr) String() string   { return "new " + n.ClassName }
func (n *NewArrayExpr) String() string {
	return fmt.Sprintf("new %s[%s]", n.ElemType.String(), n.Size.String())
}
func (c *CastExpr) String() string { return fmt.Sprintf("(%s) %s", c.Target.String(), c.Value.String()) }
