package ir

import (
	"fmt"
	"strconv"
	"strings"

	"latte/internal/types"
)

// Printer renders a *Program into the textual three-address form
// handed to the external assembler. It is pure: the same *Program
// always renders to the same bytes, since nothing it touches (labels,
// register numbers, slice order) is computed from anything but the
// IR itself.
type Printer struct {
	out    strings.Builder
	indent int
}

func Print(prog *Program) string {
	p := &Printer{}
	p.printProgram(prog)
	return p.out.String()
}

func (p *Printer) line(format string, args ...interface{}) {
	p.out.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteByte('\n')
}

func (p *Printer) printProgram(prog *Program) {
	for _, s := range prog.Strings {
		p.line("@%s = constant [%d x i8] %s", s.Symbol, len(s.Value)+1, quoteString(s.Value))
	}
	if len(prog.Strings) > 0 {
		p.out.WriteByte('\n')
	}
	for _, c := range prog.Classes {
		p.printClass(c)
	}
	for _, fn := range prog.Functions {
		p.printFunction(fn)
		p.out.WriteByte('\n')
	}
}

func (p *Printer) printClass(c *ClassIR) {
	fieldList := make([]string, len(c.FieldTypes))
	for i, t := range c.FieldTypes {
		fieldList[i] = typeName(t)
	}
	p.line("%%%s = type { vtable*, %s }", c.StructName, strings.Join(fieldList, ", "))

	fns := make([]string, len(c.VTableFns))
	for i, f := range c.VTableFns {
		fns[i] = "@" + f
	}
	p.line("@%s = constant [%d x fnptr] [%s]", c.VTableName, len(fns), strings.Join(fns, ", "))
	p.out.WriteByte('\n')
}

func (p *Printer) printFunction(fn *Function) {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = fmt.Sprintf("%s %%%s", typeName(prm.Type), prm.Name)
	}
	p.line("define %s @%s(%s) {", typeName(fn.ReturnType), fn.Name, strings.Join(params, ", "))
	for _, blk := range fn.Blocks {
		p.printBlock(blk)
	}
	p.line("}")
}

func (p *Printer) printBlock(blk *BasicBlock) {
	p.line("%s:", blk.Label)
	p.indent++
	if len(blk.Preds) > 0 {
		p.line("; preds = %s", strings.Join(blk.Preds, ", "))
	}
	for _, phi := range blk.Phis {
		edges := make([]string, len(phi.Incoming))
		for i, e := range phi.Incoming {
			edges[i] = fmt.Sprintf("[ %s, %%%s ]", p.value(e.Value), e.Pred)
		}
		p.line("%%%d = phi %s %s", phi.Result.Reg, typeName(phi.Result.Type), strings.Join(edges, ", "))
	}
	for _, inst := range blk.Body {
		p.printInst(inst)
	}
	p.printTerminator(blk.Terminator)
	p.indent--
}

func (p *Printer) printInst(inst Instruction) {
	switch v := inst.(type) {
	case *BinOpInst:
		p.line("%%%d = %s %s %s, %s", v.Result.Reg, binOpMnemonic(v.Op), typeName(v.Left.Type), p.value(v.Left), p.value(v.Right))
	case *UnOpInst:
		p.line("%%%d = %s %s %s", v.Result.Reg, unOpMnemonic(v.Op), typeName(v.Operand.Type), p.value(v.Operand))
	case *GEPInst:
		p.line("%%%d = getelementptr %s, %s %s, %s ; %s", v.Result.Reg, typeName(v.Result.Type), typeName(v.Base.Type), p.value(v.Base), p.value(v.Index), gepComment(v.Kind))
	case *LoadInst:
		p.line("%%%d = load %s, %s %s", v.Result.Reg, typeName(v.Result.Type), typeName(v.Addr.Type)+"*", p.value(v.Addr))
	case *StoreInst:
		p.line("store %s %s, %s %s", typeName(v.Value.Type), p.value(v.Value), typeName(v.Addr.Type)+"*", p.value(v.Addr))
	case *CallInst:
		p.printCall(v)
	}
}

func (p *Printer) printCall(v *CallInst) {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = fmt.Sprintf("%s %s", typeName(a.Type), p.value(a))
	}
	target := v.Symbol
	if v.Indirect {
		target = p.value(v.FuncPtr)
	}
	if v.Result == nil {
		p.line("call void @%s(%s)", target, strings.Join(args, ", "))
		return
	}
	p.line("%%%d = call %s @%s(%s)", v.Result.Reg, typeName(v.Result.Type), target, strings.Join(args, ", "))
}

func (p *Printer) printTerminator(t Instruction) {
	switch v := t.(type) {
	case *BranchInst:
		if v.Cond == nil {
			p.line("br label %%%s", v.TrueLabel)
			return
		}
		p.line("br i1 %s, label %%%s, label %%%s", p.value(*v.Cond), v.TrueLabel, v.FalseLabel)
	case *ReturnInst:
		if v.Value == nil {
			p.line("ret void")
			return
		}
		p.line("ret %s %s", typeName(v.Value.Type), p.value(*v.Value))
	}
}

func (p *Printer) value(v Value) string {
	switch {
	case v.GlobalSym != "":
		return "@" + v.GlobalSym
	case v.StringConst != "":
		return fmt.Sprintf("getelementptr ([0 x i8], [0 x i8]* @%s, i32 0, i32 0)", v.StringConst)
	case v.IsNull:
		return "null"
	case !v.IsConst:
		return "%" + strconv.Itoa(v.Reg)
	}
	switch v.Type.(type) {
	case types.BoolType:
		if v.BoolConst {
			return "true"
		}
		return "false"
	case types.StrType:
		return "\"\"" // the empty-string default; non-empty literals always set StringConst
	default:
		return strconv.FormatInt(v.IntConst, 10)
	}
}

func typeName(t types.Type) string {
	switch v := t.(type) {
	case types.IntType:
		return "i32"
	case types.BoolType:
		return "i1"
	case types.VoidType:
		return "void"
	case types.StrType:
		return "i8*"
	case types.NullType:
		return "i8*"
	case types.ArrayType:
		return "arr." + typeName(v.Elem) + "*"
	case types.ClassType:
		return "%class." + v.Name + "*"
	case types.FunctionType:
		return "fnptr"
	}
	return "i8*"
}

func binOpMnemonic(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		return "sdiv"
	case "%":
		return "srem"
	case "<":
		return "icmp slt"
	case "<=":
		return "icmp sle"
	case ">":
		return "icmp sgt"
	case ">=":
		return "icmp sge"
	case "==":
		return "icmp eq"
	case "!=":
		return "icmp ne"
	}
	return op
}

func unOpMnemonic(op string) string {
	if op == "-" {
		return "neg"
	}
	return "not"
}

func gepComment(k GEPKind) string {
	switch k {
	case GEPField:
		return "field"
	case GEPArrayElem:
		return "elem"
	case GEPArrayHeader:
		return "length"
	case GEPVTableSlot:
		return "vslot"
	}
	return ""
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('c')
	b.WriteByte('"')
	for _, c := range []byte(s) {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "\\%02X", c)
	}
	b.WriteString("\\00\"")
	return b.String()
}
