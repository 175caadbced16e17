package ir

import "latte/internal/types"

// Value is either a constant or a register handle, each carrying its
// static type.
type Value struct {
	IsConst bool
	Type    types.Type

	// Constant forms.
	IntConst    int64
	BoolConst   bool
	IsNull      bool
	StringConst string // a string-literal-pool symbol; printer renders it as a GEP to i8*
	GlobalSym   string // the address of some other global (a class's vtable); printer renders it bare

	// Register form.
	Reg int
}

func ConstInt(v int64) Value    { return Value{IsConst: true, Type: types.IntType{}, IntConst: v} }
func ConstBool(v bool) Value    { return Value{IsConst: true, Type: types.BoolType{}, BoolConst: v} }
func ConstNull(t types.Type) Value { return Value{IsConst: true, Type: t, IsNull: true} }
func ConstString(sym string) Value {
	return Value{IsConst: true, Type: types.StrType{}, StringConst: sym}
}
func ConstGlobal(sym string, t types.Type) Value {
	return Value{IsConst: true, Type: t, GlobalSym: sym}
}
func Register(id int, t types.Type) Value { return Value{Reg: id, Type: t} }

// Instruction is implemented by every non-terminator and terminator IR
// instruction. Rewrite lets FunctionContext's substitution logic stay
// generic over instruction shape; Defs/Uses expose the defined register
// and the operands the same way. The printer switches on the concrete
// instruction type instead.
type Instruction interface {
	Defs() (Value, bool)        // the register this instruction defines, if any
	Uses() []Value              // every register/constant operand it reads
	Rewrite(old int, new Value) // replace every operand reading register `old` with `new`, register or constant
}

type BinOpInst struct {
	Result      Value
	Op          string // "+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!="
	Left, Right Value
}

type UnOpInst struct {
	Result  Value
	Op      string // "-", "!"
	Operand Value
}

// GEPInst computes a pointer to a struct field, an array element, an
// array's length header, or a vtable slot. Kind distinguishes the four
// so the printer can render the right comment/shape; all four lower to
// the same "getelementptr" instruction form.
type GEPKind int

const (
	GEPField GEPKind = iota
	GEPArrayElem
	GEPArrayHeader
	GEPVTableSlot
)

type GEPInst struct {
	Result Value
	Kind   GEPKind
	Base   Value
	Index  Value // field/vtable slot index (constant) or array index (value)
}

type LoadInst struct {
	Result Value
	Addr   Value
}

type StoreInst struct {
	Addr  Value
	Value Value
}

// CallInst is either a direct call by symbol name (free function or
// runtime helper) or an indirect call through a loaded function
// pointer (virtual dispatch).
type CallInst struct {
	Result   *Value // nil for a void call
	Symbol   string // direct target; empty if Indirect
	Indirect bool
	FuncPtr  Value // valid only if Indirect
	Args     []Value
}

type PhiEdge struct {
	Pred  string
	Value Value
}

type PhiInst struct {
	Result   Value
	Incoming []PhiEdge
}

// Terminators.

type BranchInst struct {
	Cond       *Value // nil for unconditional
	TrueLabel  string
	FalseLabel string // unused when Cond == nil
}

type ReturnInst struct {
	Value *Value // nil for a void return
}

func (i *BinOpInst) Defs() (Value, bool) { return i.Result, true }
func (i *BinOpInst) Uses() []Value       { return []Value{i.Left, i.Right} }
func (i *BinOpInst) Rewrite(old int, new Value) {
	rewriteReg(&i.Result, old, new)
	rewriteReg(&i.Left, old, new)
	rewriteReg(&i.Right, old, new)
}

func (i *UnOpInst) Defs() (Value, bool) { return i.Result, true }
func (i *UnOpInst) Uses() []Value       { return []Value{i.Operand} }
func (i *UnOpInst) Rewrite(old int, new Value) {
	rewriteReg(&i.Result, old, new)
	rewriteReg(&i.Operand, old, new)
}

func (i *GEPInst) Defs() (Value, bool) { return i.Result, true }
func (i *GEPInst) Uses() []Value       { return []Value{i.Base, i.Index} }
func (i *GEPInst) Rewrite(old int, new Value) {
	rewriteReg(&i.Result, old, new)
	rewriteReg(&i.Base, old, new)
	rewriteReg(&i.Index, old, new)
}

func (i *LoadInst) Defs() (Value, bool) { return i.Result, true }
func (i *LoadInst) Uses() []Value       { return []Value{i.Addr} }
func (i *LoadInst) Rewrite(old int, new Value) {
	rewriteReg(&i.Result, old, new)
	rewriteReg(&i.Addr, old, new)
}

func (i *StoreInst) Defs() (Value, bool) { return Value{}, false }
func (i *StoreInst) Uses() []Value       { return []Value{i.Addr, i.Value} }
func (i *StoreInst) Rewrite(old int, new Value) {
	rewriteReg(&i.Addr, old, new)
	rewriteReg(&i.Value, old, new)
}

func (i *CallInst) Defs() (Value, bool) {
	if i.Result == nil {
		return Value{}, false
	}
	return *i.Result, true
}
func (i *CallInst) Uses() []Value {
	uses := append([]Value{}, i.Args...)
	if i.Indirect {
		uses = append(uses, i.FuncPtr)
	}
	return uses
}
func (i *CallInst) Rewrite(old int, new Value) {
	if i.Result != nil {
		rewriteReg(i.Result, old, new)
	}
	if i.Indirect {
		rewriteReg(&i.FuncPtr, old, new)
	}
	for idx := range i.Args {
		rewriteReg(&i.Args[idx], old, new)
	}
}

func (i *PhiInst) Defs() (Value, bool) { return i.Result, true }
func (i *PhiInst) Uses() []Value {
	uses := make([]Value, len(i.Incoming))
	for idx, e := range i.Incoming {
		uses[idx] = e.Value
	}
	return uses
}
func (i *PhiInst) Rewrite(old int, new Value) {
	rewriteReg(&i.Result, old, new)
	for idx := range i.Incoming {
		rewriteReg(&i.Incoming[idx].Value, old, new)
	}
}

func (i *BranchInst) Defs() (Value, bool) { return Value{}, false }
func (i *BranchInst) Uses() []Value {
	if i.Cond == nil {
		return nil
	}
	return []Value{*i.Cond}
}
func (i *BranchInst) Rewrite(old int, new Value) {
	if i.Cond != nil {
		rewriteReg(i.Cond, old, new)
	}
}

func (i *ReturnInst) Defs() (Value, bool) { return Value{}, false }
func (i *ReturnInst) Uses() []Value {
	if i.Value == nil {
		return nil
	}
	return []Value{*i.Value}
}
func (i *ReturnInst) Rewrite(old int, new Value) {
	if i.Value != nil {
		rewriteReg(i.Value, old, new)
	}
}

func rewriteReg(v *Value, old int, new Value) {
	if !v.IsConst && v.Reg == old {
		*v = new
	}
}

// BasicBlock is a finalized block: exactly one terminator, an ordered
// phi list, a body of non-terminator instructions, and its predecessor
// label set.
type BasicBlock struct {
	Label      string
	Phis       []*PhiInst
	Body       []Instruction
	Terminator Instruction
	Preds      []string
}

// Param is one function parameter; for a method, index 0 is always the
// implicit `self` parameter spliced in by buildFunction.
type Param struct {
	Name string
	Type types.Type
}

type Function struct {
	Name       string
	Params     []Param
	ReturnType types.Type
	Blocks     []*BasicBlock
}

// ClassIR is a class's struct layout and vtable, emitted once per class.
type ClassIR struct {
	Name       string
	StructName string
	FieldTypes []types.Type // slot 0 is always the vtable pointer; FieldTypes excludes it
	VTableName string
	VTableFns  []string // method symbol names ordered by slot
}

// StringConstant is one deduplicated entry in the module-level constant
// pool: each literal string value appears at most once in the final
// module regardless of how many call sites reference it.
type StringConstant struct {
	Symbol string
	Value  string
}

type Program struct {
	SourceName string
	Functions  []*Function
	Classes    []*ClassIR
	Strings    []StringConstant
}
