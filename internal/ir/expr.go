package ir

import (
	"latte/internal/ast"
	"latte/internal/types"
)

// coerce adapts a lowered null constant to the type its destination
// expects. Every other value already carries its real type from
// lowering, so this is a no-op for them.
func coerce(v Value, target types.Type) Value {
	if v.IsConst && v.IsNull {
		return Value{IsConst: true, IsNull: true, Type: target}
	}
	return v
}

func (fg *funcGen) lowerExpr(e ast.Expr) Value {
	switch v := e.(type) {
	case *ast.IntLit:
		return ConstInt(v.Value)
	case *ast.BoolLit:
		return ConstBool(v.Value)
	case *ast.StringLit:
		return ConstString(fg.g.strings.Intern(v.Value))
	case *ast.NullLit:
		return Value{IsConst: true, IsNull: true, Type: types.NullType{}}
	case *ast.IdentExpr:
		return fg.lowerIdent(v)
	case *ast.UnaryExpr:
		return fg.lowerUnary(v)
	case *ast.BinaryExpr:
		return fg.lowerBinary(v)
	case *ast.CallExpr:
		return fg.lowerCall(v)
	case *ast.MethodCallExpr:
		return fg.lowerMethodCall(v)
	case *ast.FieldAccessExpr:
		return fg.lowerFieldAccess(v)
	case *ast.IndexExpr:
		return fg.lowerIndex(v)
	case *ast.NewObjectExpr:
		return fg.lowerNewObject(v)
	case *ast.NewArrayExpr:
		return fg.lowerNewArray(v)
	case *ast.CastExpr:
		// The only legal cast value is `null`, already enforced by
		// internal/sema.
		return Value{IsConst: true, IsNull: true, Type: resolveType(v.Target, fg.g.classes)}
	}
	return ConstInt(0)
}

func (fg *funcGen) lowerIdent(v *ast.IdentExpr) Value {
	res := v.GetMetadata().Res
	if res != nil && res.Kind == ast.ResolveField {
		return fg.loadField(fg.env["self"], res.ClassName, res.SlotIndex, res.VarType)
	}
	return fg.env[v.Name]
}

func (fg *funcGen) lowerUnary(v *ast.UnaryExpr) Value {
	operand := fg.lowerExpr(v.Operand)
	var resultType types.Type = types.IntType{}
	op := "-"
	if v.Op == ast.OpNot {
		resultType = types.BoolType{}
		op = "!"
	}
	result := fg.fc.NewRegister(resultType)
	fg.fc.Current().Emit(&UnOpInst{Result: result, Op: op, Operand: operand})
	return result
}

func (fg *funcGen) lowerBinary(v *ast.BinaryExpr) Value {
	switch v.Op {
	case ast.OpAnd:
		return fg.lowerShortCircuit(v, true)
	case ast.OpOr:
		return fg.lowerShortCircuit(v, false)
	}

	left := fg.lowerExpr(v.Left)
	right := fg.lowerExpr(v.Right)

	if v.Op == ast.OpAdd && sameType(left.Type, types.StrType{}) {
		result := fg.fc.NewRegister(types.StrType{})
		fg.fc.Current().Emit(&CallInst{Result: &result, Symbol: "__str_concat__", Args: []Value{left, right}})
		return result
	}
	if (v.Op == ast.OpEq || v.Op == ast.OpNe) && sameType(left.Type, types.StrType{}) {
		return fg.lowerStringEquality(v.Op, left, right)
	}

	resultType := types.Type(types.IntType{})
	if v.Op != ast.OpAdd && v.Op != ast.OpSub && v.Op != ast.OpMul && v.Op != ast.OpDiv && v.Op != ast.OpMod {
		resultType = types.BoolType{}
	}
	result := fg.fc.NewRegister(resultType)
	fg.fc.Current().Emit(&BinOpInst{Result: result, Op: v.Op.String(), Left: left, Right: right})
	return result
}

func sameType(a, b types.Type) bool { return types.Equal(a, b) }

// lowerStringEquality lowers string == / != to the runtime's byte
// comparison helper rather than a pointer comparison, since two
// distinct heap strings may hold equal contents.
func (fg *funcGen) lowerStringEquality(op ast.BinOp, left, right Value) Value {
	cmp := fg.fc.NewRegister(types.BoolType{})
	fg.fc.Current().Emit(&CallInst{Result: &cmp, Symbol: "__str_eq__", Args: []Value{left, right}})
	if op == ast.OpEq {
		return cmp
	}
	result := fg.fc.NewRegister(types.BoolType{})
	fg.fc.Current().Emit(&UnOpInst{Result: result, Op: "!", Operand: cmp})
	return result
}

// lowerShortCircuit lowers && and || with the textbook diamond: the
// left operand is always evaluated; the right operand's block is only
// reached when it can change the result, and a phi at the join merges
// the two outcomes.
func (fg *funcGen) lowerShortCircuit(v *ast.BinaryExpr, isAnd bool) Value {
	left := fg.lowerExpr(v.Left)
	entry := fg.fc.Current()
	rhsLabel := fg.fc.NewLabel("sc.rhs")
	joinLabel := fg.fc.NewLabel("sc.end")

	shortCircuitValue := ConstBool(!isAnd) // && short-circuits on false, || on true
	if isAnd {
		entry.SetTerminator(&BranchInst{Cond: &left, TrueLabel: rhsLabel, FalseLabel: joinLabel})
	} else {
		entry.SetTerminator(&BranchInst{Cond: &left, TrueLabel: joinLabel, FalseLabel: rhsLabel})
	}
	fg.fc.Finalize(entry)

	rhsBuilder := fg.fc.Open(rhsLabel)
	rhsBuilder.AddPred(entry.Label())
	right := fg.lowerExpr(v.Right)
	// v.Right may itself be a short-circuit expression, in which case
	// lowering it has already finalized rhsBuilder and opened/finalized
	// further blocks of its own — the block that actually falls through
	// to the join is whatever fg.fc.Current() is now, not rhsBuilder.
	fg.fc.Current().SetTerminator(&BranchInst{TrueLabel: joinLabel})
	rhsExit := fg.fc.Current().Label()
	fg.fc.Finalize(fg.fc.Current())

	join := fg.fc.Open(joinLabel)
	join.AddPred(entry.Label())
	join.AddPred(rhsExit)
	result := fg.fc.NewRegister(types.BoolType{})
	join.EmitPhi(&PhiInst{Result: result, Incoming: []PhiEdge{
		{Pred: entry.Label(), Value: shortCircuitValue},
		{Pred: rhsExit, Value: right},
	}})
	return result
}

func (fg *funcGen) lowerArgs(args []ast.Expr, paramTypes []types.Type) []Value {
	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = coerce(fg.lowerExpr(a), paramTypes[i])
	}
	return vals
}

func (fg *funcGen) lowerCall(v *ast.CallExpr) Value {
	sig := v.GetMetadata().Res.Signature
	args := fg.lowerArgs(v.Args, sig.Params)
	if types.Equal(sig.Ret, types.VoidType{}) {
		fg.fc.Current().Emit(&CallInst{Symbol: v.Callee, Args: args})
		return Value{}
	}
	result := fg.fc.NewRegister(sig.Ret)
	fg.fc.Current().Emit(&CallInst{Result: &result, Symbol: v.Callee, Args: args})
	return result
}

// lowerMethodCall dispatches virtually: load the receiver's vtable
// pointer (slot 0), load the method's function pointer out of the
// fixed slot the class table assigned it, then call indirectly through
// it — vtable monotonicity is what makes a fixed slot index valid
// across every subclass.
func (fg *funcGen) lowerMethodCall(v *ast.MethodCallExpr) Value {
	res := v.GetMetadata().Res
	recv := fg.lowerExpr(v.Receiver)
	args := fg.lowerArgs(v.Args, res.Signature.Params)
	args = append([]Value{recv}, args...)

	fnPtrType := types.FunctionType{Ret: res.Signature.Ret, Params: res.Signature.Params}
	vtablePtrAddr := fg.fc.NewRegister(types.VoidType{})
	fg.fc.Current().Emit(&GEPInst{Result: vtablePtrAddr, Kind: GEPField, Base: recv, Index: ConstInt(0)})
	vtablePtr := fg.fc.NewRegister(types.VoidType{})
	fg.fc.Current().Emit(&LoadInst{Result: vtablePtr, Addr: vtablePtrAddr})

	slotAddr := fg.fc.NewRegister(fnPtrType)
	fg.fc.Current().Emit(&GEPInst{Result: slotAddr, Kind: GEPVTableSlot, Base: vtablePtr, Index: ConstInt(int64(res.SlotIndex))})
	fnPtr := fg.fc.NewRegister(fnPtrType)
	fg.fc.Current().Emit(&LoadInst{Result: fnPtr, Addr: slotAddr})

	if types.Equal(res.Signature.Ret, types.VoidType{}) {
		fg.fc.Current().Emit(&CallInst{Indirect: true, FuncPtr: fnPtr, Args: args})
		return Value{}
	}
	result := fg.fc.NewRegister(res.Signature.Ret)
	fg.fc.Current().Emit(&CallInst{Result: &result, Indirect: true, FuncPtr: fnPtr, Args: args})
	return result
}

func (fg *funcGen) loadField(base Value, className string, slot int, fieldType types.Type) Value {
	addr := fg.fc.NewRegister(fieldType)
	fg.fc.Current().Emit(&GEPInst{Result: addr, Kind: GEPField, Base: base, Index: ConstInt(int64(slot + 1))})
	result := fg.fc.NewRegister(fieldType)
	fg.fc.Current().Emit(&LoadInst{Result: result, Addr: addr})
	return result
}

func (fg *funcGen) fieldAddr(base Value, slot int, fieldType types.Type) Value {
	addr := fg.fc.NewRegister(fieldType)
	fg.fc.Current().Emit(&GEPInst{Result: addr, Kind: GEPField, Base: base, Index: ConstInt(int64(slot + 1))})
	return addr
}

func (fg *funcGen) lowerFieldAccess(v *ast.FieldAccessExpr) Value {
	if v.Field == "length" {
		arr := fg.lowerExpr(v.Receiver)
		addr := fg.fc.NewRegister(types.IntType{})
		fg.fc.Current().Emit(&GEPInst{Result: addr, Kind: GEPArrayHeader, Base: arr, Index: ConstInt(0)})
		result := fg.fc.NewRegister(types.IntType{})
		fg.fc.Current().Emit(&LoadInst{Result: result, Addr: addr})
		return result
	}
	res := v.GetMetadata().Res
	recv := fg.lowerExpr(v.Receiver)
	return fg.loadField(recv, res.ClassName, res.SlotIndex, res.VarType)
}

// elemAddr computes the address of arr[index]. Slot 0 of every array
// holds its length (written once by lowerNewArray), so element index i
// lives at slot i+1, the same way a class field at slot s lives one
// slot past the vtable pointer.
func (fg *funcGen) elemAddr(arr, index Value, elemType types.Type) Value {
	shifted := index
	if index.IsConst {
		shifted = ConstInt(index.IntConst + 1)
	} else {
		shifted = fg.fc.NewRegister(types.IntType{})
		fg.fc.Current().Emit(&BinOpInst{Result: shifted, Op: "+", Left: index, Right: ConstInt(1)})
	}
	addr := fg.fc.NewRegister(elemType)
	fg.fc.Current().Emit(&GEPInst{Result: addr, Kind: GEPArrayElem, Base: arr, Index: shifted})
	return addr
}

func (fg *funcGen) lowerIndex(v *ast.IndexExpr) Value {
	arr := fg.lowerExpr(v.Array)
	idx := fg.lowerExpr(v.Index)
	elemType := v.GetMetadata().Type
	addr := fg.elemAddr(arr, idx, elemType)
	result := fg.fc.NewRegister(elemType)
	fg.fc.Current().Emit(&LoadInst{Result: result, Addr: addr})
	return result
}

// lowerNewObject allocates a class instance via the runtime's generic
// byte allocator sized to the class's slot count (vtable pointer +
// every field, pointer-sized), then stores the class's vtable address
// into slot 0 — every class instance carries a vtable pointer in that
// slot, even one whose class declares no methods.
func (fg *funcGen) lowerNewObject(v *ast.NewObjectExpr) Value {
	ci := fg.classInfo(v.ClassName)
	classType := types.ClassType{Name: v.ClassName}
	const wordBytes = 8
	size := ConstInt(int64((1 + len(ci.Fields)) * wordBytes))
	obj := fg.fc.NewRegister(classType)
	fg.fc.Current().Emit(&CallInst{Result: &obj, Symbol: "__array_init__", Args: []Value{size}})

	vtableAddr := fg.fc.NewRegister(types.VoidType{})
	fg.fc.Current().Emit(&GEPInst{Result: vtableAddr, Kind: GEPField, Base: obj, Index: ConstInt(0)})
	fg.fc.Current().Emit(&StoreInst{Addr: vtableAddr, Value: ConstGlobal(vtableSymbol(v.ClassName), types.VoidType{})})
	return obj
}

// lowerNewArray allocates an array via the runtime's generic byte
// allocator sized for the header word plus one word per element (the
// same uniform word-per-slot convention lowerNewObject uses for class
// fields), then stores the element count into slot 0 — the header
// `.length` (lowerFieldAccess) and for-each both read back.
func (fg *funcGen) lowerNewArray(v *ast.NewArrayExpr) Value {
	size := fg.lowerExpr(v.Size)
	elemType := resolveType(v.ElemType, fg.g.classes)
	arrType := types.ArrayType{Elem: elemType}

	const wordBytes = 8
	slots := fg.fc.NewRegister(types.IntType{})
	fg.fc.Current().Emit(&BinOpInst{Result: slots, Op: "+", Left: size, Right: ConstInt(1)})
	byteSize := fg.fc.NewRegister(types.IntType{})
	fg.fc.Current().Emit(&BinOpInst{Result: byteSize, Op: "*", Left: slots, Right: ConstInt(wordBytes)})

	result := fg.fc.NewRegister(arrType)
	fg.fc.Current().Emit(&CallInst{Result: &result, Symbol: "__array_init__", Args: []Value{byteSize}})

	lenAddr := fg.fc.NewRegister(types.IntType{})
	fg.fc.Current().Emit(&GEPInst{Result: lenAddr, Kind: GEPArrayHeader, Base: result, Index: ConstInt(0)})
	fg.fc.Current().Emit(&StoreInst{Addr: lenAddr, Value: size})

	return result
}
