package ir

import (
	"sort"

	"latte/internal/ast"
	"latte/internal/types"
)

// sortedNames returns env's keys in lexical order, so that register and
// phi allocation driven by iterating an environment snapshot produces
// the same %N numbering and phi ordering on every run — Go's map
// iteration order is randomized per process, and Print must be
// byte-identical across runs of the same compilation.
func sortedNames(env map[string]Value) []string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (fg *funcGen) lowerStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		if fg.fc.Current().Terminated() {
			// Dead code after a statement that definitely returns on every
			// path (internal/normalize already guarantees nothing live
			// follows one of these in a well-formed function).
			return
		}
		fg.lowerStmt(s)
	}
}

func (fg *funcGen) lowerStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.Block:
		fg.lowerStmts(v.Stmts)
	case *ast.DeclStmt:
		fg.lowerDecl(v)
	case *ast.AssignStmt:
		fg.lowerAssign(v)
	case *ast.ExprStmt:
		fg.lowerExpr(v.X)
	case *ast.ReturnStmt:
		fg.lowerReturn(v)
	case *ast.IfStmt:
		fg.lowerIf(v)
	case *ast.WhileStmt:
		fg.lowerWhile(v)
	case *ast.ForEachStmt:
		fg.lowerForEach(v)
	case *ast.EmptyStmt:
		// nothing to emit
	}
}

func (fg *funcGen) lowerDecl(v *ast.DeclStmt) {
	declType := resolveType(v.Type, fg.g.classes)
	if v.Init != nil {
		fg.env[v.Name] = coerce(fg.lowerExpr(v.Init), declType)
		return
	}
	fg.env[v.Name] = zeroValue(declType)
}

// zeroValue is the default a declaration without an initializer gets:
// 0, false, the empty string, or null.
func zeroValue(t types.Type) Value {
	switch t.(type) {
	case types.IntType:
		return ConstInt(0)
	case types.BoolType:
		return ConstBool(false)
	case types.StrType:
		return ConstString("")
	default:
		return Value{IsConst: true, IsNull: true, Type: t}
	}
}

// lowerAssign updates the env mapping for a plain identifier (no store:
// assignment to a local just rebinds its current register), or emits
// a store instruction for a field or array-element l-value.
func (fg *funcGen) lowerAssign(v *ast.AssignStmt) {
	switch t := v.Target.(type) {
	case *ast.IdentExpr:
		res := t.GetMetadata().Res
		if res != nil && res.Kind == ast.ResolveField {
			addr := fg.fieldAddr(fg.env["self"], res.SlotIndex, res.VarType)
			fg.fc.Current().Emit(&StoreInst{Addr: addr, Value: coerce(fg.lowerExpr(v.Value), res.VarType)})
			return
		}
		fg.env[t.Name] = coerce(fg.lowerExpr(v.Value), t.GetMetadata().Type)

	case *ast.FieldAccessExpr:
		res := t.GetMetadata().Res
		recv := fg.lowerExpr(t.Receiver)
		addr := fg.fieldAddr(recv, res.SlotIndex, res.VarType)
		fg.fc.Current().Emit(&StoreInst{Addr: addr, Value: coerce(fg.lowerExpr(v.Value), res.VarType)})

	case *ast.IndexExpr:
		arr := fg.lowerExpr(t.Array)
		idx := fg.lowerExpr(t.Index)
		elemType := t.GetMetadata().Type
		addr := fg.elemAddr(arr, idx, elemType)
		fg.fc.Current().Emit(&StoreInst{Addr: addr, Value: coerce(fg.lowerExpr(v.Value), elemType)})
	}
}

func (fg *funcGen) lowerReturn(v *ast.ReturnStmt) {
	if v.Value == nil {
		fg.fc.Current().SetTerminator(&ReturnInst{})
		return
	}
	val := coerce(fg.lowerExpr(v.Value), fg.retType)
	fg.fc.Current().SetTerminator(&ReturnInst{Value: &val})
}

// lowerIf follows the standard if/then/else/merge CFG template: both
// branches lower from independent env snapshots, and a phi is inserted
// at the merge for every variable whose register differs between the
// two incoming snapshots.
func (fg *funcGen) lowerIf(v *ast.IfStmt) {
	cond := fg.lowerExpr(v.Cond)
	entry := fg.fc.Current()
	thenLabel := fg.fc.NewLabel("if.then")
	mergeLabel := fg.fc.NewLabel("if.end")
	elseLabel := mergeLabel
	if v.Else != nil {
		elseLabel = fg.fc.NewLabel("if.else")
	}
	entry.SetTerminator(&BranchInst{Cond: &cond, TrueLabel: thenLabel, FalseLabel: elseLabel})
	fg.fc.Finalize(entry)

	envBefore := fg.snapshot()

	thenBuilder := fg.fc.Open(thenLabel)
	thenBuilder.AddPred(entry.Label())
	fg.lowerStmts(stmtsOf(v.Then))
	thenTerminated := fg.fc.Current().Terminated()
	var thenExitLabel string
	var thenEnv map[string]Value
	if !thenTerminated {
		fg.fc.Current().SetTerminator(&BranchInst{TrueLabel: mergeLabel})
		thenEnv = fg.snapshot()
	}
	thenExitLabel = fg.fc.Current().Label()
	fg.fc.Finalize(fg.fc.Current())

	fg.env = make(map[string]Value, len(envBefore))
	for name, val := range envBefore {
		fg.env[name] = val
	}
	var elseEnv map[string]Value
	var elseExitLabel string
	elseTerminated := false
	if v.Else != nil {
		elseBuilder := fg.fc.Open(elseLabel)
		elseBuilder.AddPred(entry.Label())
		fg.lowerStmts(stmtsOf(v.Else))
		elseTerminated = fg.fc.Current().Terminated()
		if !elseTerminated {
			fg.fc.Current().SetTerminator(&BranchInst{TrueLabel: mergeLabel})
			elseEnv = fg.snapshot()
		}
		elseExitLabel = fg.fc.Current().Label()
		fg.fc.Finalize(fg.fc.Current())
	} else {
		elseEnv = envBefore
		elseExitLabel = entry.Label()
	}

	bothTerminated := thenTerminated && v.Else != nil && elseTerminated
	if bothTerminated {
		// Both reachable paths return: nothing reaches the merge point, so
		// normalize.go guarantees no further statement in this block is
		// live. A trivial, already-terminated dead merge block is opened
		// and left as the current block: lowerStmts's Terminated guard on
		// fg.fc.Current() then skips whatever (dead) code follows, and the
		// enclosing construct (or buildFunction) finalizes it.
		fg.fc.Open(mergeLabel)
		fg.fc.Current().SetTerminator(&ReturnInst{})
		return
	}

	merge := fg.fc.Open(mergeLabel)
	mergedEnv := map[string]Value{}
	if !thenTerminated {
		merge.AddPred(thenExitLabel)
	}
	if v.Else == nil || !elseTerminated {
		merge.AddPred(elseExitLabel)
	}
	for _, name := range sortedNames(envBefore) {
		switch {
		case thenTerminated:
			mergedEnv[name] = elseEnv[name]
		case v.Else != nil && elseTerminated:
			mergedEnv[name] = thenEnv[name]
		case thenEnv[name].IsConst == elseEnv[name].IsConst && !thenEnv[name].IsConst && thenEnv[name].Reg == elseEnv[name].Reg:
			mergedEnv[name] = thenEnv[name]
		default:
			result := fg.fc.NewRegister(envBefore[name].Type)
			merge.EmitPhi(&PhiInst{Result: result, Incoming: []PhiEdge{
				{Pred: thenExitLabel, Value: thenEnv[name]},
				{Pred: elseExitLabel, Value: elseEnv[name]},
			}})
			mergedEnv[name] = result
		}
	}
	fg.env = mergedEnv
}

func stmtsOf(s ast.Stmt) []ast.Stmt {
	if b, ok := s.(*ast.Block); ok {
		return b.Stmts
	}
	return []ast.Stmt{s}
}

// lowerWhile follows a header/body/after template with deferred phi
// patch-up: the header opens with a placeholder phi
// per loop-carried candidate variable before the body is lowered (the
// body's own register use is valid immediately, since the header
// dominates it). The header is finalized as soon as the condition is
// lowered, before the body; its placeholder phis and predecessor list
// are patched on the finalized block once the body's final env is
// known.
func (fg *funcGen) lowerWhile(v *ast.WhileStmt) {
	preEnv := fg.snapshot()
	entry := fg.fc.Current()
	headerLabel := fg.fc.NewLabel("while.cond")
	entry.SetTerminator(&BranchInst{TrueLabel: headerLabel})
	fg.fc.Finalize(entry)

	header := fg.fc.Open(headerLabel)
	header.AddPred(entry.Label())
	placeholders := map[string]Value{}
	phis := map[string]*PhiInst{}
	for _, name := range sortedNames(preEnv) {
		val := preEnv[name]
		ph := fg.fc.NewRegister(val.Type)
		phi := &PhiInst{Result: ph, Incoming: []PhiEdge{{Pred: entry.Label(), Value: val}}}
		header.EmitPhi(phi)
		placeholders[name] = ph
		phis[name] = phi
	}
	fg.env = make(map[string]Value, len(placeholders))
	for name, ph := range placeholders {
		fg.env[name] = ph
	}

	cond := fg.lowerExpr(v.Cond)
	bodyLabel := fg.fc.NewLabel("while.body")
	afterLabel := fg.fc.NewLabel("while.end")
	if !fg.fc.Current().Terminated() {
		fg.fc.Current().SetTerminator(&BranchInst{Cond: &cond, TrueLabel: bodyLabel, FalseLabel: afterLabel})
		fg.fc.Finalize(fg.fc.Current())
	}
	finalizedHeader := fg.fc.BlockByLabel(headerLabel)

	bodyBuilder := fg.fc.Open(bodyLabel)
	bodyBuilder.AddPred(headerLabel)
	fg.lowerStmts(stmtsOf(v.Body))
	if !fg.fc.Current().Terminated() {
		fg.fc.Current().SetTerminator(&BranchInst{TrueLabel: headerLabel})
		bodyExitLabel := fg.fc.Current().Label()
		bodyEnv := fg.snapshot()
		fg.fc.Finalize(fg.fc.Current())

		finalizedHeader.Preds = append(finalizedHeader.Preds, bodyExitLabel)
		for name, phi := range phis {
			back := bodyEnv[name]
			if !back.IsConst && back.Reg == placeholders[name].Reg {
				// Never reassigned in the body: fold the placeholder away.
				fg.fc.Substitute(placeholders[name].Reg, preEnv[name])
				fg.fc.DropPhi(finalizedHeader, phi)
				placeholders[name] = preEnv[name]
				continue
			}
			phi.Incoming = append(phi.Incoming, PhiEdge{Pred: bodyExitLabel, Value: back})
		}
	} else {
		fg.fc.Finalize(fg.fc.Current())
	}

	after := fg.fc.Open(afterLabel)
	after.AddPred(headerLabel)
	fg.env = placeholders
}

// lowerForEach desugars `for (T x : arr) body` into an index-based while
// loop over a length snapshotted once at loop entry: array length is
// read once before the loop, not re-read each iteration, so mutating
// the array's length mid-loop — via reassignment to a new array of
// different size — cannot change how many iterations run.
func (fg *funcGen) lowerForEach(v *ast.ForEachStmt) {
	arr := fg.lowerExpr(v.Array)
	lenAddr := fg.fc.NewRegister(types.IntType{})
	fg.fc.Current().Emit(&GEPInst{Result: lenAddr, Kind: GEPArrayHeader, Base: arr, Index: ConstInt(0)})
	length := fg.fc.NewRegister(types.IntType{})
	fg.fc.Current().Emit(&LoadInst{Result: length, Addr: lenAddr})

	elemType := resolveType(v.ElemType, fg.g.classes)
	idxName := "$idx." + v.VarName
	fg.env[idxName] = ConstInt(0)

	synthCond := func() Value {
		idx := fg.env[idxName]
		result := fg.fc.NewRegister(types.BoolType{})
		fg.fc.Current().Emit(&BinOpInst{Result: result, Op: "<", Left: idx, Right: length})
		return result
	}

	preEnv := fg.snapshot()
	entry := fg.fc.Current()
	headerLabel := fg.fc.NewLabel("foreach.cond")
	entry.SetTerminator(&BranchInst{TrueLabel: headerLabel})
	fg.fc.Finalize(entry)

	header := fg.fc.Open(headerLabel)
	header.AddPred(entry.Label())
	placeholders := map[string]Value{}
	phis := map[string]*PhiInst{}
	for _, name := range sortedNames(preEnv) {
		val := preEnv[name]
		ph := fg.fc.NewRegister(val.Type)
		phi := &PhiInst{Result: ph, Incoming: []PhiEdge{{Pred: entry.Label(), Value: val}}}
		header.EmitPhi(phi)
		placeholders[name] = ph
		phis[name] = phi
	}
	fg.env = make(map[string]Value, len(placeholders))
	for name, ph := range placeholders {
		fg.env[name] = ph
	}

	cond := synthCond()
	bodyLabel := fg.fc.NewLabel("foreach.body")
	afterLabel := fg.fc.NewLabel("foreach.end")
	if !fg.fc.Current().Terminated() {
		fg.fc.Current().SetTerminator(&BranchInst{Cond: &cond, TrueLabel: bodyLabel, FalseLabel: afterLabel})
		fg.fc.Finalize(fg.fc.Current())
	}
	finalizedHeader := fg.fc.BlockByLabel(headerLabel)

	bodyBuilder := fg.fc.Open(bodyLabel)
	bodyBuilder.AddPred(headerLabel)
	elemAddr := fg.elemAddr(arr, fg.env[idxName], elemType)
	elem := fg.fc.NewRegister(elemType)
	fg.fc.Current().Emit(&LoadInst{Result: elem, Addr: elemAddr})
	fg.env[v.VarName] = elem

	nextIdx := fg.fc.NewRegister(types.IntType{})
	fg.fc.Current().Emit(&BinOpInst{Result: nextIdx, Op: "+", Left: fg.env[idxName], Right: ConstInt(1)})
	fg.env[idxName] = nextIdx

	fg.lowerStmts(stmtsOf(v.Body))
	if !fg.fc.Current().Terminated() {
		fg.fc.Current().SetTerminator(&BranchInst{TrueLabel: headerLabel})
		bodyExitLabel := fg.fc.Current().Label()
		bodyEnv := fg.snapshot()
		fg.fc.Finalize(fg.fc.Current())

		finalizedHeader.Preds = append(finalizedHeader.Preds, bodyExitLabel)
		for name, phi := range phis {
			back := bodyEnv[name]
			if !back.IsConst && back.Reg == placeholders[name].Reg {
				fg.fc.Substitute(placeholders[name].Reg, preEnv[name])
				fg.fc.DropPhi(finalizedHeader, phi)
				placeholders[name] = preEnv[name]
				continue
			}
			phi.Incoming = append(phi.Incoming, PhiEdge{Pred: bodyExitLabel, Value: back})
		}
	} else {
		fg.fc.Finalize(fg.fc.Current())
	}

	after := fg.fc.Open(afterLabel)
	after.AddPred(headerLabel)
	delete(placeholders, idxName)
	delete(placeholders, v.VarName)
	fg.env = placeholders
}
