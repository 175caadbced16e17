package sema

import (
	"latte/internal/ast"
	"latte/internal/errors"
	"latte/internal/types"
)

// buildClassTable resolves every class in prog to a fixpoint, tolerating
// forward references (a class may extend one declared later in the
// file) and detecting inheritance cycles via classic color-marking DFS.
func (a *Analyzer) buildClassTable(prog *ast.Program) {
	// prog.Classes is name-keyed, so a repeated declaration has already
	// collapsed to one entry by the time we get here — walk ClassOrder
	// instead, which still lists every declaration including duplicates.
	decls := map[string]*ast.Class{}
	for _, name := range prog.ClassOrder {
		c := prog.Classes[name]
		if _, dup := decls[name]; dup {
			a.errs.Addf(errors.KindRedeclaration, c.GetMetadata().Pos, "class %q is already declared", name)
			continue
		}
		decls[name] = c
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	inCycle := map[string]bool{}

	var visit func(name string) bool
	visit = func(name string) bool {
		c, ok := decls[name]
		if !ok {
			return false // extends an undefined class; reported separately below
		}
		switch color[name] {
		case black:
			return inCycle[name]
		case gray:
			inCycle[name] = true
			return true
		}
		color[name] = gray
		cyc := false
		if c.Parent != "" {
			if c.Parent == name {
				cyc = true
			} else if visit(c.Parent) {
				cyc = true
			}
		}
		color[name] = black
		inCycle[name] = cyc
		return cyc
	}
	for name := range decls {
		visit(name)
	}

	for name, c := range decls {
		if c.Parent != "" {
			if _, ok := decls[c.Parent]; !ok {
				a.errs.Addf(errors.KindUnresolvedName, c.GetMetadata().Pos,
					"class %q extends undefined class %q", name, c.Parent)
			}
		}
		if inCycle[name] {
			a.errs.Addf(errors.KindInheritanceCycle, c.GetMetadata().Pos,
				"class %q participates in an inheritance cycle", name)
		}
	}

	built := map[string]*ClassInfo{}
	var resolve func(name string) *ClassInfo
	resolve = func(name string) *ClassInfo {
		if ci, ok := built[name]; ok {
			return ci
		}
		c, ok := decls[name]
		if !ok {
			return nil
		}
		ci := &ClassInfo{
			Name: name, ParentName: c.Parent, Decl: c,
			FieldIndex: map[string]int{}, MethodIndex: map[string]int{},
		}
		// Break cycles defensively: a class in a cycle is resolved as if
		// it had no parent, so layout construction always terminates.
		if c.Parent != "" && !inCycle[name] {
			ci.Parent = resolve(c.Parent)
		}
		built[name] = ci
		a.buildFields(ci)
		a.buildMethods(ci)
		return ci
	}
	for name := range decls {
		resolve(name)
	}
	a.classes = &ClassTable{classes: built}
}

func (a *Analyzer) buildFields(ci *ClassInfo) {
	if ci.Parent != nil {
		ci.Fields = append(ci.Fields, ci.Parent.Fields...)
		for name, idx := range ci.Parent.FieldIndex {
			ci.FieldIndex[name] = idx
		}
	}
	ownNames := map[string]bool{}
	for _, f := range ci.Decl.Fields {
		if _, dup := ci.FieldIndex[f.Name]; dup {
			if ownNames[f.Name] {
				a.errs.Addf(errors.KindRedeclaration, f.GetMetadata().Pos,
					"field %q is already declared in class %q", f.Name, ci.Name)
				continue
			}
			// else: shadows an inherited field/method name — fields and
			// methods of a single class must not shadow each other, but
			// this is reported only once even if the parent already
			// reported it once itself higher up the chain.
			a.errs.Addf(errors.KindRedeclaration, f.GetMetadata().Pos,
				"field %q shadows an inherited member", f.Name)
			continue
		}
		ownNames[f.Name] = true
		t := a.resolveTypeExpr(f.Type, f.GetMetadata().Pos)
		idx := len(ci.Fields)
		ci.Fields = append(ci.Fields, FieldInfo{Name: f.Name, Type: t, Slot: idx})
		ci.FieldIndex[f.Name] = idx
	}
}

func (a *Analyzer) buildMethods(ci *ClassInfo) {
	if ci.Parent != nil {
		ci.Methods = append(ci.Methods, ci.Parent.Methods...)
		for name, idx := range ci.Parent.MethodIndex {
			ci.MethodIndex[name] = idx
		}
	}
	seenOwn := map[string]bool{}
	for _, m := range ci.Decl.Methods {
		sig := a.functionSignature(m)
		if _, isField := ci.FieldIndex[m.Name]; isField {
			a.errs.Addf(errors.KindRedeclaration, m.GetMetadata().Pos,
				"method %q shadows a field of the same name", m.Name)
			continue
		}
		if idx, overrides := ci.MethodIndex[m.Name]; overrides {
			if seenOwn[m.Name] {
				a.errs.Addf(errors.KindRedeclaration, m.GetMetadata().Pos,
					"method %q is already declared in class %q", m.Name, ci.Name)
				continue
			}
			existing := ci.Methods[idx]
			if !signaturesEqual(existing.Signature, sig) {
				a.errs.Addf(errors.KindBadOverride, m.GetMetadata().Pos,
					"method %q overrides %q.%q with a different signature", m.Name, existing.Owner, m.Name)
			}
			ci.Methods[idx] = MethodInfo{Name: m.Name, Signature: sig, Slot: idx, Owner: ci.Name, Decl: m}
			seenOwn[m.Name] = true
			continue
		}
		seenOwn[m.Name] = true
		slot := len(ci.Methods)
		ci.Methods = append(ci.Methods, MethodInfo{Name: m.Name, Signature: sig, Slot: slot, Owner: ci.Name, Decl: m})
		ci.MethodIndex[m.Name] = slot
	}
}

func signaturesEqual(a, b types.FunctionType) bool { return types.Equal(a, b) }
