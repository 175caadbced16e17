// Package sema is the semantic analyzer / type checker: a single
// top-down pass that resolves names, assigns types to every expression
// and statement, and computes class inheritance, field offsets, and
// virtual-method tables.
package sema

import (
	"latte/internal/ast"
	"latte/internal/types"
)

// FieldInfo is one resolved slot in a class layout.
type FieldInfo struct {
	Name  string
	Type  types.Type
	Slot  int
}

// MethodInfo is one resolved slot in a virtual method table. Slot is
// stable across overrides: an override keeps its ancestor's slot index.
type MethodInfo struct {
	Name      string
	Signature types.FunctionType
	Slot      int
	// Owner is the class whose *Function body should run for this slot
	// — the most-derived override, not necessarily the declaring class.
	Owner string
	Decl  *ast.Function
}

// ClassInfo is the resolved layout for one class: an ordered field list
// (parent's first, then own) and
// an ordered vtable (ancestor-declared slots first, own new methods
// appended, overrides replacing contents in place).
type ClassInfo struct {
	Name       string
	ParentName string
	Parent     *ClassInfo // nil for a root class
	Decl       *ast.Class

	Fields     []FieldInfo          // ordered, parent's fields first
	FieldIndex map[string]int       // name -> index into Fields
	Methods    []MethodInfo         // ordered vtable
	MethodIndex map[string]int      // name -> index into Methods
}

// FieldOffset returns the FieldInfo (carrying the slot index) of the
// named field, and false if c has no such field. Slot 0 is always the vtable pointer at the IR level; Fields
// here are numbered from 0 and internal/ir adds 1 when computing the
// actual struct GEP index, keeping this package's numbering free of
// that IR-level concern.
func (c *ClassInfo) FieldOffset(name string) (FieldInfo, bool) {
	if i, ok := c.FieldIndex[name]; ok {
		return c.Fields[i], true
	}
	return FieldInfo{}, false
}

func (c *ClassInfo) MethodSlot(name string) (MethodInfo, bool) {
	if i, ok := c.MethodIndex[name]; ok {
		return c.Methods[i], true
	}
	return MethodInfo{}, false
}

// isOrDescendsFrom reports whether c is ancestorName or a transitive
// subclass of it; ClassTable.IsSubclass uses it to satisfy
// types.ClassHierarchy.
func (c *ClassInfo) isOrDescendsFrom(ancestorName string) bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if cur.Name == ancestorName {
			return true
		}
	}
	return false
}

// ClassTable is the globally visible class namespace, built fresh for
// each compilation rather than shared across them.
type ClassTable struct {
	classes map[string]*ClassInfo
}

func NewClassTable() *ClassTable { return &ClassTable{classes: map[string]*ClassInfo{}} }

func (t *ClassTable) Get(name string) (*ClassInfo, bool) {
	c, ok := t.classes[name]
	return c, ok
}

func (t *ClassTable) All() map[string]*ClassInfo { return t.classes }

// IsSubclass implements types.ClassHierarchy.
func (t *ClassTable) IsSubclass(child, ancestor string) bool {
	c, ok := t.classes[child]
	if !ok {
		return child == ancestor
	}
	return c.isOrDescendsFrom(ancestor)
}

// FunctionTable is the free-function namespace: declared free functions
// plus the seeded runtime builtins. The `main: int()` entry point
// requirement is checked separately, by checkEntryPoint.
type FunctionTable struct {
	funcs map[string]types.FunctionType
	decls map[string]*ast.Function
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{funcs: map[string]types.FunctionType{}, decls: map[string]*ast.Function{}}
}

func (t *FunctionTable) Get(name string) (types.FunctionType, bool) {
	f, ok := t.funcs[name]
	return f, ok
}

// Scope is one lexical block's name->binding map. A stack of Scopes
// declaration fails if the same name already exists in the innermost
// scope; lookup walks outward through enclosing scopes.
type Scope struct {
	vars map[string]VarBinding
}

type VarBinding struct {
	Type      types.Type
	DeclaredAt ast.Position
	IsParam   bool
}

func newScope() *Scope { return &Scope{vars: map[string]VarBinding{}} }

type ScopeStack struct {
	scopes []*Scope
}

func NewScopeStack() *ScopeStack {
	return &ScopeStack{scopes: []*Scope{newScope()}}
}

func (s *ScopeStack) Push() { s.scopes = append(s.scopes, newScope()) }

func (s *ScopeStack) Pop() { s.scopes = s.scopes[:len(s.scopes)-1] }

func (s *ScopeStack) current() *Scope { return s.scopes[len(s.scopes)-1] }

// Declare adds name to the innermost scope, reporting false if it is
// already declared there (caller converts that into a Redeclaration
// error, since only the analyzer knows the offending position).
func (s *ScopeStack) Declare(name string, b VarBinding) bool {
	cur := s.current()
	if _, exists := cur.vars[name]; exists {
		return false
	}
	cur.vars[name] = b
	return true
}

// Lookup walks outward from the innermost scope.
func (s *ScopeStack) Lookup(name string) (VarBinding, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if b, ok := s.scopes[i].vars[name]; ok {
			return b, true
		}
	}
	return VarBinding{}, false
}
