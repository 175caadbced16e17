// Package types defines Latte's closed type sum and its subtype relation.
package types

// Type is the closed sum of Latte types: Int, Bool, Void, Str, Array(T),
// Class(name), Function(ret, args), and the internal Null sentinel used
// only as the static type of the `null` literal.
type Type interface {
	String() string
	isType()
}

type IntType struct{}
type BoolType struct{}
type VoidType struct{}
type StrType struct{}

// NullType is never a declared type; it is the type assigned to the
// `null` literal before it unifies with a concrete class or array type.
type NullType struct{}

type ArrayType struct {
	Elem Type
}

type ClassType struct {
	Name string
}

// FunctionType is internal: it never appears in source syntax, only as
// the type recorded for a resolved call target.
type FunctionType struct {
	Ret    Type
	Params []Type
}

func (IntType) isType()      {}
func (BoolType) isType()     {}
func (VoidType) isType()     {}
func (StrType) isType()      {}
func (NullType) isType()     {}
func (ArrayType) isType()    {}
func (ClassType) isType()   {}
func (FunctionType) isType() {}

func (IntType) String() string  { return "int" }
func (BoolType) String() string { return "boolean" }
func (VoidType) String() string { return "void" }
func (StrType) String() string  { return "string" }
func (NullType) String() string { return "null" }

func (a ArrayType) String() string { return a.Elem.String() + "[]" }
func (c ClassType) String() string { return c.Name }

func (f FunctionType) String() string {
	s := "("
	for i, p := range f.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ") -> " + f.Ret.String()
}

// Equal reports structural equality of two types.
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case IntType:
		_, ok := b.(IntType)
		return ok
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case VoidType:
		_, ok := b.(VoidType)
		return ok
	case StrType:
		_, ok := b.(StrType)
		return ok
	case NullType:
		_, ok := b.(NullType)
		return ok
	case ArrayType:
		bv, ok := b.(ArrayType)
		return ok && Equal(av.Elem, bv.Elem)
	case ClassType:
		bv, ok := b.(ClassType)
		return ok && av.Name == bv.Name
	case FunctionType:
		bv, ok := b.(FunctionType)
		if !ok || len(av.Params) != len(bv.Params) || !Equal(av.Ret, bv.Ret) {
			return false
		}
		for i := range av.Params {
			if !Equal(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// ClassHierarchy answers ancestry queries needed by Subtype without this
// package depending on internal/sema's richer Class representation.
type ClassHierarchy interface {
	// IsSubclass reports whether child is child==ancestor or a transitive
	// subclass of ancestor.
	IsSubclass(child, ancestor string) bool
}

// Subtype implements Latte's subtype relation:
//
//	types are equal; or
//	both are Classes and the left is a transitive subclass of the right; or
//	the right is Class and the left is Null.
func Subtype(h ClassHierarchy, a, b Type) bool {
	if Equal(a, b) {
		return true
	}
	if _, isNull := a.(NullType); isNull {
		if _, isClass := b.(ClassType); isClass {
			return true
		}
	}
	av, aIsClass := a.(ClassType)
	bv, bIsClass := b.(ClassType)
	if aIsClass && bIsClass && h != nil {
		return h.IsSubclass(av.Name, bv.Name)
	}
	return false
}

// CommonSupertype finds a type that both a and b are subtypes of, used
// for `==`/`!=` operand checking. Returns (type, ok).
func CommonSupertype(h ClassHierarchy, a, b Type) (Type, bool) {
	if Equal(a, b) {
		return a, true
	}
	if Subtype(h, a, b) {
		return b, true
	}
	if Subtype(h, b, a) {
		return a, true
	}
	return nil, false
}

func Fmt(t Type) string {
	if t == nil {
		return "<unresolved>"
	}
	return t.String()
}
