package ast

import "latte/internal/types"

// Resolution records what a name reference node was bound to by the type
// checker: a local/parameter slot, a self-field, a free function, or a
// method. Kind selects which of the fields below are populated.
type ResolutionKind int

const (
	ResolveNone ResolutionKind = iota
	ResolveLocal
	ResolveParam
	ResolveField
	ResolveFunction
	ResolveMethod
)

type Resolution struct {
	Kind ResolutionKind

	// ResolveLocal / ResolveParam / ResolveField: the variable's or
	// field's type. Lowering addresses locals and parameters by name.
	VarType types.Type

	// ResolveField / ResolveMethod: owning class and resolved field slot
	// or vtable slot index.
	ClassName string
	SlotIndex int

	// ResolveFunction / ResolveMethod: the callee's static signature.
	Signature types.FunctionType
}

// Metadata is the AST's per-node phase-parameterized slot.
// After parsing it carries only Pos. After type checking, Type (and,
// for reference nodes, Resolution) are populated. The AST node values
// themselves are never mutated to hold a type; Metadata is the single
// place phases attach derived information without changing node shape.
type Metadata struct {
	Pos  Position
	Type types.Type
	Res  *Resolution
}
