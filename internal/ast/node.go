package ast

// NodeKind tags every concrete AST node for exhaustive-match style
// dispatch in the lowering and printing code.
type NodeKind int

const (
	ILLEGAL NodeKind = iota

	// Program-level
	NODE_PROGRAM
	NODE_FUNCTION
	NODE_PARAM
	NODE_CLASS
	NODE_FIELD

	// Statements
	NODE_BLOCK
	NODE_DECL_STMT
	NODE_ASSIGN_STMT
	NODE_EXPR_STMT
	NODE_RETURN_STMT
	NODE_IF_STMT
	NODE_WHILE_STMT
	NODE_FOR_EACH_STMT
	NODE_EMPTY_STMT

	// Expressions
	NODE_INT_LIT
	NODE_BOOL_LIT
	NODE_STRING_LIT
	NODE_NULL_LIT
	NODE_IDENT_EXPR
	NODE_UNARY_EXPR
	NODE_BINARY_EXPR
	NODE_CALL_EXPR
	NODE_METHOD_CALL_EXPR
	NODE_FIELD_ACCESS_EXPR
	NODE_INDEX_EXPR
	NODE_NEW_OBJECT_EXPR
	NODE_NEW_ARRAY_EXPR
	NODE_CAST_EXPR
)

// Node is implemented by every AST node. Diagnostics pin a single byte
// offset, never a range, so there is no end-position to track.
type Node interface {
	Kind() NodeKind
	GetMetadata() *Metadata
	String() string
}

// Base is embedded by every concrete node to provide the common
// Metadata slot and its accessor.
type Base struct {
	Meta Metadata
}

func (b *Base) GetMetadata() *Metadata { return &b.Meta }

func (b *Base) Pos() Position { return b.Meta.Pos }
