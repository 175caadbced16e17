// Package errors collects user-facing compile errors: a position and a
// message, tagged with a Kind so a future tool (IDE diagnostics, tests)
// can switch on the error category without re-parsing Message.
package errors

import (
	"fmt"
	"sort"

	"latte/internal/ast"
	"latte/internal/location"
)

// Kind enumerates every user-facing compile-time error category.
type Kind string

const (
	KindLexical          Kind = "Lexical"
	KindParse            Kind = "Parse"
	KindUnresolvedName   Kind = "UnresolvedName"
	KindRedeclaration    Kind = "Redeclaration"
	KindTypeMismatch     Kind = "TypeMismatch"
	KindBadCall          Kind = "BadCall"
	KindBadReceiver      Kind = "BadReceiver"
	KindBadIndex         Kind = "BadIndex"
	KindBadCast          Kind = "BadCast"
	KindBadEntry         Kind = "BadEntry"
	KindInheritanceCycle Kind = "InheritanceCycle"
	KindBadOverride      Kind = "BadOverride"
	KindMissingReturn    Kind = "MissingReturn"
	KindConstOverflow    Kind = "ConstOverflow"
)

// CompilerError is one independently-reported user error.
type CompilerError struct {
	Kind     Kind
	Message  string
	Position ast.Position
}

func (e CompilerError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func New(kind Kind, pos ast.Position, format string, args ...interface{}) CompilerError {
	return CompilerError{Kind: kind, Position: pos, Message: fmt.Sprintf(format, args...)}
}

// Collector accumulates independent errors within a single phase rather
// than failing fast on the first one.
type Collector struct {
	errs []CompilerError
}

func (c *Collector) Add(e CompilerError) { c.errs = append(c.errs, e) }

func (c *Collector) Addf(kind Kind, pos ast.Position, format string, args ...interface{}) {
	c.Add(New(kind, pos, format, args...))
}

func (c *Collector) HasErrors() bool   { return len(c.errs) > 0 }
func (c *Collector) Errors() []CompilerError { return c.errs }

// Reporter renders CompilerErrors into the compiler's diagnostic wire
// format: one "<line>:<column>: <message>" line per error, with no
// color, no code, and no file header — callers (cmd/latc) are
// responsible for the leading literal "ERROR" line.
type Reporter struct {
	resolver *location.Resolver
}

func NewReporter(source string) *Reporter {
	return &Reporter{resolver: location.NewResolver(source)}
}

// Format renders all errors sorted by position, so that output is
// deterministic regardless of which phase or sub-pass discovered each
// one first.
func (r *Reporter) Format(errs []CompilerError) []string {
	sorted := make([]CompilerError, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.Offset < sorted[j].Position.Offset
	})
	lines := make([]string, len(sorted))
	for i, e := range sorted {
		line, col := r.resolver.Resolve(e.Position.Offset)
		lines[i] = fmt.Sprintf("%d:%d: %s", line, col, e.Message)
	}
	return lines
}
