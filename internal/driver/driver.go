// Package driver sequences the compiler's phases end to end: each phase
// runs only if the previous one produced no errors, and the first
// non-empty error slice ends the pipeline.
package driver

import (
	"latte/internal/errors"
	"latte/internal/fold"
	"latte/internal/grammar"
	"latte/internal/ir"
	"latte/internal/normalize"
	"latte/internal/sema"
)

// Compile runs every compile phase over one source file and returns
// the lowered IR program, or the first phase's errors.
func Compile(filename, source string) (*ir.Program, []errors.CompilerError) {
	parsed, errs := grammar.ParseString(filename, source)
	if len(errs) > 0 {
		return nil, errs
	}

	folded, errs := fold.Fold(parsed)
	if len(errs) > 0 {
		return nil, errs
	}

	normalized, errs := normalize.Normalize(folded)
	if len(errs) > 0 {
		return nil, errs
	}

	checked, analyzer, errs := sema.Check(normalized)
	if len(errs) > 0 {
		return nil, errs
	}

	prog := ir.Lower(checked, analyzer.ClassLayouts(), analyzer.FunctionSignatures())
	return prog, nil
}
