package grammar

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"latte/internal/ast"
	"latte/internal/errors"
	"latte/internal/location"
)

// latteParser is built once and reused across every ParseString call:
// the build step only depends on the grammar, never the input, so
// there is no reason to rebuild it per call.
var latteParser = mustBuildParser()

func mustBuildParser() *participle.Parser[Program] {
	p, err := participle.Build[Program](
		participle.Lexer(LatteLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic(fmt.Sprintf("grammar: bad grammar: %v", err))
	}
	return p
}

// ParseString parses Latte source text into an internal/ast.Program.
// filename is used only to populate ast.Position.Filename in
// diagnostics. Comments are stripped before the text reaches the
// lexer, but byte offsets in the returned tree and in any returned
// errors are always offsets into the original src, so a caller can
// feed src straight into internal/location.NewResolver.
func ParseString(filename, src string) (*ast.Program, []errors.CompilerError) {
	stripped := location.StripComments(src)
	cst, err := latteParser.ParseString(filename, stripped)
	if err != nil {
		return nil, []errors.CompilerError{parseError(filename, err)}
	}
	return Convert(filename, cst), nil
}

// parseError renders a participle parse/lex failure as the same
// CompilerError shape every other phase reports, so cmd/latc never
// needs to special-case the parser's error type.
func parseError(filename string, err error) errors.CompilerError {
	pe, ok := err.(participle.Error)
	if !ok {
		return errors.New(errors.KindParse, ast.Position{Filename: filename}, "%s", err.Error())
	}
	pos := pe.Position()
	return errors.New(errors.KindParse, ast.Position{Filename: filename, Offset: pos.Offset}, "%s", pe.Message())
}
