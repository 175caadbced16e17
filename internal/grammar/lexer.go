package grammar

import "github.com/alecthomas/participle/v2/lexer"

// LatteLexer tokenizes a Latte source file: a single stateful.Rules
// "Root" state, ordered so longer operators are tried before the
// characters that could also begin a shorter one. Comments are never
// tokenized here — ParseString runs internal/location.StripComments over
// the source first, so the lexer only ever sees comment bytes turned
// to whitespace, and every byte offset this lexer reports still
// indexes the original file.
var LatteLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `[0-9]+`, nil},
		{"Operator", `(\|\||&&|==|!=|<=|>=|[-+*/%<>=!])`, nil},
		{"Punctuation", `[{}\[\]();,.:]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
