// Package location resolves a byte offset into the pre-comment-stripped
// source into a human-readable (line, column) pair. It is kept separate
// from the parser and from internal/errors so that any phase holding
// only an ast.Position (an offset) can render a diagnostic without
// re-deriving line starts itself.
package location

import "strings"

// Resolver precomputes the byte offset of each line start so Resolve is
// O(log n) rather than O(n) per call.
type Resolver struct {
	lineStarts []int // lineStarts[i] = byte offset of the first byte of line i+1
	length     int
}

// NewResolver builds a Resolver over source. source must be the original
// text handed to the lexer, including comments — offsets are byte
// offsets into that exact string.
func NewResolver(source string) *Resolver {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Resolver{lineStarts: starts, length: len(source)}
}

// Resolve returns the 1-based line and column for a byte offset. An
// offset past end-of-file clamps to the last line, one column past its
// last character, so that "missing close brace at EOF" style errors
// still print a sane location.
func (r *Resolver) Resolve(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > r.length {
		offset = r.length
	}
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(r.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if r.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line = lo + 1
	column = offset - r.lineStarts[lo] + 1
	return line, column
}

// StripComments returns source with `//...` and `/*...*/` comments
// replaced by equal-length whitespace, preserving every other byte
// offset exactly. This is used only by the scanner step that needs a
// comment-free view to tokenize; offsets handed to Resolver must always
// be taken against the original, uncomment-stripped source.
func StripComments(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	i := 0
	for i < len(source) {
		if i+1 < len(source) && source[i] == '/' && source[i+1] == '/' {
			for i < len(source) && source[i] != '\n' {
				b.WriteByte(' ')
				i++
			}
			continue
		}
		if i+1 < len(source) && source[i] == '/' && source[i+1] == '*' {
			b.WriteByte(' ')
			b.WriteByte(' ')
			i += 2
			for i+1 < len(source) && !(source[i] == '*' && source[i+1] == '/') {
				if source[i] == '\n' {
					b.WriteByte('\n')
				} else {
					b.WriteByte(' ')
				}
				i++
			}
			if i+1 < len(source) {
				b.WriteByte(' ')
				b.WriteByte(' ')
				i += 2
			}
			continue
		}
		b.WriteByte(source[i])
		i++
	}
	return b.String()
}
