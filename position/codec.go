// Package position converts byte offsets in a document into LSP
// line/character positions under a negotiated position encoding.
package position

import (
	"sort"
	"unicode/utf8"

	"github.com/blackfmt/black-langserver/types"
)

// Codec maps byte offsets of one document snapshot to positions. The
// line index is computed once; each query is a binary search over line
// starts plus a scan of at most one line.
type Codec struct {
	text string
	// starts holds the byte offset of every line start plus a final
	// entry equal to len(text), so an offset at end of document resolves
	// to the line one past the last.
	starts []int
}

// NewCodec indexes text for repeated offset queries.
func NewCodec(text string) *Codec {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	if len(text) > 0 && starts[len(starts)-1] != len(text) {
		starts = append(starts, len(text))
	}
	return &Codec{text: text, starts: starts}
}

// Position returns the line/character position of the given byte offset,
// with the character column counted in code units of enc.
func (c *Codec) Position(offset int, enc types.PositionEncodingKind) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(c.text) {
		offset = len(c.text)
	}

	line := sort.Search(len(c.starts), func(i int) bool {
		return c.starts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	character := 0
	for _, r := range c.text[c.starts[line]:offset] {
		character += codeUnits(r, enc)
	}
	return types.Position{Line: line, Character: character}
}

func codeUnits(r rune, enc types.PositionEncodingKind) int {
	switch enc {
	case types.UTF8:
		return utf8.RuneLen(r)
	case types.UTF32:
		return 1
	default: // utf-16
		if r > 0xFFFF {
			return 2
		}
		return 1
	}
}
