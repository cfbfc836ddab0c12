// Package edits turns formatter output into protocol text edits.
package edits

import (
	"strings"
	"time"

	"github.com/blackfmt/black-langserver/diff"
	"github.com/blackfmt/black-langserver/position"
	"github.com/blackfmt/black-langserver/types"
)

// Synthesizer converts a formatted candidate text into the minimal list
// of edits against the original document.
type Synthesizer struct {
	Engine   diff.Engine
	Encoding types.PositionEncodingKind
	Timeout  time.Duration
}

// Synthesize returns the edits transforming oldText into newText, or nil
// when there is nothing to change. nil means "do nothing"; an empty edit
// list would be applied by some clients as "delete everything".
func (s Synthesizer) Synthesize(uri types.DocumentURI, oldText, newText string) []types.TextEdit {
	if newText == "" {
		return nil
	}

	newText = matchLineEndings(oldText, newText)

	// The host manages cell boundary terminators itself.
	if strings.HasPrefix(string(uri), types.NotebookCellScheme) {
		newText = trimFinalLineEnding(newText)
	}

	if newText == oldText {
		return nil
	}

	codec := position.NewCodec(oldText)
	var edits []types.TextEdit
	for _, op := range s.Engine.Compute(oldText, newText, s.Timeout) {
		if op.Kind == diff.Equal {
			continue
		}
		edits = append(edits, types.TextEdit{
			Range: types.Range{
				Start: codec.Position(op.OldStart, s.Encoding),
				End:   codec.Position(op.OldEnd, s.Encoding),
			},
			NewText: newText[op.NewStart:op.NewEnd],
		})
	}
	return edits
}

// lineEnding reports the terminator style of the first line. Text with
// no terminator at all counts as "\n"; only empty text reports "".
func lineEnding(text string) string {
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		if text == "" {
			return ""
		}
		return "\n"
	}
	if i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// matchLineEndings rewrites text to use the same line-ending style as the
// original document before diffing, so edits never fight the editor over
// terminators.
func matchLineEndings(original, text string) string {
	expected := lineEnding(original)
	actual := lineEnding(text)
	if actual == expected || actual == "" || expected == "" {
		return text
	}
	return strings.ReplaceAll(text, actual, expected)
}

func trimFinalLineEnding(text string) string {
	if strings.HasSuffix(text, "\r\n") {
		return text[:len(text)-2]
	}
	return strings.TrimSuffix(text, "\n")
}
