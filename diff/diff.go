// Package diff computes opcode-style diffs between two document
// snapshots, bounded by a wall-clock budget.
package diff

import (
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultTimeout bounds a single diff computation. A run that misses the
// deadline is abandoned and replaced by a whole-document edit.
const DefaultTimeout = time.Second

// Kind is the type of a diff operation.
type Kind int

// Equal is
const (
	Equal Kind = iota
	Replace
	Insert
	Delete
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Replace:
		return "replace"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Op is one alignment operation. Offsets are byte offsets;
// old[OldStart:OldEnd] is replaced by new[NewStart:NewEnd]. A full result
// is ordered, non-overlapping and covers the old text when concatenated.
type Op struct {
	Kind             Kind
	OldStart, OldEnd int
	NewStart, NewEnd int
}

// Algorithm selects the matcher used for in-budget runs.
type Algorithm int

// CharDiff is the rune-level edit-distance matcher; LineDiff is the
// general line-based sequence matcher used as fallback.
const (
	CharDiff Algorithm = iota
	LineDiff
)

// Engine is a pure diff computer. The zero value uses CharDiff and is
// safe for concurrent use.
type Engine struct {
	Algorithm Algorithm
}

// Compute diffs old against new within timeout. On deadline the in-flight
// computation is abandoned, not interrupted, and a single whole-document
// replace operation is returned.
func (e Engine) Compute(old, new string, timeout time.Duration) []Op {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Buffered so an abandoned run can finish its send and exit.
	ch := make(chan []Op, 1)
	go func() {
		if e.Algorithm == LineDiff {
			ch <- lineOps(old, new)
			return
		}
		ch <- charOps(old, new)
	}()

	select {
	case ops := <-ch:
		return ops
	case <-time.After(timeout):
		return []Op{{
			Kind:   Replace,
			OldEnd: len(old),
			NewEnd: len(new),
		}}
	}
}

// charOps aligns the two texts rune by rune and coalesces each
// delete/insert pair into a replace.
func charOps(old, new string) []Op {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // the deadline is enforced by Compute
	diffs := dmp.DiffMain(old, new, false)

	var ops []Op
	oldPos, newPos := 0, 0
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			ops = append(ops, Op{
				Kind:     Equal,
				OldStart: oldPos, OldEnd: oldPos + len(d.Text),
				NewStart: newPos, NewEnd: newPos + len(d.Text),
			})
			oldPos += len(d.Text)
			newPos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			op := Op{
				Kind:     Delete,
				OldStart: oldPos, OldEnd: oldPos + len(d.Text),
				NewStart: newPos, NewEnd: newPos,
			}
			oldPos += len(d.Text)
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				ins := diffs[i+1]
				op.Kind = Replace
				op.NewEnd = newPos + len(ins.Text)
				newPos += len(ins.Text)
				i++
			}
			ops = append(ops, op)
		case diffmatchpatch.DiffInsert:
			ops = append(ops, Op{
				Kind:     Insert,
				OldStart: oldPos, OldEnd: oldPos,
				NewStart: newPos, NewEnd: newPos + len(d.Text),
			})
			newPos += len(d.Text)
		}
	}
	return ops
}

// lineOps aligns the two texts line by line with a longest-matching-block
// sequence matcher and maps line indices back to byte offsets.
func lineOps(old, new string) []Op {
	a := splitLines(old)
	b := splitLines(new)

	aOffsets := lineOffsets(a)
	bOffsets := lineOffsets(b)

	matcher := difflib.NewMatcher(a, b)
	codes := matcher.GetOpCodes()

	ops := make([]Op, 0, len(codes))
	for _, c := range codes {
		op := Op{
			OldStart: aOffsets[c.I1], OldEnd: aOffsets[c.I2],
			NewStart: bOffsets[c.J1], NewEnd: bOffsets[c.J2],
		}
		switch c.Tag {
		case 'e':
			op.Kind = Equal
		case 'r':
			op.Kind = Replace
		case 'd':
			op.Kind = Delete
		case 'i':
			op.Kind = Insert
		}
		ops = append(ops, op)
	}
	return ops
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineOffsets(lines []string) []int {
	offsets := make([]int, len(lines)+1)
	for i, line := range lines {
		offsets[i+1] = offsets[i] + len(line)
	}
	return offsets
}
