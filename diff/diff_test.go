package diff_test

import (
	"strings"
	"testing"
	"time"

	"github.com/blackfmt/black-langserver/diff"
)

// apply reconstructs the new text from a full opcode sequence.
func apply(old, new string, ops []diff.Op) string {
	var b strings.Builder
	for _, op := range ops {
		if op.Kind == diff.Equal {
			b.WriteString(old[op.OldStart:op.OldEnd])
			continue
		}
		b.WriteString(new[op.NewStart:op.NewEnd])
	}
	return b.String()
}

func TestComputeRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		old, new string
	}{
		{name: "equal", old: "x = 1\n", new: "x = 1\n"},
		{name: "spacing", old: "x=1\n", new: "x = 1\n"},
		{name: "empty to text", old: "", new: "foo\n"},
		{name: "text to empty", old: "foo\n", new: ""},
		{name: "replace lines", old: "foo\nbar\nbaz\n", new: "one\ntwo\nthree\n"},
		{name: "insert middle", old: "a\nc\n", new: "a\nb\nc\n"},
		{name: "delete middle", old: "a\nb\nc\n", new: "a\nc\n"},
		{name: "multibyte", old: "s = '\U0001F642'\n", new: "s = \"\U0001F642\"\n"},
		{name: "no trailing newline", old: "x=1", new: "x = 1\n"},
	}

	for _, alg := range []diff.Algorithm{diff.CharDiff, diff.LineDiff} {
		engine := diff.Engine{Algorithm: alg}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				ops := engine.Compute(c.old, c.new, time.Minute)
				if got := apply(c.old, c.new, ops); got != c.new {
					t.Errorf("applying ops got %q, want %q", got, c.new)
				}
				checkCoverage(t, c.old, ops)
			})
		}
	}
}

// checkCoverage verifies the ops are ordered, non-overlapping and cover
// the old text when concatenated.
func checkCoverage(t *testing.T, old string, ops []diff.Op) {
	t.Helper()
	pos := 0
	for _, op := range ops {
		if op.OldStart != pos {
			t.Fatalf("op starts at %d, want %d: %+v", op.OldStart, pos, op)
		}
		if op.OldEnd < op.OldStart {
			t.Fatalf("op has negative old span: %+v", op)
		}
		pos = op.OldEnd
	}
	if pos != len(old) {
		t.Fatalf("ops cover %d bytes of old text, want %d", pos, len(old))
	}
}

func TestComputeCoalescesReplace(t *testing.T) {
	ops := diff.Engine{}.Compute("x=1\n", "y=2\n", time.Minute)
	var nonEqual int
	for _, op := range ops {
		if op.Kind != diff.Equal {
			nonEqual++
			if op.Kind != diff.Replace {
				t.Errorf("expected replace ops only, got %v", op.Kind)
			}
		}
	}
	if nonEqual == 0 {
		t.Fatal("expected at least one non-equal op")
	}
}

func TestComputeTimeoutFallback(t *testing.T) {
	var oldText, newText strings.Builder
	for i := 0; i < 20000; i++ {
		oldText.WriteString("alpha beta gamma delta\n")
		newText.WriteString("delta gamma beta alpha\n")
	}
	old, new := oldText.String(), newText.String()

	ops := diff.Engine{}.Compute(old, new, time.Nanosecond)
	if len(ops) != 1 {
		t.Fatalf("expected one fallback op, got %d", len(ops))
	}
	want := diff.Op{Kind: diff.Replace, OldEnd: len(old), NewEnd: len(new)}
	if ops[0] != want {
		t.Fatalf("fallback op should be %+v but got: %+v", want, ops[0])
	}
}
