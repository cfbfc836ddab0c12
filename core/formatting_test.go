package core

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/blackfmt/black-langserver/tool"
	"github.com/blackfmt/black-langserver/types"
)

type recordingNotifier struct {
	mu       sync.Mutex
	logs     []types.LogMessageParams
	messages []types.ShowMessageParams
}

func (n *recordingNotifier) LogMessage(_ context.Context, typ types.MessageType, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, types.LogMessageParams{Type: typ, Message: message})
}

func (n *recordingNotifier) ShowMessage(_ context.Context, typ types.MessageType, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, types.ShowMessageParams{Type: typ, Message: message})
}

func (n *recordingNotifier) loggedWarning(substr string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, l := range n.logs {
		if l.Type == types.MessageWarning && strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

type fakeRun struct {
	mu          sync.Mutex
	invocations []tool.Invocation
}

func (f *fakeRun) runner(stdout string) tool.ModuleFunc {
	return func(_ context.Context, inv tool.Invocation) (tool.Result, error) {
		f.mu.Lock()
		f.invocations = append(f.invocations, inv)
		f.mu.Unlock()
		return tool.Result{Stdout: stdout}, nil
	}
}

func (f *fakeRun) lastArgv() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.invocations) == 0 {
		return nil
	}
	return f.invocations[len(f.invocations)-1].Argv
}

func newTestHandler(t *testing.T, text string, version types.ToolVersion) (*LangHandler, types.DocumentURI, *recordingNotifier) {
	t.Helper()
	base := t.TempDir()
	fname := filepath.Join(base, "sample.py")
	uri := toURI(fname)

	settings := NewSettingsStore()
	settings.Replace([]types.Setting{{Workspace: toURI(base)}}, nil, "")

	notifier := &recordingNotifier{}
	h := &LangHandler{
		logger:      log.New(io.Discard, "", log.LstdFlags),
		notifier:    notifier,
		files:       map[types.DocumentURI]*fileRef{uri: {LanguageID: "python", Text: text}},
		settings:    settings,
		versions:    map[string]types.ToolVersion{normalizePath(base): version},
		encoding:    types.UTF16,
		diffTimeout: time.Minute,
	}
	return h, uri, notifier
}

func TestFormatting(t *testing.T) {
	h, uri, _ := newTestHandler(t, "x=1\n", types.ToolVersion{Major: 24})
	var runs fakeRun
	h.moduleRunner = runs.runner("x = 1\n")

	d, err := h.Formatting(context.Background(), uri, types.FormattingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(d) == 0 {
		t.Fatal("expected edits")
	}
	for _, e := range d {
		if e.Range.Start.Line != 0 {
			t.Errorf("edit should stay on line 0: %+v", e)
		}
	}

	argv := runs.lastArgv()
	if argv[len(argv)-1] != "-" {
		t.Errorf("argv should end with the stdin marker: %v", argv)
	}
	if !containsArg(argv, "--stdin-filename") {
		t.Errorf("argv should carry --stdin-filename: %v", argv)
	}
}

func TestFormattingIdempotent(t *testing.T) {
	h, uri, _ := newTestHandler(t, "x = 1\n", types.ToolVersion{Major: 24})
	var runs fakeRun
	h.moduleRunner = runs.runner("x = 1\n")

	d, err := h.Formatting(context.Background(), uri, types.FormattingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("already formatted document should yield nil, got: %v", d)
	}
}

func TestFormattingDefaultWorkspaceUsesModuleRunner(t *testing.T) {
	// A workspace with no configured path or interpreter must still
	// format, through the module runner the binary installs at startup.
	h := NewHandler(log.New(io.Discard, "", log.LstdFlags), &types.Config{})
	var runs fakeRun
	h.SetModuleRunner(runs.runner("x = 1\n"))

	fname := filepath.Join(t.TempDir(), "sample.py")
	uri := toURI(fname)
	if err := h.OnOpenFile(uri, "python", 1, "x=1\n"); err != nil {
		t.Fatal(err)
	}

	d, err := h.Formatting(context.Background(), uri, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(d) == 0 {
		t.Fatal("default-configured workspace should produce edits")
	}
	argv := runs.lastArgv()
	if len(argv) == 0 || argv[0] != ToolModule {
		t.Errorf("module runner argv should start with the module name: %v", argv)
	}
}

func TestFormattingSkipsNonPythonDocument(t *testing.T) {
	h, uri, notifier := newTestHandler(t, "hello world\n", types.ToolVersion{Major: 24})
	var runs fakeRun
	h.moduleRunner = runs.runner("hello world\n")
	h.files[uri].LanguageID = "plaintext"

	d, err := h.Formatting(context.Background(), uri, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("non python document should yield nil, got: %v", d)
	}
	if len(runs.invocations) != 0 {
		t.Fatal("the tool should not run for a non python document")
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.messages) != 0 {
		t.Fatalf("skipping should not notify the user, got: %v", notifier.messages)
	}
}

func TestFormattingSitePackagesExcluded(t *testing.T) {
	fname := "/usr/lib/python3.11/site-packages/requests/models.py"
	uri := toURI(fname)

	settings := NewSettingsStore()
	settings.Replace(nil, nil, "/usr/lib")

	var runs fakeRun
	h := &LangHandler{
		logger:       log.New(io.Discard, "", log.LstdFlags),
		files:        map[types.DocumentURI]*fileRef{uri: {LanguageID: "python", Text: "x=1\n"}},
		settings:     settings,
		versions:     map[string]types.ToolVersion{},
		encoding:     types.UTF16,
		diffTimeout:  time.Minute,
		moduleRunner: runs.runner("x = 1\n"),
	}

	d, err := h.Formatting(context.Background(), uri, types.FormattingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("installed code should never be reformatted, got: %v", d)
	}
	if len(runs.invocations) != 0 {
		t.Fatal("the tool should not run for installed code")
	}
}

func TestRangeFormattingSupported(t *testing.T) {
	h, uri, _ := newTestHandler(t, "x=1\ny=2\nz=3\n", types.ToolVersion{Major: 23, Minor: 11})
	var runs fakeRun
	h.moduleRunner = runs.runner("x = 1\ny=2\nz=3\n")

	rng := types.Range{Start: types.Position{Line: 0}, End: types.Position{Line: 1}}
	if _, err := h.RangeFormatting(context.Background(), uri, rng, nil); err != nil {
		t.Fatal(err)
	}

	argv := runs.lastArgv()
	if !containsPair(argv, "--line-ranges", "1-2") {
		t.Errorf("argv should carry --line-ranges 1-2: %v", argv)
	}
}

func TestRangesFormattingSupported(t *testing.T) {
	h, uri, _ := newTestHandler(t, "x=1\ny=2\nz=3\n", types.ToolVersion{Major: 24, Minor: 2})
	var runs fakeRun
	h.moduleRunner = runs.runner("x = 1\ny=2\nz = 3\n")

	rngs := []types.Range{
		{Start: types.Position{Line: 0}, End: types.Position{Line: 0}},
		{Start: types.Position{Line: 2}, End: types.Position{Line: 2}},
	}
	if _, err := h.RangesFormatting(context.Background(), uri, rngs, nil); err != nil {
		t.Fatal(err)
	}

	argv := runs.lastArgv()
	if !containsPair(argv, "--line-ranges", "1-1") || !containsPair(argv, "--line-ranges", "3-3") {
		t.Errorf("argv should carry both ranges: %v", argv)
	}
}

func TestRangeFormattingDowngrade(t *testing.T) {
	h, uri, notifier := newTestHandler(t, "x=1\n", types.ToolVersion{Major: 22, Minor: 3})
	var runs fakeRun
	h.moduleRunner = runs.runner("x = 1\n")

	rng := types.Range{Start: types.Position{Line: 0}, End: types.Position{Line: 0}}
	ranged, err := h.RangeFormatting(context.Background(), uri, rng, nil)
	if err != nil {
		t.Fatal(err)
	}
	if containsArg(runs.lastArgv(), "--line-ranges") {
		t.Errorf("old tool version must not receive --line-ranges: %v", runs.lastArgv())
	}
	if !notifier.loggedWarning("does not support range formatting") {
		t.Error("downgrade should log a warning")
	}

	whole, err := h.Formatting(context.Background(), uri, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(whole, ranged); diff != "" {
		t.Errorf("downgraded range format should equal whole-document format (-whole +ranged):\n%s", diff)
	}
}

func TestFormattingInProcessErrorPropagates(t *testing.T) {
	h, uri, notifier := newTestHandler(t, "x=1\n", types.ToolVersion{Major: 24})
	h.moduleRunner = func(_ context.Context, _ tool.Invocation) (tool.Result, error) {
		return tool.Result{}, io.ErrUnexpectedEOF
	}

	if _, err := h.Formatting(context.Background(), uri, nil); err == nil {
		t.Fatal("in-process invocation errors must be re-raised")
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.logs) == 0 {
		t.Error("the failure should be logged")
	}
}

func TestFormattingToolErrorOnStderr(t *testing.T) {
	h, uri, _ := newTestHandler(t, "x=\n", types.ToolVersion{Major: 24})
	h.moduleRunner = func(_ context.Context, inv tool.Invocation) (tool.Result, error) {
		return tool.Result{Stderr: "error: cannot format sample.py: Cannot parse: 1:3: x="}, nil
	}

	d, err := h.Formatting(context.Background(), uri, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("a parse failure should yield no edits, got: %v", d)
	}
}

func TestArgsByExtension(t *testing.T) {
	cases := []struct {
		name  string
		uri   types.DocumentURI
		fname string
		want  []string
	}{
		{name: "py", uri: "file:///a/b.py", fname: "/a/b.py", want: nil},
		{name: "pyi", uri: "file:///a/b.pyi", fname: "/a/b.pyi", want: []string{"--pyi"}},
		{name: "ipynb", uri: "file:///a/b.ipynb", fname: "/a/b.ipynb", want: []string{"--ipynb"}},
		{name: "cell", uri: "vscode-notebook-cell:/a/b.ipynb#c1", fname: "/a/b.ipynb", want: nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, argsByExtension(c.uri, c.fname)); diff != "" {
				t.Errorf("unexpected args (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStdinFilenameForNotebookCell(t *testing.T) {
	got := stdinFilename("vscode-notebook-cell:/a/nb.ipynb#c1", "/a/nb.ipynb")
	if got != "/a/nb.py" {
		t.Errorf("cell should be presented as a python file, got %q", got)
	}
	if got := stdinFilename("file:///a/b.py", "/a/b.py"); got != "/a/b.py" {
		t.Errorf("plain file name should pass through, got %q", got)
	}
}

func TestFilterArgs(t *testing.T) {
	got := filterArgs([]string{"--fast", "--diff", "--check", "--line-length", "100", "--version"})
	want := []string{"--fast", "--line-length", "100"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected args (-want +got):\n%s", diff)
	}
}

func containsArg(argv []string, arg string) bool {
	for _, a := range argv {
		if a == arg {
			return true
		}
	}
	return false
}

func containsPair(argv []string, flag, value string) bool {
	for i := 0; i+1 < len(argv); i++ {
		if argv[i] == flag && argv[i+1] == value {
			return true
		}
	}
	return false
}
