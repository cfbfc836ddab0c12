package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blackfmt/black-langserver/edits"
	"github.com/blackfmt/black-langserver/tool"
	"github.com/blackfmt/black-langserver/types"
)

// toolArgs are always passed to the formatter, before user arguments.
var toolArgs = []string{}

// droppedArgs are user arguments that would keep the tool from writing
// the formatted document to stdout.
var droppedArgs = map[string]bool{
	"--diff":     true,
	"--check":    true,
	"--color":    true,
	"--no-color": true,
	"-h":         true,
	"--help":     true,
	"--version":  true,
}

// Formatting handles a whole-document format request.
func (h *LangHandler) Formatting(ctx context.Context, uri types.DocumentURI, _ types.FormattingOptions) ([]types.TextEdit, error) {
	return h.format(ctx, uri, nil)
}

// RangeFormatting handles a single-range format request.
func (h *LangHandler) RangeFormatting(ctx context.Context, uri types.DocumentURI, rng types.Range, _ types.FormattingOptions) ([]types.TextEdit, error) {
	return h.rangesFormat(ctx, uri, []types.Range{rng})
}

// RangesFormatting handles a multi-range format request.
func (h *LangHandler) RangesFormatting(ctx context.Context, uri types.DocumentURI, rngs []types.Range, _ types.FormattingOptions) ([]types.TextEdit, error) {
	return h.rangesFormat(ctx, uri, rngs)
}

// rangesFormat gates range arguments on the workspace's detected tool
// version. An unsupported version downgrades to whole-document
// formatting instead of failing the request.
func (h *LangHandler) rangesFormat(ctx context.Context, uri types.DocumentURI, rngs []types.Range) ([]types.TextEdit, error) {
	fname, err := fromURI(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid uri: %v: %v", err, uri)
	}
	setting := h.settings.ByPath(fname)

	version := h.toolVersion(setting.WorkspaceFS)
	if !version.AtLeast(lineRangesMinVersion) {
		h.logWarning(ctx, setting, fmt.Sprintf(
			"%s version earlier than %s does not support range formatting. Formatting entire document.",
			ToolDisplay, lineRangesMinVersion))
		return h.format(ctx, uri, nil)
	}

	// 1-based inclusive line spans, one flag pair per range.
	var extra []string
	for _, r := range rngs {
		extra = append(extra, "--line-ranges", fmt.Sprintf("%d-%d", r.Start.Line+1, r.End.Line+1))
	}
	return h.format(ctx, uri, extra)
}

// format runs one formatting session: resolve settings, build the
// argument vector, invoke the tool and synthesize edits from its output.
// A nil result with nil error means "no changes".
func (h *LangHandler) format(ctx context.Context, uri types.DocumentURI, extraArgs []string) ([]types.TextEdit, error) {
	h.mu.Lock()
	f, ok := h.files[uri]
	var text, languageID string
	if ok {
		text = f.Text
		languageID = f.LanguageID
	}
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("document not found: %v", uri)
	}

	fname, err := fromURI(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid uri: %v: %v", err, uri)
	}

	// Non-python documents are skipped quietly; this is not an error the
	// user needs a notification for.
	if languageID != "python" {
		h.logger.Printf("Skipping non python code: %s (%s)", fname, languageID)
		return nil, nil
	}

	setting := h.settings.ByPath(fname)

	if isInstalledPath(fname, h.sitePackages) {
		h.logWarning(ctx, setting, fmt.Sprintf("Skipping standard library file: %s", fname))
		return nil, nil
	}

	args := append([]string{}, extraArgs...)
	args = append(args, argsByExtension(uri, fname)...)
	args = append(args, "--stdin-filename", stdinFilename(uri, fname))

	result, inProcess, err := h.runTool(ctx, setting, fname, args, true, text)
	if err != nil {
		h.logError(ctx, setting, fmt.Sprintf("Error while running %s:\r\n%v", ToolDisplay, err))
		if inProcess {
			// An in-process failure is a defect in the host, not a
			// formatting failure.
			return nil, err
		}
		return nil, nil
	}

	if result.Stderr != "" {
		h.logToOutput(ctx, result.Stderr)
		if msgs := recognizeToolErrors(result.Stderr); len(msgs) > 0 && result.Stdout == "" {
			h.logError(ctx, setting, fmt.Sprintf("%s: %s", ToolDisplay, msgs[0]))
		}
	}

	if result.Stdout == "" {
		return nil, nil
	}
	if h.loglevel >= 3 {
		h.logToOutput(ctx, fmt.Sprintf("%s :\r\n%s", uri, result.Stdout))
	}

	syn := edits.Synthesizer{
		Engine:   h.engine,
		Encoding: h.encoding,
		Timeout:  h.diffTimeout,
	}
	return syn.Synthesize(uri, text, result.Stdout), nil
}

// runTool selects the invocation mode once per request: a configured
// tool path beats an alternate interpreter, which beats running
// in-process. The returned bool reports whether the in-process mode ran.
func (h *LangHandler) runTool(ctx context.Context, setting types.Setting, fname string, extraArgs []string, useStdin bool, source string) (tool.Result, bool, error) {
	cwd := cwdFor(setting, fname)

	userArgs := filterArgs(setting.Args)

	switch {
	case len(setting.Path) > 0:
		argv := append([]string{}, setting.Path...)
		argv = append(argv, toolArgs...)
		argv = append(argv, userArgs...)
		argv = append(argv, extraArgs...)
		if useStdin {
			argv = append(argv, "-")
		}
		h.logToOutput(ctx, strings.Join(argv, " "))
		h.logToOutput(ctx, fmt.Sprintf("CWD Server: %s", cwd))

		res, err := tool.RunPath(ctx, tool.Invocation{
			Argv:     argv,
			Cwd:      cwd,
			UseStdin: useStdin,
			Source:   strings.ReplaceAll(source, "\r\n", "\n"),
		})
		return res, false, err

	case len(setting.Interpreter) > 0 && !h.isHostInterpreter(setting.Interpreter[0]):
		argv := append([]string{ToolModule}, toolArgs...)
		argv = append(argv, userArgs...)
		argv = append(argv, extraArgs...)
		if useStdin {
			argv = append(argv, "-")
		}
		h.logToOutput(ctx, strings.Join(append(append([]string{}, setting.Interpreter...), "-m"), " ")+" "+strings.Join(argv, " "))
		h.logToOutput(ctx, fmt.Sprintf("CWD formatter: %s", cwd))

		res, err := h.rpc.Run(ctx, setting.WorkspaceFS, setting.Interpreter, ToolModule, tool.Invocation{
			Argv:     argv,
			Cwd:      cwd,
			UseStdin: useStdin,
			Source:   source,
		}, map[string]string{"LS_IMPORT_STRATEGY": string(setting.ImportStrategy)})
		return res, false, err

	default:
		if h.moduleRunner == nil {
			return tool.Result{}, false, fmt.Errorf("no invocation mode available: configure a path or interpreter")
		}
		argv := append([]string{ToolModule}, toolArgs...)
		argv = append(argv, userArgs...)
		argv = append(argv, extraArgs...)
		if useStdin {
			argv = append(argv, "-")
		}
		h.logToOutput(ctx, strings.Join(argv, " "))
		h.logToOutput(ctx, fmt.Sprintf("CWD formatter: %s", cwd))

		res, err := h.moduleRunner(ctx, tool.Invocation{
			Argv:     argv,
			Cwd:      cwd,
			UseStdin: useStdin,
			Source:   source,
		})
		return res, true, err
	}
}

func (h *LangHandler) isHostInterpreter(interpreter string) bool {
	if h.hostInterpreter == "" {
		return false
	}
	return filepath.Clean(interpreter) == filepath.Clean(h.hostInterpreter)
}

// argsByExtension returns tool flags derived from the document's file
// suffix. Notebook cells take none; the cell text is plain python.
func argsByExtension(uri types.DocumentURI, fname string) []string {
	if isNotebookCell(uri) {
		return nil
	}
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".pyi":
		return []string{"--pyi"}
	case ".ipynb":
		return []string{"--ipynb"}
	}
	return nil
}

// stdinFilename is the path reported to the tool for stdin input. A
// notebook cell is presented as a python file so the tool does not try
// to parse notebook JSON.
func stdinFilename(uri types.DocumentURI, fname string) string {
	if isNotebookCell(uri) && strings.HasSuffix(strings.ToLower(fname), ".ipynb") {
		return fname[:len(fname)-len(".ipynb")] + ".py"
	}
	return fname
}

// filterArgs drops user arguments that change the tool's output mode.
func filterArgs(args []string) []string {
	kept := make([]string, 0, len(args))
	for _, a := range args {
		if droppedArgs[a] {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
