package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blackfmt/black-langserver/diff"
	"github.com/blackfmt/black-langserver/tool"
	"github.com/blackfmt/black-langserver/types"
)

// ToolModule is the formatter module name; ToolDisplay is its
// user-facing name.
const (
	ToolModule  = "black"
	ToolDisplay = "Black Formatter"
)

// Notifier delivers log and user-visible messages to the client.
type Notifier interface {
	LogMessage(ctx context.Context, typ types.MessageType, message string)
	ShowMessage(ctx context.Context, typ types.MessageType, message string)
}

// LangHandler owns the formatting sessions: open documents, workspace
// settings, detected tool versions, and the invocation seams.
type LangHandler struct {
	mu       sync.Mutex
	logger   *log.Logger
	loglevel int
	notifier Notifier

	files    map[types.DocumentURI]*fileRef
	settings *SettingsStore

	versionMu sync.RWMutex
	versions  map[string]types.ToolVersion

	encoding types.PositionEncodingKind
	rootPath string

	engine      diff.Engine
	diffTimeout time.Duration

	sitePackages []string

	// hostInterpreter is the interpreter considered equivalent to
	// running in-process; a different configured interpreter routes the
	// run through the RPC worker.
	hostInterpreter string
	moduleRunner    tool.ModuleFunc
	rpc             *tool.RPCRunner
}

type fileRef struct {
	LanguageID string
	Text       string
	Version    int
}

// NewHandler builds a LangHandler from the server configuration.
func NewHandler(logger *log.Logger, config *types.Config) *LangHandler {
	diffTimeout := time.Duration(config.DiffTimeout)
	if diffTimeout <= 0 {
		diffTimeout = diff.DefaultTimeout
	}
	return &LangHandler{
		logger:          logger,
		loglevel:        config.LogLevel,
		files:           make(map[types.DocumentURI]*fileRef),
		settings:        NewSettingsStore(),
		versions:        make(map[string]types.ToolVersion),
		encoding:        types.UTF16,
		diffTimeout:     diffTimeout,
		sitePackages:    config.SitePackages,
		hostInterpreter: tool.HostInterpreter(),
		rpc:             &tool.RPCRunner{Script: config.RunnerScript, Logger: logger},
	}
}

// SetNotifier wires the client notification channel.
func (h *LangHandler) SetNotifier(n Notifier) {
	h.notifier = n
}

// SetModuleRunner installs the fallback invocation mode used when no
// path or alternate interpreter is configured.
func (h *LangHandler) SetModuleRunner(fn tool.ModuleFunc) {
	h.moduleRunner = fn
}

// Encoding returns the negotiated position encoding.
func (h *LangHandler) Encoding() types.PositionEncodingKind {
	return h.encoding
}

// Initialize records the workspace settings and negotiated capabilities,
// then probes the tool version per workspace.
func (h *LangHandler) Initialize(ctx context.Context, params types.InitializeParams) (types.InitializeResult, error) {
	if params.RootURI != "" {
		rootPath, err := fromURI(params.RootURI)
		if err != nil {
			return types.InitializeResult{}, err
		}
		h.rootPath = filepath.Clean(rootPath)
	}

	h.encoding = negotiateEncoding(params.Capabilities)

	var settings []types.Setting
	var global *types.Setting
	if params.InitializationOptions != nil {
		settings = params.InitializationOptions.Settings
		global = params.InitializationOptions.GlobalSettings
	}
	h.settings.Replace(settings, global, h.fallbackRoot())

	h.DetectVersions(ctx)

	return types.InitializeResult{
		Capabilities: types.ServerCapabilities{
			PositionEncoding:           h.encoding,
			TextDocumentSync:           types.TDSKFull,
			DocumentFormattingProvider: true,
			RangeFormattingProvider:    &types.DocumentRangeFormattingOptions{RangesSupport: true},
		},
	}, nil
}

// UpdateConfiguration atomically swaps in the new workspace settings and
// re-probes tool versions.
func (h *LangHandler) UpdateConfiguration(ctx context.Context, opts types.InitializeOptions) {
	h.settings.Replace(opts.Settings, opts.GlobalSettings, h.fallbackRoot())
	h.DetectVersions(ctx)
}

func (h *LangHandler) fallbackRoot() string {
	if h.rootPath != "" {
		return h.rootPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

func negotiateEncoding(caps types.ClientCapabilities) types.PositionEncodingKind {
	if caps.General == nil {
		return types.UTF16
	}
	for _, enc := range caps.General.PositionEncodings {
		switch enc {
		case types.UTF8, types.UTF16, types.UTF32:
			return enc
		}
	}
	return types.UTF16
}

// Close releases the RPC workers.
func (h *LangHandler) Close() error {
	return h.rpc.Close()
}

// OnOpenFile is
func (h *LangHandler) OnOpenFile(uri types.DocumentURI, languageID string, version int, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[uri] = &fileRef{
		LanguageID: languageID,
		Text:       text,
		Version:    version,
	}
	return nil
}

// OnUpdateFile is
func (h *LangHandler) OnUpdateFile(uri types.DocumentURI, text string, version *int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[uri]
	if !ok {
		return fmt.Errorf("document not found: %v", uri)
	}
	f.Text = text
	if version != nil {
		f.Version = *version
	}
	return nil
}

// OnSaveFile is
func (h *LangHandler) OnSaveFile(uri types.DocumentURI, text *string) error {
	if text == nil {
		return nil
	}
	return h.OnUpdateFile(uri, *text, nil)
}

// OnCloseFile is
func (h *LangHandler) OnCloseFile(uri types.DocumentURI) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, uri)
	return nil
}

func (h *LangHandler) logToOutput(ctx context.Context, message string) {
	h.logger.Println(message)
	if h.notifier != nil {
		h.notifier.LogMessage(ctx, types.MessageLog, message)
	}
}

func (h *LangHandler) logWarning(ctx context.Context, setting types.Setting, message string) {
	h.log(ctx, types.MessageWarning, setting.ShowNotifications, message)
}

func (h *LangHandler) logError(ctx context.Context, setting types.Setting, message string) {
	h.log(ctx, types.MessageError, setting.ShowNotifications, message)
}

func (h *LangHandler) log(ctx context.Context, typ types.MessageType, verbosity types.NotifyVerbosity, message string) {
	h.logger.Println(message)
	if h.notifier == nil {
		return
	}
	h.notifier.LogMessage(ctx, typ, message)
	if notifyEnabled(verbosity, typ) {
		h.notifier.ShowMessage(ctx, typ, message)
	}
}

func notifyEnabled(v types.NotifyVerbosity, typ types.MessageType) bool {
	switch typ {
	case types.MessageError:
		return v == types.NotifyOnError || v == types.NotifyOnWarning || v == types.NotifyAlways
	case types.MessageWarning:
		return v == types.NotifyOnWarning || v == types.NotifyAlways
	default:
		return v == types.NotifyAlways
	}
}
