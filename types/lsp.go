package types

// DocumentURI is
type DocumentURI string

// NotebookCellScheme is the URI scheme editors use for notebook cells.
const NotebookCellScheme = "vscode-notebook-cell"

// PositionEncodingKind is
type PositionEncodingKind string

// UTF8 is
const (
	UTF8  PositionEncodingKind = "utf-8"
	UTF16 PositionEncodingKind = "utf-16"
	UTF32 PositionEncodingKind = "utf-32"
)

// InitializeParams is
type InitializeParams struct {
	ProcessID             int                `json:"processId,omitempty"`
	RootURI               DocumentURI        `json:"rootUri,omitempty"`
	InitializationOptions *InitializeOptions `json:"initializationOptions,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	Trace                 string             `json:"trace,omitempty"`
}

// InitializeOptions carries the workspace settings the client resolved
// before starting the server.
type InitializeOptions struct {
	Settings       []Setting `json:"settings,omitempty"`
	GlobalSettings *Setting  `json:"globalSettings,omitempty"`
}

// GeneralClientCapabilities is
type GeneralClientCapabilities struct {
	PositionEncodings []PositionEncodingKind `json:"positionEncodings,omitempty"`
}

// ClientCapabilities is
type ClientCapabilities struct {
	General *GeneralClientCapabilities `json:"general,omitempty"`
}

// InitializeResult is
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// MessageType is
type MessageType int

// MessageError is
const (
	_ MessageType = iota
	MessageError
	MessageWarning
	MessageInfo
	MessageLog
)

// TextDocumentSyncKind is
type TextDocumentSyncKind int

// TDSKNone is
const (
	TDSKNone TextDocumentSyncKind = iota
	TDSKFull
	TDSKIncremental
)

// DocumentRangeFormattingOptions is
type DocumentRangeFormattingOptions struct {
	RangesSupport bool `json:"rangesSupport,omitempty"`
}

// ServerCapabilities is
type ServerCapabilities struct {
	PositionEncoding           PositionEncodingKind            `json:"positionEncoding,omitempty"`
	TextDocumentSync           TextDocumentSyncKind            `json:"textDocumentSync,omitempty"`
	DocumentFormattingProvider bool                            `json:"documentFormattingProvider,omitempty"`
	RangeFormattingProvider    *DocumentRangeFormattingOptions `json:"documentRangeFormattingProvider,omitempty"`
}

// TextDocumentItem is
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentIdentifier is
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// VersionedTextDocumentIdentifier is
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// DidOpenTextDocumentParams is
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidCloseTextDocumentParams is
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// TextDocumentContentChangeEvent is
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength int    `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// DidChangeTextDocumentParams is
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidSaveTextDocumentParams is
type DidSaveTextDocumentParams struct {
	Text         *string                `json:"text,omitempty"`
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// Position is
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextEdit is
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// FormattingOptions is
type FormattingOptions map[string]any

// DocumentFormattingParams is
type DocumentFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Options      FormattingOptions      `json:"options,omitempty"`
}

// DocumentRangeFormattingParams is
type DocumentRangeFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Options      FormattingOptions      `json:"options,omitempty"`
}

// DocumentRangesFormattingParams is
type DocumentRangesFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Ranges       []Range                `json:"ranges"`
	Options      FormattingOptions      `json:"options,omitempty"`
}

// DidChangeConfigurationParams is
type DidChangeConfigurationParams struct {
	Settings InitializeOptions `json:"settings"`
}

// LogMessageParams is
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// ShowMessageParams is
type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}
