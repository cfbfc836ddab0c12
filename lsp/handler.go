// Package lsp speaks the host protocol: JSON-RPC dispatch, capability
// negotiation and client notifications.
package lsp

import (
	"context"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"golang.org/x/sync/semaphore"

	"github.com/blackfmt/black-langserver/core"
)

// DefaultMaxWorkers bounds the number of requests served concurrently.
const DefaultMaxWorkers = 5

// LspHandler routes protocol methods to the language handler.
type LspHandler struct {
	langHandler *core.LangHandler
}

// NewHandler creates the JSON-RPC handler for this language server.
// Requests run asynchronously on a pool bounded by maxWorkers.
func NewHandler(langHandler *core.LangHandler, maxWorkers int64) jsonrpc2.Handler {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	h := &LspHandler{langHandler: langHandler}
	return jsonrpc2.AsyncHandler(&boundedHandler{
		inner: jsonrpc2.HandlerWithError(h.handle),
		sem:   semaphore.NewWeighted(maxWorkers),
	})
}

// boundedHandler is the worker pool: each request holds one slot for the
// duration of its handling.
type boundedHandler struct {
	inner jsonrpc2.Handler
	sem   *semaphore.Weighted
}

func (b *boundedHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer b.sem.Release(1)
	b.inner.Handle(ctx, conn, req)
}

func (h *LspHandler) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result any, err error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(ctx, conn, req)
	case "initialized":
		return
	case "shutdown":
		return h.handleShutdown(ctx, conn, req)
	case "exit":
		conn.Close()
		return
	case "textDocument/didOpen":
		return h.handleTextDocumentDidOpen(ctx, conn, req)
	case "textDocument/didChange":
		return h.handleTextDocumentDidChange(ctx, conn, req)
	case "textDocument/didSave":
		return h.handleTextDocumentDidSave(ctx, conn, req)
	case "textDocument/didClose":
		return h.handleTextDocumentDidClose(ctx, conn, req)
	case "textDocument/formatting":
		return h.handleTextDocumentFormatting(ctx, conn, req)
	case "textDocument/rangeFormatting":
		return h.handleTextDocumentRangeFormatting(ctx, conn, req)
	case "textDocument/rangesFormatting":
		return h.handleTextDocumentRangesFormatting(ctx, conn, req)
	case "workspace/didChangeConfiguration":
		return h.handleWorkspaceDidChangeConfiguration(ctx, conn, req)
	}

	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
}
