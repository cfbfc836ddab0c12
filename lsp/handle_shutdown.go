package lsp

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"
)

func (h *LspHandler) handleShutdown(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result any, err error) {
	return nil, h.langHandler.Close()
}
