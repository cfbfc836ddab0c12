package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/blackfmt/black-langserver/types"
)

func (h *LspHandler) handleTextDocumentDidChange(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result any, err error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}

	var params types.DidChangeTextDocumentParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, err
	}
	if len(params.ContentChanges) == 0 {
		return nil, fmt.Errorf("no content changes: %v", params.TextDocument.URI)
	}

	// Full document sync: the last change carries the whole text.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	version := params.TextDocument.Version
	return nil, h.langHandler.OnUpdateFile(params.TextDocument.URI, text, &version)
}
