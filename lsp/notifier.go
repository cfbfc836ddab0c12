package lsp

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/blackfmt/black-langserver/types"
)

// connNotifier sends window/logMessage and window/showMessage over the
// client connection.
type connNotifier struct {
	conn *jsonrpc2.Conn
}

func (n *connNotifier) LogMessage(ctx context.Context, typ types.MessageType, message string) {
	n.conn.Notify(ctx, "window/logMessage", &types.LogMessageParams{
		Type:    typ,
		Message: message,
	})
}

func (n *connNotifier) ShowMessage(ctx context.Context, typ types.MessageType, message string) {
	n.conn.Notify(ctx, "window/showMessage", &types.ShowMessageParams{
		Type:    typ,
		Message: message,
	})
}
