package lsp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/jsonrpc2"
)

// LSPWriter implements io.Writer to redirect zerolog output to the client as
// window/logMessage notifications, so server logs land in the editor's
// output panel instead of corrupting the stdio transport.
type LSPWriter struct {
	mu   sync.Mutex
	conn *jsonrpc2.Conn
	ctx  context.Context
}

// NewLSPWriter returns a writer with no connection attached yet; writes are
// dropped until Attach is called. This lets the logger be installed before
// the jsonrpc2 read loop starts dispatching handlers.
func NewLSPWriter(ctx context.Context) *LSPWriter {
	return &LSPWriter{ctx: ctx}
}

// Attach starts forwarding subsequent writes to conn.
func (w *LSPWriter) Attach(conn *jsonrpc2.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn = conn
}

// ApplyLSPWriter returns a context whose zerolog logger forwards to the
// client through w.
func ApplyLSPWriter(ctx context.Context, w *LSPWriter) context.Context {
	logger := zerolog.New(w).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}

func (w *LSPWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return len(p), nil
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil // skip malformed entries
	}

	level := Debug
	if l, ok := entry["level"].(string); ok {
		level = ParseMessageTypeFromZerolog(l)
	}
	msg := ""
	if m, ok := entry["message"].(string); ok {
		msg = m
	}

	_ = w.conn.Notify(w.ctx, "window/logMessage", LogMessageParams{
		Type:    level,
		Message: msg,
	})
	return len(p), nil
}
