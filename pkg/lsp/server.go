package lsp

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/jsonrpc2"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/index"
)

// Server is the LSP surface over the indexing engine. It owns the open
// document set, the indexer service reading from it, and the per-document
// debouncer coalescing edit-driven rescans.
type Server struct {
	documents *DocumentManager
	indexer   *index.Service
	debouncer *index.Debouncer

	// Server state
	initialized bool
	shutdown    bool

	// Server identification
	id string

	clientLogs bool

	ctx context.Context
}

// ServerOptions tunes a Server. The zero value selects the defaults.
type ServerOptions struct {
	Index         index.Options
	DebounceDelay time.Duration

	// ClientLogs forwards server logs to the client as window/logMessage
	// notifications once a connection is up.
	ClientLogs bool
}

func NewServer(ctx context.Context, opts ServerOptions) *Server {
	documents := NewDocumentManager()

	s := &Server{
		id:         xid.New().String(),
		documents:  documents,
		indexer:    index.NewService(documents, opts.Index),
		clientLogs: opts.ClientLogs,
		ctx:        ctx,
	}
	s.debouncer = index.NewDebouncer(opts.DebounceDelay, s.rescan)
	return s
}

// Documents exposes the open document set, mainly for tests.
func (s *Server) Documents() *DocumentManager {
	return s.documents
}

// Indexer exposes the engine, mainly for tests.
func (s *Server) Indexer() *index.Service {
	return s.indexer
}

// Shutdown stops background work: pending debounced rescans are cancelled
// and their timers released. Start calls this on disconnect; callers driving
// Dispatch directly call it themselves.
func (s *Server) Shutdown() {
	s.debouncer.Stop()
}

// Start serves LSP over the given reader/writer (normally stdin/stdout) and
// blocks until the client disconnects.
func (s *Server) Start(ctx context.Context, reader io.ReadCloser, writer io.WriteCloser) error {
	zerolog.Ctx(ctx).Info().Str("server_id", s.id).Msg("starting language server")

	// NewConn starts the read loop, so everything handlers and the debounce
	// timer goroutine read from s must be in place before it is called.
	var logSink *LSPWriter
	if s.clientLogs {
		// debounced rescans and other background work log through s.ctx, so
		// route that to the editor's output panel
		logSink = NewLSPWriter(ctx)
		s.ctx = ApplyLSPWriter(s.ctx, logSink)
	}

	stream := jsonrpc2.NewBufferedStream(NewReadWriteCloser(reader, writer), jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.Dispatch))
	if logSink != nil {
		logSink.Attach(conn)
	}

	select {
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		s.Shutdown()
		zerolog.Ctx(ctx).Info().Str("server_id", s.id).Msg("client disconnected")
		return nil
	}
}

// Dispatch routes a single request or notification to its handler. Start
// installs it as the connection handler; it is exported so the server can be
// driven without a transport.
func (s *Server) Dispatch(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	zerolog.Ctx(ctx).Debug().Str("method", req.Method).Msg("handling request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(ctx, req)
	case "initialized":
		return nil, nil
	case "shutdown":
		s.shutdown = true
		return nil, nil
	case "exit":
		if conn != nil {
			_ = conn.Close()
		}
		return nil, nil
	case "textDocument/didOpen":
		return s.handleTextDocumentDidOpen(ctx, req)
	case "textDocument/didChange":
		return s.handleTextDocumentDidChange(ctx, req)
	case "textDocument/didSave":
		return s.handleTextDocumentDidSave(ctx, req)
	case "textDocument/didClose":
		return s.handleTextDocumentDidClose(ctx, req)
	case "textDocument/codeLens":
		return s.handleCodeLens(ctx, req)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(ctx, req)
	case "tagdex/decorations":
		return s.handleDecorations(ctx, req)
	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not supported: " + req.Method,
		}
	}
}

// rescan is the debouncer's fire callback: it runs on the timer goroutine,
// after the quiet period, against whatever version the document has by then.
func (s *Server) rescan(key index.DocumentKey) {
	if _, err := s.indexer.Scan(s.ctx, key); err != nil {
		// closed before the timer fired, or text source went away; both are
		// routine
		zerolog.Ctx(s.ctx).Debug().Err(err).Str("document", string(key)).Msg("debounced rescan skipped")
	}
}

func (s *Server) handleInitialize(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params InitializeParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("root_uri", params.RootURI).Msg("initializing")
	s.initialized = true

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncFull,
				Save:      true,
			},
			CodeLensProvider:       &CodeLensOptions{ResolveProvider: false},
			DocumentSymbolProvider: true,
		},
	}, nil
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return errors.Errorf("missing params for %s", req.Method)
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return errors.Errorf("failed to unmarshal %s params: %w", req.Method, err)
	}
	return nil
}
