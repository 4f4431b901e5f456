package lsp_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tagdex/pkg/index"
	"github.com/walteh/tagdex/pkg/lsp"
)

func request(t *testing.T, method string, params interface{}) *jsonrpc2.Request {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	msg := json.RawMessage(raw)
	return &jsonrpc2.Request{Method: method, Params: &msg}
}

func openDoc(t *testing.T, s *lsp.Server, uri, text string, version int) {
	t.Helper()
	_, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, LanguageID: "xml", Version: version, Text: text},
	}))
	require.NoError(t, err)
}

func newTestServer(t *testing.T) *lsp.Server {
	t.Helper()
	s := lsp.NewServer(context.Background(), lsp.ServerOptions{DebounceDelay: 50 * time.Millisecond})
	t.Cleanup(s.Shutdown)
	return s
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)

	result, err := s.Dispatch(context.Background(), nil, request(t, "initialize", lsp.InitializeParams{RootURI: "file:///tmp"}))
	require.NoError(t, err)

	init, ok := result.(lsp.InitializeResult)
	require.True(t, ok)
	assert.True(t, init.Capabilities.DocumentSymbolProvider)
	require.NotNil(t, init.Capabilities.CodeLensProvider)
	assert.Equal(t, lsp.TextDocumentSyncFull, init.Capabilities.TextDocumentSync.Change)
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t)

	_, err := s.Dispatch(context.Background(), nil, &jsonrpc2.Request{Method: "textDocument/hover"})
	require.Error(t, err)

	rpcErr, ok := err.(*jsonrpc2.Error)
	require.True(t, ok)
	assert.EqualValues(t, jsonrpc2.CodeMethodNotFound, rpcErr.Code)
}

func TestDidOpenScansImmediately(t *testing.T) {
	s := newTestServer(t)

	openDoc(t, s, "file:///d.xml", "<a><b/><b/></a>", 1)

	assert.Equal(t, int64(1), s.Indexer().ScanCount())

	doc, ok := s.Documents().Get("file:///d.xml")
	require.True(t, ok)
	assert.Equal(t, 1, doc.Version)
}

func TestCodeLens(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<a>\n<b/>\n<b/>\n</a>", 1)

	result, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/codeLens", lsp.CodeLensParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///d.xml"},
	}))
	require.NoError(t, err)

	lenses, ok := result.([]lsp.CodeLens)
	require.True(t, ok)
	require.Len(t, lenses, 2)

	assert.Equal(t, "<b> 1/2", lenses[0].Command.Title)
	assert.Equal(t, "<b> 2/2", lenses[1].Command.Title)
	assert.Equal(t, 1, lenses[0].Range.Start.Line)
	assert.Equal(t, 2, lenses[1].Range.Start.Line)
	// the lens range covers the "<b" token
	assert.Equal(t, 0, lenses[0].Range.Start.Character)
	assert.Equal(t, 2, lenses[0].Range.End.Character)

	// the codeLens query reused the didOpen scan
	assert.Equal(t, int64(1), s.Indexer().ScanCount())
}

func TestDocumentSymbols(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<a>\n<b/>\n<b/>\n<c/>\n</a>", 1)

	result, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/documentSymbol", lsp.DocumentSymbolParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///d.xml"},
	}))
	require.NoError(t, err)

	symbols, ok := result.([]lsp.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, symbols, 4)

	assert.Equal(t, "a", symbols[0].Name)
	assert.Empty(t, symbols[0].Detail)
	assert.Equal(t, "b", symbols[1].Name)
	assert.Equal(t, "1/2", symbols[1].Detail)
	assert.Equal(t, "2/2", symbols[2].Detail)
	assert.Empty(t, symbols[3].Detail)
}

func TestDecorationsModes(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<l>\n<i/>\n<i/>\n<u/>\n<i/>\n</l>", 1)
	docID := lsp.TextDocumentIdentifier{URI: "file:///d.xml"}

	t.Run("all", func(t *testing.T) {
		result, err := s.Dispatch(context.Background(), nil, request(t, "tagdex/decorations", lsp.DecorationsParams{
			TextDocument: docID,
			Mode:         lsp.DisplayModeAll,
		}))
		require.NoError(t, err)
		decorations := result.([]lsp.Decoration)
		require.Len(t, decorations, 3)
		assert.Equal(t, "1/3", decorations[0].Label)
		assert.Equal(t, "3/3", decorations[2].Label)
	})

	t.Run("viewport", func(t *testing.T) {
		result, err := s.Dispatch(context.Background(), nil, request(t, "tagdex/decorations", lsp.DecorationsParams{
			TextDocument: docID,
			Mode:         lsp.DisplayModeViewport,
			Ranges: []lsp.Range{
				{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 2}},
			},
		}))
		require.NoError(t, err)
		decorations := result.([]lsp.Decoration)
		require.Len(t, decorations, 2)
	})

	t.Run("cursor", func(t *testing.T) {
		result, err := s.Dispatch(context.Background(), nil, request(t, "tagdex/decorations", lsp.DecorationsParams{
			TextDocument: docID,
			Mode:         lsp.DisplayModeCursor,
			Line:         4,
		}))
		require.NoError(t, err)
		decorations := result.([]lsp.Decoration)
		require.Len(t, decorations, 1)
		assert.Equal(t, "3/3", decorations[0].Label)
	})

	t.Run("cursor on unambiguous line", func(t *testing.T) {
		result, err := s.Dispatch(context.Background(), nil, request(t, "tagdex/decorations", lsp.DecorationsParams{
			TextDocument: docID,
			Mode:         lsp.DisplayModeCursor,
			Line:         3,
		}))
		require.NoError(t, err)
		assert.Empty(t, result.([]lsp.Decoration))
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := s.Dispatch(context.Background(), nil, request(t, "tagdex/decorations", lsp.DecorationsParams{
			TextDocument: docID,
			Mode:         "both",
		}))
		require.Error(t, err)
	})
}

func TestDidChangeDebouncesRescan(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<a/>", 1)
	require.Equal(t, int64(1), s.Indexer().ScanCount())

	_, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{URI: "file:///d.xml", Version: 2},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: "<a/><a/>"}},
	}))
	require.NoError(t, err)

	// the rescan has not run yet; it is sitting behind the quiet period
	assert.Equal(t, int64(1), s.Indexer().ScanCount())

	require.Eventually(t, func() bool {
		return s.Indexer().ScanCount() == 2
	}, 2*time.Second, 5*time.Millisecond)

	idx, err := s.Indexer().Scan(context.Background(), s.Documents().Key("file:///d.xml"))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Version)
	assert.Len(t, idx.Occurrences, 2)
}

func TestDidCloseInvalidates(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<a/>", 1)

	_, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/didClose", lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///d.xml"},
	}))
	require.NoError(t, err)

	_, ok := s.Documents().Get("file:///d.xml")
	assert.False(t, ok)

	_, err = s.Indexer().Scan(context.Background(), s.Documents().Key("file:///d.xml"))
	require.ErrorIs(t, err, index.ErrDocumentUnavailable)
}

func TestDidSaveRescansImmediately(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<a/>", 1)

	_, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/didSave", lsp.DidSaveTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///d.xml"},
	}))
	require.NoError(t, err)

	// version is unchanged, so the save rescan is a cache hit
	assert.Equal(t, int64(1), s.Indexer().ScanCount())
}

func TestDidSaveReplacesDocumentSnapshot(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///d.xml", "<a/>", 1)

	before, ok := s.Documents().Get("file:///d.xml")
	require.True(t, ok)

	_, err := s.Dispatch(context.Background(), nil, request(t, "textDocument/didSave", lsp.DidSaveTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///d.xml"},
		Text:         "<a/><a/>",
	}))
	require.NoError(t, err)

	after, ok := s.Documents().Get("file:///d.xml")
	require.True(t, ok)

	// the save publishes a new snapshot; a concurrent debounced rescan may
	// still be reading the old one, so it must be left intact
	assert.NotSame(t, before, after)
	assert.Equal(t, "<a/>", before.Content)
	assert.Equal(t, "<a/><a/>", after.Content)
	assert.Equal(t, "xml", after.LanguageID)
	assert.Equal(t, 1, after.Version)
}

type noopClientHandler struct{}

func (noopClientHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

func TestStartServesOverPipe(t *testing.T) {
	ctx := context.Background()

	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	s := lsp.NewServer(ctx, lsp.ServerOptions{
		DebounceDelay: 50 * time.Millisecond,
		ClientLogs:    true,
	})

	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx, serverIn, serverOut)
	}()

	stream := jsonrpc2.NewBufferedStream(lsp.NewReadWriteCloser(clientIn, clientOut), jsonrpc2.VSCodeObjectCodec{})
	client := jsonrpc2.NewConn(ctx, stream, noopClientHandler{})
	defer client.Close()

	var init lsp.InitializeResult
	require.NoError(t, client.Call(ctx, "initialize", lsp.InitializeParams{RootURI: "file:///tmp"}, &init))
	assert.True(t, init.Capabilities.DocumentSymbolProvider)

	require.NoError(t, client.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: "file:///d.xml", LanguageID: "xml", Version: 1, Text: "<a>\n<b/>\n<b/>\n</a>"},
	}))

	var lenses []lsp.CodeLens
	require.NoError(t, client.Call(ctx, "textDocument/codeLens", lsp.CodeLensParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///d.xml"},
	}, &lenses))
	require.Len(t, lenses, 2)
	assert.Equal(t, "<b> 2/2", lenses[1].Command.Title)

	// exit closes the server side of the connection, which unblocks Start
	require.NoError(t, client.Notify(ctx, "exit", struct{}{}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after exit")
	}
}
