package lsp

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/jsonrpc2"
)

func (s *Server) handleTextDocumentDidOpen(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params DidOpenTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	s.documents.Store(&Document{
		URI:        params.TextDocument.URI,
		LanguageID: params.TextDocument.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
	})

	key := s.documents.Key(params.TextDocument.URI)
	if _, err := s.indexer.Scan(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uri", params.TextDocument.URI).Msg("initial scan failed")
	}
	return nil, nil
}

func (s *Server) handleTextDocumentDidChange(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params DidChangeTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.ContentChanges) == 0 {
		return nil, nil
	}

	// full-document sync: the last change wins
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	key := s.documents.Key(params.TextDocument.URI)

	changeSize := 0
	if doc, ok := s.documents.Get(params.TextDocument.URI); ok {
		changeSize = abs(len(text) - len(doc.Content))
	}

	s.documents.Store(&Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Content: text,
	})

	// arm the version fence before the debounced rescan, so a scan of older
	// content that is still in flight cannot commit
	s.indexer.Observe(key, params.TextDocument.Version)
	s.debouncer.Trigger(key, changeSize)
	return nil, nil
}

func (s *Server) handleTextDocumentDidSave(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params DidSaveTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	key := s.documents.Key(params.TextDocument.URI)
	if params.Text != "" {
		// publish a fresh Document rather than mutating the stored one; a
		// debounced rescan may be reading the old value concurrently
		if doc, ok := s.documents.Get(params.TextDocument.URI); ok {
			s.documents.Store(&Document{
				URI:        doc.URI,
				LanguageID: doc.LanguageID,
				Version:    doc.Version,
				Content:    params.Text,
			})
		}
	}

	// saves skip the quiet period
	s.debouncer.Cancel(key)
	if _, err := s.indexer.Scan(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uri", params.TextDocument.URI).Msg("rescan on save failed")
	}
	return nil, nil
}

func (s *Server) handleTextDocumentDidClose(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params DidCloseTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	key := s.documents.Key(params.TextDocument.URI)
	s.debouncer.Cancel(key)
	s.indexer.Invalidate(key)
	s.documents.Delete(params.TextDocument.URI)
	return nil, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
