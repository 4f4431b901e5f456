package lsp

import (
	"context"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/position"
	"github.com/walteh/tagdex/pkg/scanner"
)

// occurrenceRange covers the tag token ("<name"), which is where editors
// anchor lenses and decorations.
func occurrenceRange(lines *position.LineIndex, occ *scanner.TagOccurrence) Range {
	start := lines.PlaceFor(occ.Offset)
	end := lines.PlaceFor(occ.Offset + 1 + len(occ.Tag))
	return Range{
		Start: Position{Line: start.Line, Character: start.Character},
		End:   Position{Line: end.Line, Character: end.Character},
	}
}

func ordinalLabel(occ *scanner.TagOccurrence) string {
	return fmt.Sprintf("%d/%d", occ.OrderInGroup, occ.GroupSize)
}

func (s *Server) handleCodeLens(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params CodeLensParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	occs, err := s.indexer.QueryAll(ctx, s.documents.Key(params.TextDocument.URI))
	if err != nil {
		return nil, errors.Errorf("querying %s for code lenses: %w", params.TextDocument.URI, err)
	}

	lines := position.NewLineIndex(doc.Content)
	lenses := make([]CodeLens, 0, len(occs))
	for _, occ := range occs {
		lenses = append(lenses, CodeLens{
			Range: occurrenceRange(lines, occ),
			Command: &Command{
				Title:   fmt.Sprintf("<%s> %s", occ.Tag, ordinalLabel(occ)),
				Command: "tagdex.revealOccurrence",
				Arguments: []interface{}{
					params.TextDocument.URI,
					occ.Line,
				},
			},
		})
	}
	return lenses, nil
}

func (s *Server) handleDocumentSymbol(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params DocumentSymbolParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	idx, err := s.indexer.Scan(ctx, s.documents.Key(params.TextDocument.URI))
	if err != nil {
		return nil, errors.Errorf("scanning %s for symbols: %w", params.TextDocument.URI, err)
	}

	lines := position.NewLineIndex(doc.Content)
	symbols := make([]DocumentSymbol, 0, len(idx.Occurrences))
	for _, occ := range idx.Occurrences {
		name := occ.Tag
		detail := ""
		if occ.NeedsDisambiguation {
			detail = ordinalLabel(occ)
		}
		r := occurrenceRange(lines, occ)
		symbols = append(symbols, DocumentSymbol{
			Name:           name,
			Detail:         detail,
			Kind:           SymbolKindField,
			Range:          r,
			SelectionRange: r,
		})
	}
	return symbols, nil
}

func (s *Server) handleDecorations(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var params DecorationsParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	key := s.documents.Key(params.TextDocument.URI)

	var occs []*scanner.TagOccurrence
	var err error
	switch params.Mode {
	case DisplayModeAll, "":
		occs, err = s.indexer.QueryAll(ctx, key)
	case DisplayModeViewport:
		ranges := make([]position.LineRange, 0, len(params.Ranges))
		for _, r := range params.Ranges {
			ranges = append(ranges, position.LineRange{Start: r.Start.Line, End: r.End.Line})
		}
		occs, err = s.indexer.QueryInViewport(ctx, key, ranges)
	case DisplayModeCursor:
		occ, found, cursorErr := s.indexer.QueryAtCursor(ctx, key, params.Line)
		if cursorErr != nil {
			err = cursorErr
		} else if found {
			occs = []*scanner.TagOccurrence{occ}
		}
	default:
		return nil, errors.Errorf("unknown display mode: %q", params.Mode)
	}
	if err != nil {
		return nil, errors.Errorf("querying %s decorations: %w", params.TextDocument.URI, err)
	}

	lines := position.NewLineIndex(doc.Content)
	decorations := make([]Decoration, 0, len(occs))
	for _, occ := range occs {
		decorations = append(decorations, Decoration{
			Range:        occurrenceRange(lines, occ),
			Tag:          occ.Tag,
			OrderInGroup: occ.OrderInGroup,
			GroupSize:    occ.GroupSize,
			Label:        ordinalLabel(occ),
		})
	}
	return decorations, nil
}
