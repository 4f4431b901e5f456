// Package index owns the document index lifecycle: scanning text into tag
// occurrences, caching the result per document and content version, and
// answering presentation-layer queries against the cached index.
package index

import (
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/scanner"
)

// DocumentKey is the stable identity of a source document, typically its
// normalized URI.
type DocumentKey string

// ErrDocumentUnavailable is returned when the text/version source cannot
// supply the document (e.g. it was closed or never opened). Malformed markup
// is never an error; this is the only failure the engine reports across its
// public boundary.
var ErrDocumentUnavailable = errors.New("document unavailable")

// DocumentIndex is the scan result for one document at one content version.
// It is immutable once produced: a rescan builds a new DocumentIndex rather
// than mutating the old one.
type DocumentIndex struct {
	Key         DocumentKey
	Version     int
	Occurrences []*scanner.TagOccurrence

	// Chunked is set when the index came from the large-document path, which
	// reports every occurrence at root scope.
	Chunked bool
}

// Source is the external collaborator that supplies raw document text and
// content versions. Versions are strictly increasing per edit.
type Source interface {
	DocumentText(key DocumentKey) (string, error)
	DocumentVersion(key DocumentKey) (int, error)
}
