package lsp

import (
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/index"
)

// normalizeURI ensures consistent URI handling by removing the file:// prefix
// if present and converting to a clean path
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// Document represents a text document with its metadata
type Document struct {
	URI        string
	LanguageID string
	Version    int
	Content    string
}

// DocumentManager holds the open documents the editor has synced to us,
// keyed by normalized URI. It is the engine's text/version source.
type DocumentManager struct {
	store *sync.Map // map[string]*Document
}

var _ index.Source = (*DocumentManager)(nil)

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri string) (*Document, bool) {
	content, ok := m.store.Load(normalizeURI(uri))
	if !ok {
		return nil, false
	}
	doc, ok := content.(*Document)
	return doc, ok
}

func (m *DocumentManager) Store(doc *Document) {
	m.store.Store(normalizeURI(doc.URI), doc)
}

func (m *DocumentManager) Delete(uri string) {
	m.store.Delete(normalizeURI(uri))
}

// Key returns the cache key for a document URI.
func (m *DocumentManager) Key(uri string) index.DocumentKey {
	return index.DocumentKey(normalizeURI(uri))
}

// DocumentText implements index.Source.
func (m *DocumentManager) DocumentText(key index.DocumentKey) (string, error) {
	doc, ok := m.Get(string(key))
	if !ok {
		return "", errors.Errorf("document not open: %s", key)
	}
	return doc.Content, nil
}

// DocumentVersion implements index.Source.
func (m *DocumentManager) DocumentVersion(key index.DocumentKey) (int, error) {
	doc, ok := m.Get(string(key))
	if !ok {
		return 0, errors.Errorf("document not open: %s", key)
	}
	return doc.Version, nil
}
