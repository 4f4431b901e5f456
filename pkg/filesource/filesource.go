// Package filesource adapts a filesystem to the indexing engine's Source
// contract, for the CLI paths that scan files on disk rather than editor
// buffers. The file's modification time stands in for the content version:
// it is strictly increasing across edits, which is all the version fence
// needs.
package filesource

import (
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/index"
)

type Source struct {
	fs afero.Fs
}

var _ index.Source = (*Source)(nil)

func New(fs afero.Fs) *Source {
	return &Source{fs: fs}
}

// Key returns the cache key for a file path.
func (s *Source) Key(path string) index.DocumentKey {
	return index.DocumentKey(path)
}

func (s *Source) DocumentText(key index.DocumentKey) (string, error) {
	data, err := afero.ReadFile(s.fs, string(key))
	if err != nil {
		return "", errors.Errorf("reading %s: %w", key, err)
	}
	return string(data), nil
}

func (s *Source) DocumentVersion(key index.DocumentKey) (int, error) {
	info, err := s.fs.Stat(string(key))
	if err != nil {
		return 0, errors.Errorf("stating %s: %w", key, err)
	}
	return int(info.ModTime().UnixNano()), nil
}
