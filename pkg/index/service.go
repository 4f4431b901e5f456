package index

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"

	"github.com/walteh/tagdex/pkg/position"
	"github.com/walteh/tagdex/pkg/query"
	"github.com/walteh/tagdex/pkg/scanner"
	"github.com/walteh/tagdex/pkg/sibling"
)

// Options tunes a Service. The zero value selects the defaults.
type Options struct {
	// CacheCapacity is the number of documents retained (LRU beyond that).
	CacheCapacity int

	// LargeFileThreshold is the text length at which scanning switches to the
	// chunked path.
	LargeFileThreshold int

	// Chunk tunes the chunked path.
	Chunk scanner.ChunkOptions
}

func (o Options) withDefaults() Options {
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = DefaultCacheCapacity
	}
	if o.LargeFileThreshold <= 0 {
		o.LargeFileThreshold = scanner.DefaultLargeFileThreshold
	}
	return o
}

// Service is the constructed indexing engine: it owns the cache and the
// per-document version state, pulls text and versions from its Source, and
// serves query results to presentation layers. Multiple independent services
// can coexist; there is no process-wide state.
type Service struct {
	source Source
	cache  *Cache
	opts   Options

	// collapses concurrent scans of the same document+version into one
	flight singleflight.Group

	// number of times the scanners actually ran, observable by tests to
	// prove cache hits skip tokenization
	scans atomic.Int64
}

// NewService creates a Service reading from source.
func NewService(source Source, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		source: source,
		cache:  NewCache(opts.CacheCapacity),
		opts:   opts,
	}
}

// Scan returns the DocumentIndex for key at the document's current version,
// reusing the cached index when the version is unchanged. Large documents go
// through the chunked path and may suspend cooperatively; the version fence
// guarantees a scan that completes after the document has moved on never
// replaces fresher cached state.
func (s *Service) Scan(ctx context.Context, key DocumentKey) (*DocumentIndex, error) {
	version, err := s.source.DocumentVersion(key)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %w", ErrDocumentUnavailable, key, err)
	}

	if idx, ok := s.cache.Get(key, version); ok {
		return idx, nil
	}

	result, err, _ := s.flight.Do(fmt.Sprintf("%s@%d", key, version), func() (interface{}, error) {
		return s.scan(ctx, key, version)
	})
	if err != nil {
		return nil, err
	}
	return result.(*DocumentIndex), nil
}

func (s *Service) scan(ctx context.Context, key DocumentKey, version int) (*DocumentIndex, error) {
	text, err := s.source.DocumentText(key)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %w", ErrDocumentUnavailable, key, err)
	}

	logger := zerolog.Ctx(ctx).With().Str("document", string(key)).Int("version", version).Logger()

	var occurrences []*scanner.TagOccurrence
	chunked := len(text) > s.opts.LargeFileThreshold
	if chunked {
		logger.Debug().Int("length", len(text)).Msg("scanning via chunked path")
		occurrences, err = scanner.ScanChunked(ctx, text, s.opts.Chunk)
		if err != nil {
			return nil, errors.Errorf("chunked scan of %s: %w", key, err)
		}
	} else {
		occurrences = scanner.Tokenize(text)
	}
	s.scans.Add(1)

	idx := &DocumentIndex{
		Key:         key,
		Version:     version,
		Occurrences: sibling.Annotate(occurrences),
		Chunked:     chunked,
	}

	if !s.cache.Put(idx) {
		// an edit beat this scan; keep whatever the newer scan cached
		logger.Debug().Msg("discarding stale scan result")
		if newer, ok := s.cache.Get(key, mustVersion(s.source, key, version)); ok {
			return newer, nil
		}
	}
	return idx, nil
}

// mustVersion re-reads the current version, falling back to the version the
// scan started from if the document vanished mid-flight.
func mustVersion(source Source, key DocumentKey, fallback int) int {
	v, err := source.DocumentVersion(key)
	if err != nil {
		return fallback
	}
	return v
}

// Observe records an externally observed version for key, arming the version
// fence ahead of a debounced rescan.
func (s *Service) Observe(key DocumentKey, version int) {
	s.cache.Observe(key, version)
}

// Invalidate evicts all state for key, used on document close.
func (s *Service) Invalidate(key DocumentKey) {
	s.cache.Invalidate(key)
}

// ScanCount reports how many times a scanner actually ran, for tests.
func (s *Service) ScanCount() int64 {
	return s.scans.Load()
}

// QueryAll returns every occurrence needing disambiguation in the document.
func (s *Service) QueryAll(ctx context.Context, key DocumentKey) ([]*scanner.TagOccurrence, error) {
	idx, err := s.Scan(ctx, key)
	if err != nil {
		return nil, err
	}
	return query.AllDisambiguated(idx.Occurrences), nil
}

// QueryInViewport returns occurrences needing disambiguation whose line falls
// inside any of the visible ranges.
func (s *Service) QueryInViewport(ctx context.Context, key DocumentKey, ranges []position.LineRange) ([]*scanner.TagOccurrence, error) {
	idx, err := s.Scan(ctx, key)
	if err != nil {
		return nil, err
	}
	return query.InRange(query.AllDisambiguated(idx.Occurrences), ranges), nil
}

// QueryAtCursor returns the occurrence needing disambiguation at line, if
// any.
func (s *Service) QueryAtCursor(ctx context.Context, key DocumentKey, line int) (*scanner.TagOccurrence, bool, error) {
	idx, err := s.Scan(ctx, key)
	if err != nil {
		return nil, false, err
	}
	occ, ok := query.AtLine(idx.Occurrences, line)
	return occ, ok, nil
}
