package scanner

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/tagdex/pkg/position"
)

const (
	// DefaultLargeFileThreshold is the text length above which callers should
	// prefer ScanChunked over Tokenize.
	DefaultLargeFileThreshold = 50_000

	// DefaultChunkSize is the window size used by ScanChunked when the
	// options leave it unset.
	DefaultChunkSize = 10_000

	// DefaultYieldEvery is how many chunks are processed between cooperative
	// yields.
	DefaultYieldEvery = 2
)

// ChunkOptions tunes ScanChunked. The zero value selects the defaults.
type ChunkOptions struct {
	// ChunkSize is the window length in bytes.
	ChunkSize int

	// YieldEvery is the yield cadence in chunks.
	YieldEvery int

	// Yield is called between chunk batches so long scans stay cooperative.
	// The default checks ctx and hands the scheduler a chance to run other
	// work. Returning an error aborts the scan.
	Yield func(ctx context.Context) error
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.YieldEvery <= 0 {
		o.YieldEvery = DefaultYieldEvery
	}
	if o.Yield == nil {
		o.Yield = func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
			return nil
		}
	}
	return o
}

// ScanChunked is the throughput-oriented scan for large documents. It slices
// text into fixed-size windows, scans each window with no cross-chunk nesting
// state, and yields between batches of windows so a long scan never
// monopolizes its thread.
//
// Reduced precision is the price: ParentID is RootID for every occurrence, so
// sibling grouping downstream is scoped to the whole document rather than to
// a parent, and a tag that straddles a chunk boundary is missed or
// mis-offset. Both are accepted trade-offs of this path, not bugs.
func ScanChunked(ctx context.Context, text string, opts ChunkOptions) ([]*TagOccurrence, error) {
	opts = opts.withDefaults()
	lines := position.NewLineIndex(text)

	occurrences := []*TagOccurrence{}
	chunks := 0

	for start := 0; start < len(text); start += opts.ChunkSize {
		end := start + opts.ChunkSize
		if end > len(text) {
			end = len(text)
		}

		for _, m := range tagPattern.FindAllStringSubmatchIndex(text[start:end], -1) {
			closing := m[2*groupClose] < m[2*groupClose+1]
			if closing {
				continue
			}
			offset := start + m[0]
			occurrences = append(occurrences, &TagOccurrence{
				ID:       len(occurrences) + 1,
				Tag:      text[start+m[2*groupName] : start+m[2*groupName+1]],
				Offset:   offset,
				Line:     lines.LineFor(offset),
				ParentID: RootID,
			})
		}

		chunks++
		if chunks%opts.YieldEvery == 0 {
			if err := opts.Yield(ctx); err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Int("chunks_done", chunks).Msg("chunked scan aborted at yield point")
				return nil, err
			}
		}
	}

	return occurrences, nil
}
