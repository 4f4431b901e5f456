package serve_lsp

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/debug"
	"github.com/walteh/tagdex/pkg/index"
	"github.com/walteh/tagdex/pkg/lsp"
	"github.com/walteh/tagdex/pkg/scanner"
)

type Handler struct {
	debug          bool
	cacheCapacity  int
	largeThreshold int
	chunkSize      int
	debounceMs     int
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().IntVar(&me.cacheCapacity, "cache-capacity", index.DefaultCacheCapacity, "documents retained in the index cache")
	cmd.Flags().IntVar(&me.largeThreshold, "large-file-threshold", scanner.DefaultLargeFileThreshold, "document length that switches scanning to the chunked path")
	cmd.Flags().IntVar(&me.chunkSize, "chunk-size", scanner.DefaultChunkSize, "window size of the chunked path")
	cmd.Flags().IntVar(&me.debounceMs, "debounce-ms", int(index.DefaultDebounceDelay/time.Millisecond), "quiet period before an edit-driven rescan")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	level := zerolog.InfoLevel
	if me.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().
		Str("component", "lsp-server").
		Logger().
		Hook(debug.CustomTimeHook{}).
		Hook(debug.CustomCallerHook{})
	ctx = logger.WithContext(ctx)

	server := lsp.NewServer(ctx, lsp.ServerOptions{
		Index: index.Options{
			CacheCapacity:      me.cacheCapacity,
			LargeFileThreshold: me.largeThreshold,
			Chunk:              scanner.ChunkOptions{ChunkSize: me.chunkSize},
		},
		DebounceDelay: time.Duration(me.debounceMs) * time.Millisecond,
		ClientLogs:    me.debug,
	})

	if err := server.Start(ctx, os.Stdin, os.Stdout); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}
