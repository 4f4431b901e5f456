package scan

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/filesource"
	"github.com/walteh/tagdex/pkg/index"
	"github.com/walteh/tagdex/pkg/scanner"
)

type Handler struct {
	largeThreshold int
	chunkSize      int
}

func NewScanCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "print disambiguation annotations for markup files",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().IntVar(&me.largeThreshold, "large-file-threshold", scanner.DefaultLargeFileThreshold, "document length that switches scanning to the chunked path")
	cmd.Flags().IntVar(&me.chunkSize, "chunk-size", scanner.DefaultChunkSize, "window size of the chunked path")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), afero.NewOsFs(), args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, fs afero.Fs, paths []string) error {
	source := filesource.New(fs)
	svc := index.NewService(source, index.Options{
		LargeFileThreshold: me.largeThreshold,
		Chunk:              scanner.ChunkOptions{ChunkSize: me.chunkSize},
	})

	for _, path := range paths {
		occs, err := svc.QueryAll(ctx, source.Key(path))
		if err != nil {
			return errors.Errorf("scanning %s: %w", path, err)
		}
		for _, occ := range occs {
			fmt.Fprintf(os.Stdout, "%s:%d: <%s> %d/%d\n", path, occ.Line+1, occ.Tag, occ.OrderInGroup, occ.GroupSize)
		}
	}

	return nil
}
