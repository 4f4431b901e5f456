package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagdex/pkg/filesource"
	"github.com/walteh/tagdex/pkg/index"
)

type Handler struct {
	extensions []string
	debounceMs int
}

func NewWatchCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "watch a directory and reprint annotations as files change",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringSliceVar(&me.extensions, "ext", []string{".xml", ".html", ".svg", ".tsx", ".jsx"}, "file extensions to watch")
	cmd.Flags().IntVar(&me.debounceMs, "debounce-ms", int(index.DefaultDebounceDelay/time.Millisecond), "quiet period before a changed file is rescanned")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, dir string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	source := filesource.New(afero.NewOsFs())
	svc := index.NewService(source, index.Options{})

	report := func(key index.DocumentKey) {
		occs, err := svc.QueryAll(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("file", string(key)).Msg("rescan failed")
			return
		}
		for _, occ := range occs {
			fmt.Fprintf(os.Stdout, "%s:%d: <%s> %d/%d\n", key, occ.Line+1, occ.Tag, occ.OrderInGroup, occ.GroupSize)
		}
	}

	debouncer := index.NewDebouncer(time.Duration(me.debounceMs)*time.Millisecond, report)
	defer debouncer.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.Errorf("watching %s: %w", dir, err)
	}
	logger.Info().Str("dir", dir).Msg("watching")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !me.wantsFile(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				key := index.DocumentKey(event.Name)
				debouncer.Cancel(key)
				svc.Invalidate(key)
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				debouncer.Trigger(index.DocumentKey(event.Name), 0)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(watchErr).Msg("watch error")
		}
	}
}

func (me *Handler) wantsFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range me.extensions {
		if ext == want {
			return true
		}
	}
	return false
}
