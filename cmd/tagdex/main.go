package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	scan "github.com/walteh/tagdex/cmd/tagdex/scan"
	serve_lsp "github.com/walteh/tagdex/cmd/tagdex/serve-lsp"
	watch "github.com/walteh/tagdex/cmd/tagdex/watch"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "tagdex",
		Short: "Index and disambiguate repeated sibling tags in markup documents",
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand())
	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(watch.NewWatchCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
