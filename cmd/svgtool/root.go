package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "svgtool",
		Short: "Prepare and inspect diagrams for the svgview viewer",
		Long: `svgtool embeds a searchable word index into an SVG diagram from the
matching PDF, and lets you inspect what the viewer will see: the normalized
markup and the results of a search query.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newEmbedCmd(), newNormalizeCmd(), newSearchCmd())
	return root
}
