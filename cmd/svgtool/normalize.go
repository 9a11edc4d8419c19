package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/svgview/internal/document"
)

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <input.svg>",
		Short: "Print the SVG as the viewer mounts it",
		Long: `Applies the viewer's load-time rewriting (intrinsic size removed, root
pinned for transforms, redirect links unwrapped, word index lifted out) and
prints the result to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: runNormalize,
	}
	cmd.Flags().StringSlice("redirect-host", nil, "redirect wrapper host to unwrap (default google.com)")
	return cmd
}

func runNormalize(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}

	slog.Debug("normalized", "viewBox", doc.ViewBox, "links", doc.Links, "words", doc.Index.Len())
	_, err = cmd.OutOrStdout().Write(doc.Markup())
	return err
}

func loadDocument(cmd *cobra.Command, path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}

	var opts document.NormalizeOptions
	if f := cmd.Flags().Lookup("redirect-host"); f != nil && f.Changed {
		opts.RedirectHosts, _ = cmd.Flags().GetStringSlice("redirect-host")
	}

	doc, err := document.Normalize(data, opts)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	return doc, nil
}
