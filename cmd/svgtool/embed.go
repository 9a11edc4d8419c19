package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/inamate/svgview/internal/document"
)

func newEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <input.svg> <input.pdf> <output.svg>",
		Short: "Embed word positions from a PDF into an SVG",
		Long: `Runs pdftotext -bbox on the PDF rendering of a diagram, scales the word
boxes into the SVG's viewBox and embeds them as a hidden word index that the
viewer's search reads at load time. An index embedded earlier is replaced.`,
		Args: cobra.ExactArgs(3),
		RunE: runEmbed,
	}
	cmd.Flags().String("pdftotext", "pdftotext", "path to the pdftotext binary (poppler-utils)")
	return cmd
}

func runEmbed(cmd *cobra.Command, args []string) error {
	svgPath, pdfPath, outPath := args[0], args[1], args[2]
	bin, _ := cmd.Flags().GetString("pdftotext")

	svg, err := os.ReadFile(svgPath)
	if err != nil {
		return fmt.Errorf("read svg: %w", err)
	}

	var stdout, stderr bytes.Buffer
	pdftotext := exec.CommandContext(cmd.Context(), bin, "-bbox", pdfPath, "-")
	pdftotext.Stdout = &stdout
	pdftotext.Stderr = &stderr
	slog.Debug("running pdftotext", "cmd", pdftotext.String())
	if err := pdftotext.Run(); err != nil {
		return fmt.Errorf("pdftotext %s: %w: %s", pdfPath, err, bytes.TrimSpace(stderr.Bytes()))
	}

	res, err := embedWords(svg, &stdout)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, res.svg, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d words, scale %.3fx/%.3fx -> %s\n", res.words, res.sx, res.sy, outPath)
	return nil
}

type embedResult struct {
	svg    []byte
	words  int
	sx, sy float64
}

// embedWords scales the first bbox page into the SVG's viewBox and embeds
// the words.
func embedWords(svg []byte, bbox io.Reader) (embedResult, error) {
	box, err := document.ViewBoxOf(svg)
	if err != nil {
		return embedResult{}, fmt.Errorf("read viewBox: %w", err)
	}

	page, err := document.ParseBBox(bbox)
	if err != nil {
		return embedResult{}, err
	}

	words, sx, sy := document.WordsFromPage(page, box.Size())
	out, err := document.Embed(svg, words)
	if err != nil {
		return embedResult{}, err
	}
	return embedResult{svg: out, words: len(words), sx: sx, sy: sy}, nil
}
