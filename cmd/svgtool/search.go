package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inamate/svgview/internal/search"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <input.svg> <query>",
		Short: "Search a diagram's embedded word index",
		Long:  `Runs a query against the embedded word index exactly as the viewer does and prints every match with its box in diagram units.`,
		Args:  cobra.ExactArgs(2),
		RunE:  runSearch,
	}
	cmd.Flags().Bool("json", false, "output matches as JSON")
	return cmd
}

type searchMatch struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	if doc.IndexErr != nil {
		return fmt.Errorf("word index: %w", doc.IndexErr)
	}

	// No scheduler: queries evaluate synchronously.
	engine := search.NewEngine(doc.Index, nil, nil)
	matches := engine.Query(args[1])

	out := cmd.OutOrStdout()
	if jsonOutput {
		results := make([]searchMatch, 0, len(matches))
		for _, i := range matches {
			e := doc.Index.Entry(i)
			results = append(results, searchMatch{Index: i, Text: e.Text, X: e.X, Y: e.Y, W: e.W, H: e.H})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, i := range matches {
		e := doc.Index.Entry(i)
		fmt.Fprintf(tw, "%d\t%s\t%g\t%g\t%g\t%g\n", i, e.Text, e.X, e.Y, e.W, e.H)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	label := engine.Label()
	if label == "" {
		label = "Empty query"
	}
	fmt.Fprintln(out, label)
	return nil
}
