// Package search implements incremental full-text search over the word
// index embedded in a diagram, and the highlight overlay for its matches.
package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inamate/svgview/internal/viewport"
)

// Entry is one searchable text fragment with its bounding box in document
// coordinates.
type Entry struct {
	Text string  `json:"t"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

// UnmarshalJSON accepts both the compact "t" key written by the embedding
// pipeline and a spelled-out "text" key.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		T    *string `json:"t"`
		Text *string `json:"text"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		W    float64 `json:"w"`
		H    float64 `json:"h"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entry{X: raw.X, Y: raw.Y, W: raw.W, H: raw.H}
	switch {
	case raw.T != nil:
		e.Text = *raw.T
	case raw.Text != nil:
		e.Text = *raw.Text
	}
	return nil
}

// Bounds returns the entry's bounding box.
func (e Entry) Bounds() viewport.Rect {
	return viewport.Rect{X: e.X, Y: e.Y, Width: e.W, Height: e.H}
}

// Index is the ordered word index. It is built once and never mutated.
type Index struct {
	entries []Entry
	lower   []string
}

// NewIndex builds an index over entries, keeping their order.
func NewIndex(entries []Entry) Index {
	idx := Index{
		entries: make([]Entry, len(entries)),
		lower:   make([]string, len(entries)),
	}
	copy(idx.entries, entries)
	for i, e := range entries {
		idx.lower[i] = strings.ToLower(e.Text)
	}
	return idx
}

// ParseIndex decodes a serialized word list. Empty input yields an empty
// index.
func ParseIndex(data []byte) (Index, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Index{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return Index{}, fmt.Errorf("decode word index: %w", err)
	}
	return NewIndex(entries), nil
}

// Len returns the number of entries.
func (idx Index) Len() int {
	return len(idx.entries)
}

// Entry returns the i-th entry.
func (idx Index) Entry(i int) Entry {
	return idx.entries[i]
}

// Entries returns a copy of all entries in index order.
func (idx Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Match returns the indices of entries whose lowercased text contains any
// one of the query's whitespace-separated tokens, in index order.
//
// Tokens are OR'ed: "al ga" matches more than "al" alone, not less.
func (idx Index) Match(query string) []int {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var matches []int
	for i, text := range idx.lower {
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				matches = append(matches, i)
				break
			}
		}
	}
	return matches
}
