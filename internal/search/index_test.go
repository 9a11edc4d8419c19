package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndexCompactKeys(t *testing.T) {
	idx, err := ParseIndex([]byte(`[{"t":"Alpha","x":1.5,"y":2,"w":30,"h":8.2},{"t":"Beta","x":0,"y":0,"w":1,"h":1}]`))
	require.NoError(t, err)

	require.Equal(t, 2, idx.Len())
	assert.Equal(t, Entry{Text: "Alpha", X: 1.5, Y: 2, W: 30, H: 8.2}, idx.Entry(0))
	assert.Equal(t, "Beta", idx.Entry(1).Text)
}

func TestParseIndexLongTextKey(t *testing.T) {
	idx, err := ParseIndex([]byte(`[{"text":"Gamma","x":1,"y":2,"w":3,"h":4}]`))
	require.NoError(t, err)

	assert.Equal(t, "Gamma", idx.Entry(0).Text)
}

func TestParseIndexEmpty(t *testing.T) {
	for _, in := range []string{"", "  \n", "[]"} {
		idx, err := ParseIndex([]byte(in))
		require.NoError(t, err)
		assert.Zero(t, idx.Len())
	}
}

func TestParseIndexMalformed(t *testing.T) {
	for _, in := range []string{`{"t":"x"}`, `[{"t":`, `not json`, `[{"x":"one"}]`} {
		_, err := ParseIndex([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestNewIndexCopiesEntries(t *testing.T) {
	entries := []Entry{{Text: "Alpha"}}
	idx := NewIndex(entries)

	entries[0].Text = "changed"
	assert.Equal(t, "Alpha", idx.Entry(0).Text)

	out := idx.Entries()
	out[0].Text = "changed"
	assert.Equal(t, "Alpha", idx.Entry(0).Text)
}
