package predict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/logging"
)

func sampleTrie() *Trie {
	return Build([]Entry{
		{Word: "hello", Rank: 1},
		{Word: "help", Rank: 2},
		{Word: "helmet", Rank: 4},
		{Word: "hell", Rank: 8},
		{Word: "world", Rank: 3},
	})
}

func TestSearchReturnsTopThreeByRank(t *testing.T) {
	tr := sampleTrie()

	assert.Equal(t, []string{"hello", "help", "helmet"}, tr.Search("hel"))
	assert.Equal(t, []string{"world"}, tr.Search("w"))
	assert.Empty(t, tr.Search("xyz"))
	assert.Empty(t, tr.Search(""))
	assert.Equal(t, 5, tr.Len())
}

func TestNextCharProbabilities(t *testing.T) {
	probs := sampleTrie().NextCharProbabilities("hel")

	// l: hello 1/1 + hell 1/8, p: 1/2, m: 1/4.
	total := 1 + 0.125 + 0.5 + 0.25
	assert.InDelta(t, 1.125/total, probs["l"], 1e-9)
	assert.InDelta(t, 0.5/total, probs["p"], 1e-9)
	assert.InDelta(t, 0.25/total, probs["m"], 1e-9)
	assert.Len(t, probs, 3)

	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)

	// "hell" ends here; only "hello" continues.
	assert.Equal(t, map[string]float64{"o": 1}, sampleTrie().NextCharProbabilities("hell"))
	assert.Empty(t, sampleTrie().NextCharProbabilities("q"))
}

func TestBuildKeepsBestRank(t *testing.T) {
	tr := Build([]Entry{{Word: "ab", Rank: 9}, {Word: "ac", Rank: 5}, {Word: "ab", Rank: 1}})
	assert.Equal(t, []string{"ab", "ac"}, tr.Search("a"))
	assert.Equal(t, 2, tr.Len())
}

func TestBuildTiesAreAlphabetical(t *testing.T) {
	tr := Build([]Entry{{Word: "bc", Rank: 1}, {Word: "ba", Rank: 1}, {Word: "bb", Rank: 1}})
	assert.Equal(t, []string{"ba", "bb", "bc"}, tr.Search("b"))
}

func TestParseWords(t *testing.T) {
	entries, err := ParseWords(strings.NewReader("# comment\nThe\n\nof 7\nand\n"))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Word: "the", Rank: 1},
		{Word: "of", Rank: 7},
		{Word: "and", Rank: 3},
	}, entries)

	_, err = ParseWords(strings.NewReader("word notanumber\n"))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Predictor = Nop{}
	assert.Nil(t, p.Search("a"))
	assert.Empty(t, p.NextCharProbabilities("a"))
}

func TestLoadWritesAndUsesCache(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "words.txt")
	cached := filepath.Join(dir, "cache", "words.db")
	require.NoError(t, os.WriteFile(raw, []byte("hello\nhelp\nworld\n"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(raw, old, old))

	ctx := context.Background()
	log := logging.Discard()

	tr, err := Load(ctx, raw, cached, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "help"}, tr.Search("hel"))

	// The cache is used while it is newer than the raw list, even after the
	// raw list disappears.
	require.NoError(t, os.Remove(raw))
	tr, err = Load(ctx, raw, cached, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "help"}, tr.Search("hel"))

	// A newer raw list invalidates the cache.
	require.NoError(t, os.WriteFile(raw, []byte("helium\n"), 0o600))
	newer := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(raw, newer, newer))
	tr, err = Load(ctx, raw, cached, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"helium"}, tr.Search("hel"))
}

func TestLoadWithoutWords(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), filepath.Join(dir, "missing.txt"), "", logging.Discard())
	assert.True(t, errors.Is(err, ErrNoWords))
}

func TestCacheValidity(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "words.db"))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	now := time.Now()

	valid, err := c.Valid(ctx, now)
	require.NoError(t, err)
	assert.False(t, valid, "empty cache")

	require.NoError(t, c.Store(ctx, []Entry{{Word: "b", Rank: 2}, {Word: "a", Rank: 1}}, now))
	valid, err = c.Valid(ctx, now)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = c.Valid(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, valid)

	entries, err := c.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Word: "a", Rank: 1}, {Word: "b", Rank: 2}}, entries)
}
