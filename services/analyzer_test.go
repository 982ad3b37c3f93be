package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricloud/models"
)

func TestCountWords(t *testing.T) {
	stop := NewStopwordSet([]string{"end"})

	got := CountWords("[Chorus]\nLove love LOVE story's end 1989 a", stop)

	assert.Equal(t, []models.WordCount{
		{Word: "love", Count: 3},
		{Word: "story", Count: 1},
	}, got)
}

func TestCountWords_TiesSortAlphabetically(t *testing.T) {
	got := CountWords("zebra apple mango", NewStopwordSet())

	assert.Equal(t, []models.WordCount{
		{Word: "apple", Count: 1},
		{Word: "mango", Count: 1},
		{Word: "zebra", Count: 1},
	}, got)
}

func TestCountWords_DefaultStopwords(t *testing.T) {
	got := CountWords("[Verse 1]\nDon’t stop, yeah, I'm gonna stop the world", DefaultStopwords())

	assert.Equal(t, []models.WordCount{
		{Word: "stop", Count: 2},
		{Word: "world", Count: 1},
	}, got)
}

func TestCountWords_Empty(t *testing.T) {
	assert.Empty(t, CountWords("", DefaultStopwords()))
	assert.Empty(t, CountWords("[Intro]\n1 2 3", DefaultStopwords()))
}

func TestTopWords(t *testing.T) {
	counts := []models.WordCount{{Word: "a", Count: 3}, {Word: "b", Count: 2}, {Word: "c", Count: 1}}

	assert.Len(t, TopWords(counts, 2), 2)
	assert.Len(t, TopWords(counts, 10), 3)
	assert.Len(t, TopWords(counts, -1), 3)
}

func TestDefaultStopwords(t *testing.T) {
	s := DefaultStopwords()

	for _, w := range []string{"the", "THE", "yeah", "Chorus", "don’t", "im"} {
		assert.True(t, s.Contains(w), w)
	}
	for _, w := range []string{"love", "well", "scarf"} {
		assert.False(t, s.Contains(w), w)
	}
}

func TestStopwordSet_With(t *testing.T) {
	base := NewStopwordSet([]string{"one"})
	more := base.With([]string{"Two"})

	assert.True(t, more.Contains("one"))
	assert.True(t, more.Contains("two"))
	assert.False(t, base.Contains("two"))
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, more.Len())
}

func TestLoadStopwordFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "extra.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`["Scarf", "refrigerator"]`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o644))

	s := LoadStopwordFiles(good, bad, filepath.Join(dir, "missing.json"))

	assert.True(t, s.Contains("scarf"))
	assert.True(t, s.Contains("refrigerator"))
	assert.True(t, s.Contains("the"))
	assert.Equal(t, DefaultStopwords().Len()+2, s.Len())
}
