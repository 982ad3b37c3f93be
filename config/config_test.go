package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GENIUS_TOKEN", "ALLOW_ORIGINS", "DB_PATH", "DEFAULT_ARTIST",
		"LOG_LEVEL", "LOG_FORMAT", "CLOUD_BACKGROUND", "LYRICS_SOURCES",
		"STOPWORDS_FILES", "CACHE_ENABLED", "HTTP_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Taylor Swift", cfg.DefaultArtist)
	assert.Equal(t, []string{SourceClient}, cfg.Sources)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, "white", cfg.Cloud.Background)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENIUS_TOKEN", "  secret  ")
	t.Setenv("LYRICS_SOURCES", "Scrape, lrclib")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CLOUD_BACKGROUND", "transparent")

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.GeniusToken)
	assert.Equal(t, []string{SourceScrape, SourceLrclib}, cfg.Sources)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "transparent", cfg.Cloud.Background)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_TIMEOUT", "soon")

	_, err := load(nil)
	assert.Error(t, err)
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
genius_token = "from-file"
default_artist = "Phoebe Bridgers"
sources = ["scrape"]

[cloud]
background = "transparent"
max_font_size = 90
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := load([]string{path, filepath.Join(t.TempDir(), "missing.toml")})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.GeniusToken)
	assert.Equal(t, "Phoebe Bridgers", cfg.DefaultArtist)
	assert.Equal(t, []string{SourceScrape}, cfg.Sources)
	assert.Equal(t, "transparent", cfg.Cloud.Background)
	assert.Equal(t, 90, cfg.Cloud.MaxFontSize)
	assert.Equal(t, "8080", cfg.Port)
}

func TestValidate_MissingToken(t *testing.T) {
	clearEnv(t)

	cfg, err := load(nil)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GENIUS_TOKEN", cfgErr.Field)
	assert.Contains(t, cfgErr.Help, "GENIUS_TOKEN=")
}

func TestValidate_UnknownSource(t *testing.T) {
	cfg := defaults()
	cfg.GeniusToken = "x"
	cfg.Sources = []string{"azlyrics"}

	var cfgErr *ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "LYRICS_SOURCES", cfgErr.Field)
}
