package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	SourceClient = "client"
	SourceScrape = "scrape"
	SourceLrclib = "lrclib"
)

type Config struct {
	Port          string        `koanf:"port"`
	GeniusToken   string        `koanf:"genius_token"`
	AllowOrigins  string        `koanf:"allow_origins"`
	DBPath        string        `koanf:"db_path"`
	CacheEnabled  bool          `koanf:"cache_enabled"`
	DefaultArtist string        `koanf:"default_artist"`
	Sources       []string      `koanf:"sources"`
	HTTPTimeout   time.Duration `koanf:"http_timeout"`
	LogLevel      string        `koanf:"log_level"`
	LogFormat     string        `koanf:"log_format"`

	// Extra stopword lists (JSON arrays of strings) merged into the built-in set.
	StopwordFiles []string `koanf:"stopword_files"`

	Cloud CloudConfig `koanf:"cloud"`
}

type CloudConfig struct {
	Background  string `koanf:"background"` // "white" or "transparent"
	MaxFontSize int    `koanf:"max_font_size"`
}

// ConfigurationError is fatal at startup. Help carries the setup instructions
// shown to the operator.
type ConfigurationError struct {
	Field string
	Help  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: missing or invalid %s", e.Field)
}

const tokenHelp = `A Genius API token is required.

  1. Create an API client at https://genius.com/api-clients
  2. Generate a "Client Access Token"
  3. Put it in a .env file next to the binary:

       GENIUS_TOKEN=your-token-here

     or export GENIUS_TOKEN in your shell, or set genius_token in config.toml.`

func defaults() *Config {
	return &Config{
		Port:          "8080",
		AllowOrigins:  "*",
		DBPath:        "file:lyricloud?mode=memory&cache=shared",
		CacheEnabled:  true,
		DefaultArtist: "Taylor Swift",
		Sources:       []string{SourceClient},
		HTTPTimeout:   10 * time.Second,
		LogLevel:      "info",
		LogFormat:     "text",
		Cloud: CloudConfig{
			Background:  "white",
			MaxFontSize: 160,
		},
	}
}

// Load reads .env, then the TOML config files, then the environment. Later
// layers win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(configPaths())
}

func load(paths []string) (*Config, error) {
	cfg := defaults()

	k := koanf.New(".")
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GeniusToken = getEnv("GENIUS_TOKEN", cfg.GeniusToken)
	cfg.AllowOrigins = getEnv("ALLOW_ORIGINS", cfg.AllowOrigins)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DefaultArtist = getEnv("DEFAULT_ARTIST", cfg.DefaultArtist)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.Cloud.Background = getEnv("CLOUD_BACKGROUND", cfg.Cloud.Background)

	if v := os.Getenv("LYRICS_SOURCES"); v != "" {
		cfg.Sources = splitList(strings.ToLower(v))
	}
	if v := os.Getenv("STOPWORDS_FILES"); v != "" {
		cfg.StopwordFiles = splitList(v)
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("CACHE_ENABLED: %w", err)
		}
		cfg.CacheEnabled = b
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	cfg.GeniusToken = strings.TrimSpace(cfg.GeniusToken)
	cfg.DBPath = expandPath(cfg.DBPath)
	for i, p := range cfg.StopwordFiles {
		cfg.StopwordFiles[i] = expandPath(p)
	}

	return cfg, nil
}

// Validate reports the first setting that keeps the process from starting.
func (c *Config) Validate() error {
	if c.GeniusToken == "" {
		return &ConfigurationError{Field: "GENIUS_TOKEN", Help: tokenHelp}
	}
	if len(c.Sources) == 0 {
		return &ConfigurationError{
			Field: "LYRICS_SOURCES",
			Help:  "Set LYRICS_SOURCES to one or more of: client, scrape, lrclib.",
		}
	}
	for _, s := range c.Sources {
		switch s {
		case SourceClient, SourceScrape, SourceLrclib:
		default:
			return &ConfigurationError{
				Field: "LYRICS_SOURCES",
				Help:  fmt.Sprintf("Unknown lyrics source %q. Use client, scrape or lrclib.", s),
			}
		}
	}
	switch c.Cloud.Background {
	case "white", "transparent":
	default:
		return &ConfigurationError{
			Field: "CLOUD_BACKGROUND",
			Help:  fmt.Sprintf("Unknown background %q. Use white or transparent.", c.Cloud.Background),
		}
	}
	return nil
}

func configPaths() []string {
	paths := []string{}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lyricloud", "config.toml"))
	}

	return append(paths, "config.toml")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
