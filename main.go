package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lyricloud/cache"
	"lyricloud/config"
	"lyricloud/genius"
	"lyricloud/services"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	root := &cobra.Command{
		Use:           "lyricloud",
		Short:         "Fetch song lyrics from Genius and draw them as a word cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(cmdServe(), cmdFetch(setup))

	if err := root.Execute(); err != nil {
		var cErr *config.ConfigurationError
		if errors.As(err, &cErr) {
			fmt.Fprintln(os.Stderr, color.RedString("❌ %s", cErr.Error()))
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, cErr.Help)
			os.Exit(exitFailure)
		}
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(exitFailure)
	}
	os.Exit(exitSuccess)
}

// app holds everything one process needs to run the pipeline.
type app struct {
	cfg      *config.Config
	cache    *cache.LyricsCache
	pipeline *services.Pipeline
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var lyricsCache *cache.LyricsCache
	if cfg.CacheEnabled {
		lyricsCache, err = cache.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		total, found, clouds := lyricsCache.Stats()
		log.Printf("[main] cache: %d entries, %d with lyrics, %d clouds", total, found, clouds)
	}

	stopWords := services.LoadStopwordFiles(cfg.StopwordFiles...)
	log.Printf("[main] %d stopwords loaded", stopWords.Len())

	client := genius.New(cfg.GeniusToken,
		genius.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)

	src, err := services.NewSource(cfg, client, lyricsCache)
	if err != nil {
		if lyricsCache != nil {
			lyricsCache.Close()
		}
		return nil, err
	}
	log.Printf("[main] lyrics source: %s", src.Name())

	p := services.NewPipeline(
		src,
		services.NewVisualizer(cfg.Cloud),
		stopWords,
		lyricsCache,
		cfg.DefaultArtist,
	)

	return &app{cfg: cfg, cache: lyricsCache, pipeline: p}, nil
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("[main] unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
