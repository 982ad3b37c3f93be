package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lyricloud/cloud"
	"lyricloud/config"
	"lyricloud/models"
)

// Renderer draws clean lyric text as a word cloud. CacheKey identifies the
// cloud Render would produce for the same arguments.
type Renderer interface {
	Render(text string, stopWords StopwordSet) (*models.Cloud, error)
	CacheKey(text string, stopWords StopwordSet) string
}

// Visualizer turns clean lyric text into a word cloud. Its options are fixed
// at construction so clouds stay comparable across requests.
type Visualizer struct {
	opts cloud.Options
}

// NewVisualizer uses the default canvas (1000x500, 200 words, min font 10,
// single words only) with the configured background and font ceiling.
func NewVisualizer(cfg config.CloudConfig) *Visualizer {
	opts := cloud.DefaultOptions()
	if cfg.Background != "" {
		opts.Background = cfg.Background
	}
	if cfg.MaxFontSize > 0 {
		opts.MaxFontSize = float64(cfg.MaxFontSize)
	}
	return &Visualizer{opts: opts}
}

func (v *Visualizer) Options() cloud.Options {
	return v.opts
}

// Render counts the words of text outside stopWords and draws them. Empty
// text, or text made only of stopwords, is an *EmptyInputError.
func (v *Visualizer) Render(text string, stopWords StopwordSet) (*models.Cloud, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmptyInputError{Reason: "lyrics are empty"}
	}

	words := TopWords(CountWords(text, stopWords), v.opts.MaxWords)

	c, err := cloud.Render(words, v.opts)
	if errors.Is(err, cloud.ErrNoWords) {
		return nil, &EmptyInputError{Reason: "no words left after removing stopwords"}
	}
	if err != nil {
		return nil, fmt.Errorf("render cloud: %w", err)
	}
	return c, nil
}

// CacheKey identifies a cloud by its text, stopwords and options.
func (v *Visualizer) CacheKey(text string, stopWords StopwordSet) string {
	h := sha256.New()
	fmt.Fprintf(h, "%+v\x00", v.opts)
	words := stopWords.Words()
	sort.Strings(words)
	h.Write([]byte(strings.Join(words, "\n") + "\x00"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
