package services

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"lyricloud/cache"
	"lyricloud/metrics"
	"lyricloud/models"
)

// Pipeline runs fetch, normalize and render for one title, synchronously.
type Pipeline struct {
	source        Source
	renderer      Renderer
	stopWords     StopwordSet
	cache         *cache.LyricsCache
	defaultArtist string

	// collapses identical in-flight requests
	group singleflight.Group
}

// NewPipeline wires the stages together. c may be nil to disable cloud
// memoization.
func NewPipeline(
	source Source,
	renderer Renderer,
	stopWords StopwordSet,
	c *cache.LyricsCache,
	defaultArtist string,
) *Pipeline {
	return &Pipeline{
		source:        source,
		renderer:      renderer,
		stopWords:     stopWords,
		cache:         c,
		defaultArtist: defaultArtist,
	}
}

func (p *Pipeline) DefaultArtist() string {
	return p.defaultArtist
}

// Run validates the query and produces the clean lyrics and their cloud.
// Every failure comes back as one of the typed errors in this package.
func (p *Pipeline) Run(ctx context.Context, title, artist string) (*models.Result, error) {
	q := models.SongQuery{
		Title:  strings.TrimSpace(title),
		Artist: strings.TrimSpace(artist),
	}
	if q.Title == "" {
		metrics.ObserveError("validation")
		return nil, &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if q.Artist == "" {
		q.Artist = p.defaultArtist
	}

	start := time.Now()
	key := cache.Key(q.Artist) + "\x00" + cache.Key(q.Title)

	// The shared run outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := p.group.DoChan(key, func() (interface{}, error) {
		return p.run(context.WithoutCancel(ctx), q)
	})

	var (
		v      interface{}
		err    error
		shared bool
	)
	select {
	case <-ctx.Done():
		err = &FetchError{Source: p.source.Name(), Err: ctx.Err()}
	case r := <-ch:
		v, err, shared = r.Val, r.Err, r.Shared
	}
	metrics.ObserveStage("total", start)

	if err != nil {
		metrics.ObserveError(errorKind(err))
		log.Printf("[pipeline] %s — %s: %v", q.Artist, q.Title, err)
		return nil, err
	}
	if shared {
		log.Debugf("[pipeline] shared in-flight result for %s — %s", q.Artist, q.Title)
	}
	return v.(*models.Result), nil
}

func (p *Pipeline) run(ctx context.Context, q models.SongQuery) (*models.Result, error) {
	start := time.Now()
	raw, err := p.source.Fetch(ctx, q)
	metrics.ObserveStage("fetch", start)
	if err != nil {
		var fErr *FetchError
		if !errors.As(err, &fErr) {
			err = &FetchError{Source: p.source.Name(), Err: err}
		}
		return nil, err
	}
	if !raw.Found {
		return nil, &NotFoundError{Query: q}
	}

	start = time.Now()
	clean := Normalize(raw.Text)
	metrics.ObserveStage("normalize", start)
	if clean == "" {
		return nil, &EmptyInputError{Reason: "lyrics were empty after cleanup"}
	}

	start = time.Now()
	c, cached, err := p.render(clean)
	metrics.ObserveStage("render", start)
	if err != nil {
		return nil, err
	}
	metrics.ObserveWords(len(c.Words))

	log.Printf("[pipeline] ✅ %s — %s: %d words drawn (source %s, lyrics cached %t, cloud cached %t)",
		q.Artist, q.Title, len(c.Words), raw.Source, raw.Cached, cached)

	return &models.Result{
		Query:  q,
		Lyrics: models.CleanLyrics{Text: clean},
		Cloud:  c,
		Source: raw.Source,
		Cached: raw.Cached && cached,
	}, nil
}

type cloudMeta struct {
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	Words  []models.PlacedWord `json:"words"`
}

func (p *Pipeline) render(clean string) (*models.Cloud, bool, error) {
	if p.cache == nil {
		c, err := p.renderer.Render(clean, p.stopWords)
		return c, false, err
	}

	key := p.renderer.CacheKey(clean, p.stopWords)
	if png, metaJSON, ok := p.cache.GetCloud(key); ok {
		var meta cloudMeta
		if err := json.Unmarshal([]byte(metaJSON), &meta); err == nil {
			return &models.Cloud{PNG: png, Width: meta.Width, Height: meta.Height, Words: meta.Words}, true, nil
		}
	}

	c, err := p.renderer.Render(clean, p.stopWords)
	if err != nil {
		return nil, false, err
	}

	metaJSON, err := json.Marshal(cloudMeta{Width: c.Width, Height: c.Height, Words: c.Words})
	if err == nil {
		p.cache.SetCloud(key, c.PNG, string(metaJSON))
	}
	return c, false, nil
}

func errorKind(err error) string {
	var (
		vErr *ValidationError
		nErr *NotFoundError
		fErr *FetchError
		eErr *EmptyInputError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &nErr):
		return "not_found"
	case errors.As(err, &fErr):
		return "fetch"
	case errors.As(err, &eErr):
		return "empty_input"
	default:
		return "internal"
	}
}
