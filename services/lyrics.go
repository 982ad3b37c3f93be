package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"

	"lyricloud/cache"
	"lyricloud/config"
	"lyricloud/genius"
	"lyricloud/metrics"
	"lyricloud/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Source looks up the raw lyrics of one song. A missing song is reported as
// Found=false with a nil error; every failure is a *FetchError. Sources make
// a single attempt and never retry.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error)
}

// NewSource builds the configured source list, chained in order and wrapped
// in the memo cache when one is given.
func NewSource(cfg *config.Config, client *genius.Client, c *cache.LyricsCache) (Source, error) {
	var sources []Source
	for _, name := range cfg.Sources {
		switch name {
		case config.SourceClient:
			sources = append(sources, NewClientSource(client))
		case config.SourceScrape:
			sources = append(sources, NewScrapeSource(client))
		case config.SourceLrclib:
			sources = append(sources, NewLrclibSource(&http.Client{Timeout: cfg.HTTPTimeout}))
		default:
			return nil, fmt.Errorf("unknown lyrics source %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("no lyrics source configured")
	}

	var src Source = ChainSource(sources)
	if len(sources) == 1 {
		src = sources[0]
	}
	if c != nil {
		src = NewCachedSource(src, c)
	}
	return src, nil
}

// ClientSource hands the whole lookup to the Genius client library.
type ClientSource struct {
	client *genius.Client
}

func NewClientSource(client *genius.Client) *ClientSource {
	return &ClientSource{client: client}
}

func (s *ClientSource) Name() string { return config.SourceClient }

func (s *ClientSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	song, err := s.client.SearchSong(ctx, q.Title, q.Artist)
	if errors.Is(err, genius.ErrNotFound) {
		return finish(s.Name(), q, models.RawLyrics{Source: s.Name()}, nil)
	}
	if err != nil {
		return finish(s.Name(), q, models.RawLyrics{}, err)
	}

	return finish(s.Name(), q, models.RawLyrics{
		Text:   song.Lyrics,
		Found:  true,
		Source: s.Name(),
		URL:    song.URL,
	}, nil)
}

// ScrapeSource calls the search endpoint itself, takes the first hit and
// scrapes its page.
type ScrapeSource struct {
	client *genius.Client
}

func NewScrapeSource(client *genius.Client) *ScrapeSource {
	return &ScrapeSource{client: client}
}

func (s *ScrapeSource) Name() string { return config.SourceScrape }

func (s *ScrapeSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	notFound := models.RawLyrics{Source: s.Name()}

	hits, err := s.client.Search(ctx, strings.TrimSpace(q.Title+" "+q.Artist))
	if err != nil {
		return finish(s.Name(), q, models.RawLyrics{}, fmt.Errorf("search: %w", err))
	}
	if len(hits) == 0 {
		return finish(s.Name(), q, notFound, nil)
	}

	pageURL := s.client.SongURL(hits[0].Result.Path)
	doc, err := s.client.Page(ctx, pageURL)
	if err != nil {
		return finish(s.Name(), q, models.RawLyrics{}, fmt.Errorf("song page: %w", err))
	}

	text := genius.ExtractLyrics(doc)
	if text == "" {
		return finish(s.Name(), q, notFound, nil)
	}

	return finish(s.Name(), q, models.RawLyrics{
		Text:   text,
		Found:  true,
		Source: s.Name(),
		URL:    pageURL,
	}, nil)
}

const lrclibURL = "https://lrclib.net"

// LrclibSource searches lrclib.net for plain lyrics. It needs no token.
type LrclibSource struct {
	baseURL string
	client  *http.Client
}

func NewLrclibSource(client *http.Client) *LrclibSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LrclibSource{baseURL: lrclibURL, client: client}
}

func (s *LrclibSource) Name() string { return config.SourceLrclib }

type lrclibResult struct {
	PlainLyrics string `json:"plainLyrics"`
}

func (s *LrclibSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	params := url.Values{
		"artist_name": {q.Artist},
		"track_name":  {cleanTitle(q.Title)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/api/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return finish(s.Name(), q, models.RawLyrics{}, err)
	}
	req.Header.Set("User-Agent", "lyricloud/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return finish(s.Name(), q, models.RawLyrics{}, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return finish(s.Name(), q, models.RawLyrics{}, fmt.Errorf("lrclib: HTTP %d", resp.StatusCode))
	}

	var results []lrclibResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return finish(s.Name(), q, models.RawLyrics{}, fmt.Errorf("lrclib parse error: %w", err))
	}

	for _, r := range results {
		if r.PlainLyrics != "" {
			return finish(s.Name(), q, models.RawLyrics{
				Text:   r.PlainLyrics,
				Found:  true,
				Source: s.Name(),
			}, nil)
		}
	}
	return finish(s.Name(), q, models.RawLyrics{Source: s.Name()}, nil)
}

// ChainSource asks each source in turn and stops at the first hit. A fetch
// error ends the chain.
type ChainSource []Source

func (cs ChainSource) Name() string {
	names := make([]string, len(cs))
	for i, s := range cs {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

func (cs ChainSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	for _, src := range cs {
		raw, err := src.Fetch(ctx, q)
		if err != nil {
			return models.RawLyrics{}, err
		}
		if raw.Found {
			return raw, nil
		}
	}
	return models.RawLyrics{Source: cs.Name()}, nil
}

// CachedSource memoizes found and not-found outcomes by (artist, title).
// Errors are never cached.
type CachedSource struct {
	next  Source
	cache *cache.LyricsCache
}

func NewCachedSource(next Source, c *cache.LyricsCache) *CachedSource {
	return &CachedSource{next: next, cache: c}
}

func (s *CachedSource) Name() string { return s.next.Name() }

func (s *CachedSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	if entry, ok := s.cache.Get(q.Artist, q.Title); ok {
		metrics.ObserveFetch(entry.Source, "cache_hit")
		return models.RawLyrics{
			Text:   entry.Lyrics,
			Found:  entry.Found,
			Source: entry.Source,
			URL:    entry.URL,
			Cached: true,
		}, nil
	}

	raw, err := s.next.Fetch(ctx, q)
	if err != nil {
		return raw, err
	}

	s.cache.Set(q.Artist, q.Title, cache.Entry{
		Lyrics: raw.Text,
		Source: raw.Source,
		URL:    raw.URL,
		Found:  raw.Found,
	})
	return raw, nil
}

// finish logs and counts one source outcome and wraps errors as FetchError.
func finish(source string, q models.SongQuery, raw models.RawLyrics, err error) (models.RawLyrics, error) {
	switch {
	case err != nil:
		log.Printf("[lyrics] ⚠️  %s failed: %s — %s: %v", source, q.Artist, q.Title, err)
		metrics.ObserveFetch(source, "error")
		return models.RawLyrics{}, &FetchError{Source: source, Err: err}
	case raw.Found:
		log.Printf("[lyrics] ✅ %s: %s — %s", source, q.Artist, q.Title)
		metrics.ObserveFetch(source, "found")
	default:
		log.Printf("[lyrics] ❌ %s not found: %s — %s", source, q.Artist, q.Title)
		metrics.ObserveFetch(source, "not_found")
	}
	return raw, nil
}

var (
	reParens = regexp.MustCompile(`\s*[\(\[].*?[\)\]]\s*`)

	reSuffix = regexp.MustCompile(
		`(?i)\s*-\s*(remaster|live|demo|remix|deluxe|bonus|edit|version|` +
			`mix|single|acoustic|instrumental|radio|extended|original).*`)
)

// cleanTitle drops "(Remastered)", "[Live]" and " - Radio Edit" style
// decorations that lrclib titles do not carry.
func cleanTitle(title string) string {
	title = reParens.ReplaceAllString(title, " ")
	title = reSuffix.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
