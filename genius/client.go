// Package genius is a small client for the Genius API and song pages.
//
// A Client is built once from the access token and shared by every lyrics
// source; it holds no mutable state after construction.
package genius

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned by SearchSong when no song matches or its page
// carries no lyrics.
var ErrNotFound = errors.New("song not found")

const (
	DefaultAPIURL    = "https://api.genius.com"
	DefaultWebURL    = "https://genius.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

type Client struct {
	token      string
	apiURL     string
	webURL     string
	userAgent  string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = strings.TrimSuffix(u, "/") }
}

func WithWebURL(u string) Option {
	return func(c *Client) { c.webURL = strings.TrimSuffix(u, "/") }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		apiURL:     DefaultAPIURL,
		webURL:     DefaultWebURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Artist struct {
	Name string `json:"name"`
}

type Hit struct {
	Type   string `json:"type"`
	Result struct {
		ID            int64  `json:"id"`
		Title         string `json:"title"`
		Path          string `json:"path"`
		URL           string `json:"url"`
		PrimaryArtist Artist `json:"primary_artist"`
	} `json:"result"`
}

type searchResponse struct {
	Response struct {
		Hits []Hit `json:"hits"`
	} `json:"response"`
}

// Song is the outcome of SearchSong.
type Song struct {
	ID     int64
	Title  string
	Artist string
	URL    string
	Lyrics string
}

// Search runs a free-text search against the API.
func (c *Client) Search(ctx context.Context, query string) ([]Hit, error) {
	params := url.Values{}
	params.Add("q", query)
	requestURL := c.apiURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{URL: c.apiURL + "/search", StatusCode: resp.StatusCode}
	}

	var search searchResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	return search.Response.Hits, nil
}

// SongURL turns a result path such as "/Taylor-swift-all-too-well-lyrics"
// into the canonical page URL. Absolute URLs are returned unchanged.
func (c *Client) SongURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.webURL + path
}

// Page fetches and parses a song page.
func (c *Client) Page(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse HTML")
	}
	return doc, nil
}

// SearchSong searches "title artist", picks the best song hit credited to
// artist and scrapes its lyrics.
func (c *Client) SearchSong(ctx context.Context, title, artist string) (*Song, error) {
	query := strings.TrimSpace(title + " " + artist)
	hits, err := c.Search(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "search genius api")
	}

	hit := pickHit(hits, title, artist)
	if hit == nil {
		return nil, ErrNotFound
	}

	pageURL := hit.Result.URL
	if pageURL == "" {
		pageURL = c.SongURL(hit.Result.Path)
	}

	doc, err := c.Page(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "scrape lyrics from genius webpage")
	}

	lyrics := ExtractLyrics(doc)
	if lyrics == "" {
		return nil, ErrNotFound
	}

	return &Song{
		ID:     hit.Result.ID,
		Title:  hit.Result.Title,
		Artist: hit.Result.PrimaryArtist.Name,
		URL:    pageURL,
		Lyrics: lyrics,
	}, nil
}

func pickHit(hits []Hit, title, artist string) *Hit {
	wantTitle := fold(title)
	wantArtist := fold(artist)

	var first *Hit
	for i := range hits {
		h := &hits[i]
		if h.Type != "" && h.Type != "song" {
			continue
		}
		if wantArtist != "" && fold(h.Result.PrimaryArtist.Name) != wantArtist {
			continue
		}
		if fold(h.Result.Title) == wantTitle {
			return h
		}
		if first == nil {
			first = h
		}
	}
	return first
}

// fold lower-cases s, strips diacritics and drops everything that is not a
// letter or digit, so "Beyoncé" matches "beyonce".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
