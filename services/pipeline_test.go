package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricloud/config"
	"lyricloud/models"
)

const allTooWellRaw = `27 ContributorsTranslationsEnglishAll Too Well Lyrics
[Verse 1]
I walked through the door with you, the air was cold
But something 'bout it felt like home somehow
And I left my scarf there at your sister's house
And you've still got it in your drawer even now
[Chorus]
'Cause there we are again on that little town street
You almost ran the red 'cause you were looking over at me
And I remember it all too well, the scarf, the scarf
You might also like
Style
Taylor Swift
Blank Space
12Embed`

type spyRenderer struct {
	*Visualizer
	renders int
}

func (s *spyRenderer) Render(text string, stopWords StopwordSet) (*models.Cloud, error) {
	s.renders++
	return s.Visualizer.Render(text, stopWords)
}

type fakeSource struct {
	lyrics map[string]string
	err    error
	calls  int
	last   models.SongQuery
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	f.calls++
	f.last = q
	if f.err != nil {
		return models.RawLyrics{}, f.err
	}
	text, ok := f.lyrics[q.Title]
	return models.RawLyrics{Text: text, Found: ok, Source: "fake"}, nil
}

func newSpy() *spyRenderer {
	return &spyRenderer{Visualizer: NewVisualizer(config.CloudConfig{})}
}

func TestPipeline_Found(t *testing.T) {
	src := &fakeSource{lyrics: map[string]string{"All Too Well": allTooWellRaw}}
	spy := newSpy()
	p := NewPipeline(src, spy, DefaultStopwords(), nil, "Taylor Swift")

	res, err := p.Run(context.Background(), "  All Too Well ", "")
	require.NoError(t, err)

	assert.Equal(t, "All Too Well", res.Query.Title)
	assert.Equal(t, "Taylor Swift", res.Query.Artist)
	assert.Equal(t, "fake", res.Source)
	assert.False(t, res.Cached)

	lyrics := res.Lyrics.Text
	assert.True(t, strings.HasPrefix(lyrics, "[Verse 1]"), lyrics)
	assert.NotContains(t, lyrics, "Embed")
	assert.NotContains(t, lyrics, "You might also like")
	assert.NotContains(t, lyrics, "Contributors")
	assert.NotContains(t, lyrics, "Blank Space")

	require.NotNil(t, res.Cloud)
	assert.NotEmpty(t, res.Cloud.PNG)
	require.NotEmpty(t, res.Cloud.Words)

	stop := DefaultStopwords()
	var words []string
	for _, w := range res.Cloud.Words {
		assert.False(t, stop.Contains(w.Word), w.Word)
		words = append(words, w.Word)
	}
	assert.Contains(t, words, "scarf")
	assert.Equal(t, 1, spy.renders)
}

func TestPipeline_NotFound(t *testing.T) {
	src := &fakeSource{}
	spy := newSpy()
	p := NewPipeline(src, spy, DefaultStopwords(), nil, "Taylor Swift")

	_, err := p.Run(context.Background(), "zzzznonexistentsongzzzz", "")

	var nErr *NotFoundError
	require.True(t, errors.As(err, &nErr))
	assert.Equal(t, "zzzznonexistentsongzzzz", nErr.Query.Title)
	assert.Equal(t, MsgNotFound, UserMessage(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	assert.Equal(t, 0, spy.renders)
}

func TestPipeline_EmptyTitle(t *testing.T) {
	src := &fakeSource{}
	p := NewPipeline(src, newSpy(), DefaultStopwords(), nil, "Taylor Swift")

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := p.Run(context.Background(), title, "")
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr), "title %q", title)
		assert.Equal(t, MsgEnterTitle, UserMessage(err))
		assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	}
	assert.Equal(t, 0, src.calls)
}

func TestPipeline_ArtistOverride(t *testing.T) {
	src := &fakeSource{lyrics: map[string]string{"Hello": "[Verse]\nHello from the other side"}}
	p := NewPipeline(src, newSpy(), DefaultStopwords(), nil, "Taylor Swift")
	assert.Equal(t, "Taylor Swift", p.DefaultArtist())

	res, err := p.Run(context.Background(), "Hello", " Adele ")
	require.NoError(t, err)
	assert.Equal(t, "Adele", src.last.Artist)
	assert.Equal(t, "Adele", res.Query.Artist)
}

func TestPipeline_FetchError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	spy := newSpy()
	p := NewPipeline(src, spy, DefaultStopwords(), nil, "Taylor Swift")

	_, err := p.Run(context.Background(), "All Too Well", "")

	var fErr *FetchError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, "fake", fErr.Source)
	msg := UserMessage(err)
	assert.True(t, strings.HasPrefix(msg, "Error fetching lyrics: "), msg)
	assert.Contains(t, msg, "connection refused")
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
	assert.Equal(t, 0, spy.renders)
}

func TestPipeline_EmptyAfterNormalize(t *testing.T) {
	src := &fakeSource{lyrics: map[string]string{"Ghost": "3Embed"}}
	spy := newSpy()
	p := NewPipeline(src, spy, DefaultStopwords(), nil, "Taylor Swift")

	_, err := p.Run(context.Background(), "Ghost", "")

	var eErr *EmptyInputError
	require.True(t, errors.As(err, &eErr))
	assert.Equal(t, 0, spy.renders)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))
}

func TestPipeline_OnlyStopwords(t *testing.T) {
	src := &fakeSource{lyrics: map[string]string{"Filler": "[Chorus]\nYeah yeah oh oh"}}
	p := NewPipeline(src, newSpy(), DefaultStopwords(), nil, "Taylor Swift")

	_, err := p.Run(context.Background(), "Filler", "")

	var eErr *EmptyInputError
	require.True(t, errors.As(err, &eErr))
	assert.Equal(t, MsgGeneric, UserMessage(err))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))
}

func TestPipeline_CachesCloud(t *testing.T) {
	c := testCache(t)
	src := &fakeSource{lyrics: map[string]string{"All Too Well": allTooWellRaw}}
	spy := newSpy()
	p := NewPipeline(NewCachedSource(src, c), spy, DefaultStopwords(), c, "Taylor Swift")

	first, err := p.Run(context.Background(), "All Too Well", "")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.Run(context.Background(), "all too well", "taylor swift")
	require.NoError(t, err)
	assert.True(t, second.Cached)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, spy.renders)
	assert.Equal(t, first.Cloud.PNG, second.Cloud.PNG)
	assert.Equal(t, first.Cloud.Words, second.Cloud.Words)
	assert.Equal(t, first.Lyrics, second.Lyrics)
}

// blockingSource holds every fetch until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Name() string { return "block" }

func (b *blockingSource) Fetch(ctx context.Context, q models.SongQuery) (models.RawLyrics, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return models.RawLyrics{}, &FetchError{Source: "block", Err: ctx.Err()}
	}
	return models.RawLyrics{Text: allTooWellRaw, Found: true, Source: "block"}, nil
}

func TestPipeline_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	p := NewPipeline(src, newSpy(), DefaultStopwords(), nil, "Taylor Swift")

	type outcome struct {
		res *models.Result
		err error
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	doneA := make(chan outcome, 1)
	go func() {
		res, err := p.Run(ctxA, "All Too Well", "")
		doneA <- outcome{res, err}
	}()
	<-src.started

	doneB := make(chan outcome, 1)
	go func() {
		res, err := p.Run(context.Background(), "All Too Well", "")
		doneB <- outcome{res, err}
	}()

	cancelA()
	a := <-doneA
	var fErr *FetchError
	require.True(t, errors.As(a.err, &fErr))
	assert.ErrorIs(t, a.err, context.Canceled)

	close(src.release)
	b := <-doneB
	require.NoError(t, b.err)
	assert.True(t, strings.HasPrefix(b.res.Lyrics.Text, "[Verse 1]"))
}

func TestPipeline_CallerContextAlreadyDone(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	defer close(src.release)
	p := NewPipeline(src, newSpy(), DefaultStopwords(), nil, "Taylor Swift")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "All Too Well", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
}

func TestVisualizer_CacheKey(t *testing.T) {
	v := NewVisualizer(config.CloudConfig{})
	stop := DefaultStopwords()

	assert.Equal(t, v.CacheKey("love story", stop), v.CacheKey("love story", DefaultStopwords()))
	assert.NotEqual(t, v.CacheKey("love story", stop), v.CacheKey("love song", stop))
	assert.NotEqual(t, v.CacheKey("love story", stop), v.CacheKey("love story", stop.With([]string{"story"})))

	dark := NewVisualizer(config.CloudConfig{Background: "transparent", MaxFontSize: 90})
	assert.NotEqual(t, v.CacheKey("love story", stop), dark.CacheKey("love story", stop))
	assert.Equal(t, 90.0, dark.Options().MaxFontSize)
}

func TestVisualizer_EmptyText(t *testing.T) {
	_, err := NewVisualizer(config.CloudConfig{}).Render("  ", DefaultStopwords())
	var eErr *EmptyInputError
	assert.True(t, errors.As(err, &eErr))
}

func TestVisualizer_OversizedToken(t *testing.T) {
	v := NewVisualizer(config.CloudConfig{})
	long := strings.Repeat("a", 240)
	text := strings.Repeat(long+"\n", 5) + "I remember it all too well the scarf the scarf"

	c, err := v.Render(text, DefaultStopwords())
	require.NoError(t, err)

	var words []string
	for _, w := range c.Words {
		words = append(words, w.Word)
	}
	assert.Contains(t, words, "scarf")
	assert.Contains(t, words, "remember")
	assert.NotContains(t, words, long)

	_, err = v.Render(long, DefaultStopwords())
	var eErr *EmptyInputError
	assert.True(t, errors.As(err, &eErr))
}

func TestUserMessageAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		msg    string
		status int
	}{
		{"nil", nil, "", http.StatusOK},
		{"validation", &ValidationError{Field: "title", Message: "must not be empty"}, MsgEnterTitle, http.StatusBadRequest},
		{"not found", &NotFoundError{Query: query("x")}, MsgNotFound, http.StatusNotFound},
		{"fetch", &FetchError{Source: "scrape", Err: errors.New("timeout")}, "Error fetching lyrics: scrape: timeout", http.StatusBadGateway},
		{"empty", &EmptyInputError{}, MsgGeneric, http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), MsgGeneric, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, UserMessage(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}
