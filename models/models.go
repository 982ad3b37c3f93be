package models

type SongQuery struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type RawLyrics struct {
	Text   string `json:"text"`
	Found  bool   `json:"found"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
	Cached bool   `json:"cached"`
}

type CleanLyrics struct {
	Text string `json:"text"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PlacedWord is a word as drawn on the cloud canvas. X and Y are the
// top-left corner of its bounding box.
type PlacedWord struct {
	Word     string  `json:"word"`
	Count    int     `json:"count"`
	FontSize float64 `json:"font_size"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Vertical bool    `json:"vertical"`
}

type Cloud struct {
	PNG    []byte       `json:"-"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Words  []PlacedWord `json:"words"`
}

type Result struct {
	Query  SongQuery   `json:"query"`
	Lyrics CleanLyrics `json:"lyrics"`
	Cloud  *Cloud      `json:"cloud"`
	Source string      `json:"source"`
	Cached bool        `json:"cached"`
}

type LyricsRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type LyricsResponse struct {
	Title  string       `json:"title"`
	Artist string       `json:"artist"`
	Source string       `json:"source"`
	Cached bool         `json:"cached"`
	Lyrics string       `json:"lyrics"`
	Image  string       `json:"image"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Words  []PlacedWord `json:"words"`
}
