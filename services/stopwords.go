package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	//go:embed data/stopwords-en.json
	stopwordsEN []byte

	//go:embed data/stopwords-custom.json
	stopwordsCustom []byte
)

// StopwordSet is a read-only set of lower-cased words. Build it once and
// share it; nothing mutates it after construction.
type StopwordSet struct {
	words map[string]struct{}
}

func NewStopwordSet(lists ...[]string) StopwordSet {
	s := StopwordSet{words: make(map[string]struct{})}
	for _, list := range lists {
		for _, w := range list {
			w = normalizeToken(w)
			if w != "" {
				s.words[w] = struct{}{}
			}
		}
	}
	return s
}

// Contains matches case-insensitively.
func (s StopwordSet) Contains(word string) bool {
	_, ok := s.words[normalizeToken(word)]
	return ok
}

func (s StopwordSet) Len() int {
	return len(s.words)
}

// With returns a new set holding s plus extra.
func (s StopwordSet) With(extra ...[]string) StopwordSet {
	lists := make([][]string, 0, len(extra)+1)
	lists = append(lists, s.Words())
	return NewStopwordSet(append(lists, extra...)...)
}

func (s StopwordSet) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	return out
}

var defaultStopwords = NewStopwordSet(
	mustParseList("stopwords-en.json", stopwordsEN),
	mustParseList("stopwords-custom.json", stopwordsCustom),
)

// DefaultStopwords is the built-in English list plus lyric filler and
// ad-lib tokens.
func DefaultStopwords() StopwordSet {
	return defaultStopwords
}

// LoadStopwordFiles merges JSON string arrays from paths into the default
// set. Unreadable files are logged and skipped.
func LoadStopwordFiles(paths ...string) StopwordSet {
	var lists [][]string
	for _, path := range paths {
		words, err := loadOneFile(path)
		if err != nil {
			log.Printf("[stopwords] could not load %s: %v", path, err)
			continue
		}
		log.Printf("[stopwords] loaded %d words from %s", len(words), path)
		lists = append(lists, words)
	}

	set := defaultStopwords.With(lists...)
	log.Printf("[stopwords] total stop words: %d", set.Len())
	return set
}

func loadOneFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseList(data)
}

func parseList(data []byte) ([]string, error) {
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, err
	}
	return words, nil
}

func mustParseList(name string, data []byte) []string {
	words, err := parseList(data)
	if err != nil {
		panic(fmt.Sprintf("stopwords: embedded %s: %v", name, err))
	}
	return words
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// normalizeToken lower-cases w and folds typographic apostrophes.
func normalizeToken(w string) string {
	return apostrophes.Replace(strings.ToLower(strings.TrimSpace(w)))
}
