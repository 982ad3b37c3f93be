package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	embedRe   = regexp.MustCompile(`\d+Embed$`)
	sectionLn = regexp.MustCompile(`^\[.*\]$`)
)

const relatedMarker = "You might also like"

// Normalize strips provider boilerplate from scraped lyrics: the trailing
// "<n>Embed" marker, the "You might also like" block and any metadata lines
// (contributor counts, translations, title) above the first real lyric line.
// It is pure and idempotent.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)

	// Cutting the related block can expose another Embed marker and vice
	// versa, so repeat until neither applies.
	for {
		next := stripRelated(stripEmbed(text))
		if next == text {
			break
		}
		text = next
	}

	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	start := lyricStart(lines)
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

func stripEmbed(text string) string {
	return strings.TrimSpace(embedRe.ReplaceAllString(text, ""))
}

func stripRelated(text string) string {
	if i := strings.Index(text, relatedMarker); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// lyricStart returns the index of the first section marker or real lyric
// line, or 0 when there is none.
func lyricStart(lines []string) int {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if sectionLn.MatchString(line) || looksLikeLyric(line) {
			return i
		}
	}
	return 0
}

// looksLikeLyric: more than three words and an upper-case first letter.
// Short or lower-case opening lines are skipped even when they are lyrics.
func looksLikeLyric(line string) bool {
	if len(strings.Fields(line)) <= 3 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r)
}
