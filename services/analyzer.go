package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"lyricloud/models"
)

var (
	sectionRe = regexp.MustCompile(`\[.*?\]`)
	wordRe    = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}']+`)
)

// CountWords tokenizes lyric text and counts single words, skipping
// section markers, numbers, one-letter tokens and stopwords. The result is
// ordered by count, then alphabetically.
func CountWords(text string, stopWords StopwordSet) []models.WordCount {
	counts := make(map[string]int)

	text = sectionRe.ReplaceAllString(text, " ")
	for _, w := range wordRe.FindAllString(normalizeToken(text), -1) {
		w = strings.Trim(w, "'")
		w = strings.TrimSuffix(w, "'s")

		if utf8.RuneCountInString(w) <= 1 || isNumber(w) {
			continue
		}
		if stopWords.Contains(w) {
			continue
		}
		counts[w]++
	}

	result := make([]models.WordCount, 0, len(counts))
	for word, count := range counts {
		result = append(result, models.WordCount{Word: word, Count: count})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})

	return result
}

// TopWords trims counts to at most n entries.
func TopWords(counts []models.WordCount, n int) []models.WordCount {
	if n >= 0 && len(counts) > n {
		return counts[:n]
	}
	return counts
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
