package genius

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	containerSel = cascadia.MustCompile(`[data-lyrics-container="true"]`)
	excludeSel   = cascadia.MustCompile(`[data-exclude-from-selection="true"]`)
	legacySel    = cascadia.MustCompile(`div.lyrics`)
)

// ExtractLyrics returns the lyric text of a song page. Every modern
// data-lyrics-container is used, joined by newlines; pages without one fall
// back to the legacy div.lyrics block. It returns "" when neither yields text.
func ExtractLyrics(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	var parts []string
	doc.FindMatcher(containerSel).Each(func(_ int, s *goquery.Selection) {
		if text := selectionText(s); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) > 0 {
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}

	legacy := doc.FindMatcher(legacySel).First()
	return strings.TrimSpace(selectionText(legacy))
}

func selectionText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		getText(n, &sb)
	}
	return strings.TrimSpace(sb.String())
}

func getText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && excludeSel.Match(n) {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		sb.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		getText(c, sb)
	}
}
