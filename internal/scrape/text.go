package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedText concatenates every descendant text node of s, each trimmed of
// surrounding whitespace, with no separator. "<b>Adresse</b> : 1 rue X"
// becomes "Adresse: 1 rue X".
func strippedText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(strings.TrimSpace(n.Data))
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

// afterColon returns the text after the first colon, trimmed. Text without a
// colon is returned whole.
func afterColon(s string) string {
	if _, after, found := strings.Cut(s, ":"); found {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(s)
}

// namePrefixes are stripped from detail page titles wherever they occur.
var namePrefixes = []string{"Contacter ", "Présentation de ", "Présentation du ", "Présentation : "}

func cleanName(s string) string {
	for _, p := range namePrefixes {
		s = strings.ReplaceAll(s, p, "")
	}
	return strings.TrimSpace(s)
}
