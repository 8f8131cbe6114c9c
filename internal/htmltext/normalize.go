// Package htmltext converts wiki storage-format markup into plain text
// suitable for use as completion context.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Normalize extracts the human-readable text from markup. Script, style and
// noscript blocks are dropped, text nodes are joined with single spaces, and
// all whitespace runs collapse to one space. Malformed markup is handled
// best-effort; Normalize never fails.
func Normalize(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		// The html5 parser accepts almost anything; if it still refuses,
		// fall back to a raw tag strip so callers always get text.
		return collapseWhitespace(stripTags(markup))
	}

	doc.Find("script, style, noscript").Remove()

	var parts []string
	for _, node := range doc.Nodes {
		collectText(node, &parts)
	}

	return collapseWhitespace(strings.Join(parts, " "))
}

// collectText appends the trimmed content of every text node under n, in
// document order. Joining per text node is what keeps adjacent block
// elements from running together ("<p>a</p><p>b</p>" -> "a b").
func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// collapseWhitespace folds every run of whitespace, newlines included, into
// a single space and trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripTags removes anything between angle brackets. Only used when the
// parser itself errors out.
func stripTags(markup string) string {
	var b strings.Builder
	b.Grow(len(markup))
	inTag := false
	for _, r := range markup {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
