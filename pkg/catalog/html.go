package catalog

import (
	"strings"

	"golang.org/x/net/html"
)

// FlattenHTML reduces an HTML fragment to its visible text with collapsed
// whitespace. Marketplace descriptions frequently arrive wrapped in markup;
// the similarity documents should only see the words. Plain strings pass
// through unchanged.
func FlattenHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	collectText(doc, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
