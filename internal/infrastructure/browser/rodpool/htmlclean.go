package rodpool

import (
	"strings"

	"golang.org/x/net/html"
)

// tags whose text is never user-visible
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"head":     true,
	"template": true,
}

const maxVisibleTextLen = 130_000

// ExtractVisibleText renders the user-visible text of an HTML document,
// one line per block of text, ignoring markup and scripting.
func ExtractVisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return strings.TrimSpace(rawHTML)
	}

	body := findNode(doc, "body")
	if body == nil {
		body = doc
	}

	var b strings.Builder
	collectText(body, &b)

	text := b.String()
	if len(text) > maxVisibleTextLen {
		text = text[:maxVisibleTextLen]
	}
	return strings.TrimSpace(text)
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skippedTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strings.Join(strings.Fields(t), " "))
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
