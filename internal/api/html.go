package api

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlText reduces an HTML error page (proxy or gateway errors) to its visible text.
func htmlText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()

	// Gateways usually put the useful part in the title or first heading.
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return cleanWhitespace(title), nil
	}
	if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
		return cleanWhitespace(h), nil
	}
	return cleanWhitespace(doc.Find("body").Text()), nil
}

// cleanWhitespace collapses the text onto one line.
func cleanWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
