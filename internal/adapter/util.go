package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// noiseSelectors are removed before page text is handed to the extractor.
const noiseSelectors = "script, style, noscript, svg, nav, header, footer, iframe, form"

// blockSelectors get a trailing space so adjacent blocks do not run together.
const blockSelectors = "title, p, div, li, br, tr, td, th, h1, h2, h3, h4, h5, h6, section, article, main"

// PageText parses an HTML document, drops non-content elements and returns
// its visible text with whitespace compacted.
func PageText(doc string) (string, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	d.Find(noiseSelectors).Remove()
	d.Find(blockSelectors).AppendHtml(" ")
	return strings.Join(strings.Fields(d.Text()), " "), nil
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

var titleCaser = cases.Title(language.English)

// humanizeHub turns a board token like "acme-labs" into "Acme Labs". Used
// when a provider does not report the company name.
func humanizeHub(hub string) string {
	hub = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(hub)
	return titleCaser.String(strings.Join(strings.Fields(hub), " "))
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
