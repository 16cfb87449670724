package textnorm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, li, div, h1, h2, h3, h4, h5, h6, tr"

// PlainText converts a formatted ad body to text, one line per block element.
func PlainText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, l := range strings.Split(doc.Text(), "\n") {
		if l = CleanText(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n"), nil
}
