package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// blockSelector lists the elements that start a new line of text.
const blockSelector = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, blockquote, pre, table, dt, dd"

// HTMLReader converts saved HTML pages of legal texts (official journal
// pages, government portals) to plain text, keeping one line per block
// element so line-anchored headers still match.
type HTMLReader struct {
	// Readability keeps only the main content of the page.
	Readability bool
}

func (p *HTMLReader) SupportedFormats() []string { return []string{"html", "htm"} }

func (p *HTMLReader) Read(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading HTML file: %v", ErrSourceUnreadable, err)
	}
	raw := string(data)

	if p.Readability {
		abs, _ := filepath.Abs(path)
		pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		article, err := readability.FromReader(strings.NewReader(raw), pageURL)
		if err != nil {
			return "", fmt.Errorf("%w: readability: %v", ErrSourceUnreadable, err)
		}
		raw = article.Content
	}
	return htmlText(raw)
}

// htmlText renders markup as plain text with block elements on their own
// lines, scripts and styles removed.
func htmlText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("%w: parsing HTML: %v", ErrSourceUnreadable, err)
	}
	doc.Find("script, style, noscript, template").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
