// Package parser extracts the title and outbound links of an HTML page.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Page is the information extracted from one HTML document.
type Page struct {
	// Title is the text of the first <title> element, whitespace collapsed.
	Title string

	// HasTitle is false when the document has no (or an empty) <title>.
	HasTitle bool

	// Links are the absolute URLs of every <a href> in document order.
	// Duplicates are preserved.
	Links []string
}

// Parse extracts the title and links of body, resolving relative hrefs
// against baseURL with standard reference resolution (scheme-relative,
// path-relative, query-only and fragment-only references included).
// Anchors whose href cannot be parsed are skipped.
func Parse(baseURL string, body []byte) (Page, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse HTML: %w", err)
	}

	page := Page{Links: make([]string, 0)}

	if sel := doc.Find("title").First(); sel.Length() > 0 {
		page.Title = cleanText(sel.Text())
		page.HasTitle = page.Title != ""
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		page.Links = append(page.Links, base.ResolveReference(ref).String())
	})

	return page, nil
}

// cleanText NFC-normalizes s and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
