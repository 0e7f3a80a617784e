package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and links in document order", func(t *testing.T) {
		t.Parallel()

		body := `<html><head><title>Foo</title></head><body><a href="/x">a</a><a href="http://other.test/y">b</a></body></html>`
		page, err := Parse("http://site.test/page", []byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !page.HasTitle || page.Title != "Foo" {
			t.Errorf("expected title Foo, got %q (has=%v)", page.Title, page.HasTitle)
		}
		want := []string{"http://site.test/x", "http://other.test/y"}
		if len(page.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(page.Links), page.Links)
		}
		for i := range want {
			if page.Links[i] != want[i] {
				t.Errorf("link %d: expected %q, got %q", i, want[i], page.Links[i])
			}
		}
	})

	t.Run("resolves every reference form", func(t *testing.T) {
		t.Parallel()

		body := `<html><body>
			<a href="//cdn.test/lib">scheme-relative</a>
			<a href="sibling">path-relative</a>
			<a href="../up">parent</a>
			<a href="?q=1">query-only</a>
			<a href="#frag">fragment-only</a>
			<a href="  /trimmed  ">whitespace</a>
		</body></html>`
		page, err := Parse("https://site.test/dir/page?old=1", []byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"https://cdn.test/lib",
			"https://site.test/dir/sibling",
			"https://site.test/up",
			"https://site.test/dir/page?q=1",
			"https://site.test/dir/page?old=1#frag",
			"https://site.test/trimmed",
		}
		if len(page.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(page.Links), page.Links)
		}
		for i := range want {
			if page.Links[i] != want[i] {
				t.Errorf("link %d: expected %q, got %q", i, want[i], page.Links[i])
			}
		}
	})

	t.Run("preserves duplicates", func(t *testing.T) {
		t.Parallel()

		body := `<a href="/same">1</a><a href="/same">2</a><a href="http://site.test/same">3</a>`
		page, err := Parse("http://site.test/", []byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Links) != 3 {
			t.Errorf("expected 3 links, got %v", page.Links)
		}
	})

	t.Run("ignores anchors without href and non-anchor elements", func(t *testing.T) {
		t.Parallel()

		body := `<a name="top">no href</a><link href="/style.css"><img src="/i.png"><area href="/map"><a href="/ok">ok</a>`
		page, err := Parse("http://site.test/", []byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Links) != 1 || page.Links[0] != "http://site.test/ok" {
			t.Errorf("expected only /ok, got %v", page.Links)
		}
	})

	t.Run("missing title is not an error", func(t *testing.T) {
		t.Parallel()

		page, err := Parse("http://site.test/", []byte(`<html><body><p>no title</p></body></html>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.HasTitle {
			t.Errorf("expected no title, got %q", page.Title)
		}
		if page.Links == nil {
			t.Error("links should be an empty slice, not nil")
		}
	})

	t.Run("normalizes title whitespace and unicode", func(t *testing.T) {
		t.Parallel()

		// "e" + combining acute accent composes to a single rune under NFC.
		body := "<title>\n  Cafe\u0301   Menu \t</title>"
		page, err := Parse("http://site.test/", []byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Title != "Caf\u00e9 Menu" {
			t.Errorf("expected normalized title, got %q", page.Title)
		}
	})

	t.Run("keeps non-http schemes as written", func(t *testing.T) {
		t.Parallel()

		page, err := Parse("http://site.test/", []byte(`<a href="mailto:a@site.test">mail</a>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Links) != 1 || !strings.HasPrefix(page.Links[0], "mailto:") {
			t.Errorf("expected mailto link, got %v", page.Links)
		}
	})

	t.Run("invalid base URL returns error", func(t *testing.T) {
		t.Parallel()

		if _, err := Parse("http://[::1", []byte("<html></html>")); err == nil {
			t.Error("expected error for invalid base URL")
		}
	})
}
