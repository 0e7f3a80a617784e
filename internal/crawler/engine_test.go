package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/politecrawl/internal/fetcher"
	"github.com/nao1215/politecrawl/internal/resultlog"
)

// testSite serves a fixed set of pages plus robots.txt and counts hits.
type testSite struct {
	server *httptest.Server
	robots string

	mu   sync.Mutex
	hits map[string]int
}

// newTestSite starts a site whose pages are produced by pages. Page bodies may
// contain "{{base}}", replaced by the server URL.
func newTestSite(t *testing.T, robots string, pages map[string]string) *testSite {
	t.Helper()

	site := &testSite{robots: robots, hits: make(map[string]int)}
	site.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.hits[r.URL.Path]++
		site.mu.Unlock()

		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte(site.robots)) //nolint:errcheck
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(strings.ReplaceAll(body, "{{base}}", site.server.URL))) //nolint:errcheck
	}))
	t.Cleanup(site.server.Close)
	return site
}

func (s *testSite) url(path string) string {
	return s.server.URL + path
}

func (s *testSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithRobotsScheme("http"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewEngine(&http.Client{Timeout: 5 * time.Second}, append(base, opts...)...)
}

func page(title string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	if title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", title)
	}
	b.WriteString("</head><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">x</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func countKind(results []resultlog.Result, kind resultlog.Kind) int {
	n := 0
	for _, r := range results {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// flakyFetcher fails chosen URLs with a network error and delegates the rest.
type flakyFetcher struct {
	next  fetcher.PageFetcher
	fails map[string]bool
}

func (f *flakyFetcher) Fetch(ctx context.Context, rawURL, userAgent string) fetcher.Outcome {
	if f.fails[rawURL] {
		return fetcher.Outcome{URL: rawURL, Err: &fetcher.FetchError{
			Kind:    fetcher.KindNetwork,
			URL:     rawURL,
			Message: "network error fetching " + rawURL + ": connection reset",
		}}
	}
	return f.next.Fetch(ctx, rawURL, userAgent)
}

// hookFetcher runs hook before delegating each fetch.
type hookFetcher struct {
	next fetcher.PageFetcher
	hook func(rawURL string)
}

func (f *hookFetcher) Fetch(ctx context.Context, rawURL, userAgent string) fetcher.Outcome {
	f.hook(rawURL)
	return f.next.Fetch(ctx, rawURL, userAgent)
}

func TestEngineCrawl(t *testing.T) {
	t.Parallel()

	t.Run("three page chain with depth 1", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "User-agent: *\nAllow: /\n", map[string]string{
			"/":  page("A", "/b"),
			"/b": page("B", "/c"),
			"/c": page("C", "/"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.State != StateCompleted || engine.State() != StateCompleted {
			t.Errorf("expected completed, got %v / %v", summary.State, engine.State())
		}
		if summary.PagesCrawled > 5 || summary.PagesCrawled != 2 {
			t.Errorf("expected 2 pages crawled, got %d", summary.PagesCrawled)
		}

		want := []string{
			"Title: A",
			"Link: " + site.url("/b"),
			"Title: B",
			"Link: " + site.url("/c"),
		}
		got := engine.Log().Lines()
		if strings.Join(got, "\n") != strings.Join(want, "\n") {
			t.Errorf("unexpected log:\n got: %q\nwant: %q", got, want)
		}
		if site.hitCount("/c") != 0 {
			t.Error("page beyond max depth must not be fetched")
		}
		if !engine.Log().Frozen() {
			t.Error("log must be frozen after the run")
		}
	})

	t.Run("one title per fetched page and one link per discovered link", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("A", "/b"),
			"/b": page("B", "/c"),
			"/c": page("C", "/"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 2, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results := engine.Log().Results()
		if got := countKind(results, resultlog.KindTitleFound); got != 3 {
			t.Errorf("expected 3 titles, got %d", got)
		}
		if got := countKind(results, resultlog.KindLinkFound); got != 3 {
			t.Errorf("expected 3 links, got %d", got)
		}
		if summary.Titles != 3 || summary.Links != 3 || summary.Results != 6 {
			t.Errorf("unexpected summary counters: %+v", summary)
		}
		if summary.DistinctLinks < 2 || summary.DistinctLinks > 4 {
			t.Errorf("expected about 3 distinct links, got %d", summary.DistinctLinks)
		}
	})

	t.Run("page limit bounds the crawl", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("A", "/b", "/c", "/d"),
			"/b": page("B"),
			"/c": page("C"),
			"/d": page("D"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesCrawled != 2 {
			t.Errorf("expected 2 pages crawled, got %d", summary.PagesCrawled)
		}
		if site.hitCount("/c") != 0 || site.hitCount("/d") != 0 {
			t.Error("pages past the limit must not be fetched")
		}
	})

	t.Run("untitled page records placeholder", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{"/": page("")})
		engine := newTestEngine()

		if _, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), PageLimit: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := engine.Log().Lines()
		if len(lines) != 1 || lines[0] != "Title: (untitled) "+site.url("/") {
			t.Errorf("unexpected log: %q", lines)
		}
	})

	t.Run("duplicate links are revisited by default", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("Home", "/", "/a", "/a"),
			"/a": page("A"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesCrawled != 4 {
			t.Errorf("expected 4 pages crawled without dedup, got %d", summary.PagesCrawled)
		}
		if got := site.hitCount("/a"); got != 2 {
			t.Errorf("expected /a fetched twice, got %d", got)
		}
	})

	t.Run("dedup visits each URL once", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("Home", "/", "/a", "/a"),
			"/a": page("A"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 10, Dedup: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesCrawled != 2 {
			t.Errorf("expected 2 pages crawled with dedup, got %d", summary.PagesCrawled)
		}
		if got := site.hitCount("/"); got != 1 {
			t.Errorf("expected / fetched once, got %d", got)
		}
	})

	t.Run("refetch links doubles requests for expanded pages", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("Home", "/a"),
			"/a": page("A", "/b"),
		})
		engine := newTestEngine()

		if _, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 10, RefetchLinks: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := site.hitCount("/"); got != 2 {
			t.Errorf("expected / fetched twice, got %d", got)
		}
		if got := site.hitCount("/a"); got != 1 {
			t.Errorf("expected /a at max depth fetched once, got %d", got)
		}
	})

	t.Run("rate limit spaces fetches", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("Home", "/a", "/b"),
			"/a": page("A"),
			"/b": page("B"),
		})
		engine := newTestEngine()

		begin := time.Now()
		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 3, RatePerSecond: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		minimum := time.Duration(summary.PagesCrawled-1) * time.Second / 20
		if elapsed := time.Since(begin); elapsed < minimum-5*time.Millisecond {
			t.Errorf("expected at least %v, took %v", minimum, elapsed)
		}
	})
}

func TestEngineFailures(t *testing.T) {
	t.Parallel()

	t.Run("network failure does not halt the crawl", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":   page("Home", "/bad", "/ok"),
			"/ok": page("OK"),
		})
		engine := newTestEngine(WithFetcher(&flakyFetcher{
			next:  fetcher.New(&http.Client{Timeout: 5 * time.Second}),
			fails: map[string]bool{site.url("/bad"): true},
		}))

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results := engine.Log().Results()
		last := results[len(results)-1]
		if last.Kind != resultlog.KindTitleFound || last.Title != "OK" {
			t.Errorf("expected the entry after the failure to be processed, got %+v", last)
		}

		var failure *resultlog.Result
		for i := range results {
			if results[i].Kind == resultlog.KindFetchError {
				failure = &results[i]
			}
		}
		if failure == nil {
			t.Fatal("expected a fetch error result")
		}
		if failure.FailureKind != string(fetcher.KindNetwork) || failure.URL != site.url("/bad") {
			t.Errorf("unexpected failure: %+v", failure)
		}
		if summary.Errors != 1 || summary.PagesCrawled != 3 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("non-200 page is recorded as an error", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":   page("Home", "/missing", "/ok"),
			"/ok": page("OK"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := engine.Log().Lines()
		want := "An error occurred: unexpected status 404 Not Found: " + site.url("/missing")
		found := false
		for _, l := range lines {
			if l == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q in %q", want, lines)
		}
		if summary.State != StateCompleted || summary.Errors != 1 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("unsupported link scheme is an invalid URL error", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{"/": page("Home", "mailto:a@site.test")})
		engine := newTestEngine()

		if _, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results := engine.Log().Results()
		last := results[len(results)-1]
		if last.Kind != resultlog.KindFetchError || last.FailureKind != string(fetcher.KindInvalidURL) {
			t.Errorf("expected invalid URL error, got %+v", last)
		}
	})

	t.Run("unsupported link schemes do not wait for the rate limiter", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/": page("Home", "mailto:a@site.test", "javascript:void(0)", "tel:+100"),
		})
		engine := newTestEngine()

		begin := time.Now()
		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 10, RatePerSecond: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(begin); elapsed > 900*time.Millisecond {
			t.Errorf("expected no limiter wait for rejected links, took %v", elapsed)
		}
		if summary.PagesCrawled != 4 || summary.Errors != 3 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("invalid start URL aborts before any fetch", func(t *testing.T) {
		t.Parallel()

		for _, start := range []string{"not a url", "ftp://site.test/", "http://", "://bad"} {
			engine := newTestEngine()
			summary, err := engine.Run(context.Background(), Config{StartURL: start, PageLimit: 5})
			if !errors.Is(err, ErrInvalidStartURL) {
				t.Errorf("%q: expected ErrInvalidStartURL, got %v", start, err)
			}
			if summary.State != StateAborted || engine.State() != StateAborted {
				t.Errorf("%q: expected aborted, got %v", start, summary.State)
			}
			results := engine.Log().Results()
			if len(results) != 1 || results[0].Kind != resultlog.KindFetchError {
				t.Errorf("%q: expected a single error result, got %+v", start, results)
			}
			if summary.PagesCrawled != 0 {
				t.Errorf("%q: expected no pages crawled, got %d", start, summary.PagesCrawled)
			}
		}
	})

	t.Run("unreachable start domain robots aborts", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		start := server.URL + "/"
		server.Close()

		engine := newTestEngine()
		summary, err := engine.Run(context.Background(), Config{StartURL: start, PageLimit: 5})
		if !errors.Is(err, ErrRobotsUnavailable) {
			t.Fatalf("expected ErrRobotsUnavailable, got %v", err)
		}
		if summary.State != StateAborted {
			t.Errorf("expected aborted, got %v", summary.State)
		}
		lines := engine.Log().Lines()
		if len(lines) != 1 || !strings.HasPrefix(lines[0], "An error occurred: robots.txt unavailable") {
			t.Errorf("expected a single robots error line, got %q", lines)
		}
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine()
		if _, err := engine.Start(context.Background(), Config{StartURL: "http://site.test/", PageLimit: 0}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if _, err := engine.Start(context.Background(), Config{StartURL: "http://site.test/", MaxDepth: -1, PageLimit: 1}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if engine.State() != StateIdle {
			t.Errorf("expected idle, got %v", engine.State())
		}
	})
}

func TestEngineRobots(t *testing.T) {
	t.Parallel()

	t.Run("disallowed pages are skipped and count toward the limit", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "User-agent: *\nDisallow: /private\n", map[string]string{
			"/":        page("Home", "/private/x", "/public"),
			"/public":  page("Public"),
			"/private": page("Private"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "Skipped (robots.txt disallowed): " + site.url("/private/x")
		if lines := engine.Log().Lines(); lines[3] != want {
			t.Errorf("expected %q, got %q", want, lines)
		}
		if site.hitCount("/private/x") != 0 {
			t.Error("disallowed page must not be fetched")
		}
		if summary.PagesCrawled != 3 || summary.Skipped != 1 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("configured user agent selects its group", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "User-agent: *\nDisallow:\n\nUser-agent: politebot\nDisallow: /\n", map[string]string{
			"/": page("Home"),
		})
		engine := newTestEngine()

		if _, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), PageLimit: 1, UserAgent: "politebot/2.0"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lines := engine.Log().Lines(); len(lines) != 1 || !strings.HasPrefix(lines[0], "Skipped (robots.txt disallowed)") {
			t.Errorf("expected the start page to be skipped, got %q", lines)
		}
	})

	t.Run("other domains use their own policy", func(t *testing.T) {
		t.Parallel()

		other := newTestSite(t, "User-agent: *\nDisallow: /\n", map[string]string{"/": page("Other")})
		site := newTestSite(t, "", map[string]string{"/": page("Home", other.url("/"))})
		engine := newTestEngine()

		if _, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if other.hitCount("/robots.txt") != 1 {
			t.Errorf("expected other robots.txt loaded once, got %d", other.hitCount("/robots.txt"))
		}
		if other.hitCount("/") != 0 {
			t.Error("page on disallowing domain must not be fetched")
		}
	})

	t.Run("unavailable robots on another domain skips and continues", func(t *testing.T) {
		t.Parallel()

		gone := httptest.NewServer(http.NotFoundHandler())
		goneURL := gone.URL + "/page"
		gone.Close()

		site := newTestSite(t, "", map[string]string{
			"/":   page("Home", goneURL, "/ok"),
			"/ok": page("OK"),
		})
		engine := newTestEngine()

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "Skipped (robots.txt unavailable): " + goneURL
		if lines := engine.Log().Lines(); lines[3] != want {
			t.Errorf("expected %q, got %q", want, lines)
		}
		if summary.State != StateCompleted || summary.Titles != 2 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("filter skips before robots", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":         page("Home", "/admin/panel", "/doc.pdf", "/ok"),
			"/ok":       page("OK"),
			"/doc.pdf":  page("PDF"),
			"/admin/ok": page("Admin"),
		})
		engine := newTestEngine(WithFilter(Filter{IgnorePatterns: []string{"/admin/*", "*.pdf"}}))

		summary, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Skipped != 2 || site.hitCount("/doc.pdf") != 0 {
			t.Errorf("expected two filtered pages, got %+v", summary)
		}
	})
}

func TestEngineLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("second start while running fails", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{"/": page("Home")})
		release := make(chan struct{})
		engine := newTestEngine(WithFetcher(&hookFetcher{
			next: fetcher.New(&http.Client{Timeout: 5 * time.Second}),
			hook: func(string) { <-release },
		}))

		cfg := Config{StartURL: site.url("/"), PageLimit: 1}
		run, err := engine.Start(context.Background(), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if engine.State() != StateRunning {
			t.Errorf("expected running, got %v", engine.State())
		}
		if _, err := engine.Start(context.Background(), cfg); !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning, got %v", err)
		}

		close(release)
		summary, err := run.Wait()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.State != StateCompleted {
			t.Errorf("expected completed, got %v", summary.State)
		}

		// A finished engine accepts a new run and clears the previous log.
		if _, err := engine.Run(context.Background(), cfg); err != nil {
			t.Fatalf("unexpected error on second run: %v", err)
		}
		if engine.Log().Len() != 1 {
			t.Errorf("expected log reset between runs, got %d lines", engine.Log().Len())
		}
	})

	t.Run("cancellation aborts and keeps the partial log", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("Home", "/a", "/b"),
			"/a": page("A"),
			"/b": page("B"),
		})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		engine := newTestEngine(WithFetcher(&hookFetcher{
			next: fetcher.New(&http.Client{Timeout: 5 * time.Second}),
			hook: func(rawURL string) {
				if strings.HasSuffix(rawURL, "/a") {
					cancel()
				}
			},
		}))

		summary, err := engine.Run(ctx, Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 10})
		if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation error, got %v", err)
		}
		if summary.State != StateAborted {
			t.Errorf("expected aborted, got %v", summary.State)
		}
		lines := engine.Log().Lines()
		if len(lines) < 3 || lines[0] != "Title: Home" {
			t.Errorf("expected the partial log to be preserved, got %q", lines)
		}
		if site.hitCount("/b") != 0 {
			t.Error("no entry may be processed after cancellation")
		}
		if err := engine.Log().Append(resultlog.Untitled("x")); !errors.Is(err, resultlog.ErrFrozen) {
			t.Errorf("expected frozen log, got %v", err)
		}
	})

	t.Run("events report every processed entry and close", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{
			"/":  page("Home", "/a"),
			"/a": page("A"),
		})
		engine := newTestEngine()

		run, err := engine.Start(context.Background(), Config{StartURL: site.url("/"), MaxDepth: 1, PageLimit: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		<-run.Done()

		var events []Event
		for ev := range run.Events() {
			events = append(events, ev)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[1].PagesCrawled != 2 || events[1].Depth != 1 || events[1].Kind != resultlog.KindTitleFound {
			t.Errorf("unexpected last event: %+v", events[1])
		}
	})

	t.Run("observer sees fetched bodies", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, "", map[string]string{"/": page("Home")})
		var seen []string
		engine := newTestEngine(WithPageObserver(func(pageURL string, body []byte) {
			if strings.Contains(string(body), "Home") {
				seen = append(seen, pageURL)
			}
		}))

		if _, err := engine.Run(context.Background(), Config{StartURL: site.url("/"), PageLimit: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 1 || seen[0] != site.url("/") {
			t.Errorf("unexpected observed pages: %v", seen)
		}
	})

	t.Run("summary of idle engine", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine()
		if s := engine.Summary(); s.State != StateIdle || s.Results != 0 {
			t.Errorf("unexpected summary: %+v", s)
		}
	})
}
