package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/politecrawl/internal/crawler"
	"github.com/nao1215/politecrawl/internal/resultlog"
)

// setupTestStore creates a store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResults(n int) []resultlog.Result {
	results := []resultlog.Result{resultlog.TitleFound("http://site.test/", "Home")}
	for i := 1; i < n; i++ {
		results = append(results, resultlog.LinkFound("http://site.test/", fmt.Sprintf("http://site.test/%d", i)))
	}
	return results
}

func sampleSummary(results []resultlog.Result) crawler.Summary {
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return crawler.Summary{
		StartURL:      "http://site.test/",
		State:         crawler.StateCompleted,
		MaxDepth:      1,
		PageLimit:     5,
		PagesCrawled:  1,
		Results:       len(results),
		Titles:        1,
		Links:         len(results) - 1,
		DistinctLinks: uint64(len(results) - 1),
		StartedAt:     started,
		FinishedAt:    started.Add(3 * time.Second),
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "newdir", "subdir")
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if s.Path() != filepath.Join(dir, FileName) {
			t.Errorf("unexpected path %q", s.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dir, ExistingOptions())
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
		}
		if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
			t.Errorf("expected %s not to be created, stat err = %v", dir, statErr)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		results := sampleResults(2)
		if _, err := s.SaveRun(context.Background(), sampleSummary(results), results); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		s.Close()

		s, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer s.Close()
		runs, err := s.ListRuns(context.Background())
		if err != nil || len(runs) != 1 {
			t.Errorf("expected 1 run after reopen, got %d (%v)", len(runs), err)
		}
	})
}

func TestRuns(t *testing.T) {
	t.Parallel()

	t.Run("save and get run", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()
		results := sampleResults(3)
		summary := sampleSummary(results)

		id, err := s.SaveRun(ctx, summary, results)
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		got, err := s.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.StartURL != summary.StartURL || got.State != crawler.StateCompleted {
			t.Errorf("unexpected run: %+v", got)
		}
		if got.Results != 3 || got.Links != 2 || got.DistinctLinks != 2 {
			t.Errorf("unexpected counters: %+v", got)
		}
		if !got.StartedAt.Equal(summary.StartedAt) || !got.FinishedAt.Equal(summary.FinishedAt) {
			t.Errorf("timestamps not preserved: %v %v", got.StartedAt, got.FinishedAt)
		}
		if got.Summary().Err != nil {
			t.Errorf("expected no error, got %v", got.Summary().Err)
		}
	})

	t.Run("aborted run keeps its error message", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()
		results := []resultlog.Result{resultlog.FetchError("http://site.test/", "robots_unavailable", "robots.txt unavailable")}
		summary := crawler.Summary{
			StartURL:  "http://site.test/",
			State:     crawler.StateAborted,
			PageLimit: 5,
			Results:   1,
			Errors:    1,
			StartedAt: time.Now(),
			Err:       crawler.ErrRobotsUnavailable,
		}

		id, err := s.SaveRun(ctx, summary, results)
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		got, err := s.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.State != crawler.StateAborted || got.ErrorMessage != "robots.txt unavailable" {
			t.Errorf("unexpected run: %+v", got)
		}
		if !got.FinishedAt.IsZero() {
			t.Errorf("expected zero finish time, got %v", got.FinishedAt)
		}
		if got.Summary().Err == nil {
			t.Error("expected summary error")
		}
	})

	t.Run("missing run", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		if _, err := s.GetRun(context.Background(), 42); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if _, err := s.GetPage(context.Background(), 42, 1, 10); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("list runs newest first", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()
		var ids []int64
		for i := 0; i < 3; i++ {
			results := sampleResults(i + 1)
			id, err := s.SaveRun(ctx, sampleSummary(results), results)
			if err != nil {
				t.Fatalf("failed to save run %d: %v", i, err)
			}
			ids = append(ids, id)
		}

		runs, err := s.ListRuns(ctx)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
			t.Errorf("unexpected order: %d %d %d", runs[0].ID, runs[1].ID, runs[2].ID)
		}
		if runs[0].CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		t.Parallel()

		runs, err := setupTestStore(t).ListRuns(context.Background())
		if err != nil || len(runs) != 0 {
			t.Errorf("expected no runs, got %d (%v)", len(runs), err)
		}
	})
}

func TestGetPage(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()
	results := sampleResults(25)
	id, err := s.SaveRun(ctx, sampleSummary(results), results)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	log := resultlog.New()
	for _, r := range results {
		_ = log.Append(r)
	}

	for _, number := range []int{0, 1, 2, 3, 4, 99} {
		page, err := s.GetPage(ctx, id, number, resultlog.PageSize)
		if err != nil {
			t.Fatalf("page %d: %v", number, err)
		}
		want := log.Page(number, resultlog.PageSize)
		got := page.Lines()
		if len(got) != len(want) {
			t.Errorf("page %d: expected %d lines, got %d", number, len(want), len(got))
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("page %d line %d: expected %q, got %q", number, i, want[i], got[i])
			}
		}
		if page.Count != 3 || page.Total != 25 {
			t.Errorf("page %d: unexpected count/total %d/%d", number, page.Count, page.Total)
		}
	}

	page, err := s.GetPage(ctx, id, 4, resultlog.PageSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Number != 3 {
		t.Errorf("expected clamped page number 3, got %d", page.Number)
	}
	if page.Results[0].Kind != resultlog.KindLinkFound || page.Results[0].Target != "http://site.test/20" {
		t.Errorf("unexpected first result on page 3: %+v", page.Results[0])
	}

	first, err := s.GetPage(ctx, id, 1, resultlog.PageSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Results[0].HasTitle || first.Results[0].Title != "Home" {
		t.Errorf("title result not preserved: %+v", first.Results[0])
	}
}

func TestPageDigests(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()
	results := sampleResults(1)
	id, err := s.SaveRun(ctx, sampleSummary(results), results)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	if err := s.SavePageDigest(ctx, id, "http://site.test/b", []byte("second")); err != nil {
		t.Fatalf("failed to save digest: %v", err)
	}
	if err := s.SavePageDigest(ctx, id, "http://site.test/a", []byte("first")); err != nil {
		t.Fatalf("failed to save digest: %v", err)
	}
	if err := s.SavePageDigest(ctx, id, "http://site.test/a", []byte("first, changed")); err != nil {
		t.Fatalf("failed to overwrite digest: %v", err)
	}

	digests, err := s.PageDigests(ctx, id)
	if err != nil {
		t.Fatalf("failed to read digests: %v", err)
	}
	if len(digests) != 2 {
		t.Fatalf("expected 2 digests, got %d", len(digests))
	}
	if digests[0].URL != "http://site.test/a" || digests[0].Digest != Digest([]byte("first, changed")) {
		t.Errorf("unexpected first digest: %+v", digests[0])
	}
	if digests[0].Size != len("first, changed") {
		t.Errorf("unexpected size %d", digests[0].Size)
	}
}

func TestSaveDigests(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()
	results := sampleResults(1)
	id, err := s.SaveRun(ctx, sampleSummary(results), results)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	batch := []PageDigest{
		{URL: "http://site.test/", Digest: Digest([]byte("v1")), Size: 2},
		{URL: "http://site.test/x", Digest: Digest([]byte("x")), Size: 1},
		{URL: "http://site.test/", Digest: Digest([]byte("v2")), Size: 2},
	}
	if err := s.SaveDigests(ctx, id, batch); err != nil {
		t.Fatalf("failed to save digests: %v", err)
	}

	digests, err := s.PageDigests(ctx, id)
	if err != nil {
		t.Fatalf("failed to read digests: %v", err)
	}
	if len(digests) != 2 {
		t.Fatalf("expected 2 digests, got %d", len(digests))
	}
	if digests[0].Digest != Digest([]byte("v2")) {
		t.Errorf("expected the later digest to win, got %+v", digests[0])
	}

	if err := s.SaveDigests(ctx, id, nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

func TestDigest(t *testing.T) {
	t.Parallel()

	// SHA3-256 of the empty string.
	const empty = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := Digest(nil); got != empty {
		t.Errorf("expected %s, got %s", empty, got)
	}
	if Digest([]byte("a")) == Digest([]byte("b")) {
		t.Error("distinct inputs must have distinct digests")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		zero  bool
	}{
		{"2026-10-01 12:00:00", false},
		{"2026-10-01T12:00:00Z", false},
		{"2026-10-01T12:00:00.123456789Z", false},
		{"2026-10-01T12:00:00", false},
		{"yesterday", true},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
		}
	}
}
