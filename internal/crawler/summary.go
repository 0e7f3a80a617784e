package crawler

import (
	"time"

	"github.com/axiomhq/hyperloglog"

	"github.com/nao1215/politecrawl/internal/resultlog"
)

// Summary describes a finished or in-progress run.
type Summary struct {
	StartURL     string    `json:"startUrl"`
	State        State     `json:"state"`
	MaxDepth     int       `json:"maxDepth"`
	PageLimit    int       `json:"pageLimit"`
	PagesCrawled int       `json:"pagesCrawled"`
	Results      int       `json:"results"`
	Titles       int       `json:"titles"`
	Links        int       `json:"links"`
	Skipped      int       `json:"skipped"`
	Errors       int       `json:"errors"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt,omitempty"`

	// DistinctLinks estimates the number of unique link targets seen.
	DistinctLinks uint64 `json:"distinctLinks"`

	// Err is the error that aborted the run, if any.
	Err error `json:"-"`
}

// Duration returns how long the run took, or has taken so far.
func (s Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// tally accumulates counters while a run appends results.
type tally struct {
	summary  Summary
	distinct *hyperloglog.Sketch
}

func newTally(cfg Config, startedAt time.Time) *tally {
	return &tally{
		summary: Summary{
			StartURL:  cfg.StartURL,
			State:     StateRunning,
			MaxDepth:  cfg.MaxDepth,
			PageLimit: cfg.PageLimit,
			StartedAt: startedAt,
		},
		distinct: hyperloglog.New14(),
	}
}

func (t *tally) count(r resultlog.Result) {
	t.summary.Results++
	switch r.Kind {
	case resultlog.KindTitleFound:
		t.summary.Titles++
	case resultlog.KindLinkFound:
		t.summary.Links++
		t.distinct.Insert([]byte(r.Target))
	case resultlog.KindSkipped:
		t.summary.Skipped++
	case resultlog.KindFetchError:
		t.summary.Errors++
	}
}

func (t *tally) snapshot() Summary {
	s := t.summary
	s.DistinctLinks = t.distinct.Estimate()
	return s
}
