package report

import (
	"strconv"
	"time"

	"github.com/nao1215/politecrawl/internal/crawler"
	"github.com/nao1215/politecrawl/internal/resultlog"
)

// View is one rendered page of a run's result log.
type View struct {
	// RunID is the store identifier of a saved run, zero when unsaved.
	RunID int64

	Summary crawler.Summary

	// PageNumber is the clamped 1-based page shown. It is zero when the
	// view holds every line.
	PageNumber int
	PageSize   int
	PageCount  int
	TotalLines int
	Lines      []string
}

// All reports whether the view holds the full log rather than one page.
func (v *View) All() bool {
	return v.PageNumber == 0
}

// NewPageView builds a view of page n of the log. n is clamped the same way
// resultlog.Log.Page clamps it.
func NewPageView(summary crawler.Summary, log *resultlog.Log, n, size int) *View {
	if size <= 0 {
		size = resultlog.PageSize
	}
	total := log.Len()
	return &View{
		Summary:    summary,
		PageNumber: resultlog.ClampPage(n, total, size),
		PageSize:   size,
		PageCount:  resultlog.PageCount(total, size),
		TotalLines: total,
		Lines:      log.Page(n, size),
	}
}

// NewFullView builds a view holding every line of the log.
func NewFullView(summary crawler.Summary, log *resultlog.Log) *View {
	return &View{
		Summary:    summary,
		PageSize:   log.Len(),
		PageCount:  1,
		TotalLines: log.Len(),
		Lines:      log.Lines(),
	}
}

// HistoryEntry is one saved run in a history listing.
type HistoryEntry struct {
	ID      int64
	SavedAt time.Time
	Summary crawler.Summary
}

// statusText describes how a run ended.
func statusText(s crawler.Summary) string {
	switch s.State {
	case crawler.StateAborted:
		if s.Err != nil {
			return "Aborted - " + s.Err.Error()
		}
		return "Aborted"
	case crawler.StateCompleted:
		return "Completed"
	default:
		return s.State.String()
	}
}

// pageLabel renders the page indicator, e.g. "Page 2 of 3".
func pageLabel(v *View) string {
	if v.All() {
		return "All lines"
	}
	return "Page " + strconv.Itoa(v.PageNumber) + " of " + strconv.Itoa(v.PageCount)
}

const timeLayout = "2006-01-02 15:04:05 MST"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}
