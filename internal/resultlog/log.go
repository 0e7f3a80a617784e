package resultlog

import (
	"errors"
	"sync"
)

// PageSize is the number of lines per display page.
const PageSize = 10

// ErrFrozen is returned by Append once the log has been frozen.
var ErrFrozen = errors.New("result log is frozen")

// Log is an append-only, page-indexed sequence of results.
//
// The crawl engine is the only writer. Readers may query the log at any
// time, including while a crawl is still appending.
type Log struct {
	mu      sync.RWMutex
	results []Result
	frozen  bool
}

// New creates an empty Log.
func New() *Log {
	return &Log{results: make([]Result, 0)}
}

// Reset clears the log and unfreezes it for a new run.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = make([]Result, 0)
	l.frozen = false
}

// Append records r.
func (l *Log) Append(r Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return ErrFrozen
	}
	l.results = append(l.results, r)
	return nil
}

// Freeze stops further appends until the next Reset.
func (l *Log) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// Frozen reports whether the log has been frozen.
func (l *Log) Frozen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frozen
}

// Len returns the number of recorded lines.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// Results returns a copy of all recorded results.
func (l *Log) Results() []Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Result, len(l.results))
	copy(out, l.results)
	return out
}

// Lines returns every result rendered as a display line.
func (l *Log) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return render(l.results)
}

// PageCount returns the number of pages of size pageSize, at least 1.
func (l *Log) PageCount(pageSize int) int {
	return PageCount(l.Len(), pageSize)
}

// Page returns the lines of page pageNumber (1-based). Out-of-range page
// numbers are clamped to the first or last valid page, so the call never fails.
func (l *Log) Page(pageNumber, pageSize int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start, end := Bounds(ClampPage(pageNumber, len(l.results), pageSize), len(l.results), pageSize)
	return render(l.results[start:end])
}

// PageCount returns max(1, ceil(total/pageSize)). A non-positive pageSize
// means PageSize.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage clamps pageNumber to [1, PageCount(total, pageSize)].
func ClampPage(pageNumber, total, pageSize int) int {
	last := PageCount(total, pageSize)
	switch {
	case pageNumber < 1:
		return 1
	case pageNumber > last:
		return last
	default:
		return pageNumber
	}
}

// Bounds returns the half-open index range of an already clamped page.
func Bounds(pageNumber, total, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	start := (pageNumber - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func render(results []Result) []string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.Line()
	}
	return lines
}
