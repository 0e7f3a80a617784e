package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/politecrawl/internal/crawler"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into every document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the politecrawl version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONSummary is the run summary as written to JSON. It carries the abort
// error as text, which crawler.Summary omits.
type JSONSummary struct {
	crawler.Summary

	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"durationMs"`
}

// JSONReport is the document written for a View.
type JSONReport struct {
	Version    string      `json:"version,omitempty"`
	RunID      int64       `json:"runId,omitempty"`
	Summary    JSONSummary `json:"summary"`
	Page       int         `json:"page"`
	PageCount  int         `json:"pageCount"`
	TotalLines int         `json:"totalLines"`
	Lines      []string    `json:"lines"`
}

// JSONHistoryEntry is one saved run in a JSON history document.
type JSONHistoryEntry struct {
	ID      int64       `json:"id"`
	SavedAt time.Time   `json:"savedAt"`
	Summary JSONSummary `json:"summary"`
}

// JSONHistory is the document written for a run history.
type JSONHistory struct {
	Version string             `json:"version,omitempty"`
	Runs    []JSONHistoryEntry `json:"runs"`
}

func newJSONSummary(s crawler.Summary) JSONSummary {
	js := JSONSummary{
		Summary:    s,
		DurationMS: float64(s.Duration()) / float64(time.Millisecond),
	}
	if s.Err != nil {
		js.Error = s.Err.Error()
	}
	return js
}

// Write outputs the view in JSON format.
func (w *JSONWriter) Write(view *View) (int, error) {
	lines := view.Lines
	if lines == nil {
		lines = []string{}
	}
	return w.writeJSON(JSONReport{
		Version:    w.version,
		RunID:      view.RunID,
		Summary:    newJSONSummary(view.Summary),
		Page:       view.PageNumber,
		PageCount:  view.PageCount,
		TotalLines: view.TotalLines,
		Lines:      lines,
	})
}

// WriteHistory outputs saved runs in JSON format.
func (w *JSONWriter) WriteHistory(entries []HistoryEntry) (int, error) {
	runs := make([]JSONHistoryEntry, 0, len(entries))
	for _, e := range entries {
		runs = append(runs, JSONHistoryEntry{
			ID:      e.ID,
			SavedAt: e.SavedAt,
			Summary: newJSONSummary(e.Summary),
		})
	}
	return w.writeJSON(JSONHistory{Version: w.version, Runs: runs})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
