package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs human-readable text for terminal display.
// Result lines are printed exactly as the result log renders them, one per
// line, followed by the page indicator.
type SimpleWriter struct {
	baseWriter

	// showSummary controls whether the run summary block is printed.
	showSummary bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithSummary enables or disables the run summary block.
func WithSummary(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showSummary = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		showSummary: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the view in human-readable format.
func (w *SimpleWriter) Write(view *View) (int, error) {
	var sb strings.Builder

	if w.showSummary {
		w.writeSummary(&sb, view)
	}
	w.writeLines(&sb, view)

	return w.output.Write([]byte(sb.String()))
}

// writeSummary writes the header with run information.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, view *View) {
	s := view.Summary

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("POLITECRAWL RESULTS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if view.RunID != 0 {
		sb.WriteString(fmt.Sprintf("Run:            #%d\n", view.RunID))
	}
	sb.WriteString(fmt.Sprintf("Start URL:      %s\n", s.StartURL))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", statusText(s)))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", formatTime(s.StartedAt)))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", s.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d / %d (max depth %d)\n", s.PagesCrawled, s.PageLimit, s.MaxDepth))
	sb.WriteString(fmt.Sprintf("Results:        %d titles, %d links (~%d distinct), %d skipped, %d errors\n",
		s.Titles, s.Links, s.DistinctLinks, s.Skipped, s.Errors))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
}

// writeLines writes the result lines and the page indicator.
func (w *SimpleWriter) writeLines(sb *strings.Builder, view *View) {
	if len(view.Lines) == 0 {
		sb.WriteString("No results.\n")
	}
	for _, line := range view.Lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\n%s (%d lines)\n", pageLabel(view), view.TotalLines))
}

// WriteHistory outputs saved runs as an aligned table.
func (w *SimpleWriter) WriteHistory(entries []HistoryEntry) (int, error) {
	var sb strings.Builder

	if len(entries) == 0 {
		sb.WriteString("No saved runs.\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(fmt.Sprintf("%-6s %-10s %-7s %-8s %-23s %s\n", "ID", "STATE", "PAGES", "RESULTS", "STARTED", "START URL"))
	for _, e := range entries {
		s := e.Summary
		sb.WriteString(fmt.Sprintf("%-6d %-10s %-7d %-8d %-23s %s\n",
			e.ID, s.State, s.PagesCrawled, s.Results, formatTime(s.StartedAt), s.StartURL))
	}

	return w.output.Write([]byte(sb.String()))
}
