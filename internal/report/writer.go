package report

import (
	"io"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs one page of results with the run summary.
	// Returns the number of bytes written and any error encountered.
	Write(view *View) (int, error)

	// WriteHistory outputs a listing of saved runs, newest first.
	WriteHistory(entries []HistoryEntry) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the view to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(view *View) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(view)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(entries []HistoryEntry) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(entries)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
