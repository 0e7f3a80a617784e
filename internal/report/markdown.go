package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/politecrawl/internal/crawler"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the view in Markdown format.
func (w *MarkdownWriter) Write(view *View) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, view)
	w.writeBreakdown(md, view.Summary)
	w.writeLines(md, view)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title, run table and status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, view *View) {
	s := view.Summary

	md.H1("Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Start URL", "`" + s.StartURL + "`"},
		{"Status", statusText(s)},
		{"Started", formatTime(s.StartedAt)},
		{"Finished", formatTime(s.FinishedAt)},
		{"Pages Crawled", strconv.Itoa(s.PagesCrawled) + " / " + strconv.Itoa(s.PageLimit)},
		{"Max Depth", strconv.Itoa(s.MaxDepth)},
		{"Distinct Links", "~" + strconv.FormatUint(s.DistinctLinks, 10)},
	}
	if view.RunID != 0 {
		rows = append([][]string{{"Run", "#" + strconv.FormatInt(view.RunID, 10)}}, rows...)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case s.State == crawler.StateAborted:
		md.Cautionf("The crawl was aborted: %s", errorText(s))
	case s.Errors > 0:
		md.Warningf("%d page(s) could not be fetched or parsed.", s.Errors)
	case s.Skipped > 0:
		md.Note(strconv.Itoa(s.Skipped) + " page(s) were skipped by robots.txt or configuration.")
	default:
		md.Tip("Every visited page was fetched successfully.")
	}
	md.PlainText("")
}

// writeBreakdown writes the result counts and a mermaid pie chart.
func (w *MarkdownWriter) writeBreakdown(md *markdown.Markdown, s crawler.Summary) {
	md.H2("Result Breakdown")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows: [][]string{
			{"Titles", strconv.Itoa(s.Titles)},
			{"Links", strconv.Itoa(s.Links)},
			{"Skipped", strconv.Itoa(s.Skipped)},
			{"Errors", strconv.Itoa(s.Errors)},
			{"**Total**", "**" + strconv.Itoa(s.Results) + "**"},
		},
	})
	md.PlainText("")

	if s.Results == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Result Kinds"),
		piechart.WithShowData(true),
	)
	for _, part := range []struct {
		label string
		count int
	}{
		{"Titles", s.Titles},
		{"Links", s.Links},
		{"Skipped", s.Skipped},
		{"Errors", s.Errors},
	} {
		if part.count > 0 {
			chart.LabelAndIntValue(part.label, uint64(part.count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeLines writes the page of result lines as a numbered table.
func (w *MarkdownWriter) writeLines(md *markdown.Markdown, view *View) {
	md.H2("Results (" + pageLabel(view) + ")")
	md.PlainText("")

	if len(view.Lines) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	first := 1
	if !view.All() {
		first = (view.PageNumber-1)*view.PageSize + 1
	}

	rows := make([][]string, len(view.Lines))
	for i, line := range view.Lines {
		rows[i] = []string{strconv.Itoa(first + i), escapeCell(line)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Line"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteHistory outputs saved runs as a Markdown table.
func (w *MarkdownWriter) WriteHistory(entries []HistoryEntry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl History")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No saved runs.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		s := e.Summary
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			"`" + s.StartURL + "`",
			s.State.String(),
			strconv.Itoa(s.PagesCrawled),
			strconv.Itoa(s.Results),
			formatTime(s.StartedAt),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Start URL", "State", "Pages", "Results", "Started"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [politecrawl](https://github.com/nao1215/politecrawl)*")
}

func errorText(s crawler.Summary) string {
	if s.Err == nil {
		return "unknown error"
	}
	return s.Err.Error()
}

// escapeCell keeps result lines from breaking the table layout.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
