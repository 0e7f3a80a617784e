// Package report renders crawl results for people and tools.
//
// Writers render two shapes of data:
//   - a View, one page of a run's result log plus the run summary
//   - a run history, the list of saved runs
//
// Three formats are available: SimpleWriter for terminals, MarkdownWriter
// for sharing, and JSONWriter for tool integration. All of them implement
// Writer, so the CLI picks one by flag and never branches on format again.
package report
