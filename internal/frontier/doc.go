// Package frontier implements the pending work queue of a crawl.
//
// A Frontier holds (URL, depth) entries and always hands out the entry with
// the lowest depth first, breaking ties in the order entries were pushed.
// Entries deeper than the configured maximum depth are dropped at push time.
//
// The default Frontier performs no deduplication: a URL linked from several
// pages is queued (and later fetched) once per link. WithVisitedSet enables a
// stricter variant that queues each URL at most once per run.
package frontier
