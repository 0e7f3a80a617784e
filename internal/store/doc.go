// Package store persists finished crawl runs in SQLite.
//
// A run is saved as one row of counters plus its ordered results, so a saved
// run can be paged exactly like a live result log. Content digests of fetched
// pages are kept per run to let two crawls of the same site be compared.
//
// The database lives in a single file, politecrawl.db, inside the configured
// directory (by default the XDG data directory).
package store
