package crawler

import "fmt"

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "politecrawl/1.0 (+https://github.com/nao1215/politecrawl)"

// Config describes one crawl invocation. It is copied when a run starts.
type Config struct {
	// StartURL is the seed URL, crawled at depth 0.
	StartURL string

	// MaxDepth is the number of link hops followed from the seed.
	// 0 crawls only the seed.
	MaxDepth int

	// PageLimit is the maximum number of frontier entries processed.
	PageLimit int

	// RatePerSecond is the global page fetch rate. 0 means unlimited.
	RatePerSecond float64

	// UserAgent is sent with every request and used for robots.txt matching.
	UserAgent string

	// Dedup queues each URL at most once per run.
	Dedup bool

	// RefetchLinks fetches each page a second time to discover its links,
	// doubling request count like the classic crawl loop.
	RefetchLinks bool
}

// Validate checks the numeric bounds. The start URL is checked when the run
// starts, since an unusable start URL aborts the run rather than rejecting it.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must be >= 0, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.PageLimit < 1 {
		return fmt.Errorf("%w: page limit must be >= 1, got %d", ErrInvalidConfig, c.PageLimit)
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("%w: rate must be >= 0, got %g", ErrInvalidConfig, c.RatePerSecond)
	}
	return nil
}

func (c Config) userAgent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}
