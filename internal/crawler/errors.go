package crawler

import (
	"errors"

	"github.com/nao1215/politecrawl/internal/robots"
)

var (
	// ErrInvalidStartURL is returned when the start URL cannot be crawled.
	ErrInvalidStartURL = errors.New("invalid start URL")

	// ErrRobotsUnavailable is returned when the start domain's robots.txt
	// cannot be obtained.
	ErrRobotsUnavailable = robots.ErrRobotsUnavailable

	// ErrAlreadyRunning is returned by Start while another run is active.
	ErrAlreadyRunning = errors.New("a crawl is already running")

	// ErrInvalidConfig is returned for crawl configurations out of range.
	ErrInvalidConfig = errors.New("invalid crawl configuration")

	// ErrCanceled is returned when a run is aborted by its context.
	ErrCanceled = errors.New("crawl canceled")
)
