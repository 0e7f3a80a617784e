package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be matched with
// errors.Is by callers that want to react to a specific problem.
var (
	// ErrNoStartURL is returned when no start URL is given.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidDepth is returned when the max depth is negative.
	// Depth 0 is valid and crawls only the start page.
	ErrInvalidDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidPageLimit is returned when the page limit is less than 1.
	ErrInvalidPageLimit = errors.New("invalid page limit: must be at least 1")

	// ErrInvalidRate is returned when the request rate is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidPageSize is returned when the display page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidRobotsScheme is returned when robots.txt would be requested
	// over a scheme other than http or https.
	ErrInvalidRobotsScheme = errors.New("invalid robots.txt scheme: must be http or https")
)
