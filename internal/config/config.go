package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "politecrawl"

	// DefaultMaxDepth follows links two hops away from the start page.
	DefaultMaxDepth = 2

	// DefaultPageLimit is the maximum number of frontier entries processed.
	DefaultPageLimit = 50

	// DefaultRatePerSecond is one page fetch per second, shared by all hosts.
	DefaultRatePerSecond = 1.0

	// DefaultUserAgent identifies politecrawl in HTTP requests and is the
	// agent matched against robots.txt groups.
	DefaultUserAgent = "politecrawl/1.0 (+https://github.com/nao1215/politecrawl)"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body size kept per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultPageSize is the number of result lines per display page.
	DefaultPageSize = 10

	// DefaultRobotsScheme is the scheme used to request robots.txt.
	DefaultRobotsScheme = "https"
)

// Config holds all configuration options for politecrawl.
// It is populated from CLI flags and the optional configuration file and is
// passed through the application rather than kept as global state.
type Config struct {
	// StartURL is the seed URL of the crawl.
	StartURL string

	// MaxDepth is the maximum number of link hops from the start URL.
	// Depth 0 means only fetch the start page.
	MaxDepth int

	// PageLimit is the maximum number of pages processed, skipped pages included.
	PageLimit int

	// RatePerSecond is the global page fetch rate. 0 disables the limit.
	RatePerSecond float64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to keep.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// Dedup queues each URL at most once per crawl.
	Dedup bool

	// RefetchLinks fetches every expanded page a second time to discover its
	// links, matching the request pattern of the classic crawl loop.
	RefetchLinks bool

	// RobotsScheme is the scheme robots.txt is requested over, "https"
	// unless a site only serves plain HTTP.
	RobotsScheme string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// PageNumber is the result page printed after the crawl, 1-based.
	// Out-of-range values are clamped.
	PageNumber int

	// PageSize is the number of result lines per page.
	PageSize int

	// AllPages prints every result line instead of a single page.
	AllPages bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .politecrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables GitHub Flavored Markdown output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite database of saved runs.
	// Defaults to XDG data directory (~/.local/share/politecrawl on Linux).
	DBDir string

	// SaveToDB stores the finished run in the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:      DefaultMaxDepth,
		PageLimit:     DefaultPageLimit,
		RatePerSecond: DefaultRatePerSecond,
		UserAgent:     DefaultUserAgent,
		Timeout:       DefaultTimeout,
		MaxBodySize:   DefaultMaxBodySize,
		PageNumber:    1,
		PageSize:      DefaultPageSize,
		RobotsScheme:  DefaultRobotsScheme,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for politecrawl.
// On Linux: ~/.local/share/politecrawl
// On macOS: ~/Library/Application Support/politecrawl
// On Windows: %LOCALAPPDATA%\politecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for politecrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.PageLimit < 1 {
		return ErrInvalidPageLimit
	}
	if c.RatePerSecond < 0 {
		return ErrInvalidRate
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.RobotsScheme != "http" && c.RobotsScheme != "https" {
		return ErrInvalidRobotsScheme
	}
	return nil
}
