package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Skip reasons produced by a Filter.
const (
	ReasonIgnoredPattern = "ignored by pattern"
	ReasonNotFollowed    = "no follow pattern matched"
	ReasonHostSkipped    = "host skipped by configuration"
)

// Filter decides, before robots.txt is consulted, whether a URL is crawled.
// The zero value allows everything.
type Filter struct {
	// SkipHosts lists hosts (host or host:port) that are never fetched.
	SkipHosts []string

	// IgnorePatterns are path globs to skip, e.g. "/admin/*" or "*.pdf".
	IgnorePatterns []string

	// FollowPatterns, when non-empty, restrict the crawl to matching paths.
	FollowPatterns []string

	// Hosts holds per-host pattern sets keyed by host or host:port. A host
	// entry replaces IgnorePatterns and FollowPatterns for that host.
	Hosts map[string]Patterns
}

// Patterns is a per-host set of path globs.
type Patterns struct {
	Ignore []string
	Follow []string
}

// Check returns the skip reason for rawURL, or "" when it may be crawled.
// URLs that do not parse are left for the fetcher to reject.
func (f Filter) Check(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	for _, h := range f.SkipHosts {
		if strings.EqualFold(h, u.Host) || strings.EqualFold(h, u.Hostname()) {
			return ReasonHostSkipped
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	ignore, follow := f.patternsFor(u)
	for _, pattern := range ignore {
		if matchPattern(pattern, path) {
			return ReasonIgnoredPattern
		}
	}

	if len(follow) == 0 {
		return ""
	}
	for _, pattern := range follow {
		if matchPattern(pattern, path) {
			return ""
		}
	}
	return ReasonNotFollowed
}

// patternsFor picks the host entry for host:port, then the bare host name,
// then the global patterns.
func (f Filter) patternsFor(u *url.URL) (ignore, follow []string) {
	for _, key := range []string{u.Host, u.Hostname()} {
		for host, p := range f.Hosts {
			if strings.EqualFold(host, key) {
				return p.Ignore, p.Follow
			}
		}
	}
	return f.IgnorePatterns, f.FollowPatterns
}

func (f Filter) empty() bool {
	return len(f.SkipHosts) == 0 && len(f.IgnorePatterns) == 0 && len(f.FollowPatterns) == 0 && len(f.Hosts) == 0
}

// matchPattern checks if a path matches a glob pattern.
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns use filepath.Match, and slash-free patterns are also
//     tried against the last path segment
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
