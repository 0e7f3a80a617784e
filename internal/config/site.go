package config

import (
	"net"
	"sort"
	"strings"
)

// SiteConfig holds site-specific configuration for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the User-Agent header for this site. In the
	// defaults block it replaces the global user agent, which is also the
	// agent matched against robots.txt.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Skip excludes the host from the crawl entirely.
	Skip bool `yaml:"skip,omitempty"`

	// Depth overrides the max depth when this site is the start host.
	// If unset, the global max depth is used. An explicit 0 limits the crawl
	// to the start page.
	Depth *int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path globs to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// MaxDepth returns the configured depth and whether one was set.
func (s SiteConfig) MaxDepth() (int, bool) {
	if s.Depth == nil {
		return 0, false
	}
	return *s.Depth, true
}

// File represents the structure of the .politecrawl configuration file.
type File struct {
	// Sites maps host names (optionally with port) to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains configuration applied to all sites unless
	// overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// host may carry a port; an entry for host:port wins over one for the bare
// host name.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = copyHeaders(cf.Defaults.Headers)

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Depth != nil {
		result.Depth = site.Depth
	}
	if site.Skip {
		result.Skip = true
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	return result
}

// SkipHosts returns the configured hosts marked skip, sorted.
func (cf *File) SkipHosts() []string {
	hosts := make([]string, 0)
	for host, site := range cf.Sites {
		if site.Skip {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)
	return hosts
}

// Hosts returns every host with its own entry, sorted.
func (cf *File) Hosts() []string {
	hosts := make([]string, 0, len(cf.Sites))
	for host := range cf.Sites {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	for key, site := range cf.Sites {
		if strings.ToLower(key) == host {
			return site, true
		}
	}
	if name, _, err := net.SplitHostPort(host); err == nil {
		for key, site := range cf.Sites {
			if strings.ToLower(key) == name {
				return site, true
			}
		}
	}
	return SiteConfig{}, false
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
