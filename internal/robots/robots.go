// Package robots enforces robots.txt policies for a crawl session.
package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// ErrRobotsUnavailable is returned when a domain's robots.txt cannot be
// obtained. A domain in this state is never considered fetchable.
var ErrRobotsUnavailable = errors.New("robots.txt unavailable")

// maxRobotsSize caps how much of a robots.txt file is read.
const maxRobotsSize = 512 * 1024

// Gate answers "may agent A fetch URL X?" for every domain seen in a session.
// Policies are fetched lazily, once per domain, and cached until the Gate is
// discarded. Lookups are safe for concurrent use.
type Gate struct {
	client *http.Client
	scheme string
	agent  string
	logger *slog.Logger

	mu       sync.RWMutex
	policies map[string]policy
}

// policy is the cached outcome of loading one domain's robots.txt.
type policy struct {
	data *robotstxt.RobotsData
	err  error
}

// Option configures a Gate.
type Option func(*Gate)

// WithScheme sets the scheme used to build robots.txt URLs. Default "https".
func WithScheme(scheme string) Option {
	return func(g *Gate) {
		if scheme != "" {
			g.scheme = strings.ToLower(scheme)
		}
	}
}

// WithUserAgent sets the User-Agent header sent with robots.txt requests.
func WithUserAgent(ua string) Option {
	return func(g *Gate) {
		g.agent = ua
	}
}

// WithLogger sets the logger used for policy loading diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a Gate that fetches robots.txt files with client.
func NewGate(client *http.Client, opts ...Option) *Gate {
	if client == nil {
		client = http.DefaultClient
	}
	g := &Gate{
		client:   client,
		scheme:   "https",
		policies: make(map[string]policy),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// LoadForDomain fetches and parses <scheme>://<domain>/robots.txt, replacing
// any cached policy for the domain. The failure, if any, is cached too.
//
// Response status handling matches common robots parsers:
//   - 2xx: the body is parsed
//   - 401, 403: everything is disallowed
//   - other 4xx: everything is allowed (no robots.txt)
//   - 5xx: everything is disallowed
func (g *Gate) LoadForDomain(ctx context.Context, domain string) error {
	domain = normalizeDomain(domain)
	if domain == "" {
		return fmt.Errorf("%w: empty domain", ErrRobotsUnavailable)
	}

	data, err := g.fetch(ctx, domain)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrRobotsUnavailable, domain, err)
	}

	g.mu.Lock()
	g.policies[domain] = policy{data: data, err: err}
	g.mu.Unlock()

	if err != nil {
		g.logger.Warn("robots policy unavailable", "domain", domain, "error", err)
		return err
	}
	g.logger.Debug("robots policy loaded", "domain", domain)
	return nil
}

// Ensure loads the policy for domain unless one (or a failure) is already cached.
func (g *Gate) Ensure(ctx context.Context, domain string) error {
	domain = normalizeDomain(domain)

	g.mu.RLock()
	p, ok := g.policies[domain]
	g.mu.RUnlock()
	if ok {
		return p.err
	}
	return g.LoadForDomain(ctx, domain)
}

// Loaded reports whether a policy for domain was loaded successfully.
func (g *Gate) Loaded(domain string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.policies[normalizeDomain(domain)]
	return ok && p.err == nil
}

// CanFetch reports whether userAgent may fetch rawURL.
// The most specific User-agent group matching userAgent applies, falling back
// to "*". URLs on domains without a successfully loaded policy are refused.
func (g *Gate) CanFetch(rawURL, userAgent string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}

	g.mu.RLock()
	p, ok := g.policies[normalizeDomain(u.Host)]
	g.mu.RUnlock()
	if !ok || p.err != nil || p.data == nil {
		return false
	}

	return p.data.TestAgent(requestPath(u), userAgent)
}

// fetch retrieves and parses one robots.txt file.
func (g *Gate) fetch(ctx context.Context, domain string) (*robotstxt.RobotsData, error) {
	robotsURL := g.scheme + "://" + domain + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if g.agent != "" {
		req.Header.Set("User-Agent", g.agent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// robotstxt maps every 4xx to allow-all; access errors mean the opposite.
		return robotstxt.FromStatusAndBytes(http.StatusServiceUnavailable, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return data, nil
}

// requestPath returns the path and query robots rules are matched against.
func requestPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
