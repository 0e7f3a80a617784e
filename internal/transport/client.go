package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// DefaultMaxRedirects is the redirect cap applied to every request.
const DefaultMaxRedirects = 10

// Site holds credentials and headers injected into requests for one host.
type Site struct {
	Cookie  string
	Headers map[string]string
}

func (s Site) empty() bool {
	return s.Cookie == "" && len(s.Headers) == 0
}

type options struct {
	timeout      time.Duration
	proxyAddress string
	maxRedirects int
	defaults     Site
	sites        map[string]Site
}

// Option configures NewHTTPClient.
type Option func(*options)

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithProxy routes every connection through the SOCKS5 proxy at address
// (host:port). An empty address disables the proxy.
func WithProxy(address string) Option {
	return func(o *options) {
		o.proxyAddress = address
	}
}

// WithMaxRedirects sets how many redirects are followed before the last
// response is returned as is.
func WithMaxRedirects(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRedirects = n
		}
	}
}

// WithDefaultSite sets the cookie and headers sent to hosts without their own
// Site entry.
func WithDefaultSite(site Site) Option {
	return func(o *options) {
		o.defaults = site
	}
}

// WithSites sets per-host cookies and headers. Keys are host names, optionally
// with a port.
func WithSites(sites map[string]Site) Option {
	return func(o *options) {
		for host, site := range sites {
			o.sites[strings.ToLower(host)] = site
		}
	}
}

// NewHTTPClient creates the crawl HTTP client.
// It returns ErrInvalidProxyAddress for a malformed proxy address; the proxy
// itself is not contacted (see CheckProxy).
func NewHTTPClient(opts ...Option) (*http.Client, error) {
	o := &options{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		sites:        make(map[string]Site),
	}
	for _, opt := range opts {
		opt(o)
	}

	transport := &http.Transport{
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if o.proxyAddress != "" {
		if !isValidProxyAddress(o.proxyAddress) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, o.proxyAddress)
		}
		// No auth: the proxy is expected to be a local SOCKS port.
		dialer, err := proxy.SOCKS5("tcp", o.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = dialContext(dialer)
	} else {
		transport.DialContext = (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	}

	var rt http.RoundTripper = transport
	if !o.defaults.empty() || len(o.sites) > 0 {
		rt = &headerInjectingTransport{base: transport, defaults: o.defaults, sites: o.sites}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	maxRedirects := o.maxRedirects
	return &http.Client{
		Transport: rt,
		Timeout:   o.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type result struct {
			conn net.Conn
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- result{conn, err}
		}()
		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isValidProxyAddress checks for host:port with a port in 1-65535.
// Bracketed IPv6 hosts are accepted.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
