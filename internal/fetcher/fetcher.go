// Package fetcher performs single page downloads for the crawler.
//
// Fetch never returns a Go error and never panics: every failure is reported
// through Outcome.Err as a *FetchError carrying one of the FailureKind values.
// Only status 200 is considered crawlable; any other status is reported as
// KindNonOKStatus while still exposing the status code and body.
package fetcher

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// DefaultMaxBodySize caps how many body bytes are kept per page.
const DefaultMaxBodySize = 5 * 1024 * 1024

// FailureKind classifies why a fetch produced no crawlable page.
type FailureKind string

const (
	// KindNetwork covers connection, TLS and body read failures.
	KindNetwork FailureKind = "network"
	// KindTimeout is a request that hit its deadline.
	KindTimeout FailureKind = "timeout"
	// KindInvalidURL is a URL that cannot be requested at all.
	KindInvalidURL FailureKind = "invalid_url"
	// KindNonOKStatus is a response whose status code is not 200.
	KindNonOKStatus FailureKind = "non_ok_status"
)

// FetchError describes a failed fetch.
type FetchError struct {
	Kind       FailureKind
	URL        string
	StatusCode int
	Message    string
}

// Error implements error.
func (e *FetchError) Error() string {
	return e.Message
}

// Outcome is the result of one fetch. Err is nil exactly when the response
// had status 200 and its body was read completely.
type Outcome struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Err         *FetchError

	// Truncated is set when the decoded body exceeded the size cap and only
	// the first maxBodySize bytes were kept.
	Truncated bool
}

// OK reports whether the outcome is a crawlable page.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// PageFetcher is the contract the crawl engine depends on.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL, userAgent string) Outcome
}

// HTTPFetcher implements PageFetcher with net/http.
type HTTPFetcher struct {
	client      *http.Client
	maxBodySize int64
	headers     map[string]string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithMaxBodySize limits the number of decoded body bytes kept per page.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders adds extra request headers to every fetch.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// New creates an HTTPFetcher using client.
func New(client *http.Client, opts ...Option) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
		headers:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the underlying HTTP client so robots.txt requests can share it.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

// Fetch performs a GET of rawURL with the given User-Agent.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, userAgent string) Outcome {
	out := Outcome{URL: rawURL, FinalURL: rawURL}

	u, err := url.Parse(rawURL)
	if err != nil {
		out.Err = newError(KindInvalidURL, rawURL, 0, fmt.Sprintf("invalid URL %q: %v", rawURL, err))
		return out
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		out.Err = newError(KindInvalidURL, rawURL, 0, fmt.Sprintf("unsupported URL scheme %q: %s", u.Scheme, rawURL))
		return out
	}
	if u.Host == "" {
		out.Err = newError(KindInvalidURL, rawURL, 0, fmt.Sprintf("missing host in URL %q", rawURL))
		return out
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		out.Err = newError(KindInvalidURL, rawURL, 0, fmt.Sprintf("build request for %q: %v", rawURL, err))
		return out
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		out.Err = classify(ctx, rawURL, err)
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.ContentType = resp.Header.Get("Content-Type")
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}

	body, truncated, err := f.readBody(resp)
	if err != nil {
		out.Err = classify(ctx, rawURL, err)
		out.Err.StatusCode = resp.StatusCode
		return out
	}
	out.Body = body
	out.Truncated = truncated

	if resp.StatusCode != http.StatusOK {
		out.Err = newError(KindNonOKStatus, rawURL, resp.StatusCode,
			fmt.Sprintf("unexpected status %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), rawURL))
	}
	return out
}

// readBody decodes Content-Encoding, caps the size and converts to UTF-8.
// truncated reports whether bytes beyond the cap were dropped.
func (f *HTTPFetcher) readBody(resp *http.Response) (body []byte, truncated bool, err error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		dr, err := newDeflateReader(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("deflate decode: %w", err)
		}
		defer dr.Close()
		reader = dr
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	raw, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > f.maxBodySize {
		raw = raw[:f.maxBodySize]
		truncated = true
	}

	decoded := toUTF8(resp.Header.Get("Content-Type"), raw)
	return decoded, truncated, nil
}

// newDeflateReader decodes an HTTP "deflate" body. The coding is zlib-wrapped,
// but some servers send a raw DEFLATE stream, so the zlib header is checked
// first.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader reports whether cmf and flg form an RFC 1950 header using
// the DEFLATE method.
func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// toUTF8 converts an HTML body to UTF-8. Other bodies, and bodies with an
// unknown charset label, are returned unchanged.
func toUTF8(contentType string, raw []byte) []byte {
	if !isHTML(contentType, raw) {
		return raw
	}
	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return raw
	}
	return decoded
}

// isHTML reports whether the body should go through charset detection.
func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		return len(body) > 0
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// classify maps a transport error onto a FailureKind.
func classify(ctx context.Context, rawURL string, err error) *FetchError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return newError(KindTimeout, rawURL, 0, fmt.Sprintf("timeout fetching %s: %v", rawURL, err))
	case errors.As(err, &netErr) && netErr.Timeout():
		return newError(KindTimeout, rawURL, 0, fmt.Sprintf("timeout fetching %s: %v", rawURL, err))
	default:
		return newError(KindNetwork, rawURL, 0, fmt.Sprintf("network error fetching %s: %v", rawURL, err))
	}
}

func newError(kind FailureKind, rawURL string, status int, msg string) *FetchError {
	return &FetchError{Kind: kind, URL: rawURL, StatusCode: status, Message: msg}
}
