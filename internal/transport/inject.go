package transport

import (
	"net/http"
	"strings"
)

// headerInjectingTransport adds the configured cookie and headers of the
// request's host to every request, including redirects.
type headerInjectingTransport struct {
	base     http.RoundTripper
	defaults Site
	sites    map[string]Site
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	site := t.siteFor(req.URL.Host)
	if site.empty() {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if site.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+site.Cookie)
		} else {
			clone.Header.Set("Cookie", site.Cookie)
		}
	}
	for key, value := range site.Headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}

// siteFor looks up host:port first, then the bare host name.
func (t *headerInjectingTransport) siteFor(host string) Site {
	host = strings.ToLower(host)
	if site, ok := t.sites[host]; ok {
		return site
	}
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		if site, ok := t.sites[host[:i]]; ok {
			return site
		}
	}
	return t.defaults
}
