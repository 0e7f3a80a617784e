// Package transport builds the HTTP client every crawl request goes through.
//
// The client carries the request timeout and a redirect cap, can route all
// connections through a SOCKS5 proxy, and injects per-site cookies and headers
// configured by the user. Robots.txt and page fetches share the same client so
// a site sees one consistent identity.
package transport
