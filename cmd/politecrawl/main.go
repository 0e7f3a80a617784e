// Package main provides the entry point for the politecrawl CLI.
//
// politecrawl is a bounded, polite web crawler. It honors robots.txt, spaces
// its requests, and stops at a configured depth and page budget. Every title,
// link, skip and error it encounters becomes one line of a paged result log.
//
// Usage:
//
//	politecrawl crawl https://example.com/
//	politecrawl crawl --depth 1 --max-pages 20 --page 2 https://example.com/
//	politecrawl history
//	politecrawl show 3 --page 2
//
// See --help for all available options.
package main

func main() {
	Execute()
}
