// Package crawler runs bounded, polite crawls.
//
// # Architecture
//
// An Engine owns everything a crawl mutates: the frontier, the result log and
// the page counter. Each run wires together the leaf components:
//
//   - frontier.Frontier orders pending (URL, depth) entries, lowest depth first
//   - robots.Gate loads each domain's robots.txt lazily and answers CanFetch
//   - ratelimit.Limiter spaces outbound page fetches globally
//   - fetcher.PageFetcher performs the GET and classifies failures
//   - parser.Parse extracts the title and outbound links
//
// # States
//
// An engine starts Idle. Start moves it to Running, and the run ends Completed
// (frontier empty or page budget spent) or Aborted (invalid start URL, robots
// policy for the start domain unobtainable, or cancellation). The result log
// is frozen when a run ends and cleared when the next one starts.
//
// # Page budget
//
// Every entry popped from the frontier consumes one unit of the page limit,
// whether it is fetched, fails, or is skipped.
//
// # Usage
//
//	engine := crawler.NewEngine(httpClient, crawler.WithLogger(logger))
//	summary, err := engine.Run(ctx, crawler.Config{
//		StartURL:  "https://example.com/",
//		MaxDepth:  1,
//		PageLimit: 10,
//	})
//	lines := engine.Log().Page(1, resultlog.PageSize)
package crawler
