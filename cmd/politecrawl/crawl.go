package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/politecrawl/internal/config"
	"github.com/nao1215/politecrawl/internal/crawler"
	"github.com/nao1215/politecrawl/internal/log"
	"github.com/nao1215/politecrawl/internal/report"
	"github.com/nao1215/politecrawl/internal/store"
	"github.com/nao1215/politecrawl/internal/transport"
)

// ErrRunAborted is returned when the crawl ended Aborted. The result page is
// still printed before it is returned.
var ErrRunAborted = errors.New("crawl aborted")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <start-url>",
		Short: "Crawl a site from a start URL",
		Long: `Crawl fetches pages breadth-first from the start URL.

Before fetching a page politecrawl checks the robots.txt of its domain and
skips disallowed URLs. Fetches are spaced by --rate requests per second. The
crawl expands links up to --depth hops and processes at most --max-pages
frontier entries, skipped pages included.

When the crawl ends one page of the result log is printed (10 lines per page).
Progress is written to stderr while the crawl runs.

Examples:
  # Crawl two levels deep, at most 50 pages
  politecrawl crawl https://example.com/

  # Stay on the start page and print every result line
  politecrawl crawl --depth 0 --all https://example.com/

  # Faster crawl, print page 3 of the results
  politecrawl crawl --rate 4 --page 3 https://example.com/

  # Save the run so it can be viewed later with 'politecrawl show'
  politecrawl crawl --save https://example.com/

  # Route requests through a local SOCKS5 proxy
  politecrawl crawl --proxy 127.0.0.1:1080 https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl bounds
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum number of link hops from the start URL")
	cmd.Flags().IntP("max-pages", "p", config.DefaultPageLimit,
		"Maximum number of pages processed, skipped pages included")
	cmd.Flags().Float64P("rate", "r", config.DefaultRatePerSecond,
		"Page fetches per second (0 disables the limit)")
	cmd.Flags().Bool("dedup", false,
		"Queue each URL at most once")
	cmd.Flags().Bool("refetch-links", false,
		"Fetch each expanded page a second time for link discovery")

	// Request behavior
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent sent with requests and matched against robots.txt")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("robots-scheme", config.DefaultRobotsScheme,
		"Scheme used to request robots.txt (https or http)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .politecrawl in current or home directory)")

	// Result output
	cmd.Flags().IntP("page", "n", 1,
		"Result page to print (clamped to the valid range)")
	cmd.Flags().Bool("all", false,
		"Print every result line instead of one page")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence
	cmd.Flags().Bool("save", false,
		"Save the run to the database")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if len(args) > 0 {
		cfg.StartURL = args[0]
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.PageLimit, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.RatePerSecond, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Dedup, err = flags.GetBool("dedup"); err != nil {
		return nil, err
	}
	if cfg.RefetchLinks, err = flags.GetBool("refetch-links"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.RobotsScheme, err = flags.GetString("robots-scheme"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.PageNumber, err = flags.GetInt("page"); err != nil {
		return nil, err
	}
	if cfg.AllPages, err = flags.GetBool("all"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, _, err = config.Load(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	// Values from the file apply only where the flag was left at its default.
	if !flags.Changed("user-agent") && cfg.SiteConfigs.Defaults.UserAgent != "" {
		cfg.UserAgent = cfg.SiteConfigs.Defaults.UserAgent
	}
	if !flags.Changed("depth") {
		if depth, ok := cfg.SiteConfigs.GetSiteConfig(hostOf(cfg.StartURL)).MaxDepth(); ok {
			cfg.MaxDepth = depth
		}
	}

	return cfg, nil
}

// hostOf returns the host[:port] of rawURL, or "" if it does not parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// runCrawl executes the crawl and prints the requested result page to out.
// Progress lines go to progress.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out, progress io.Writer) error {
	if cfg.ProxyAddress != "" {
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy %s: %w", cfg.ProxyAddress, status.Err())
		}
	}

	client, err := transport.NewHTTPClient(transportOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var db *store.Store
	if cfg.SaveToDB {
		db, err = store.Open(cfg.DBDir, store.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	digests := &digestCollector{}
	opts := []crawler.Option{
		crawler.WithLogger(logger),
		crawler.WithRobotsScheme(cfg.RobotsScheme),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFilter(buildFilter(cfg.SiteConfigs)),
	}
	if db != nil {
		opts = append(opts, crawler.WithPageObserver(digests.observe))
	}
	engine := crawler.NewEngine(client, opts...)

	run, err := engine.Start(ctx, crawlerConfig(cfg))
	if err != nil {
		return err
	}

	var summary crawler.Summary
	var g errgroup.Group
	g.Go(func() error {
		summary, _ = run.Wait() // summary.Err carries the abort cause
		return nil
	})
	g.Go(func() error {
		return printProgress(progress, run.Events())
	})
	if err := g.Wait(); err != nil {
		logger.Warn("failed to write progress", "error", err)
	}

	var runID int64
	if db != nil {
		// Save even when the crawl was interrupted; the partial log is kept.
		saveCtx := context.WithoutCancel(ctx)
		runID, err = db.SaveRun(saveCtx, summary, engine.Log().Results())
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		if err := db.SaveDigests(saveCtx, runID, digests.list()); err != nil {
			return fmt.Errorf("failed to save page digests: %w", err)
		}
		logger.Info("run saved", "id", runID)
		fmt.Fprintf(progress, "Saved as run #%d\n", runID)
	}

	var view *report.View
	if cfg.AllPages {
		view = report.NewFullView(summary, engine.Log())
	} else {
		view = report.NewPageView(summary, engine.Log(), cfg.PageNumber, cfg.PageSize)
	}
	view.RunID = runID

	if err := writeReport(cfg, out, func(w report.Writer) error {
		_, err := w.Write(view)
		return err
	}); err != nil {
		return err
	}

	if summary.State == crawler.StateAborted {
		return fmt.Errorf("%w: %w", ErrRunAborted, summary.Err)
	}
	return nil
}

// crawlerConfig extracts the engine's run parameters.
func crawlerConfig(cfg *config.Config) crawler.Config {
	return crawler.Config{
		StartURL:      cfg.StartURL,
		MaxDepth:      cfg.MaxDepth,
		PageLimit:     cfg.PageLimit,
		RatePerSecond: cfg.RatePerSecond,
		UserAgent:     cfg.UserAgent,
		Dedup:         cfg.Dedup,
		RefetchLinks:  cfg.RefetchLinks,
	}
}

// transportOptions converts timeouts, proxy and site settings into HTTP
// client options. A site's own userAgent is sent as its User-Agent header.
func transportOptions(cfg *config.Config) []transport.Option {
	opts := []transport.Option{transport.WithTimeout(cfg.Timeout)}
	if cfg.ProxyAddress != "" {
		opts = append(opts, transport.WithProxy(cfg.ProxyAddress))
	}

	cf := cfg.SiteConfigs
	if cf == nil {
		return opts
	}

	opts = append(opts, transport.WithDefaultSite(transport.Site{
		Cookie:  cf.Defaults.Cookie,
		Headers: cf.Defaults.Headers,
	}))

	sites := make(map[string]transport.Site, len(cf.Sites))
	for _, host := range cf.Hosts() {
		merged := cf.GetSiteConfig(host)
		headers := merged.Headers
		if ua := cf.Sites[host].UserAgent; ua != "" {
			if headers == nil {
				headers = make(map[string]string)
			}
			headers["User-Agent"] = ua
		}
		sites[host] = transport.Site{Cookie: merged.Cookie, Headers: headers}
	}
	return append(opts, transport.WithSites(sites))
}

// buildFilter turns skip flags and path patterns into a crawl filter.
func buildFilter(cf *config.File) crawler.Filter {
	if cf == nil {
		return crawler.Filter{}
	}

	f := crawler.Filter{
		SkipHosts:      cf.SkipHosts(),
		IgnorePatterns: cf.Defaults.IgnorePatterns,
		FollowPatterns: cf.Defaults.FollowPatterns,
	}
	for _, host := range cf.Hosts() {
		site := cf.Sites[host]
		if len(site.IgnorePatterns) == 0 && len(site.FollowPatterns) == 0 {
			continue
		}
		if f.Hosts == nil {
			f.Hosts = make(map[string]crawler.Patterns)
		}
		merged := cf.GetSiteConfig(host)
		f.Hosts[host] = crawler.Patterns{Ignore: merged.IgnorePatterns, Follow: merged.FollowPatterns}
	}
	return f
}

// printProgress writes one line per processed frontier entry until the run
// closes its event channel.
func printProgress(w io.Writer, events <-chan crawler.Event) error {
	var werr error
	for ev := range events {
		if werr != nil {
			continue
		}
		_, werr = fmt.Fprintf(w, "[%d/%d] depth %d %-7s %s\n", ev.PagesCrawled, ev.PageLimit, ev.Depth, ev.Kind, ev.URL)
	}
	return werr
}

// digestCollector records a digest of every page body the engine fetched.
type digestCollector struct {
	mu      sync.Mutex
	digests []store.PageDigest
}

func (c *digestCollector) observe(pageURL string, body []byte) {
	d := store.PageDigest{URL: pageURL, Digest: store.Digest(body), Size: len(body)}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digests = append(c.digests, d)
}

func (c *digestCollector) list() []store.PageDigest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.PageDigest(nil), c.digests...)
}
