package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nao1215/politecrawl/internal/fetcher"
	"github.com/nao1215/politecrawl/internal/frontier"
	"github.com/nao1215/politecrawl/internal/parser"
	"github.com/nao1215/politecrawl/internal/ratelimit"
	"github.com/nao1215/politecrawl/internal/resultlog"
	"github.com/nao1215/politecrawl/internal/robots"
)

// Failure kinds recorded for errors that do not come from the fetcher.
const (
	failureRobots   = "robots_unavailable"
	failureParse    = "parse"
	failureCanceled = "canceled"
)

// Dedup visited-set sizing.
const (
	visitedPerPage = 64
	visitedFPRate  = 0.001
)

// PageObserver is called with the body of every page fetched with status 200.
type PageObserver func(pageURL string, body []byte)

// Engine runs one crawl at a time and keeps the result log of the last run.
type Engine struct {
	client       *http.Client
	fetcher      fetcher.PageFetcher
	fetcherOpts  []fetcher.Option
	robotsScheme string
	filter       Filter
	observer     PageObserver
	logger       *slog.Logger

	log *resultlog.Log

	mu    sync.Mutex
	state State
	tally *tally
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFetcher replaces the HTTP page fetcher.
func WithFetcher(f fetcher.PageFetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithRobotsScheme sets the scheme used for robots.txt URLs. Default "https".
func WithRobotsScheme(scheme string) Option {
	return func(e *Engine) {
		e.robotsScheme = scheme
	}
}

// WithMaxBodySize limits the body bytes kept per fetched page.
func WithMaxBodySize(size int64) Option {
	return func(e *Engine) {
		e.fetcherOpts = append(e.fetcherOpts, fetcher.WithMaxBodySize(size))
	}
}

// WithHeaders adds request headers sent with every page fetch.
func WithHeaders(headers map[string]string) Option {
	return func(e *Engine) {
		e.fetcherOpts = append(e.fetcherOpts, fetcher.WithHeaders(headers))
	}
}

// WithFilter sets host and path rules applied before robots.txt.
func WithFilter(f Filter) Option {
	return func(e *Engine) {
		e.filter = f
	}
}

// WithPageObserver registers a callback for fetched page bodies.
func WithPageObserver(observer PageObserver) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

// NewEngine creates an idle Engine that sends requests with client.
func NewEngine(client *http.Client, opts ...Option) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	e := &Engine{
		client:       client,
		robotsScheme: "https",
		log:          resultlog.New(),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.fetcher == nil {
		e.fetcher = fetcher.New(client, e.fetcherOpts...)
	}
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Log returns the result log. It is safe to read while a run is in progress.
func (e *Engine) Log() *resultlog.Log {
	return e.log
}

// Summary returns the counters of the current or last run.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tally == nil {
		return Summary{State: e.state}
	}
	s := e.tally.snapshot()
	s.State = e.state
	return s
}

// Run crawls synchronously and returns the final summary. A non-nil error
// means the run was aborted; the log still holds everything recorded.
func (e *Engine) Run(ctx context.Context, cfg Config) (Summary, error) {
	r, err := e.Start(ctx, cfg)
	if err != nil {
		return Summary{}, err
	}
	return r.Wait()
}

// Start begins a run on a new goroutine. It fails with ErrAlreadyRunning if
// a run is active, or ErrInvalidConfig if cfg is out of range.
func (e *Engine) Start(ctx context.Context, cfg Config) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r := newRun()
	e.state = StateRunning
	e.tally = newTally(cfg, time.Now())
	e.log.Reset()
	e.mu.Unlock()

	go e.run(ctx, cfg, r)
	return r, nil
}

// session holds the per-run collaborators.
type session struct {
	cfg     Config
	agent   string
	front   *frontier.Frontier
	gate    *robots.Gate
	limiter *ratelimit.Limiter
	run     *Run
	crawled int
}

func (e *Engine) run(ctx context.Context, cfg Config, r *Run) {
	s := &session{cfg: cfg, agent: cfg.userAgent(), run: r}
	e.logger.Info("crawl started", "url", cfg.StartURL, "maxDepth", cfg.MaxDepth, "pageLimit", cfg.PageLimit)

	err := e.crawl(ctx, s)
	state := StateCompleted
	if err != nil {
		state = StateAborted
	}

	e.log.Freeze()

	e.mu.Lock()
	e.state = state
	e.tally.summary.PagesCrawled = s.crawled
	e.tally.summary.FinishedAt = time.Now()
	e.tally.summary.Err = err
	summary := e.tally.snapshot()
	summary.State = state
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("crawl aborted", "url", cfg.StartURL, "pages", s.crawled, "error", err)
	} else {
		e.logger.Info("crawl completed", "url", cfg.StartURL, "pages", s.crawled, "results", summary.Results)
	}
	r.finish(summary)
}

// crawl performs setup and the main loop. A returned error aborts the run.
func (e *Engine) crawl(ctx context.Context, s *session) error {
	start, err := url.Parse(s.cfg.StartURL)
	if err != nil || (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		e.record(resultlog.FetchError(s.cfg.StartURL, string(fetcher.KindInvalidURL),
			fmt.Sprintf("invalid start URL %q", s.cfg.StartURL)))
		return fmt.Errorf("%w: %q", ErrInvalidStartURL, s.cfg.StartURL)
	}

	s.gate = robots.NewGate(e.client,
		robots.WithScheme(e.robotsScheme),
		robots.WithUserAgent(s.agent),
		robots.WithLogger(e.logger),
	)
	if err := s.gate.Ensure(ctx, start.Host); err != nil {
		if ctx.Err() != nil {
			return e.cancel(ctx)
		}
		e.record(resultlog.FetchError(s.cfg.StartURL, failureRobots, err.Error()))
		return err
	}

	var frontOpts []frontier.Option
	if s.cfg.Dedup {
		frontOpts = append(frontOpts, frontier.WithVisitedSet(uint(s.cfg.PageLimit*visitedPerPage), visitedFPRate))
	}
	s.front = frontier.New(s.cfg.MaxDepth, frontOpts...)
	s.front.Push(s.cfg.StartURL, 0)
	s.limiter = ratelimit.New(s.cfg.RatePerSecond)

	for s.crawled < s.cfg.PageLimit {
		if ctx.Err() != nil {
			return e.cancel(ctx)
		}

		entry, err := s.front.PopNext()
		if errors.Is(err, frontier.ErrEmptyFrontier) {
			return nil
		}
		s.crawled++
		e.mu.Lock()
		e.tally.summary.PagesCrawled = s.crawled
		e.mu.Unlock()

		kind, err := e.visit(ctx, s, entry)
		if err != nil {
			return err
		}
		s.run.emit(Event{
			URL:          entry.URL,
			Depth:        entry.Depth,
			PagesCrawled: s.crawled,
			PageLimit:    s.cfg.PageLimit,
			Kind:         kind,
		})
	}
	return nil
}

// visit processes one frontier entry and returns the kind of its first
// result. Only cancellation produces an error.
func (e *Engine) visit(ctx context.Context, s *session, entry frontier.Entry) (resultlog.Kind, error) {
	logger := e.logger.With("url", entry.URL, "depth", entry.Depth)

	if !e.filter.empty() {
		if reason := e.filter.Check(entry.URL); reason != "" {
			logger.Debug("skipped by filter", "reason", reason)
			e.record(resultlog.Skipped(entry.URL, reason))
			return resultlog.KindSkipped, nil
		}
	}

	u, err := url.Parse(entry.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		// Rejected without a request, so no rate limiter slot is spent.
		logger.Debug("not an http(s) URL")
		e.record(resultlog.FetchError(entry.URL, string(fetcher.KindInvalidURL),
			fmt.Sprintf("unsupported URL %q", entry.URL)))
		return resultlog.KindFetchError, nil
	}
	if err := s.gate.Ensure(ctx, u.Host); err != nil {
		if ctx.Err() != nil {
			return "", e.cancel(ctx)
		}
		logger.Warn("robots policy unavailable, skipping", "domain", u.Host)
		e.record(resultlog.Skipped(entry.URL, resultlog.ReasonRobotsUnavailable))
		return resultlog.KindSkipped, nil
	}
	if !s.gate.CanFetch(entry.URL, s.agent) {
		logger.Debug("disallowed by robots.txt")
		e.record(resultlog.Skipped(entry.URL, resultlog.ReasonRobotsDisallowed))
		return resultlog.KindSkipped, nil
	}

	out, err := e.fetch(ctx, s, entry.URL)
	if err != nil {
		return "", err
	}
	if !out.OK() {
		logger.Warn("fetch failed", "kind", out.Err.Kind, "status", out.StatusCode, "error", out.Err.Message)
		e.record(resultlog.FetchError(entry.URL, string(out.Err.Kind), out.Err.Message))
		return resultlog.KindFetchError, nil
	}
	if out.Truncated {
		logger.Warn("body exceeded size cap, parsing truncated page", "bytes", len(out.Body))
	}
	if e.observer != nil {
		e.observer(entry.URL, out.Body)
	}

	page, err := parser.Parse(baseURL(out, entry.URL), out.Body)
	if err != nil {
		logger.Warn("parse failed", "error", err)
		e.record(resultlog.FetchError(entry.URL, failureParse, err.Error()))
		return resultlog.KindFetchError, nil
	}

	if page.HasTitle {
		e.record(resultlog.TitleFound(entry.URL, page.Title))
	} else {
		e.record(resultlog.Untitled(entry.URL))
	}
	for _, link := range page.Links {
		e.record(resultlog.LinkFound(entry.URL, link))
	}
	logger.Debug("page crawled", "status", out.StatusCode, "links", len(page.Links))

	if entry.Depth >= s.cfg.MaxDepth {
		return resultlog.KindTitleFound, nil
	}

	links := page.Links
	if s.cfg.RefetchLinks {
		links, err = e.refetchLinks(ctx, s, entry.URL)
		if err != nil {
			return "", err
		}
	}
	for _, link := range links {
		s.front.Push(link, entry.Depth+1)
	}
	return resultlog.KindTitleFound, nil
}

// fetch waits for the rate limiter and fetches rawURL. The error is non-nil
// only when ctx was canceled.
func (e *Engine) fetch(ctx context.Context, s *session, rawURL string) (fetcher.Outcome, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return fetcher.Outcome{}, e.cancel(ctx)
	}
	out := e.fetcher.Fetch(ctx, rawURL, s.agent)
	if !out.OK() && ctx.Err() != nil {
		return out, e.cancel(ctx)
	}
	return out, nil
}

// refetchLinks downloads rawURL again and returns its links, or none when the
// second fetch does not yield a page.
func (e *Engine) refetchLinks(ctx context.Context, s *session, rawURL string) ([]string, error) {
	out, err := e.fetch(ctx, s, rawURL)
	if err != nil {
		return nil, err
	}
	if !out.OK() {
		return nil, nil
	}
	page, err := parser.Parse(baseURL(out, rawURL), out.Body)
	if err != nil {
		return nil, nil
	}
	return page.Links, nil
}

// baseURL is the URL relative links of a fetched page resolve against.
func baseURL(out fetcher.Outcome, requested string) string {
	if out.FinalURL != "" {
		return out.FinalURL
	}
	return requested
}

// cancel records the cancellation and returns the abort error.
func (e *Engine) cancel(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		// The limiter refuses to wait past the context deadline.
		cause = context.DeadlineExceeded
	}
	err := fmt.Errorf("%w: %w", ErrCanceled, cause)
	e.record(resultlog.FetchError("", failureCanceled, err.Error()))
	return err
}

func (e *Engine) record(r resultlog.Result) {
	if err := e.log.Append(r); err != nil {
		e.logger.Error("dropping result", "error", err)
		return
	}
	e.mu.Lock()
	e.tally.count(r)
	e.mu.Unlock()
}
