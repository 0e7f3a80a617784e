package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/politecrawl/internal/crawler"
	"github.com/nao1215/politecrawl/internal/resultlog"
)

// FileName is the database file name inside the store directory.
const FileName = "politecrawl.db"

var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrDatabaseNotFound is returned by Open when the database file is
	// missing and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")
)

// Store provides SQLite-backed storage for crawl runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ExistingOptions opens only a database that already exists. Read paths use
// it so that listing runs never leaves an empty database behind.
func ExistingOptions() Options {
	return Options{EnableWAL: true}
}

// Open opens or creates the store in dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		state TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		page_limit INTEGER NOT NULL,
		pages_crawled INTEGER NOT NULL,
		results INTEGER NOT NULL,
		titles INTEGER NOT NULL,
		links INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		distinct_links INTEGER NOT NULL,
		error_message TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON runs(start_url);

	-- One row per result line, in log order
	CREATE TABLE IF NOT EXISTS results (
		run_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		url TEXT NOT NULL,
		target TEXT,
		title TEXT,
		has_title INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		message TEXT,
		failure_kind TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS page_digests (
		run_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		digest TEXT NOT NULL,
		size INTEGER NOT NULL,
		PRIMARY KEY (run_id, url)
	);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run.
type RunRecord struct {
	ID            int64
	StartURL      string
	State         crawler.State
	MaxDepth      int
	PageLimit     int
	PagesCrawled  int
	Results       int
	Titles        int
	Links         int
	Skipped       int
	Errors        int
	DistinctLinks uint64
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
	CreatedAt     time.Time
}

// Summary converts the record back into a run summary.
func (r RunRecord) Summary() crawler.Summary {
	s := crawler.Summary{
		StartURL:      r.StartURL,
		State:         r.State,
		MaxDepth:      r.MaxDepth,
		PageLimit:     r.PageLimit,
		PagesCrawled:  r.PagesCrawled,
		Results:       r.Results,
		Titles:        r.Titles,
		Links:         r.Links,
		Skipped:       r.Skipped,
		Errors:        r.Errors,
		DistinctLinks: r.DistinctLinks,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
	if r.ErrorMessage != "" {
		s.Err = errors.New(r.ErrorMessage)
	}
	return s
}

// SaveRun stores a finished run and its results in one transaction and
// returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, summary crawler.Summary, results []resultlog.Result) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var errMsg sql.NullString
	if summary.Err != nil {
		errMsg = sql.NullString{String: summary.Err.Error(), Valid: true}
	}
	var finished sql.NullString
	if !summary.FinishedAt.IsZero() {
		finished = sql.NullString{String: formatTimestamp(summary.FinishedAt), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, state, max_depth, page_limit, pages_crawled, results, titles, links,
		skipped, errors, distinct_links, error_message, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.StartURL, summary.State.String(), summary.MaxDepth, summary.PageLimit, summary.PagesCrawled,
		summary.Results, summary.Titles, summary.Links, summary.Skipped, summary.Errors,
		int64(summary.DistinctLinks), errMsg, formatTimestamp(summary.StartedAt), finished,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO results (run_id, seq, kind, url, target, title, has_title, reason, message, failure_kind)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err = stmt.ExecContext(ctx, id, i, string(r.Kind), r.URL, r.Target, r.Title, r.HasTitle,
			r.Reason, r.Message, r.FailureKind); err != nil {
			return 0, fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, start_url, state, max_depth, page_limit, pages_crawled, results, titles, links,
	skipped, errors, distinct_links, error_message, started_at, finished_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		r          RunRecord
		state      string
		distinct   int64
		errMsg     sql.NullString
		startedAt  string
		finishedAt sql.NullString
		createdAt  string
	)
	if err := row.Scan(&r.ID, &r.StartURL, &state, &r.MaxDepth, &r.PageLimit, &r.PagesCrawled, &r.Results,
		&r.Titles, &r.Links, &r.Skipped, &r.Errors, &distinct, &errMsg, &startedAt, &finishedAt, &createdAt); err != nil {
		return nil, err
	}

	st, err := crawler.ParseState(state)
	if err != nil {
		return nil, err
	}
	r.State = st
	r.DistinctLinks = uint64(distinct) //nolint:gosec // stored from a uint64
	r.ErrorMessage = errMsg.String
	r.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		r.FinishedAt = parseTimestamp(finishedAt.String)
	}
	r.CreatedAt = parseTimestamp(createdAt)
	return &r, nil
}

// GetRun returns the run with the given ID, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Page is one page of a stored run's results.
type Page struct {
	Number  int
	Count   int
	Total   int
	Results []resultlog.Result
}

// Lines renders the page's results.
func (p Page) Lines() []string {
	lines := make([]string, len(p.Results))
	for i, r := range p.Results {
		lines[i] = r.Line()
	}
	return lines
}

// GetPage returns page number of run id. Out-of-range page numbers are
// clamped like resultlog.Log.Page.
func (s *Store) GetPage(ctx context.Context, id int64, number, size int) (Page, error) {
	if size <= 0 {
		size = resultlog.PageSize
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&exists); err != nil {
		return Page{}, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return Page{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results WHERE run_id = ?`, id).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("failed to count results: %w", err)
	}

	number = resultlog.ClampPage(number, total, size)
	start, end := resultlog.Bounds(number, total, size)
	page := Page{
		Number:  number,
		Count:   resultlog.PageCount(total, size),
		Total:   total,
		Results: make([]resultlog.Result, 0, end-start),
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT kind, url, target, title, has_title, reason, message, failure_kind
	FROM results WHERE run_id = ? AND seq >= ? AND seq < ?
	ORDER BY seq`, id, start, end)
	if err != nil {
		return Page{}, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                                       resultlog.Result
			kind                                    string
			target, title, reason, msg, failureKind sql.NullString
		)
		if err := rows.Scan(&kind, &r.URL, &target, &title, &r.HasTitle, &reason, &msg, &failureKind); err != nil {
			return Page{}, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Kind = resultlog.Kind(kind)
		r.Target = target.String
		r.Title = title.String
		r.Reason = reason.String
		r.Message = msg.String
		r.FailureKind = failureKind.String
		page.Results = append(page.Results, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("error iterating results: %w", err)
	}
	return page, nil
}

// PageDigest is the content digest of one fetched page.
type PageDigest struct {
	URL    string
	Digest string
	Size   int
}

// Digest returns the hex SHA3-256 digest of body.
func Digest(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// SavePageDigest records the digest of a page fetched during run id. A page
// fetched more than once keeps the last digest.
func (s *Store) SavePageDigest(ctx context.Context, id int64, pageURL string, body []byte) error {
	return s.SaveDigests(ctx, id, []PageDigest{{URL: pageURL, Digest: Digest(body), Size: len(body)}})
}

// SaveDigests records precomputed page digests for run id in one
// transaction. Later entries for the same URL replace earlier ones.
func (s *Store) SaveDigests(ctx context.Context, id int64, digests []PageDigest) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, d := range digests {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO page_digests (run_id, url, digest, size) VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, url) DO UPDATE SET digest = excluded.digest, size = excluded.size`,
			id, d.URL, d.Digest, d.Size); err != nil {
			return fmt.Errorf("failed to save page digest: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page digests: %w", err)
	}
	return nil
}

// PageDigests returns the digests recorded for run id, ordered by URL.
func (s *Store) PageDigests(ctx context.Context, id int64) ([]PageDigest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, digest, size FROM page_digests WHERE run_id = ? ORDER BY url`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query page digests: %w", err)
	}
	defer rows.Close()

	digests := make([]PageDigest, 0)
	for rows.Next() {
		var d PageDigest
		if err := rows.Scan(&d.URL, &d.Digest, &d.Size); err != nil {
			return nil, fmt.Errorf("failed to scan page digest: %w", err)
		}
		digests = append(digests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page digests: %w", err)
	}
	return digests, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
