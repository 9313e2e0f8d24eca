package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagerank/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "pagerank.db"

// RankDB provides SQLite-based storage for ranking runs.
// Each run is stored twice: as a JSON document that restores the full
// model.RankReport, and as one row per page so that a page's rank can be
// followed across runs without decoding every report.
type RankDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RankDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RankDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RankDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RankDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RankDB) Close() error {
	return rdb.db.Close()
}

// Path returns the path of the database file.
func (rdb *RankDB) Path() string {
	return rdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RankDB) createTables() error {
	schema := `
	-- One row per ranking run; report_json restores the full report
	CREATE TABLE IF NOT EXISTS rank_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		corpus TEXT NOT NULL,
		digest TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		damping REAL NOT NULL,
		samples INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		passes INTEGER NOT NULL,
		converged INTEGER NOT NULL,
		distance REAL NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_corpus ON rank_runs(corpus);
	CREATE INDEX IF NOT EXISTS idx_runs_digest ON rank_runs(digest);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON rank_runs(timestamp);

	-- Per-page ranks of each run
	CREATE TABLE IF NOT EXISTS page_ranks (
		run INTEGER NOT NULL REFERENCES rank_runs(id) ON DELETE CASCADE,
		page TEXT NOT NULL,
		sampled REAL,
		iterated REAL,
		PRIMARY KEY (run, page)
	);

	CREATE INDEX IF NOT EXISTS idx_page_ranks_page ON page_ranks(page);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a ranking run and its per-page ranks in one transaction.
// It returns the database ID of the run.
func (rdb *RankDB) SaveReport(ctx context.Context, report *model.RankReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO rank_runs (run_id, corpus, digest, damping, samples, seed, passes, converged, distance, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.Corpus,
		report.Digest,
		report.Damping,
		report.Samples,
		int64(report.Seed), //nolint:gosec // stored bit for bit, read back as uint64
		report.Passes,
		report.Converged,
		report.Distance,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save rank run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO page_ranks (run, page, sampled, iterated) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range pageUnion(report) {
		if _, err := stmt.ExecContext(ctx, id, page, nullFloat(report.Sampled, page), nullFloat(report.Iterated, page)); err != nil {
			return 0, fmt.Errorf("failed to save rank of %s: %w", page, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rank run: %w", err)
	}

	return id, nil
}

// GetLatestReport retrieves the most recent run for a corpus.
// It returns nil without error when the corpus has no runs.
func (rdb *RankDB) GetLatestReport(ctx context.Context, corpus string) (*model.RankReport, error) {
	query := `
	SELECT report_json FROM rank_runs
	WHERE corpus = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	return rdb.queryReport(ctx, query, corpus)
}

// GetReportByID retrieves a run by its database ID.
// It returns nil without error when no such run exists.
func (rdb *RankDB) GetReportByID(ctx context.Context, id int64) (*model.RankReport, error) {
	return rdb.queryReport(ctx, `SELECT report_json FROM rank_runs WHERE id = ?`, id)
}

// queryReport decodes the report_json column of a single-row query.
func (rdb *RankDB) queryReport(ctx context.Context, query string, args ...any) (*model.RankReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rank run: %w", err)
	}

	var report model.RankReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListCorpora returns every corpus that has at least one stored run.
func (rdb *RankDB) ListCorpora(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT DISTINCT corpus FROM rank_runs ORDER BY corpus`)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpora: %w", err)
	}
	defer rows.Close()

	var corpora []string
	for rows.Next() {
		var corpus string
		if err := rows.Scan(&corpus); err != nil {
			return nil, fmt.Errorf("failed to scan corpus: %w", err)
		}
		corpora = append(corpora, corpus)
	}

	return corpora, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the database ID of the run.
	ID int64

	// RunID is the UUID of the run.
	RunID string

	// Corpus is the ranked corpus.
	Corpus string

	// Digest is the link graph digest.
	Digest string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// Damping, Samples and Seed are the run parameters.
	Damping float64
	Samples int
	Seed    uint64

	// Passes and Converged describe the iterative solver.
	Passes    int
	Converged bool

	// Distance is the L1 distance between the two estimates.
	Distance float64
}

// GetHistoryWithMetadata retrieves run metadata for a corpus, newest first.
func (rdb *RankDB) GetHistoryWithMetadata(ctx context.Context, corpus string) ([]RunMetadata, error) {
	query := `
	SELECT id, run_id, corpus, COALESCE(digest, ''), timestamp, damping, samples, seed, passes, converged, distance
	FROM rank_runs
	WHERE corpus = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var seed int64

		if err := rows.Scan(
			&meta.ID,
			&meta.RunID,
			&meta.Corpus,
			&meta.Digest,
			&timestamp,
			&meta.Damping,
			&meta.Samples,
			&seed,
			&meta.Passes,
			&meta.Converged,
			&meta.Distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Seed = uint64(seed) //nolint:gosec // stored bit for bit
		results = append(results, meta)
	}

	return results, rows.Err()
}

// PageRankRecord is the rank of one page in one stored run.
type PageRankRecord struct {
	// ID is the database ID of the run.
	ID int64

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// Sampled is the random-walk estimate, if the sampler ran.
	Sampled sql.NullFloat64

	// Iterated is the iterative estimate, if the solver ran.
	Iterated sql.NullFloat64
}

// GetPageHistory retrieves the ranks of a page across the runs of a corpus,
// newest first.
func (rdb *RankDB) GetPageHistory(ctx context.Context, corpus, page string) ([]PageRankRecord, error) {
	query := `
	SELECT r.id, r.timestamp, p.sampled, p.iterated
	FROM page_ranks p
	JOIN rank_runs r ON r.id = p.run
	WHERE r.corpus = ? AND p.page = ?
	ORDER BY r.timestamp DESC, r.id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, corpus, page)
	if err != nil {
		return nil, fmt.Errorf("failed to get page history: %w", err)
	}
	defer rows.Close()

	var results []PageRankRecord
	for rows.Next() {
		var rec PageRankRecord
		var timestamp string

		if err := rows.Scan(&rec.ID, &timestamp, &rec.Sampled, &rec.Iterated); err != nil {
			return nil, fmt.Errorf("failed to scan page rank: %w", err)
		}

		rec.Timestamp = parseTimestamp(timestamp)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// pageUnion returns every page ranked by either estimator.
func pageUnion(report *model.RankReport) []string {
	pages := report.Iterated.Pages()
	for _, page := range report.Sampled.Pages() {
		if _, ok := report.Iterated[page]; !ok {
			pages = append(pages, page)
		}
	}
	return pages
}

// nullFloat returns the rank of page, or NULL when the vector has none.
func nullFloat(ranks map[string]float64, page string) sql.NullFloat64 {
	value, ok := ranks[page]
	return sql.NullFloat64{Float64: value, Valid: ok}
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
