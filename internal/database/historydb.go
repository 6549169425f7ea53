package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/clfetch/internal/model"
)

// HistoryDB provides SQLite-based storage for completed search runs.
// It manages connection pooling and provides methods for saving and
// browsing search history.
//
// Design decision: We use a single database file for all search history
// rather than one file per site. This simplifies cross-site browsing and
// backup/restore operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "clfetch.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
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

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
//
// Design decision: SearchReport is flat and Listing rows are flat, so we
// store them normalized across two tables instead of serializing reports to
// JSON blobs. This keeps listings queryable (e.g. by post ID across runs)
// and reports reconstructible without a deserialization step.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per completed search run
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		area TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		query TEXT NOT NULL DEFAULT '',
		total_count INTEGER NOT NULL DEFAULT 0,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_searches_site ON searches(site);
	CREATE INDEX IF NOT EXISTS idx_searches_started ON searches(started_at);

	-- One row per listing extracted during a run
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		search_id INTEGER NOT NULL REFERENCES searches(id),
		pid TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		price TEXT NOT NULL DEFAULT '',
		hood TEXT NOT NULL DEFAULT '',
		posted_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_listings_search ON listings(search_id);
	CREATE INDEX IF NOT EXISTS idx_listings_pid ON listings(pid);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// sqliteTimeFormat is the format used to store timestamps.
// It matches SQLite's default datetime representation.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// SaveSearch persists a completed search run and its listings.
// It returns the database ID of the saved search.
//
// The search row and its listing rows are written in one transaction so a
// failed save never leaves a search without its listings.
func (hdb *HistoryDB) SaveSearch(ctx context.Context, report *model.SearchReport) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO searches (site, area, category, query, total_count, pages_fetched, started_at, elapsed_ms, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Site,
		report.Area,
		report.Category,
		report.Query,
		report.TotalCount,
		report.PagesFetched,
		report.StartedAt.UTC().Format(sqliteTimeFormat),
		report.Elapsed.Milliseconds(),
		report.Err,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert search: %w", err)
	}

	searchID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get search id: %w", err)
	}

	for i := range report.Listings {
		l := &report.Listings[i]
		_, err := tx.ExecContext(ctx, `
		INSERT INTO listings (search_id, pid, title, url, price, hood, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			searchID,
			l.PID,
			l.Title,
			l.URL,
			l.Price,
			l.Hood,
			l.PostedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert listing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit search: %w", err)
	}

	return searchID, nil
}

// SearchSummary contains summary information about a saved search.
// This is used for displaying search history without loading every listing.
type SearchSummary struct {
	// ID is the unique identifier of the search in the database.
	ID int64 `json:"id"`

	// Site is the Craigslist site token of the search.
	Site string `json:"site"`

	// Area is the optional area token of the search.
	Area string `json:"area,omitempty"`

	// Category is the category token of the search.
	Category string `json:"category"`

	// Query is the free-text query of the search.
	Query string `json:"query,omitempty"`

	// TotalCount is the result total the site reported.
	TotalCount int `json:"total_count"`

	// ListingCount is the number of listings stored for this search.
	ListingCount int `json:"listing_count"`

	// StartedAt is when the search was run.
	StartedAt time.Time `json:"started_at"`

	// Err is the terminal error message if the run ended early.
	Err string `json:"error,omitempty"`
}

// ListSearches returns saved searches ordered from newest to oldest.
// A non-positive limit returns every saved search.
func (hdb *HistoryDB) ListSearches(ctx context.Context, limit int) ([]SearchSummary, error) {
	// SQLite treats a negative LIMIT as unlimited
	if limit <= 0 {
		limit = -1
	}

	query := `
	SELECT s.id, s.site, s.area, s.category, s.query, s.total_count, COUNT(l.id), s.started_at, s.error
	FROM searches s
	LEFT JOIN listings l ON l.search_id = s.id
	GROUP BY s.id
	ORDER BY s.started_at DESC, s.id DESC
	LIMIT ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	defer rows.Close()

	var results []SearchSummary
	for rows.Next() {
		var summary SearchSummary
		var startedAt string

		err := rows.Scan(
			&summary.ID,
			&summary.Site,
			&summary.Area,
			&summary.Category,
			&summary.Query,
			&summary.TotalCount,
			&summary.ListingCount,
			&startedAt,
			&summary.Err,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search summary: %w", err)
		}

		summary.StartedAt = parseTimestamp(startedAt)
		results = append(results, summary)
	}

	return results, rows.Err()
}

// GetSearch reconstructs a saved search report by its database ID.
// Returns nil without an error when no search has the given ID.
func (hdb *HistoryDB) GetSearch(ctx context.Context, id int64) (*model.SearchReport, error) {
	query := `
	SELECT site, area, category, query, total_count, pages_fetched, started_at, elapsed_ms, error
	FROM searches
	WHERE id = ?
	`

	var report model.SearchReport
	var startedAt string
	var elapsedMS int64

	err := hdb.db.QueryRowContext(ctx, query, id).Scan(
		&report.Site,
		&report.Area,
		&report.Category,
		&report.Query,
		&report.TotalCount,
		&report.PagesFetched,
		&startedAt,
		&elapsedMS,
		&report.Err,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search: %w", err)
	}

	report.StartedAt = parseTimestamp(startedAt)
	report.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	listings, err := hdb.listingsForSearch(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Listings = listings

	return &report, nil
}

// listingsForSearch loads the listings stored for one search in insert order.
func (hdb *HistoryDB) listingsForSearch(ctx context.Context, searchID int64) ([]model.Listing, error) {
	query := `
	SELECT pid, title, url, price, hood, posted_at
	FROM listings
	WHERE search_id = ?
	ORDER BY id
	`

	rows, err := hdb.db.QueryContext(ctx, query, searchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	defer rows.Close()

	listings := make([]model.Listing, 0)
	for rows.Next() {
		var l model.Listing
		err := rows.Scan(&l.PID, &l.Title, &l.URL, &l.Price, &l.Hood, &l.PostedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
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
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
