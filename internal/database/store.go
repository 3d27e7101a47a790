package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/serpscan/internal/model"
)

// DBFileName is the SQLite database file name inside the data directory.
const DBFileName = "serpscan.db"

// validTableName restricts table names to SQL identifier shape. The table
// name is interpolated into DDL and insert statements because SQLite does
// not accept identifiers as bind parameters, so anything else is rejected
// before a statement is ever built.
var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store provides SQLite-based persistence for extracted records.
// It satisfies the session sink contract: Append is safe for concurrent
// use because the single connection serializes writers.
//
// Design decision: We keep one database file for all runs rather than a
// file per run. Re-running a query set naturally folds new findings into
// the existing table, and the unique constraint keeps duplicates out.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// table is the validated table name records are written to.
	table string
}

// Options configures Store behavior.
type Options struct {
	// Table is the table records are inserted into. It must look like a
	// SQL identifier; Open rejects anything else.
	Table string

	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		Table:             "emails",
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a record store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	if !validTableName.MatchString(opts.Table) {
		return nil, fmt.Errorf("invalid table name %q: must start with a letter or underscore and contain only letters, digits, and underscores", opts.Table)
	}

	dbPath := filepath.Join(dbDir, DBFileName)

	// Check if we should create the database or require it to exist
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

	// Build connection string.
	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
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

	// SQLite only supports one writer; concurrent sessions queue on this
	// connection instead of racing for the file lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		table:  opts.Table,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTable(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return s, nil
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTable creates the record table and its indexes if they don't exist.
func (s *Store) createTable() error {
	schema := fmt.Sprintf(`
	-- Extracted records, unique per identity and source query
	CREATE TABLE IF NOT EXISTS %[1]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		source_query TEXT NOT NULL,
		found_at TEXT NOT NULL,
		UNIQUE(identity, source_query)
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_identity ON %[1]s(identity);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_query ON %[1]s(source_query);
	`, s.table)

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Append inserts the given records, silently skipping identities already
// stored for the same query. All rows of one call are committed in a
// single transaction, so a batch either lands completely or not at all.
//
// A failure is returned to the caller for logging; this package never
// escalates storage errors into session failures.
func (s *Store) Append(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
	INSERT INTO %s (identity, source_query, found_at)
	VALUES (?, ?, ?)
	ON CONFLICT(identity, source_query) DO NOTHING
	`, s.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Identity,
			rec.SourceQuery,
			rec.FoundAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert record %q: %w", rec.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// RecordCount returns the total number of stored records.
func (s *Store) RecordCount(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)

	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// RecordsForQuery retrieves all records found under the given source
// query, in insertion order.
func (s *Store) RecordsForQuery(ctx context.Context, sourceQuery string) ([]model.Record, error) {
	query := fmt.Sprintf(`
	SELECT identity, source_query, found_at FROM %s
	WHERE source_query = ?
	ORDER BY id
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query, sourceQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var foundAt string

		if err := rows.Scan(&rec.Identity, &rec.SourceQuery, &foundAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.FoundAt = parseTimestamp(foundAt)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Identities returns the distinct identities across all queries, sorted.
func (s *Store) Identities(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
	SELECT DISTINCT identity FROM %s
	ORDER BY identity
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, identity)
	}

	return identities, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,           // Format Append writes
	time.RFC3339Nano,       // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
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
