package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bytecarve/bytecarve/internal/model"
)

// Manifest provides SQLite-based storage for scan sessions and the files
// they recovered. It manages connection pooling and provides methods for
// CRUD operations.
//
// Design decision: We use a single database file per data directory
// rather than one file per scanned source. This simplifies history
// queries across sources and backup/restore operations.
type Manifest struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Manifest behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default manifest options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Manifest at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Manifest, error) {
	dbPath := filepath.Join(dbDir, "bytecarve.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check manifest path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
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
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	// SQLite only supports one writer; the sweep is the only producer so
	// a single connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	m := &Manifest{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := m.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return m, nil
}

// Close closes the database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (m *Manifest) createTables() error {
	schema := `
	-- Sessions store one row per scan run plus the full report as JSON
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		outcome TEXT NOT NULL,
		source_size INTEGER DEFAULT 0,
		bytes_scanned INTEGER DEFAULT 0,
		total_recovered INTEGER DEFAULT 0,
		false_positives INTEGER DEFAULT 0,
		timed_out INTEGER DEFAULT 0,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		elapsed_ms INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	-- Files store one row per accepted candidate
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id),
		format TEXT NOT NULL,
		offset INTEGER NOT NULL,
		length INTEGER NOT NULL,
		path TEXT NOT NULL,
		nonce TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_files_session ON files(session_id);
	CREATE INDEX IF NOT EXISTS idx_files_format ON files(format);
	`

	_, err := m.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport persists a finished session and its recovered files.
// Returns the new session's database ID.
func (m *Manifest) SaveReport(ctx context.Context, report *model.ScanReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var (
		bytesScanned   int64
		totalRecovered int
		falsePositives int
		timedOut       bool
		startedAt      = time.Now()
	)
	if report.Stats != nil {
		bytesScanned = report.Stats.BytesScanned
		totalRecovered = report.Stats.TotalRecovered
		falsePositives = report.Stats.FalsePositives
		timedOut = report.Stats.TimeoutReached
		startedAt = report.Stats.StartTime
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO sessions (source, output_dir, outcome, source_size, bytes_scanned,
		total_recovered, false_positives, timed_out, started_at, elapsed_ms, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Source,
		report.OutputDir,
		string(report.Outcome),
		report.SourceSize,
		bytesScanned,
		totalRecovered,
		falsePositives,
		timedOut,
		startedAt.UTC().Format("2006-01-02 15:04:05"),
		report.Elapsed.Milliseconds(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}

	for _, f := range report.Files {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO files (session_id, format, offset, length, path, nonce, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			sessionID,
			f.Format,
			f.Offset,
			f.Length,
			f.Path,
			f.Nonce,
			f.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		); err != nil {
			return 0, fmt.Errorf("failed to insert file record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}

	return sessionID, nil
}

// GetLatestReport retrieves the most recent report for a source.
// Returns nil without error when the source has never been scanned.
func (m *Manifest) GetLatestReport(ctx context.Context, source string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM sessions
	WHERE source = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := m.db.QueryRowContext(ctx, query, source).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetReportByID retrieves a report by its session ID.
// Returns nil without error when the ID is unknown.
func (m *Manifest) GetReportByID(ctx context.Context, id int64) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM sessions
	WHERE id = ?
	`

	var reportJSON string
	err := m.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListSources returns every source that has at least one stored session.
func (m *Manifest) ListSources(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT source FROM sessions
	ORDER BY source
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// SessionMetadata contains summary information about a stored session.
// This is used for displaying scan history without loading the full report.
type SessionMetadata struct {
	// ID is the unique identifier of the session in the database.
	ID int64

	// Source is the scanned file or device path.
	Source string

	// Outcome is the session's terminal state.
	Outcome model.Outcome

	// TotalRecovered is the number of files the session recovered.
	TotalRecovered int

	// FalsePositives is the number of rejected candidates.
	FalsePositives int

	// BytesScanned is the number of source bytes the sweep read.
	BytesScanned int64

	// StartedAt is when the session began scanning.
	StartedAt time.Time

	// Elapsed is the session's total wall time.
	Elapsed time.Duration
}

// History retrieves session metadata, newest first. When source is empty
// every stored session is returned; otherwise only that source's
// sessions. This is more efficient than loading full reports when only
// the summary is needed.
func (m *Manifest) History(ctx context.Context, source string) ([]SessionMetadata, error) {
	query := `
	SELECT id, source, outcome, total_recovered, false_positives, bytes_scanned, started_at, elapsed_ms
	FROM sessions
	`
	args := make([]any, 0, 1)
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []SessionMetadata
	for rows.Next() {
		var meta SessionMetadata
		var outcome string
		var startedAt string
		var elapsedMS int64

		if err := rows.Scan(
			&meta.ID,
			&meta.Source,
			&outcome,
			&meta.TotalRecovered,
			&meta.FalsePositives,
			&meta.BytesScanned,
			&startedAt,
			&elapsedMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Outcome = model.Outcome(outcome)
		meta.StartedAt = parseTimestamp(startedAt)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// SessionFiles retrieves the recovered-file records of one session in
// recovery order.
func (m *Manifest) SessionFiles(ctx context.Context, sessionID int64) ([]model.RecoveredFile, error) {
	query := `
	SELECT format, offset, length, path, nonce, created_at
	FROM files
	WHERE session_id = ?
	ORDER BY id
	`

	rows, err := m.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session files: %w", err)
	}
	defer rows.Close()

	var files []model.RecoveredFile
	for rows.Next() {
		var f model.RecoveredFile
		var createdAt string

		if err := rows.Scan(&f.Format, &f.Offset, &f.Length, &f.Path, &f.Nonce, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}

		f.CreatedAt = parseTimestamp(createdAt)
		files = append(files, f)
	}

	return files, rows.Err()
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
	return time.Time{}
}
