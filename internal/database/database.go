package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-triage/internal/logging"
	"photo-triage/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// FileName is the database file created inside the data directory.
const FileName = "triage.db"

// schemaVersion is bumped whenever runMigrations gains a step.
const schemaVersion = 1

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Database stores curator decisions. Safe for concurrent use.
type Database struct {
	db     *sql.DB
	dbPath string
}

// New opens or creates the database FILE at dbPath. The parent directory
// must already exist and be writable; startup.LoadConfig checks this.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Writes are serialised by SQLite; a few readers are enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

// Open opens the database inside dataDir.
func Open(ctx context.Context, dataDir string) (*Database, error) {
	return New(ctx, filepath.Join(dataDir, FileName))
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		path TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		rating INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_status ON decisions(status);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return d.runMigrations(ctx)
}

// runMigrations brings an existing database up to schemaVersion.
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: databases created before colour labels lack the column
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('decisions')
		WHERE name='color'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for color column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding color column to decisions table")
		if _, err := d.db.ExecContext(ctx, `ALTER TABLE decisions ADD COLUMN color TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add color column: %w", err)
		}
	}

	return d.SetMetadata(ctx, "schema_version", fmt.Sprint(schemaVersion))
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	// A read-only WAL or SHM file left by another user breaks every write
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only (mode %v), writes will fail", p, info.Mode())
		if p == dbPath {
			continue
		}
		if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", p)
		}
	}

	return nil
}
