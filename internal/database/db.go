// Package database opens the SQLite state database and keeps its schema current.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/cryptowatch/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// busyTimeout bounds how long a writer waits on a locked database file.
const busyTimeout = 5 * time.Second

// NewDB connects to the SQLite database at dbPath, applies migrations and
// returns the connection pool. The parent directory is created if needed.
func NewDB(dbPath string, log *slog.Logger) (*sqlx.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	dbName := ExtractDBNameFromPath(dbPath)
	if dir := filepath.Dir(dbName); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", withPragmas(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer at a time; the state table is rewritten in a single transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := ApplyMigrations(db.DB, dbName, log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database connected and migrations applied", "path", dbName)
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB, log *slog.Logger) {
	if db == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database connection", "error", err)
	} else {
		log.Debug("Database connection closed")
	}
}

// ApplyMigrations runs the embedded migrations against db.
func ApplyMigrations(db *sql.DB, dbName string, log *slog.Logger) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}
	if dbName == "" {
		return errors.New("database name/path for migration driver is empty")
	}
	if log == nil {
		log = slog.Default()
	}

	log.Debug("Applying database migrations...", "database_name", dbName)

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{DatabaseName: dbName})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 database driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("No database migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database migrations applied")
	return nil
}

// ExtractDBNameFromPath strips the file: scheme and query parameters from a
// SQLite DSN, leaving the file path.
func ExtractDBNameFromPath(path string) string {
	path = strings.TrimPrefix(path, "file:")

	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}

	return path
}

// withPragmas appends the busy timeout pragma unless the DSN already sets one.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, busyTimeout.Milliseconds())
}
