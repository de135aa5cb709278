package shared

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// OpenStore opens the application store at the configured path, verifies
// integrity, and runs migrations.
//
// A store that fails the integrity check surfaces as [ErrCorruptStore].
// When cfg.Recovery is "recreate" the corrupt file is deleted and an empty
// store is created in its place; any other value propagates the error so the
// deployment can decide.
func OpenStore(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := openVerified(cfg.Path)
	if err != nil {
		if !strings.EqualFold(cfg.Recovery, "recreate") || cfg.Path == ":memory:" {
			return nil, err
		}
		if rmErr := os.Remove(cfg.Path); rmErr != nil {
			return nil, fmt.Errorf("failed to remove corrupt store: %w", rmErr)
		}
		db, err = openVerified(cfg.Path)
		if err != nil {
			return nil, err
		}
	}

	ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	return db, nil
}

func openVerified(path string) (*sql.DB, error) {
	db, err := NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil || result != "ok" {
		db.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: integrity check failed: %v", ErrCorruptStore, err)
		}
		return nil, fmt.Errorf("%w: integrity check returned %q", ErrCorruptStore, result)
	}

	return db, nil
}
