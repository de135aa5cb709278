package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/storychop/storychop/internal/shared"
)

// StateRepository persists small key-value state that must survive restarts:
// the daily prompt, its date marker, and the selected-prompt override.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new StateRepository with the given database connection
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get retrieves the value stored under key. A missing key returns ok=false,
// not an error.
func (r *StateRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read state %q: %v", shared.ErrPersistence, key, err)
	}
	return value, true, nil
}

// Set upserts the value stored under key.
func (r *StateRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("%w: failed to write state %q: %v", shared.ErrPersistence, key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (r *StateRepository) Delete(key string) error {
	_, err := r.db.Exec("DELETE FROM app_state WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("%w: failed to delete state %q: %v", shared.ErrPersistence, key, err)
	}
	return nil
}
