package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// ConfigRepository provides access to the portfolio_config key-value table.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository creates a new ConfigRepository with the provided database connection.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get returns the value for a key, or "" with found=false when unset.
func (r *ConfigRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM portfolio_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query config key %s: %w", key, err)
	}
	return value, true, nil
}

// Set creates or updates a key.
func (r *ConfigRepository) Set(key, value string) error {
	query := `
		INSERT INTO portfolio_config (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to set config key %s: %w", key, err)
	}
	return nil
}
