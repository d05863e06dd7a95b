package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the goose migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE price (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL UNIQUE,
			ticker VARCHAR(10) NOT NULL,
			timestamp DATETIME NOT NULL,
			close FLOAT NOT NULL,
			open FLOAT,
			high FLOAT,
			low FLOAT,
			volume BIGINT,
			kind VARCHAR(10) NOT NULL DEFAULT 'HISTORY',
			source VARCHAR(50),
			out_of_order BOOLEAN NOT NULL DEFAULT FALSE,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_price_ticker_timestamp ON price(ticker, timestamp);

		CREATE TABLE trade (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL UNIQUE,
			timestamp DATETIME NOT NULL,
			ticker VARCHAR(10) NOT NULL,
			action VARCHAR(4) NOT NULL,
			quantity INTEGER NOT NULL,
			price TEXT NOT NULL,
			total_cost TEXT NOT NULL,
			position_before INTEGER NOT NULL,
			position_after INTEGER NOT NULL,
			cash_before TEXT NOT NULL,
			cash_after TEXT NOT NULL,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_trade_timestamp ON trade(timestamp);
		CREATE INDEX idx_trade_ticker ON trade(ticker);

		CREATE TABLE snapshot (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL UNIQUE,
			timestamp DATETIME NOT NULL,
			ticker VARCHAR(10) NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			cash_balance FLOAT,
			portfolio_value FLOAT,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_snapshot_timestamp ON snapshot(timestamp);
		CREATE INDEX idx_snapshot_ticker_timestamp ON snapshot(ticker, timestamp);

		CREATE TABLE portfolio_config (
			key VARCHAR(50) NOT NULL PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := db.Exec(schema)
	return err
}
