package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfolio-tracker/internal/model"
)

// PriceRepository provides data access methods for the price table.
// Prices are append-only; the unique constraint on event_id makes
// inserts idempotent.
type PriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// WithTx returns a copy of the repository that executes inside the given transaction.
func (r *PriceRepository) WithTx(tx *sql.Tx) *PriceRepository {
	return &PriceRepository{db: r.db, tx: tx}
}

func (r *PriceRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Insert stores a price record keyed by its fingerprint. A fingerprint
// collision (the same logical observation already stored) is a
// successful no-op; the returned bool reports whether a new row was
// actually written.
func (r *PriceRepository) Insert(ctx context.Context, p *model.PriceRecord) (bool, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.EventID == "" {
		p.EventID = p.Fingerprint()
	}

	query := `
		INSERT INTO price (id, event_id, ticker, timestamp, close, open, high, low, volume, kind, source, out_of_order, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.EventID,
		p.Ticker,
		p.Timestamp.UTC().Format(time.RFC3339),
		p.Close,
		p.Open,
		p.High,
		p.Low,
		p.Volume,
		p.Kind,
		p.Source,
		p.OutOfOrder,
		p.Note,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert price: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return inserted > 0, nil
}

// Coverage returns the min and max timestamp of stored rows of the
// given kind for a ticker. Both are nil when no rows exist.
func (r *PriceRepository) Coverage(ticker, kind string) (*time.Time, *time.Time, error) {
	query := `
		SELECT MIN(timestamp), MAX(timestamp)
		FROM price
		WHERE ticker = ? AND kind = ?
	`

	var minStr, maxStr sql.NullString
	if err := r.getQuerier().QueryRow(query, ticker, kind).Scan(&minStr, &maxStr); err != nil {
		return nil, nil, fmt.Errorf("failed to query price coverage: %w", err)
	}

	if !minStr.Valid || !maxStr.Valid {
		return nil, nil, nil
	}

	minTs, err := ParseTime(minStr.String)
	if err != nil {
		return nil, nil, err
	}
	maxTs, err := ParseTime(maxStr.String)
	if err != nil {
		return nil, nil, err
	}
	return &minTs, &maxTs, nil
}

// LatestTimestamp returns the newest stored timestamp for a ticker
// across all kinds, or nil when the ticker has no rows.
func (r *PriceRepository) LatestTimestamp(ticker string) (*time.Time, error) {
	var tsStr sql.NullString
	query := `SELECT MAX(timestamp) FROM price WHERE ticker = ?`
	if err := r.getQuerier().QueryRow(query, ticker).Scan(&tsStr); err != nil {
		return nil, fmt.Errorf("failed to query latest timestamp: %w", err)
	}
	if !tsStr.Valid {
		return nil, nil
	}
	ts, err := ParseTime(tsStr.String)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// LatestCloses returns the most recent close per ticker in one query.
// Tickers with no stored rows are absent from the result.
func (r *PriceRepository) LatestCloses(tickers []string) (map[string]float64, error) {
	if len(tickers) == 0 {
		return map[string]float64{}, nil
	}

	placeholders, args := buildPlaceholders(tickers)

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT p.ticker, p.close
		FROM price p
		INNER JOIN (
			SELECT ticker, MAX(timestamp) AS max_ts
			FROM price
			WHERE ticker IN (` + placeholders + `)
			GROUP BY ticker
		) latest ON p.ticker = latest.ticker AND p.timestamp = latest.max_ts
	`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest closes: %w", err)
	}
	defer rows.Close()

	closes := make(map[string]float64)
	for rows.Next() {
		var ticker string
		var close float64
		if err := rows.Scan(&ticker, &close); err != nil {
			return nil, fmt.Errorf("failed to scan latest close: %w", err)
		}
		closes[ticker] = close
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest closes: %w", err)
	}

	return closes, nil
}

// Series returns a ticker's price rows on or after the cutoff, oldest first.
func (r *PriceRepository) Series(ticker string, cutoff time.Time) ([]model.PriceRecord, error) {
	query := `
		SELECT id, event_id, ticker, timestamp, close, open, high, low, volume, kind, source, out_of_order, note
		FROM price
		WHERE ticker = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := r.getQuerier().Query(query, ticker, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query price series: %w", err)
	}
	defer rows.Close()

	records := []model.PriceRecord{}
	for rows.Next() {
		var p model.PriceRecord
		var tsStr string
		var volume sql.NullInt64
		var source, note sql.NullString

		err := rows.Scan(
			&p.ID,
			&p.EventID,
			&p.Ticker,
			&tsStr,
			&p.Close,
			&p.Open,
			&p.High,
			&p.Low,
			&volume,
			&p.Kind,
			&source,
			&p.OutOfOrder,
			&note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}

		p.Timestamp, err = ParseTime(tsStr)
		if err != nil {
			return nil, err
		}
		p.Volume = volume.Int64
		p.Source = source.String
		p.Note = note.String

		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price series: %w", err)
	}

	return records, nil
}

// Tickers returns the distinct set of tickers with stored prices.
func (r *PriceRepository) Tickers() ([]string, error) {
	rows, err := r.getQuerier().Query(`SELECT DISTINCT ticker FROM price ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price tickers: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

// Count returns the number of stored price rows.
func (r *PriceRepository) Count() (int, error) {
	var count int
	if err := r.getQuerier().QueryRow(`SELECT COUNT(*) FROM price`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count prices: %w", err)
	}
	return count, nil
}

// TimestampBounds returns the oldest and newest price timestamps across
// all tickers, or nils when the table is empty.
func (r *PriceRepository) TimestampBounds() (*time.Time, *time.Time, error) {
	var minStr, maxStr sql.NullString
	query := `SELECT MIN(timestamp), MAX(timestamp) FROM price`
	if err := r.getQuerier().QueryRow(query).Scan(&minStr, &maxStr); err != nil {
		return nil, nil, fmt.Errorf("failed to query price bounds: %w", err)
	}
	if !minStr.Valid || !maxStr.Valid {
		return nil, nil, nil
	}

	minTs, err := ParseTime(minStr.String)
	if err != nil {
		return nil, nil, err
	}
	maxTs, err := ParseTime(maxStr.String)
	if err != nil {
		return nil, nil, err
	}
	return &minTs, &maxTs, nil
}
