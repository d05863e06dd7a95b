package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfolio-tracker/internal/model"
)

// SnapshotRepository provides data access methods for the snapshot table.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert stores a snapshot row keyed by its fingerprint; a collision is
// a successful no-op.
func (r *SnapshotRepository) Insert(ctx context.Context, s *model.Snapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.EventID == "" {
		s.EventID = s.Fingerprint()
	}

	query := `
		INSERT INTO snapshot (id, event_id, timestamp, ticker, position, cash_balance, portfolio_value, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.EventID,
		s.Timestamp.UTC().Format(time.RFC3339),
		s.Ticker,
		s.Position,
		s.CashBalance,
		s.PortfolioValue,
		s.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ValuePoint is one entry in the portfolio value series.
type ValuePoint struct {
	Timestamp time.Time
	Value     float64
}

// ValueSeries returns the portfolio value over time since the cutoff:
// snapshot rows grouped by timestamp, oldest first.
func (r *SnapshotRepository) ValueSeries(cutoff time.Time) ([]ValuePoint, error) {
	query := `
		SELECT timestamp, MAX(portfolio_value)
		FROM snapshot
		WHERE timestamp >= ?
		GROUP BY timestamp
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Query(query, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot series: %w", err)
	}
	defer rows.Close()

	points := []ValuePoint{}
	for rows.Next() {
		var tsStr string
		var value sql.NullFloat64
		if err := rows.Scan(&tsStr, &value); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		ts, err := ParseTime(tsStr)
		if err != nil {
			return nil, err
		}
		points = append(points, ValuePoint{Timestamp: ts, Value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot series: %w", err)
	}

	return points, nil
}

// Count returns the number of snapshot rows.
func (r *SnapshotRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshot`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}
