package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

// PriceBuilder provides a fluent interface for creating test price rows.
//
// Example usage:
//
//	testutil.NewPrice("AAPL").OnDate("2026-03-02").AtClose(150).Insert(t, db)
type PriceBuilder struct {
	record model.PriceRecord
}

// NewPrice creates a PriceBuilder with sensible defaults: a HISTORY
// row for yesterday at close 100.
func NewPrice(ticker string) *PriceBuilder {
	return &PriceBuilder{
		record: model.PriceRecord{
			Ticker:    ticker,
			Timestamp: Yesterday(),
			Close:     100,
			Volume:    1000,
			Kind:      model.KindHistory,
			Source:    "test",
		},
	}
}

// OnDate sets the timestamp from a YYYY-MM-DD string.
func (b *PriceBuilder) OnDate(date string) *PriceBuilder {
	b.record.Timestamp = MustParseDate(date)
	return b
}

// At sets the timestamp directly.
func (b *PriceBuilder) At(ts time.Time) *PriceBuilder {
	b.record.Timestamp = ts
	return b
}

// AtClose sets the closing price.
func (b *PriceBuilder) AtClose(close float64) *PriceBuilder {
	b.record.Close = close
	return b
}

// OfKind sets the record kind.
func (b *PriceBuilder) OfKind(kind string) *PriceBuilder {
	b.record.Kind = kind
	return b
}

// WithNote sets the note.
func (b *PriceBuilder) WithNote(note string) *PriceBuilder {
	b.record.Note = note
	return b
}

// Insert stores the record and returns it.
func (b *PriceBuilder) Insert(t *testing.T, db *sql.DB) model.PriceRecord {
	t.Helper()

	repo := repository.NewPriceRepository(db)
	record := b.record
	if _, err := repo.Insert(context.Background(), &record); err != nil {
		t.Fatalf("Failed to insert test price: %v", err)
	}
	return record
}

// InsertSnapshotValue stores one snapshot row at the given timestamp
// with the given portfolio value, for driving the timeline and
// performance analytics in tests.
func InsertSnapshotValue(t *testing.T, db *sql.DB, ts time.Time, value float64) {
	t.Helper()

	repo := repository.NewSnapshotRepository(db)
	snapshot := &model.Snapshot{
		Timestamp:      ts,
		Ticker:         "PORT",
		Position:       0,
		PortfolioValue: value,
	}
	if err := repo.Insert(context.Background(), snapshot); err != nil {
		t.Fatalf("Failed to insert test snapshot: %v", err)
	}
}

// MustParseDate parses a YYYY-MM-DD string as midnight UTC.
func MustParseDate(date string) time.Time {
	ts, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}
	return ts
}

// Yesterday returns yesterday's date at midnight UTC.
func Yesterday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// DaysAgo returns the date n days before today at midnight UTC.
func DaysAgo(n int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -n)
}
