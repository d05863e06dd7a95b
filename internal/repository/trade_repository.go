package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"portfolio-tracker/internal/model"
)

// TradeRepository provides data access methods for the trade table.
// The ledger is append-only; ordering by timestamp defines the
// canonical replay sequence.
type TradeRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTradeRepository creates a new TradeRepository with the provided database connection.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithTx returns a copy of the repository that executes inside the given transaction.
func (r *TradeRepository) WithTx(tx *sql.Tx) *TradeRepository {
	return &TradeRepository{db: r.db, tx: tx}
}

func (r *TradeRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Insert appends a trade to the ledger. A fingerprint collision (the
// same trade submitted twice) is a successful no-op.
func (r *TradeRepository) Insert(ctx context.Context, t *model.Trade) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.EventID == "" {
		t.EventID = t.Fingerprint()
	}

	query := `
		INSERT INTO trade (id, event_id, timestamp, ticker, action, quantity, price, total_cost,
			position_before, position_after, cash_before, cash_after, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.EventID,
		t.Timestamp.UTC().Format(time.RFC3339),
		t.Ticker,
		t.Action,
		t.Quantity,
		t.Price.String(),
		t.TotalCost.String(),
		t.PositionBefore,
		t.PositionAfter,
		t.CashBefore.String(),
		t.CashAfter.String(),
		t.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// All returns the full ledger in timestamp order (oldest first), the
// canonical replay sequence.
func (r *TradeRepository) All() ([]model.Trade, error) {
	return r.query(`
		SELECT id, event_id, timestamp, ticker, action, quantity, price, total_cost,
			position_before, position_after, cash_before, cash_after, note
		FROM trade
		ORDER BY timestamp ASC, created_at ASC
	`)
}

// Recent returns the newest trades first, capped at limit.
func (r *TradeRepository) Recent(limit int) ([]model.Trade, error) {
	return r.query(`
		SELECT id, event_id, timestamp, ticker, action, quantity, price, total_cost,
			position_before, position_after, cash_before, cash_after, note
		FROM trade
		ORDER BY timestamp DESC, created_at DESC
		LIMIT ?
	`, limit)
}

// FirstBuyTimestamp returns the timestamp of the earliest BUY for a
// ticker, or nil when the ticker has never been bought.
func (r *TradeRepository) FirstBuyTimestamp(ticker string) (*time.Time, error) {
	var tsStr sql.NullString
	query := `SELECT MIN(timestamp) FROM trade WHERE ticker = ? AND action = ?`
	if err := r.getQuerier().QueryRow(query, ticker, model.ActionBuy).Scan(&tsStr); err != nil {
		return nil, fmt.Errorf("failed to query first buy: %w", err)
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

// Tickers returns the distinct set of traded tickers.
func (r *TradeRepository) Tickers() ([]string, error) {
	rows, err := r.getQuerier().Query(`SELECT DISTINCT ticker FROM trade ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade tickers: %w", err)
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

// Count returns the number of ledger rows.
func (r *TradeRepository) Count() (int, error) {
	var count int
	if err := r.getQuerier().QueryRow(`SELECT COUNT(*) FROM trade`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

func (r *TradeRepository) query(query string, args ...any) ([]model.Trade, error) {
	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade table: %w", err)
	}
	defer rows.Close()

	trades := []model.Trade{}
	for rows.Next() {
		var t model.Trade
		var tsStr, priceStr, totalCostStr, cashBeforeStr, cashAfterStr string
		var note sql.NullString

		err := rows.Scan(
			&t.ID,
			&t.EventID,
			&tsStr,
			&t.Ticker,
			&t.Action,
			&t.Quantity,
			&priceStr,
			&totalCostStr,
			&t.PositionBefore,
			&t.PositionAfter,
			&cashBeforeStr,
			&cashAfterStr,
			&note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}

		t.Timestamp, err = ParseTime(tsStr)
		if err != nil {
			return nil, err
		}
		if t.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse trade price: %w", err)
		}
		if t.TotalCost, err = decimal.NewFromString(totalCostStr); err != nil {
			return nil, fmt.Errorf("failed to parse trade total cost: %w", err)
		}
		if t.CashBefore, err = decimal.NewFromString(cashBeforeStr); err != nil {
			return nil, fmt.Errorf("failed to parse trade cash before: %w", err)
		}
		if t.CashAfter, err = decimal.NewFromString(cashAfterStr); err != nil {
			return nil, fmt.Errorf("failed to parse trade cash after: %w", err)
		}
		t.Note = note.String

		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade table: %w", err)
	}

	return trades, nil
}
