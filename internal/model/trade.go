package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Trade is one buy or sell execution. Rows are immutable once written;
// replaying the ledger in timestamp order reproduces every before/after
// field and derives current positions and cash.
type Trade struct {
	ID             string          `json:"id"`
	EventID        string          `json:"-"`
	Timestamp      time.Time       `json:"timestamp"`
	Ticker         string          `json:"ticker"`
	Action         string          `json:"action"`
	Quantity       int64           `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PositionBefore int64           `json:"position_before"`
	PositionAfter  int64           `json:"position_after"`
	CashBefore     decimal.Decimal `json:"cash_before"`
	CashAfter      decimal.Decimal `json:"cash_after"`
	Note           string          `json:"note"`
	CreatedAt      time.Time       `json:"-"`
}

// TradeFingerprint computes the deterministic identity of a trade,
// keyed on when, what, which way, how many and at what price.
func TradeFingerprint(timestamp time.Time, ticker, action string, quantity int64, price decimal.Decimal) string {
	payload := fmt.Sprintf("%s|%s|%s|%d|%s",
		timestamp.UTC().Format(time.RFC3339),
		ticker,
		action,
		quantity,
		price.String(),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the trade's identity hash.
func (t *Trade) Fingerprint() string {
	return TradeFingerprint(t.Timestamp, t.Ticker, t.Action, t.Quantity, t.Price)
}
