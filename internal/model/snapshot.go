package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Snapshot is a recorded per-ticker position together with the total
// portfolio valuation at one moment. One row is written per tracked
// ticker each time a snapshot is taken; the portfolio value series is
// derived by grouping rows on timestamp.
type Snapshot struct {
	ID             string    `json:"id"`
	EventID        string    `json:"-"`
	Timestamp      time.Time `json:"timestamp"`
	Ticker         string    `json:"ticker"`
	Position       int64     `json:"position"`
	CashBalance    float64   `json:"cash_balance"`
	PortfolioValue float64   `json:"portfolio_value"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"-"`
}

// SnapshotFingerprint computes the deterministic identity of a snapshot row.
func SnapshotFingerprint(timestamp time.Time, ticker string, position int64) string {
	payload := fmt.Sprintf("%s|%s|%d",
		timestamp.UTC().Format(time.RFC3339),
		ticker,
		position,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the snapshot row's identity hash.
func (s *Snapshot) Fingerprint() string {
	return SnapshotFingerprint(s.Timestamp, s.Ticker, s.Position)
}
