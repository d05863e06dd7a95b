package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Price record kinds describing the provenance of a row.
const (
	KindHistory  = "HISTORY"  // fetched from the market data provider
	KindSnapshot = "SNAPSHOT" // recorded while taking a portfolio snapshot
	KindTrade    = "TRADE"    // derived from a manually entered trade
)

// PriceRecord represents one OHLCV observation for one ticker on one day.
// Rows are append-only; corrections are new rows, never updates.
type PriceRecord struct {
	ID         string    `json:"id"`
	EventID    string    `json:"-"`
	Ticker     string    `json:"ticker"`
	Timestamp  time.Time `json:"timestamp"`
	Close      float64   `json:"close"`
	Open       *float64  `json:"open"`
	High       *float64  `json:"high"`
	Low        *float64  `json:"low"`
	Volume     int64     `json:"volume"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	OutOfOrder bool      `json:"outOfOrder"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"-"`
}

// PriceFingerprint computes the deterministic identity of a price
// observation. Inserting the same logical observation twice always
// produces the same fingerprint, which the unique constraint on
// price.event_id turns into an idempotent no-op.
func PriceFingerprint(ticker string, timestamp time.Time, close float64, kind, note string) string {
	payload := fmt.Sprintf("%s|%s|%.6f|%s|%s",
		ticker,
		timestamp.UTC().Format("2006-01-02"),
		close,
		kind,
		note,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the record's identity hash.
func (p *PriceRecord) Fingerprint() string {
	return PriceFingerprint(p.Ticker, p.Timestamp, p.Close, p.Kind, p.Note)
}

// Validate checks the invariants every stored price row must satisfy:
// close > 0, volume >= 0, timestamp not in the future.
func (p *PriceRecord) Validate(now time.Time) error {
	if p.Ticker == "" {
		return fmt.Errorf("price record missing ticker")
	}
	if p.Close <= 0 {
		return fmt.Errorf("[%s] close must be > 0, got %f", p.Ticker, p.Close)
	}
	if p.Volume < 0 {
		return fmt.Errorf("[%s] volume cannot be negative, got %d", p.Ticker, p.Volume)
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("[%s] timestamp is required", p.Ticker)
	}
	if p.Timestamp.After(now) {
		return fmt.Errorf("[%s] timestamp %s cannot be in the future", p.Ticker, p.Timestamp.Format("2006-01-02"))
	}
	return nil
}
