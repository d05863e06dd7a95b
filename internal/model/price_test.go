package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-tracker/internal/model"
)

// TestPriceFingerprint tests the deterministic identity of price rows.
//
// WHY: The fingerprint is the dedup key for every insert. It must be
// stable across runs and insensitive to the time-of-day component of
// the timestamp, and any identity field change must produce a new hash.
func TestPriceFingerprint(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("same inputs produce the same fingerprint", func(t *testing.T) {
		a := model.PriceFingerprint("AAPL", base, 150.25, model.KindHistory, "")
		b := model.PriceFingerprint("AAPL", base, 150.25, model.KindHistory, "")
		if a != b {
			t.Errorf("Fingerprints differ for identical inputs: %s vs %s", a, b)
		}
		if len(a) != 64 || strings.ToLower(a) != a {
			t.Errorf("Expected lowercase sha256 hex, got %s", a)
		}
	})

	t.Run("time of day does not change the fingerprint", func(t *testing.T) {
		a := model.PriceFingerprint("AAPL", base, 150.25, model.KindHistory, "")
		b := model.PriceFingerprint("AAPL", base.Add(14*time.Hour), 150.25, model.KindHistory, "")
		if a != b {
			t.Error("Fingerprint changed with time of day; only the date should matter")
		}
	})

	t.Run("each identity field changes the fingerprint", func(t *testing.T) {
		a := model.PriceFingerprint("AAPL", base, 150.25, model.KindHistory, "")

		variants := map[string]string{
			"ticker": model.PriceFingerprint("MSFT", base, 150.25, model.KindHistory, ""),
			"date":   model.PriceFingerprint("AAPL", base.AddDate(0, 0, 1), 150.25, model.KindHistory, ""),
			"close":  model.PriceFingerprint("AAPL", base, 150.26, model.KindHistory, ""),
			"kind":   model.PriceFingerprint("AAPL", base, 150.25, model.KindTrade, ""),
			"note":   model.PriceFingerprint("AAPL", base, 150.25, model.KindHistory, "BUY 10"),
		}
		for field, fp := range variants {
			if fp == a {
				t.Errorf("Changing %s did not change the fingerprint", field)
			}
		}
	})
}

// TestPriceRecord_Validate tests the stored-row invariants.
//
// WHY: Validation is the last line of defense before persistence; a
// zero close or future timestamp stored once poisons every downstream
// analytics computation.
func TestPriceRecord_Validate(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	valid := model.PriceRecord{
		Ticker:    "AAPL",
		Timestamp: now.AddDate(0, 0, -1),
		Close:     150.25,
		Volume:    1000,
		Kind:      model.KindHistory,
	}
	if err := valid.Validate(now); err != nil {
		t.Fatalf("Valid record rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*model.PriceRecord)
	}{
		{"empty ticker", func(p *model.PriceRecord) { p.Ticker = "" }},
		{"zero close", func(p *model.PriceRecord) { p.Close = 0 }},
		{"negative close", func(p *model.PriceRecord) { p.Close = -1 }},
		{"negative volume", func(p *model.PriceRecord) { p.Volume = -1 }},
		{"zero timestamp", func(p *model.PriceRecord) { p.Timestamp = time.Time{} }},
		{"future timestamp", func(p *model.PriceRecord) { p.Timestamp = now.AddDate(0, 0, 2) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := valid
			tc.mutate(&record)
			if err := record.Validate(now); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

// TestTradeFingerprint tests the trade identity hash.
//
// WHY: Replaying the same trade submission must not double-book; the
// fingerprint covers everything that identifies a trade and nothing
// that doesn't (notes are excluded so annotations don't split identity).
func TestTradeFingerprint(t *testing.T) {
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	price := decimal.NewFromFloat(150.25)

	a := model.TradeFingerprint(ts, "AAPL", model.ActionBuy, 10, price)
	b := model.TradeFingerprint(ts, "AAPL", model.ActionBuy, 10, price)
	if a != b {
		t.Error("Fingerprints differ for identical trades")
	}

	if model.TradeFingerprint(ts, "AAPL", model.ActionSell, 10, price) == a {
		t.Error("Action change did not change the fingerprint")
	}
	if model.TradeFingerprint(ts, "AAPL", model.ActionBuy, 11, price) == a {
		t.Error("Quantity change did not change the fingerprint")
	}
	if model.TradeFingerprint(ts.Add(time.Minute), "AAPL", model.ActionBuy, 10, price) == a {
		t.Error("Timestamp change did not change the fingerprint")
	}
}
