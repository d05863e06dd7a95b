package service

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

// portfolio_config keys.
const (
	keyInitialCash  = "initial_cash"
	keyStartDate    = "start_date"
	keyLastRefresh  = "last_refresh_ts"
	keyRiskFreeRate = "risk_free_rate"
)

// dateOnly truncates a time to midnight UTC, the market-close date convention.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// configFloat reads a numeric value from portfolio_config, falling back
// to the given default when unset or unparseable.
func configFloat(configRepo *repository.ConfigRepository, key string, fallback float64) float64 {
	value, found, err := configRepo.Get(key)
	if err != nil || !found {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

// trackedTickers is the union of tickers seen in trades and prices,
// sorted. The tracked set is derived, never configured.
func trackedTickers(priceRepo *repository.PriceRepository, tradeRepo *repository.TradeRepository) ([]string, error) {
	priceTickers, err := priceRepo.Tickers()
	if err != nil {
		return nil, err
	}
	tradeTickers, err := tradeRepo.Tickers()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	tickers := []string{}
	for _, t := range append(priceTickers, tradeTickers...) {
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// replayLedger replays trades in timestamp order and returns the
// per-ticker positions and the cash balance. When upTo is non-nil only
// trades dated at or before it are applied; this is what makes
// historical (out-of-order) trade insertion respect the no-negative-
// position invariant.
func replayLedger(trades []model.Trade, upTo *time.Time, initialCash decimal.Decimal) (map[string]int64, decimal.Decimal) {
	positions := make(map[string]int64)
	cash := initialCash

	for _, t := range trades {
		if upTo != nil && t.Timestamp.After(*upTo) {
			continue
		}
		switch t.Action {
		case model.ActionBuy:
			positions[t.Ticker] += t.Quantity
			cash = cash.Sub(t.TotalCost)
		case model.ActionSell:
			positions[t.Ticker] -= t.Quantity
			cash = cash.Add(t.TotalCost)
		}
	}

	return positions, cash
}

// sanitizeNote guards stored free text against spreadsheet formula
// injection when exported: a leading = + - @ gets a quote prefix.
func sanitizeNote(s string) string {
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@':
			return "'" + s
		}
	}
	return s
}
