package service

import (
	"context"
	"time"

	"portfolio-tracker/internal/model"
)

// PriceProvider is the capability set required from a market data
// source. A single concrete implementation (Alpha Vantage) is in
// scope; the interface exists so services and tests can substitute it.
type PriceProvider interface {
	// GetHistoricalPrices returns validated daily records for the
	// inclusive date range, oldest first.
	GetHistoricalPrices(ctx context.Context, ticker string, from, to time.Time) ([]model.PriceRecord, error)

	// GetCurrentPrice returns the latest validated quote for a ticker.
	GetCurrentPrice(ctx context.Context, ticker string) (model.PriceRecord, error)

	// GetMarketStatus reports whether the market is open. Unmetered.
	GetMarketStatus(ctx context.Context) (bool, error)

	// QuotaStatus reports the remaining call budget.
	QuotaStatus() model.QuotaStatus

	// Name returns the human-readable provider name.
	Name() string
}
