package testutil

import (
	"database/sql"
	"testing"

	"portfolio-tracker/internal/repository"
	"portfolio-tracker/internal/service"
)

// Default portfolio settings used by the test service constructors.
const (
	TestInitialCash     = 100000.0
	TestBenchmarkTicker = "SPY"
	TestLookbackDays    = 365
	TestCooldownSeconds = 60
	TestRiskFreeRate    = 0.045
)

func NewTestTradeService(t *testing.T, db *sql.DB) *service.TradeService {
	t.Helper()

	return service.NewTradeService(
		db,
		repository.NewTradeRepository(db),
		repository.NewPriceRepository(db),
		repository.NewConfigRepository(db),
		TestInitialCash,
	)
}

func NewTestSnapshotService(t *testing.T, db *sql.DB) *service.SnapshotService {
	t.Helper()

	return service.NewSnapshotService(
		repository.NewSnapshotRepository(db),
		repository.NewPriceRepository(db),
		repository.NewTradeRepository(db),
		NewTestTradeService(t, db),
	)
}

func NewTestPriceService(t *testing.T, db *sql.DB, provider service.PriceProvider) *service.PriceService {
	t.Helper()

	return service.NewPriceService(
		provider,
		repository.NewPriceRepository(db),
		repository.NewTradeRepository(db),
		repository.NewConfigRepository(db),
		NewTestSnapshotService(t, db),
		TestBenchmarkTicker,
		TestLookbackDays,
		TestCooldownSeconds,
	)
}

func NewTestAnalyticsService(t *testing.T, db *sql.DB) *service.AnalyticsService {
	t.Helper()

	return service.NewAnalyticsService(
		repository.NewSnapshotRepository(db),
		repository.NewPriceRepository(db),
		repository.NewTradeRepository(db),
		repository.NewConfigRepository(db),
		NewTestTradeService(t, db),
		TestBenchmarkTicker,
		TestLookbackDays,
		TestRiskFreeRate,
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB, provider service.PriceProvider) *service.SystemService {
	t.Helper()

	return service.NewSystemService(
		db,
		repository.NewPriceRepository(db),
		repository.NewTradeRepository(db),
		repository.NewSnapshotRepository(db),
		NewTestTradeService(t, db),
		provider,
		TestCooldownSeconds,
	)
}
