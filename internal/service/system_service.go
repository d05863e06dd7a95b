package service

import (
	"context"
	"database/sql"
	"time"

	"portfolio-tracker/internal/database"
	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

// SystemService covers the administrative surface: store statistics,
// provider status, and the destructive reset.
type SystemService struct {
	db           *sql.DB
	priceRepo    *repository.PriceRepository
	tradeRepo    *repository.TradeRepository
	snapshotRepo *repository.SnapshotRepository
	tradeService *TradeService
	provider     PriceProvider

	cooldownSeconds int
}

// NewSystemService creates a new SystemService with the provided dependencies.
func NewSystemService(
	db *sql.DB,
	priceRepo *repository.PriceRepository,
	tradeRepo *repository.TradeRepository,
	snapshotRepo *repository.SnapshotRepository,
	tradeService *TradeService,
	provider PriceProvider,
	cooldownSeconds int,
) *SystemService {
	return &SystemService{
		db:              db,
		priceRepo:       priceRepo,
		tradeRepo:       tradeRepo,
		snapshotRepo:    snapshotRepo,
		tradeService:    tradeService,
		provider:        provider,
		cooldownSeconds: cooldownSeconds,
	}
}

// Stats summarizes the persisted state.
func (s *SystemService) Stats() (*model.StoreStats, error) {
	prices, err := s.priceRepo.Count()
	if err != nil {
		return nil, err
	}
	trades, err := s.tradeRepo.Count()
	if err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.Count()
	if err != nil {
		return nil, err
	}
	tickers, err := s.priceRepo.Tickers()
	if err != nil {
		return nil, err
	}

	positions, cash, err := s.tradeService.PositionsAndCash()
	if err != nil {
		return nil, err
	}
	cashBalance, _ := cash.Float64()

	held := make(map[string]int64)
	for ticker, shares := range positions {
		if shares != 0 {
			held[ticker] = shares
		}
	}

	stats := &model.StoreStats{
		TotalPrices:      prices,
		TotalTrades:      trades,
		TotalSnapshots:   snapshots,
		StocksTracked:    len(tickers),
		CurrentCash:      cashBalance,
		CurrentPositions: held,
	}

	oldest, latest, err := s.priceRepo.TimestampBounds()
	if err != nil {
		return nil, err
	}
	if oldest != nil && latest != nil {
		oldestStr := oldest.Format(time.RFC3339)
		latestStr := latest.Format(time.RFC3339)
		stats.OldestPrice = &oldestStr
		stats.LatestPrice = &latestStr
	}

	return stats, nil
}

// ProviderStatus reports the provider's quota state and whether the
// market is currently open. A market status failure leaves market_open
// null rather than erroring the whole response.
func (s *SystemService) ProviderStatus(ctx context.Context) *model.ProviderStatus {
	quota := s.provider.QuotaStatus()

	status := &model.ProviderStatus{
		Provider:        s.provider.Name(),
		IsHealthy:       quota.DailyRemaining != 0 && quota.MinuteRemaining != 0,
		CooldownSeconds: s.cooldownSeconds,
		Quota:           quota,
	}

	if open, err := s.provider.GetMarketStatus(ctx); err == nil {
		status.MarketOpen = &open
	}

	return status
}

// Reset wipes all stored data and re-seeds the initial cash and start
// date. Irreversible.
func (s *SystemService) Reset() error {
	if err := database.Reset(s.db); err != nil {
		return err
	}
	return s.tradeService.Initialize()
}

// HealthCheck verifies database connectivity.
func (s *SystemService) HealthCheck() error {
	return database.HealthCheck(s.db)
}
