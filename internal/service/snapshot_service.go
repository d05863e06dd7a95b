package service

import (
	"context"
	"log"
	"time"

	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

// SnapshotService records point-in-time portfolio valuations. The
// snapshot log is what the timeline and performance endpoints read,
// so they never recompute value from full trade and price history.
type SnapshotService struct {
	snapshotRepo *repository.SnapshotRepository
	priceRepo    *repository.PriceRepository
	tradeRepo    *repository.TradeRepository
	tradeService *TradeService

	now func() time.Time
}

// NewSnapshotService creates a new SnapshotService with the provided dependencies.
func NewSnapshotService(
	snapshotRepo *repository.SnapshotRepository,
	priceRepo *repository.PriceRepository,
	tradeRepo *repository.TradeRepository,
	tradeService *TradeService,
) *SnapshotService {
	return &SnapshotService{
		snapshotRepo: snapshotRepo,
		priceRepo:    priceRepo,
		tradeRepo:    tradeRepo,
		tradeService: tradeService,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Take records one snapshot row per tracked ticker at the current
// moment and returns the total portfolio value. Fingerprint collisions
// (same moment, same positions) are no-ops.
func (s *SnapshotService) Take(ctx context.Context, note string) (float64, error) {
	tickers, err := trackedTickers(s.priceRepo, s.tradeRepo)
	if err != nil {
		return 0, err
	}

	positions, cash, err := s.tradeService.PositionsAndCash()
	if err != nil {
		return 0, err
	}
	cashBalance, _ := cash.Float64()

	closes, err := s.priceRepo.LatestCloses(tickers)
	if err != nil {
		return 0, err
	}

	stockValue := 0.0
	for _, ticker := range tickers {
		stockValue += float64(positions[ticker]) * closes[ticker]
	}
	portfolioValue := stockValue + cashBalance

	timestamp := s.now()
	for _, ticker := range tickers {
		snapshot := &model.Snapshot{
			Timestamp:      timestamp,
			Ticker:         ticker,
			Position:       positions[ticker],
			CashBalance:    cashBalance,
			PortfolioValue: portfolioValue,
			Note:           sanitizeNote(note),
		}
		if err := s.snapshotRepo.Insert(ctx, snapshot); err != nil {
			return 0, err
		}
	}

	log.Printf("Snapshot saved: portfolio value %.2f across %d tickers", portfolioValue, len(tickers))
	return portfolioValue, nil
}
