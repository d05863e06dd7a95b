package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

// maxNoteLength caps free-text notes on trades.
const maxNoteLength = 1000

// TradeService handles trade execution and position tracking. The
// ledger append and the derived TRADE price row are written as one
// transaction: both succeed or neither does.
type TradeService struct {
	db          *sql.DB
	tradeRepo   *repository.TradeRepository
	priceRepo   *repository.PriceRepository
	configRepo  *repository.ConfigRepository
	initialCash decimal.Decimal

	now func() time.Time
}

// NewTradeService creates a new TradeService with the provided repository dependencies.
func NewTradeService(
	db *sql.DB,
	tradeRepo *repository.TradeRepository,
	priceRepo *repository.PriceRepository,
	configRepo *repository.ConfigRepository,
	initialCash float64,
) *TradeService {
	return &TradeService{
		db:          db,
		tradeRepo:   tradeRepo,
		priceRepo:   priceRepo,
		configRepo:  configRepo,
		initialCash: decimal.NewFromFloat(initialCash),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// InitialCash resolves the configured starting balance, preferring the
// value persisted at first run over the static default.
func (s *TradeService) InitialCash() decimal.Decimal {
	value, found, err := s.configRepo.Get(keyInitialCash)
	if err != nil || !found {
		return s.initialCash
	}
	cash, err := decimal.NewFromString(value)
	if err != nil {
		return s.initialCash
	}
	return cash
}

// Initialize persists initial_cash and start_date on first run. Both
// are immutable afterwards.
func (s *TradeService) Initialize() error {
	_, found, err := s.configRepo.Get(keyInitialCash)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	if err := s.configRepo.Set(keyInitialCash, s.initialCash.String()); err != nil {
		return err
	}
	return s.configRepo.Set(keyStartDate, s.now().Format(time.RFC3339))
}

// ExecuteTrade validates and records one buy or sell. Preconditions:
// positive integer quantity, positive price, SELL covered by the
// position replayed up to the trade date, BUY covered by the replayed
// cash balance. A violation returns a typed error with no mutation.
func (s *TradeService) ExecuteTrade(ctx context.Context, req request.ExecuteTradeRequest) (*model.Trade, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	action := strings.ToUpper(strings.TrimSpace(req.Action))

	if ticker == "" || len(ticker) > 10 {
		return nil, fmt.Errorf("invalid ticker: %q", req.Ticker)
	}
	if action != model.ActionBuy && action != model.ActionSell {
		return nil, fmt.Errorf("[%s] invalid action: %s", ticker, req.Action)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("[%s] quantity must be a positive integer", ticker)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("[%s] price must be > 0", ticker)
	}

	timestamp := s.now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}
		// Noon keeps backdated trades ordered after that day's
		// market-close price rows.
		timestamp = parsed.Add(12 * time.Hour)
	}
	if timestamp.After(s.now()) {
		return nil, fmt.Errorf("[%s] trade date cannot be in the future", ticker)
	}

	if action == model.ActionSell {
		firstBuy, err := s.tradeRepo.FirstBuyTimestamp(ticker)
		if err != nil {
			return nil, err
		}
		if firstBuy == nil || timestamp.Before(*firstBuy) {
			return nil, fmt.Errorf("%w: no %s purchase on record before %s",
				apperrors.ErrSellBeforeFirstBuy, ticker, timestamp.Format("2006-01-02"))
		}
	}

	price := decimal.NewFromFloat(req.Price)
	totalCost := price.Mul(decimal.NewFromInt(req.Quantity))

	trades, err := s.tradeRepo.All()
	if err != nil {
		return nil, err
	}
	positions, cash := replayLedger(trades, &timestamp, s.InitialCash())

	positionBefore := positions[ticker]
	cashBefore := cash

	var positionAfter int64
	var cashAfter decimal.Decimal
	switch action {
	case model.ActionBuy:
		positionAfter = positionBefore + req.Quantity
		cashAfter = cashBefore.Sub(totalCost)
		if cashAfter.IsNegative() {
			return nil, fmt.Errorf("%w: have %s, need %s",
				apperrors.ErrInsufficientCash, cashBefore.StringFixed(2), totalCost.StringFixed(2))
		}
	case model.ActionSell:
		positionAfter = positionBefore - req.Quantity
		cashAfter = cashBefore.Add(totalCost)
		if positionAfter < 0 {
			return nil, fmt.Errorf("%w: have %d shares of %s, tried to sell %d",
				apperrors.ErrInsufficientShares, positionBefore, ticker, req.Quantity)
		}
	}

	note := req.Note
	if len(note) > maxNoteLength {
		note = note[:maxNoteLength]
	}

	trade := &model.Trade{
		Timestamp:      timestamp,
		Ticker:         ticker,
		Action:         action,
		Quantity:       req.Quantity,
		Price:          price,
		TotalCost:      totalCost,
		PositionBefore: positionBefore,
		PositionAfter:  positionAfter,
		CashBefore:     cashBefore,
		CashAfter:      cashAfter,
		Note:           sanitizeNote(note),
	}

	// The trade price doubles as a same-day price observation so charts
	// reflect manually entered prices without a provider fetch.
	latestTs, err := s.priceRepo.LatestTimestamp(ticker)
	if err != nil {
		return nil, err
	}
	priceValue, _ := price.Float64()
	priceRecord := &model.PriceRecord{
		Ticker:     ticker,
		Timestamp:  dateOnly(timestamp),
		Close:      priceValue,
		Kind:       model.KindTrade,
		Source:     "manual trade",
		OutOfOrder: latestTs != nil && dateOnly(timestamp).Before(*latestTs),
		Note:       fmt.Sprintf("%s %d", action, req.Quantity),
	}
	if err := priceRecord.Validate(s.now()); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin trade transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := s.tradeRepo.WithTx(tx).Insert(ctx, trade); err != nil {
		return nil, err
	}
	if _, err := s.priceRepo.WithTx(tx).Insert(ctx, priceRecord); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	return trade, nil
}

// RecentTrades returns the newest trades first, capped at limit.
func (s *TradeService) RecentTrades(limit int) ([]model.Trade, error) {
	return s.tradeRepo.Recent(limit)
}

// PositionsAndCash replays the full ledger and returns current
// holdings and cash. State is always derived, never stored.
func (s *TradeService) PositionsAndCash() (map[string]int64, decimal.Decimal, error) {
	trades, err := s.tradeRepo.All()
	if err != nil {
		return nil, decimal.Zero, err
	}
	positions, cash := replayLedger(trades, nil, s.InitialCash())
	return positions, cash, nil
}
