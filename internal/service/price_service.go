package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

// PriceService owns the price-fetching and caching layer: it plans the
// minimal backfill per ticker, invokes the provider only for gaps,
// stores validated records by fingerprint, and throttles refreshes
// with a database-backed cooldown.
type PriceService struct {
	provider        PriceProvider
	priceRepo       *repository.PriceRepository
	tradeRepo       *repository.TradeRepository
	configRepo      *repository.ConfigRepository
	snapshotService *SnapshotService

	benchmarkTicker string
	lookbackDays    int
	cooldown        time.Duration

	// Collapses overlapping refresh requests into one provider run.
	group singleflight.Group

	now func() time.Time
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(
	provider PriceProvider,
	priceRepo *repository.PriceRepository,
	tradeRepo *repository.TradeRepository,
	configRepo *repository.ConfigRepository,
	snapshotService *SnapshotService,
	benchmarkTicker string,
	lookbackDays int,
	cooldownSeconds int,
) *PriceService {
	return &PriceService{
		provider:        provider,
		priceRepo:       priceRepo,
		tradeRepo:       tradeRepo,
		configRepo:      configRepo,
		snapshotService: snapshotService,
		benchmarkTicker: benchmarkTicker,
		lookbackDays:    lookbackDays,
		cooldown:        time.Duration(cooldownSeconds) * time.Second,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RefreshResult reports what one refresh run changed.
type RefreshResult struct {
	Counts     map[string]int `json:"counts"`
	TotalAdded int            `json:"total_added"`
	Message    string         `json:"message"`
}

// CooldownSeconds returns the configured refresh interval floor.
func (s *PriceService) CooldownSeconds() int {
	return int(s.cooldown.Seconds())
}

// Refresh backfills all tracked tickers plus the benchmark, then takes
// one snapshot. A refresh inside the cooldown window returns a
// CooldownError without touching the provider or the price store.
// Concurrent callers share a single execution.
func (s *PriceService) Refresh(ctx context.Context) (*RefreshResult, error) {
	result, err, _ := s.group.Do("refresh", func() (any, error) {
		if err := s.checkCooldown(); err != nil {
			return nil, err
		}

		tickers, err := trackedTickers(s.priceRepo, s.tradeRepo)
		if err != nil {
			return nil, err
		}

		counts, backfillErrs := s.Backfill(ctx, tickers)

		if err := s.configRepo.Set(keyLastRefresh, s.now().Format(time.RFC3339)); err != nil {
			return nil, err
		}

		if _, err := s.snapshotService.Take(ctx, "refresh"); err != nil {
			return nil, err
		}

		total := 0
		for _, n := range counts {
			total += n
		}

		message := fmt.Sprintf("Updated data. Added %d records.", total)
		if len(backfillErrs) > 0 {
			shown := backfillErrs
			if len(shown) > 3 {
				shown = shown[:3]
			}
			parts := make([]string, len(shown))
			for i, e := range shown {
				parts[i] = e.Error()
			}
			message += fmt.Sprintf(" (Errors: %s)", strings.Join(parts, ", "))
		}

		return &RefreshResult{Counts: counts, TotalAdded: total, Message: message}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*RefreshResult), nil
}

// Backfill fetches and stores the missing portion of each ticker's
// history and returns the count of newly stored records per ticker.
// The benchmark ticker is always included. A validation failure aborts
// that ticker's fetch without storing partial rows; a quota violation
// stops the whole run since further calls cannot succeed either.
func (s *PriceService) Backfill(ctx context.Context, tickers []string) (map[string]int, []error) {
	withBenchmark := tickers
	if !contains(tickers, s.benchmarkTicker) {
		withBenchmark = append(append([]string{}, tickers...), s.benchmarkTicker)
	}

	counts := make(map[string]int, len(withBenchmark))
	var errs []error

	for _, ticker := range withBenchmark {
		added, err := s.backfillTicker(ctx, ticker)
		counts[ticker] = added
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			if errors.Is(err, apperrors.ErrQuotaExceeded) {
				log.Printf("[%s] quota exhausted, stopping backfill", ticker)
				break
			}
		}
	}

	return counts, errs
}

func (s *PriceService) backfillTicker(ctx context.Context, ticker string) (int, error) {
	minTs, maxTs, err := s.priceRepo.Coverage(ticker, model.KindHistory)
	if err != nil {
		return 0, err
	}

	gaps := s.planGaps(minTs, maxTs)
	if len(gaps) == 0 {
		log.Printf("[%s] data is up to date", ticker)
		return 0, nil
	}

	latestTs, err := s.priceRepo.LatestTimestamp(ticker)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, gap := range gaps {
		log.Printf("[%s] fetching %s to %s", ticker, gap.from.Format("2006-01-02"), gap.to.Format("2006-01-02"))

		records, err := s.provider.GetHistoricalPrices(ctx, ticker, gap.from, gap.to)
		if err != nil {
			return added, err
		}

		for i := range records {
			record := records[i]
			record.OutOfOrder = latestTs != nil && record.Timestamp.Before(*latestTs)
			record.Note = "backfill"

			inserted, err := s.priceRepo.Insert(ctx, &record)
			if err != nil {
				return added, err
			}
			if inserted {
				added++
			}
		}
	}

	log.Printf("[%s] added %d new price records", ticker, added)
	return added, nil
}

// dateRange is one inclusive fetch window.
type dateRange struct {
	from time.Time
	to   time.Time
}

// planGaps computes the minimal missing date ranges given the stored
// HISTORY coverage. No data means the full trailing lookback window; a
// stale newest row means a forward gap; an oldest row inside the
// lookback window means a backward extension. Both gaps can apply in
// one run.
func (s *PriceService) planGaps(minTs, maxTs *time.Time) []dateRange {
	today := dateOnly(s.now())
	lookbackStart := today.AddDate(0, 0, -s.lookbackDays)

	if minTs == nil || maxTs == nil {
		return []dateRange{{from: lookbackStart, to: today}}
	}

	var gaps []dateRange

	if dateOnly(*maxTs).Before(today.AddDate(0, 0, -1)) {
		gaps = append(gaps, dateRange{from: dateOnly(*maxTs).AddDate(0, 0, 1), to: today})
	}

	if dateOnly(*minTs).After(lookbackStart) {
		gaps = append(gaps, dateRange{from: lookbackStart, to: dateOnly(*minTs).AddDate(0, 0, -1)})
	}

	return gaps
}

// checkCooldown rejects a refresh until the configured interval since
// the last successful one has elapsed. The timestamp lives in
// portfolio_config so the guarantee survives restarts.
func (s *PriceService) checkCooldown() error {
	value, found, err := s.configRepo.Get(keyLastRefresh)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	lastRefresh, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil // unparseable timestamp never blocks a refresh
	}

	elapsed := s.now().Sub(lastRefresh)
	if elapsed < s.cooldown {
		return &apperrors.CooldownError{Remaining: int((s.cooldown - elapsed).Seconds())}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
