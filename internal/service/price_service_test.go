package service_test

import (
	"context"
	"errors"
	"testing"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
	"portfolio-tracker/internal/testutil"
)

// TestPriceService_Backfill tests gap-only fetching.
//
// WHY: Provider calls are the scarce resource in this system. The
// planner must fetch only what is missing: nothing when coverage is
// complete, a forward gap when data is stale, a backward gap when the
// lookback window extends past the oldest row.
func TestPriceService_Backfill(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches the full lookback window for an unknown ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(5, "SPY")
		svc := testutil.NewTestPriceService(t, db, provider)

		counts, errs := svc.Backfill(ctx, []string{"SPY"})
		if len(errs) != 0 {
			t.Fatalf("Backfill() returned unexpected errors: %v", errs)
		}
		if counts["SPY"] != 5 {
			t.Errorf("Expected 5 records stored, got %d", counts["SPY"])
		}
		if provider.CallCount != 1 {
			t.Errorf("Expected 1 provider call, got %d", provider.CallCount)
		}
	})

	t.Run("makes no provider call when coverage is complete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(5, "SPY")
		svc := testutil.NewTestPriceService(t, db, provider)

		// Cover the entire lookback window
		testutil.NewPrice("SPY").At(testutil.DaysAgo(testutil.TestLookbackDays)).Insert(t, db)
		testutil.NewPrice("SPY").At(testutil.DaysAgo(0)).Insert(t, db)

		counts, errs := svc.Backfill(ctx, []string{"SPY"})
		if len(errs) != 0 {
			t.Fatalf("Backfill() returned unexpected errors: %v", errs)
		}
		if counts["SPY"] != 0 {
			t.Errorf("Expected 0 records stored, got %d", counts["SPY"])
		}
		if provider.CallCount != 0 {
			t.Errorf("Expected 0 provider calls, got %d", provider.CallCount)
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(testutil.TestLookbackDays+10, "SPY")
		svc := testutil.NewTestPriceService(t, db, provider)

		first, errs := svc.Backfill(ctx, []string{"SPY"})
		if len(errs) != 0 {
			t.Fatalf("First Backfill() returned unexpected errors: %v", errs)
		}
		if first["SPY"] == 0 {
			t.Fatal("Expected the first run to store records")
		}

		second, errs := svc.Backfill(ctx, []string{"SPY"})
		if len(errs) != 0 {
			t.Fatalf("Second Backfill() returned unexpected errors: %v", errs)
		}
		if second["SPY"] != 0 {
			t.Errorf("Expected idempotent second run, stored %d records", second["SPY"])
		}
	})

	t.Run("always includes the benchmark ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(3, "AAPL", "SPY")
		svc := testutil.NewTestPriceService(t, db, provider)

		counts, errs := svc.Backfill(ctx, []string{"AAPL"})
		if len(errs) != 0 {
			t.Fatalf("Backfill() returned unexpected errors: %v", errs)
		}
		if _, ok := counts["SPY"]; !ok {
			t.Error("Expected the benchmark ticker to be backfilled")
		}
		if counts["SPY"] != 3 {
			t.Errorf("Expected 3 benchmark records, got %d", counts["SPY"])
		}
	})

	t.Run("quota exhaustion stops the run early", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(3, "AAPL", "MSFT").
			WithError(&apperrors.QuotaError{Scope: "day", Limit: 500})
		svc := testutil.NewTestPriceService(t, db, provider)

		_, errs := svc.Backfill(ctx, []string{"AAPL", "MSFT"})
		if len(errs) != 1 {
			t.Fatalf("Expected 1 error before the early stop, got %d", len(errs))
		}
		if !errors.Is(errs[0], apperrors.ErrQuotaExceeded) {
			t.Errorf("Expected ErrQuotaExceeded, got %v", errs[0])
		}
		if provider.CallCount != 1 {
			t.Errorf("Expected no further calls after quota error, got %d", provider.CallCount)
		}
	})

	t.Run("non-quota errors continue with remaining tickers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(3, "AAPL", "MSFT", "SPY").
			WithError(errors.New("boom"))
		svc := testutil.NewTestPriceService(t, db, provider)

		_, errs := svc.Backfill(ctx, []string{"AAPL", "MSFT"})
		if len(errs) != 3 {
			t.Errorf("Expected one error per ticker including benchmark, got %d", len(errs))
		}
		if provider.CallCount != 3 {
			t.Errorf("Expected all tickers attempted, got %d calls", provider.CallCount)
		}
	})

	t.Run("flags records older than the newest stored row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider(5, "SPY")
		svc := testutil.NewTestPriceService(t, db, provider)

		// A trade row for today makes all backfilled history out of order
		testutil.NewPrice("SPY").At(testutil.DaysAgo(0)).OfKind(model.KindTrade).WithNote("BUY 1").Insert(t, db)

		if _, errs := svc.Backfill(ctx, []string{"SPY"}); len(errs) != 0 {
			t.Fatalf("Backfill() returned unexpected errors: %v", errs)
		}

		priceRepo := repository.NewPriceRepository(db)
		records, err := priceRepo.Series("SPY", testutil.DaysAgo(6))
		if err != nil {
			t.Fatalf("Series() returned unexpected error: %v", err)
		}
		flagged := 0
		for _, r := range records {
			if r.Kind == model.KindHistory && r.OutOfOrder {
				flagged++
			}
		}
		if flagged != 5 {
			t.Errorf("Expected 5 out-of-order history rows, got %d", flagged)
		}
	})
}

// TestPriceService_Refresh tests the cooldown-guarded refresh.
//
// WHY: The cooldown is what lets a scheduled refresh and a manual
// refresh coexist without burning quota. A second refresh inside the
// window must return a typed error without touching the provider.
func TestPriceService_Refresh(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockProvider(5, "SPY")
	svc := testutil.NewTestPriceService(t, db, provider)

	result, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() returned unexpected error: %v", err)
	}
	if result.TotalAdded != 5 {
		t.Errorf("Expected 5 records added, got %d", result.TotalAdded)
	}
	callsAfterFirst := provider.CallCount

	_, err = svc.Refresh(ctx)
	if !errors.Is(err, apperrors.ErrCooldownActive) {
		t.Fatalf("Expected ErrCooldownActive, got %v", err)
	}

	var cooldownErr *apperrors.CooldownError
	if !errors.As(err, &cooldownErr) {
		t.Fatalf("Expected *CooldownError, got %T", err)
	}
	if cooldownErr.Remaining <= 0 || cooldownErr.Remaining > testutil.TestCooldownSeconds {
		t.Errorf("Remaining seconds out of range: %d", cooldownErr.Remaining)
	}

	if provider.CallCount != callsAfterFirst {
		t.Errorf("Expected no provider calls during cooldown, got %d extra",
			provider.CallCount-callsAfterFirst)
	}

	// The refresh also records a snapshot
	snapshotRepo := repository.NewSnapshotRepository(db)
	count, err := snapshotRepo.Count()
	if err != nil {
		t.Fatalf("Count() returned unexpected error: %v", err)
	}
	if count == 0 {
		t.Error("Expected the refresh to record a snapshot")
	}
}
