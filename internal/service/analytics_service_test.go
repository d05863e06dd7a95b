package service_test

import (
	"context"
	"math"
	"testing"
	"time"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/service"
	"portfolio-tracker/internal/testutil"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// TestClampDays tests the days parameter normalization.
func TestClampDays(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 90},
		{-5, 90},
		{50, 50},
		{3650, 3650},
		{5000, 3650},
	}
	for _, tc := range cases {
		if got := service.ClampDays(tc.in); got != tc.want {
			t.Errorf("ClampDays(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestAnalyticsService_Performance tests the risk and return formulas
// against a hand-computed value series.
//
// WHY: These formulas are the product. The series 100, 110, 99, 108.9
// has exact daily returns of +10%, -10%, +10%, which makes every
// metric computable by hand: population stddev sqrt(2)/15, drawdown
// -10%, total return 8.9%.
func TestAnalyticsService_Performance(t *testing.T) {
	t.Run("computes metrics over a literal series", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		values := []float64{100, 110, 99, 108.9}
		for i, v := range values {
			testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(len(values)-i), v)
		}

		metrics, err := svc.Performance()
		if err != nil {
			t.Fatalf("Performance() returned unexpected error: %v", err)
		}

		if !almostEqual(metrics.TotalReturn, 8.9, 1e-9) {
			t.Errorf("TotalReturn = %f, want 8.9", metrics.TotalReturn)
		}

		// popstddev([0.1, -0.1, 0.1]) = sqrt(2)/15, annualized
		wantVolatility := math.Sqrt(2) / 15 * math.Sqrt(252) * 100
		if !almostEqual(metrics.Volatility, wantVolatility, 1e-6) {
			t.Errorf("Volatility = %f, want %f", metrics.Volatility, wantVolatility)
		}

		// mean excess = 1/30 - 0.045/252, over the same stddev
		wantSharpe := (1.0/30 - 0.045/252) / (math.Sqrt(2) / 15) * math.Sqrt(252)
		if !almostEqual(metrics.SharpeRatio, wantSharpe, 1e-6) {
			t.Errorf("SharpeRatio = %f, want %f", metrics.SharpeRatio, wantSharpe)
		}

		// Peak 110 to trough 99
		if !almostEqual(metrics.MaxDrawdown, -10, 1e-9) {
			t.Errorf("MaxDrawdown = %f, want -10", metrics.MaxDrawdown)
		}
	})

	t.Run("flat series reports zero volatility and zero sharpe", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		for i := 3; i >= 1; i-- {
			testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(i), 100000)
		}

		metrics, err := svc.Performance()
		if err != nil {
			t.Fatalf("Performance() returned unexpected error: %v", err)
		}
		if metrics.Volatility != 0 {
			t.Errorf("Volatility = %f, want 0", metrics.Volatility)
		}
		if metrics.SharpeRatio != 0 {
			t.Errorf("SharpeRatio = %f, want 0 when stddev is 0", metrics.SharpeRatio)
		}
		if metrics.TotalReturn != 0 {
			t.Errorf("TotalReturn = %f, want 0", metrics.TotalReturn)
		}
	})

	t.Run("monotonic rise has zero drawdown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		for i, v := range []float64{100, 105, 110} {
			testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(3-i), v)
		}

		metrics, err := svc.Performance()
		if err != nil {
			t.Fatalf("Performance() returned unexpected error: %v", err)
		}
		if metrics.MaxDrawdown != 0 {
			t.Errorf("MaxDrawdown = %f, want 0 for monotonic rise", metrics.MaxDrawdown)
		}
		if metrics.MaxDrawdown > 0 {
			t.Error("MaxDrawdown must never be positive")
		}
	})

	t.Run("empty series yields zeroed metrics", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		metrics, err := svc.Performance()
		if err != nil {
			t.Fatalf("Performance() returned unexpected error: %v", err)
		}
		if metrics.TotalReturn != 0 || metrics.Volatility != 0 || metrics.SharpeRatio != 0 {
			t.Errorf("Expected zeroed metrics for empty series, got %+v", metrics)
		}
	})

	t.Run("win rate counts buys above their purchase price", func(t *testing.T) {
		ctx := context.Background()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)
		tradeSvc := testutil.NewTestTradeService(t, db)

		if _, err := tradeSvc.ExecuteTrade(ctx, request.ExecuteTradeRequest{
			Ticker: "AAPL", Action: "BUY", Quantity: 10, Price: 150,
			Date: testutil.DaysAgo(5).Format("2006-01-02"),
		}); err != nil {
			t.Fatalf("Setup buy failed: %v", err)
		}
		if _, err := tradeSvc.ExecuteTrade(ctx, request.ExecuteTradeRequest{
			Ticker: "MSFT", Action: "BUY", Quantity: 5, Price: 400,
			Date: testutil.DaysAgo(5).Format("2006-01-02"),
		}); err != nil {
			t.Fatalf("Setup buy failed: %v", err)
		}

		// Latest closes: AAPL up, MSFT down
		testutil.NewPrice("AAPL").At(testutil.DaysAgo(1)).AtClose(160).Insert(t, db)
		testutil.NewPrice("MSFT").At(testutil.DaysAgo(1)).AtClose(390).Insert(t, db)

		metrics, err := svc.Performance()
		if err != nil {
			t.Fatalf("Performance() returned unexpected error: %v", err)
		}
		if !almostEqual(metrics.WinRate, 50, 1e-9) {
			t.Errorf("WinRate = %f, want 50", metrics.WinRate)
		}
		if metrics.TotalTrades != 2 {
			t.Errorf("TotalTrades = %d, want 2", metrics.TotalTrades)
		}
		if metrics.BestStock != "AAPL" {
			t.Errorf("BestStock = %s, want AAPL", metrics.BestStock)
		}
		if metrics.WorstStock != "MSFT" {
			t.Errorf("WorstStock = %s, want MSFT", metrics.WorstStock)
		}
	})

	t.Run("win rate is zero with no buys", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		metrics, err := svc.Performance()
		if err != nil {
			t.Fatalf("Performance() returned unexpected error: %v", err)
		}
		if metrics.WinRate != 0 {
			t.Errorf("WinRate = %f, want 0", metrics.WinRate)
		}
	})
}

// TestAnalyticsService_Timeline tests the value series and benchmark
// forward fill.
//
// WHY: Benchmark closes land on market days only, while snapshots can
// happen any day. Each snapshot date must pick up the most recent
// close at or before it, never a future one, and dates before the
// first close stay null.
func TestAnalyticsService_Timeline(t *testing.T) {
	t.Run("forward fills benchmark onto the snapshot axis", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		evening := 20 * time.Hour
		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(3).Add(evening), 100000)
		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(2).Add(evening), 101000)
		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(1).Add(evening), 102000)

		// Benchmark closes on day -3 and day -1 only
		testutil.NewPrice("SPY").At(testutil.DaysAgo(3)).AtClose(100).Insert(t, db)
		testutil.NewPrice("SPY").At(testutil.DaysAgo(1)).AtClose(110).Insert(t, db)

		timeline, err := svc.Timeline(30, true)
		if err != nil {
			t.Fatalf("Timeline() returned unexpected error: %v", err)
		}

		if len(timeline.Values) != 3 {
			t.Fatalf("Expected 3 points, got %d", len(timeline.Values))
		}
		if timeline.BenchmarkTicker != "SPY" {
			t.Errorf("BenchmarkTicker = %s, want SPY", timeline.BenchmarkTicker)
		}

		want := []float64{100, 100, 110} // day -2 forward-filled from day -3
		for i, w := range want {
			got := timeline.BenchmarkValues[i]
			if got == nil {
				t.Fatalf("BenchmarkValues[%d] is nil, want %f", i, w)
			}
			if *got != w {
				t.Errorf("BenchmarkValues[%d] = %f, want %f", i, *got, w)
			}
		}

		if *timeline.BenchmarkPct[0] != 0 || *timeline.BenchmarkPct[1] != 0 {
			t.Error("Expected zero benchmark change while forward-filled")
		}
		if !almostEqual(*timeline.BenchmarkPct[2], 10, 1e-9) {
			t.Errorf("BenchmarkPct[2] = %f, want 10", *timeline.BenchmarkPct[2])
		}
	})

	t.Run("snapshot dates before the first close stay nil", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(5), 100000)
		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(1), 101000)
		testutil.NewPrice("SPY").At(testutil.DaysAgo(2)).AtClose(100).Insert(t, db)

		timeline, err := svc.Timeline(10, true)
		if err != nil {
			t.Fatalf("Timeline() returned unexpected error: %v", err)
		}
		if timeline.BenchmarkValues[0] != nil {
			t.Error("Expected nil benchmark before its first close")
		}
		if timeline.BenchmarkValues[1] == nil {
			t.Error("Expected a benchmark value once a close exists")
		}
	})

	t.Run("portfolio pct is change from the first value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAnalyticsService(t, db)

		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(2), 100000)
		testutil.InsertSnapshotValue(t, db, testutil.DaysAgo(1), 100100)

		timeline, err := svc.Timeline(10, false)
		if err != nil {
			t.Fatalf("Timeline() returned unexpected error: %v", err)
		}
		if timeline.PortfolioPct[0] != 0 {
			t.Errorf("PortfolioPct[0] = %f, want 0", timeline.PortfolioPct[0])
		}
		if !almostEqual(timeline.PortfolioPct[1], 0.1, 1e-9) {
			t.Errorf("PortfolioPct[1] = %f, want 0.1", timeline.PortfolioPct[1])
		}
		if timeline.BenchmarkValues != nil {
			t.Error("Expected no benchmark series when not requested")
		}
	})
}

// TestAnalyticsService_Summary tests portfolio valuation.
//
// WHY: The summary is the landing-page number. Holdings must be valued
// at the latest close, weights must sum against total value, and P&L
// must compare against the configured initial cash.
func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAnalyticsService(t, db)
	tradeSvc := testutil.NewTestTradeService(t, db)

	if _, err := tradeSvc.ExecuteTrade(ctx, request.ExecuteTradeRequest{
		Ticker: "AAPL", Action: "BUY", Quantity: 10, Price: 150,
		Date: testutil.DaysAgo(3).Format("2006-01-02"),
	}); err != nil {
		t.Fatalf("Setup buy failed: %v", err)
	}
	testutil.NewPrice("AAPL").At(testutil.DaysAgo(1)).AtClose(160).Insert(t, db)

	summary, err := svc.Summary()
	if err != nil {
		t.Fatalf("Summary() returned unexpected error: %v", err)
	}

	if !almostEqual(summary.Cash, 98500, 1e-9) {
		t.Errorf("Cash = %f, want 98500", summary.Cash)
	}
	if !almostEqual(summary.StockValue, 1600, 1e-9) {
		t.Errorf("StockValue = %f, want 1600", summary.StockValue)
	}
	if !almostEqual(summary.TotalValue, 100100, 1e-9) {
		t.Errorf("TotalValue = %f, want 100100", summary.TotalValue)
	}
	if !almostEqual(summary.TotalPnL, 100, 1e-9) {
		t.Errorf("TotalPnL = %f, want 100", summary.TotalPnL)
	}
	if !almostEqual(summary.PnLPercent, 0.1, 1e-9) {
		t.Errorf("PnLPercent = %f, want 0.1", summary.PnLPercent)
	}

	if len(summary.Holdings) != 1 {
		t.Fatalf("Expected 1 holding, got %d", len(summary.Holdings))
	}
	holding := summary.Holdings[0]
	if holding.Ticker != "AAPL" || holding.Shares != 10 || holding.Price != 160 {
		t.Errorf("Unexpected holding: %+v", holding)
	}
	if !almostEqual(holding.Weight, 1600.0/100100*100, 1e-9) {
		t.Errorf("Weight = %f, want %f", holding.Weight, 1600.0/100100*100)
	}
}
