package service

import (
	"math"
	"sort"
	"time"

	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/repository"
)

const (
	timelineDefaultDays = 90
	timelineMaxDays     = 3650
	tradingDaysPerYear  = 252
	defaultRiskFreeRate = 0.045
)

// AnalyticsService computes portfolio statistics from the snapshot
// value series, the trade ledger, and stored prices. Everything is
// derived on read; nothing here mutates state.
type AnalyticsService struct {
	snapshotRepo *repository.SnapshotRepository
	priceRepo    *repository.PriceRepository
	tradeRepo    *repository.TradeRepository
	configRepo   *repository.ConfigRepository
	tradeService *TradeService

	benchmarkTicker string
	lookbackDays    int
	riskFreeRate    float64

	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService with the provided dependencies.
func NewAnalyticsService(
	snapshotRepo *repository.SnapshotRepository,
	priceRepo *repository.PriceRepository,
	tradeRepo *repository.TradeRepository,
	configRepo *repository.ConfigRepository,
	tradeService *TradeService,
	benchmarkTicker string,
	lookbackDays int,
	riskFreeRate float64,
) *AnalyticsService {
	if riskFreeRate <= 0 {
		riskFreeRate = defaultRiskFreeRate
	}
	return &AnalyticsService{
		snapshotRepo:    snapshotRepo,
		priceRepo:       priceRepo,
		tradeRepo:       tradeRepo,
		configRepo:      configRepo,
		tradeService:    tradeService,
		benchmarkTicker: benchmarkTicker,
		lookbackDays:    lookbackDays,
		riskFreeRate:    riskFreeRate,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// ClampDays normalizes a days query parameter to [1, 3650], substituting
// the default for zero or negative input.
func ClampDays(days int) int {
	if days <= 0 {
		return timelineDefaultDays
	}
	if days > timelineMaxDays {
		return timelineMaxDays
	}
	return days
}

// Summary values the current portfolio at the latest stored closes.
func (s *AnalyticsService) Summary() (*model.PortfolioSummary, error) {
	positions, cash, err := s.tradeService.PositionsAndCash()
	if err != nil {
		return nil, err
	}
	cashBalance, _ := cash.Float64()

	tickers := make([]string, 0, len(positions))
	for ticker, shares := range positions {
		if shares > 0 {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)

	closes, err := s.priceRepo.LatestCloses(tickers)
	if err != nil {
		return nil, err
	}

	stockValue := 0.0
	holdings := []model.Holding{}
	for _, ticker := range tickers {
		value := float64(positions[ticker]) * closes[ticker]
		stockValue += value
		holdings = append(holdings, model.Holding{
			Ticker: ticker,
			Shares: positions[ticker],
			Price:  closes[ticker],
			Value:  value,
		})
	}

	totalValue := stockValue + cashBalance
	if totalValue > 0 {
		for i := range holdings {
			holdings[i].Weight = holdings[i].Value / totalValue * 100
		}
	}

	initialCash, _ := s.tradeService.InitialCash().Float64()
	pnl := totalValue - initialCash
	pnlPercent := 0.0
	if initialCash > 0 {
		pnlPercent = pnl / initialCash * 100
	}

	return &model.PortfolioSummary{
		TotalValue: totalValue,
		Cash:       cashBalance,
		StockValue: stockValue,
		TotalPnL:   pnl,
		PnLPercent: pnlPercent,
		Holdings:   holdings,
	}, nil
}

// Timeline returns the portfolio value series over the given window,
// optionally with the benchmark forward-filled onto the same date axis.
// Both series are also expressed as percent change from their first
// observed value.
func (s *AnalyticsService) Timeline(days int, includeBenchmark bool) (*model.Timeline, error) {
	days = ClampDays(days)
	cutoff := s.now().AddDate(0, 0, -days)

	points, err := s.snapshotRepo.ValueSeries(cutoff)
	if err != nil {
		return nil, err
	}

	timeline := &model.Timeline{
		Dates:        make([]string, len(points)),
		Values:       make([]float64, len(points)),
		PortfolioPct: make([]float64, len(points)),
	}
	for i, p := range points {
		timeline.Dates[i] = p.Timestamp.Format(time.RFC3339)
		timeline.Values[i] = p.Value
		if points[0].Value != 0 {
			timeline.PortfolioPct[i] = (p.Value - points[0].Value) / points[0].Value * 100
		}
	}

	if !includeBenchmark || len(points) == 0 {
		return timeline, nil
	}

	benchmark, err := s.priceRepo.Series(s.benchmarkTicker, cutoff.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	timeline.BenchmarkTicker = s.benchmarkTicker
	timeline.BenchmarkValues = make([]*float64, len(points))
	timeline.BenchmarkPct = make([]*float64, len(points))

	// Forward fill: each snapshot date takes the most recent benchmark
	// close at or before it. Dates before the first close stay nil.
	idx := -1
	var firstValue float64
	for i, p := range points {
		for idx+1 < len(benchmark) && !benchmark[idx+1].Timestamp.After(p.Timestamp) {
			idx++
		}
		if idx < 0 {
			continue
		}
		value := benchmark[idx].Close
		timeline.BenchmarkValues[i] = &value

		if firstValue == 0 {
			firstValue = value
		}
		pct := (value - firstValue) / firstValue * 100
		timeline.BenchmarkPct[i] = &pct
	}

	return timeline, nil
}

// TickerSeries returns a ticker's stored closes over the given window.
func (s *AnalyticsService) TickerSeries(ticker string, days int) (*model.TickerSeries, error) {
	days = ClampDays(days)
	records, err := s.priceRepo.Series(ticker, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	series := &model.TickerSeries{
		Timestamps: make([]string, len(records)),
		Prices:     make([]float64, len(records)),
	}
	for i, r := range records {
		series.Timestamps[i] = r.Timestamp.Format(time.RFC3339)
		series.Prices[i] = r.Close
	}
	return series, nil
}

// AllTickerSeries returns the price series of every tracked ticker.
func (s *AnalyticsService) AllTickerSeries(days int) (map[string]*model.TickerSeries, error) {
	tickers, err := s.priceRepo.Tickers()
	if err != nil {
		return nil, err
	}

	result := make(map[string]*model.TickerSeries, len(tickers))
	for _, ticker := range tickers {
		series, err := s.TickerSeries(ticker, days)
		if err != nil {
			return nil, err
		}
		result[ticker] = series
	}
	return result, nil
}

// Performance computes return, risk, and trade statistics over the
// lookback window.
func (s *AnalyticsService) Performance() (*model.PerformanceMetrics, error) {
	cutoff := s.now().AddDate(0, 0, -s.lookbackDays)
	points, err := s.snapshotRepo.ValueSeries(cutoff)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	metrics := &model.PerformanceMetrics{}

	if len(values) >= 2 && values[0] != 0 {
		metrics.TotalReturn = (values[len(values)-1] - values[0]) / values[0] * 100

		returns := dailyReturns(values)
		stddev := popStddev(returns)
		metrics.Volatility = stddev * math.Sqrt(tradingDaysPerYear) * 100

		if stddev > 0 {
			rfDaily := s.currentRiskFreeRate() / tradingDaysPerYear
			excess := make([]float64, len(returns))
			for i, r := range returns {
				excess[i] = r - rfDaily
			}
			metrics.SharpeRatio = mean(excess) / popStddev(excess) * math.Sqrt(tradingDaysPerYear)
		}

		metrics.MaxDrawdown = maxDrawdown(values)
	}

	trades, err := s.tradeRepo.All()
	if err != nil {
		return nil, err
	}
	metrics.TotalTrades = len(trades)

	if err := s.fillTradeStats(metrics, trades); err != nil {
		return nil, err
	}

	return metrics, nil
}

// fillTradeStats computes win rate and best/worst ticker from the
// ledger against the latest stored closes.
func (s *AnalyticsService) fillTradeStats(metrics *model.PerformanceMetrics, trades []model.Trade) error {
	tickers := []string{}
	seen := map[string]bool{}
	for _, t := range trades {
		if !seen[t.Ticker] {
			seen[t.Ticker] = true
			tickers = append(tickers, t.Ticker)
		}
	}

	closes, err := s.priceRepo.LatestCloses(tickers)
	if err != nil {
		return err
	}

	buys, wins := 0, 0
	type tickerPnL struct {
		cost  float64
		value float64
	}
	pnl := map[string]*tickerPnL{}

	for _, t := range trades {
		price, _ := t.Price.Float64()
		cost, _ := t.TotalCost.Float64()

		if t.Action == model.ActionBuy {
			buys++
			if latest, ok := closes[t.Ticker]; ok && latest > price {
				wins++
			}
		}

		entry := pnl[t.Ticker]
		if entry == nil {
			entry = &tickerPnL{}
			pnl[t.Ticker] = entry
		}
		switch t.Action {
		case model.ActionBuy:
			entry.cost += cost
			entry.value += float64(t.Quantity) * closes[t.Ticker]
		case model.ActionSell:
			entry.value += cost
			entry.value -= float64(t.Quantity) * closes[t.Ticker]
		}
	}

	if buys > 0 {
		metrics.WinRate = float64(wins) / float64(buys) * 100
	}

	bestReturn, worstReturn := math.Inf(-1), math.Inf(1)
	for _, ticker := range tickers {
		entry := pnl[ticker]
		if entry.cost == 0 {
			continue
		}
		r := (entry.value - entry.cost) / entry.cost
		if r > bestReturn {
			bestReturn = r
			metrics.BestStock = ticker
		}
		if r < worstReturn {
			worstReturn = r
			metrics.WorstStock = ticker
		}
	}

	return nil
}

// currentRiskFreeRate prefers the portfolio_config override over the
// configured default.
func (s *AnalyticsService) currentRiskFreeRate() float64 {
	return configFloat(s.configRepo, keyRiskFreeRate, s.riskFreeRate)
}

func dailyReturns(values []float64) []float64 {
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popStddev is the population standard deviation (divisor N, not N-1).
func popStddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// maxDrawdown returns the largest peak-to-trough decline as a negative
// percentage. A monotonically rising series yields 0.
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	runningMax := values[0]
	worst := 0.0
	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		if runningMax > 0 {
			dd := (v - runningMax) / runningMax * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
