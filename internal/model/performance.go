package model

// PerformanceMetrics is the analytics object returned by the
// performance endpoint. All percentages are expressed as numbers
// (0.1 means 0.1%), matching the frontend contract.
type PerformanceMetrics struct {
	TotalReturn float64 `json:"total_return"` // % change of the value series
	Volatility  float64 `json:"volatility"`   // annualized, in %
	SharpeRatio float64 `json:"sharpe_ratio"` // annualized; 0 when undefined
	MaxDrawdown float64 `json:"max_drawdown"` // always <= 0, in %
	WinRate     float64 `json:"win_rate"`     // % of BUY trades currently in profit
	TotalTrades int     `json:"total_trades"`
	BestStock   string  `json:"best_stock"`
	WorstStock  string  `json:"worst_stock"`
}

// Holding is one position line in the portfolio summary.
type Holding struct {
	Ticker string  `json:"ticker"`
	Shares int64   `json:"shares"`
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// PortfolioSummary is the current valuation of the whole portfolio.
type PortfolioSummary struct {
	TotalValue float64   `json:"total_value"`
	Cash       float64   `json:"cash"`
	StockValue float64   `json:"stock_value"`
	TotalPnL   float64   `json:"total_pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	Holdings   []Holding `json:"holdings"`
}

// Timeline is the portfolio value series, optionally paired with a
// forward-filled benchmark series on the same date axis.
type Timeline struct {
	Dates           []string   `json:"dates"`
	Values          []float64  `json:"values"`
	PortfolioPct    []float64  `json:"portfolio_pct"`
	BenchmarkValues []*float64 `json:"benchmark_values,omitempty"`
	BenchmarkPct    []*float64 `json:"benchmark_pct,omitempty"`
	BenchmarkTicker string     `json:"benchmark_ticker,omitempty"`
}

// TickerSeries is the per-ticker price series returned by the stocks endpoint.
type TickerSeries struct {
	Timestamps []string  `json:"timestamps"`
	Prices     []float64 `json:"prices"`
}

// StoreStats summarizes the persisted state for the stats endpoint.
type StoreStats struct {
	TotalPrices      int              `json:"total_prices"`
	TotalTrades      int              `json:"total_trades"`
	TotalSnapshots   int              `json:"total_snapshots"`
	StocksTracked    int              `json:"stocks_tracked"`
	CurrentCash      float64          `json:"current_cash"`
	CurrentPositions map[string]int64 `json:"current_positions"`
	OldestPrice      *string          `json:"oldest_price"`
	LatestPrice      *string          `json:"latest_price"`
}
