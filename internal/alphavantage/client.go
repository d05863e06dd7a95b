// Package alphavantage wraps the Alpha Vantage quote API. The client
// owns the call quota (per-minute sliding window, per-day counter),
// paces calls with the tier's inter-call delay, and retries transient
// failures with exponential backoff. Every record handed to callers is
// validated; a single bad row fails the whole call.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/model"
)

const baseURL = "https://www.alphavantage.co/query"

// Tier limits. Selection is static configuration, not runtime-detected.
const (
	freeMinuteLimit = 5
	freeDailyLimit  = 500
	freePacingDelay = 12 * time.Second

	paidMinuteLimit = 75
	paidPacingDelay = 1 * time.Second
)

// Client is the Alpha Vantage market data provider.
type Client struct {
	http        *resty.Client
	baseURL     string
	apiKey      string
	paidTier    bool
	quota       *QuotaTracker
	pacingDelay time.Duration
	maxRetries  int
	retryDelay  time.Duration

	mu        sync.Mutex
	firstCall bool

	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a provider client for the configured tier.
func NewClient(cfg config.ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("alpha vantage API key is required")
	}

	c := &Client{
		http:       resty.New().SetTimeout(30 * time.Second),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		paidTier:   cfg.IsPaidTier,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelay) * time.Second,
		firstCall:  true,
		now:        func() time.Time { return time.Now().UTC() },
		sleep:      time.Sleep,
	}

	if cfg.IsPaidTier {
		c.quota = NewQuotaTracker(paidMinuteLimit, Unlimited)
		c.pacingDelay = paidPacingDelay
	} else {
		c.quota = NewQuotaTracker(freeMinuteLimit, freeDailyLimit)
		c.pacingDelay = freePacingDelay
	}

	return c, nil
}

// Name returns the human-readable provider name including the tier.
func (c *Client) Name() string {
	if c.paidTier {
		return "AlphaVantage (PAID)"
	}
	return "AlphaVantage (FREE)"
}

// QuotaStatus reports the current call budget.
func (c *Client) QuotaStatus() model.QuotaStatus {
	status := c.quota.Status()
	status.IsPaidTier = c.paidTier
	return status
}

// GetHistoricalPrices fetches daily OHLCV records for one ticker within
// the inclusive date range. Records are returned oldest first, all
// validated; any invalid row fails the call.
func (c *Client) GetHistoricalPrices(ctx context.Context, ticker string, from, to time.Time) ([]model.PriceRecord, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start %s after end %s",
			apperrors.ErrInvalidDateRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	// The compact output only covers ~100 trading days.
	outputSize := "compact"
	if to.Sub(from) > 100*24*time.Hour {
		outputSize = "full"
	}

	body, err := c.request(ctx, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     ticker,
		"outputsize": outputSize,
	})
	if err != nil {
		return nil, err
	}

	var payload dailySeriesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse time series for %s: %w", ticker, err)
	}

	records := make([]model.PriceRecord, 0, len(payload.Series))
	for dateStr, bar := range payload.Series {
		ts, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("[%s] invalid series date %q: %w", ticker, dateStr, err)
		}
		if ts.Before(from) || ts.After(to) {
			continue
		}

		record, err := c.parseBar(ticker, ts, bar)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return records, nil
}

// GetCurrentPrice fetches the latest quote for one ticker.
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (model.PriceRecord, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return model.PriceRecord{}, err
	}

	body, err := c.request(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   ticker,
	})
	if err != nil {
		return model.PriceRecord{}, err
	}

	var payload globalQuoteResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.PriceRecord{}, fmt.Errorf("failed to parse quote for %s: %w", ticker, err)
	}
	if payload.Quote.Price == "" {
		return model.PriceRecord{}, fmt.Errorf("[%s] no quote data returned", ticker)
	}

	price, err := strconv.ParseFloat(payload.Quote.Price, 64)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("[%s] invalid quote price %q: %w", ticker, payload.Quote.Price, err)
	}

	timestamp := dateOf(c.now())
	if payload.Quote.LatestTradingDay != "" {
		if ts, err := time.ParseInLocation("2006-01-02", payload.Quote.LatestTradingDay, time.UTC); err == nil {
			timestamp = ts
		}
	}

	var volume int64
	if payload.Quote.Volume != "" {
		volume, _ = strconv.ParseInt(payload.Quote.Volume, 10, 64)
	}

	record := model.PriceRecord{
		Ticker:    ticker,
		Timestamp: timestamp,
		Close:     price,
		Volume:    volume,
		Kind:      model.KindSnapshot,
		Source:    c.Name(),
	}
	if err := record.Validate(c.now().Add(24 * time.Hour)); err != nil {
		return model.PriceRecord{}, err
	}

	return record, nil
}

// GetMarketStatus reports whether the US equity market is open. The
// status endpoint is unmetered, so no quota is checked or recorded.
func (c *Client) GetMarketStatus(ctx context.Context) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "MARKET_STATUS",
			"apikey":   c.apiKey,
		}).
		Get(c.baseURL)
	if err != nil {
		return false, fmt.Errorf("market status request failed: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("market status request failed with HTTP %d", resp.StatusCode())
	}

	var payload marketStatusResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return false, fmt.Errorf("failed to parse market status: %w", err)
	}

	for _, market := range payload.Markets {
		if market.Region == "United States" && market.PrimaryExchanges != "" {
			if market.CurrentStatus == "open" {
				return true, nil
			}
		}
	}
	return false, nil
}

// request performs one metered API call: quota check first (a violation
// never reaches the network), then the tier's pacing delay, then the
// HTTP call with retry-on-transient-failure. A successful call is
// recorded against both quota windows.
func (c *Client) request(ctx context.Context, params map[string]string) ([]byte, error) {
	if err := c.quota.Check(); err != nil {
		return nil, err
	}

	c.pace()

	params["apikey"] = c.apiKey

	var body []byte
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(c.baseURL)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request failed: %w", err))
		}

		if resp.StatusCode() == 429 {
			return &apperrors.QuotaError{Scope: "minute", Limit: c.quota.minuteLimit, RetryAfter: 60}
		}
		if resp.StatusCode() >= 500 {
			return retry.RetryableError(fmt.Errorf("server error: HTTP %d", resp.StatusCode()))
		}
		if resp.IsError() {
			return fmt.Errorf("request failed with HTTP %d", resp.StatusCode())
		}

		if err := checkEnvelope(resp.Body()); err != nil {
			return err
		}

		body = resp.Body()
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrQuotaExceeded) || errors.Is(err, apperrors.ErrInvalidAPIKey) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}

	c.quota.Record()
	return body, nil
}

// pace sleeps for the tier's inter-call delay before every call after
// the first. This is what keeps the sliding window under the per-minute
// cap by construction.
func (c *Client) pace() {
	c.mu.Lock()
	first := c.firstCall
	c.firstCall = false
	c.mu.Unlock()

	if !first {
		c.sleep(c.pacingDelay)
	}
}

// checkEnvelope inspects a 200 response for Alpha Vantage's embedded
// error shapes. Quota and credential failures are permanent; a
// malformed payload is retryable.
func checkEnvelope(body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return retry.RetryableError(fmt.Errorf("malformed payload: %w", err))
	}

	if envelope.ErrorMessage != "" {
		if strings.Contains(strings.ToLower(envelope.ErrorMessage), "api key") {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidAPIKey, envelope.ErrorMessage)
		}
		return fmt.Errorf("api error: %s", envelope.ErrorMessage)
	}

	if envelope.Note != "" {
		note := strings.ToLower(envelope.Note)
		if strings.Contains(note, "premium") || strings.Contains(note, "upgrade") {
			return &apperrors.QuotaError{Scope: "day", Limit: freeDailyLimit, RetryAfter: 86400}
		}
		return &apperrors.QuotaError{Scope: "minute", Limit: freeMinuteLimit, RetryAfter: 60}
	}

	if envelope.Information != "" && strings.Contains(strings.ToLower(envelope.Information), "rate limit") {
		return &apperrors.QuotaError{Scope: "day", Limit: freeDailyLimit, RetryAfter: 86400}
	}

	return nil
}

// parseBar converts one string-valued OHLCV entry into a validated
// PriceRecord. Close is required; open/high/low stay nil when absent;
// a missing volume becomes 0.
func (c *Client) parseBar(ticker string, ts time.Time, bar dailyBar) (model.PriceRecord, error) {
	closePrice, err := strconv.ParseFloat(bar.Close, 64)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("[%s] invalid close %q on %s", ticker, bar.Close, ts.Format("2006-01-02"))
	}

	record := model.PriceRecord{
		Ticker:    ticker,
		Timestamp: ts,
		Close:     closePrice,
		Kind:      model.KindHistory,
		Source:    c.Name(),
	}

	record.Open = parseOptionalPrice(bar.Open)
	record.High = parseOptionalPrice(bar.High)
	record.Low = parseOptionalPrice(bar.Low)

	if bar.Volume != "" {
		volume, err := strconv.ParseInt(bar.Volume, 10, 64)
		if err != nil {
			return model.PriceRecord{}, fmt.Errorf("[%s] invalid volume %q on %s", ticker, bar.Volume, ts.Format("2006-01-02"))
		}
		record.Volume = volume
	}

	// Quotes for the current day arrive timestamped at market close;
	// allow up to one day of clock skew like the upstream feed does.
	if err := record.Validate(c.now().Add(24 * time.Hour)); err != nil {
		return model.PriceRecord{}, err
	}

	return record, nil
}

func parseOptionalPrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// normalizeTicker trims and uppercases a ticker symbol.
func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || len(ticker) > 10 {
		return "", fmt.Errorf("invalid ticker: %q", ticker)
	}
	return ticker, nil
}
