package testutil

import (
	"context"
	"time"

	"portfolio-tracker/internal/model"
)

// MockProvider is a mock implementation of service.PriceProvider for
// testing. It returns predefined test data instead of making API calls.
type MockProvider struct {
	// Records is the historical data to return, filtered to the
	// requested ticker and date range.
	Records []model.PriceRecord
	// Err is the error to return from fetch methods.
	Err error
	// CallCount tracks how many times a fetch method was called.
	CallCount int
	// MarketOpen is the market status to report.
	MarketOpen bool
}

// NewMockProvider creates a mock provider with `days` days of history
// per ticker, ending yesterday, at a flat close of 100.
func NewMockProvider(days int, tickers ...string) *MockProvider {
	m := &MockProvider{MarketOpen: true}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	for _, ticker := range tickers {
		for i := days; i >= 1; i-- {
			m.Records = append(m.Records, model.PriceRecord{
				Ticker:    ticker,
				Timestamp: end.AddDate(0, 0, -i),
				Close:     100,
				Volume:    1000,
				Kind:      model.KindHistory,
				Source:    "mock",
			})
		}
	}
	return m
}

// WithError configures the mock to return the specified error.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.Err = err
	return m
}

// WithRecords replaces the mock's historical data.
func (m *MockProvider) WithRecords(records []model.PriceRecord) *MockProvider {
	m.Records = records
	return m
}

// GetHistoricalPrices returns the configured records within the range.
func (m *MockProvider) GetHistoricalPrices(_ context.Context, ticker string, from, to time.Time) ([]model.PriceRecord, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}

	var records []model.PriceRecord
	for _, r := range m.Records {
		if r.Ticker != ticker {
			continue
		}
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// GetCurrentPrice returns the newest configured record for the ticker.
func (m *MockProvider) GetCurrentPrice(_ context.Context, ticker string) (model.PriceRecord, error) {
	m.CallCount++
	if m.Err != nil {
		return model.PriceRecord{}, m.Err
	}

	var latest model.PriceRecord
	for _, r := range m.Records {
		if r.Ticker == ticker && r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	latest.Kind = model.KindSnapshot
	return latest, nil
}

// GetMarketStatus returns the configured market status.
func (m *MockProvider) GetMarketStatus(_ context.Context) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.MarketOpen, nil
}

// QuotaStatus reports an unconstrained quota.
func (m *MockProvider) QuotaStatus() model.QuotaStatus {
	return model.QuotaStatus{
		DailyLimit:      -1,
		DailyRemaining:  -1,
		MinuteLimit:     -1,
		MinuteRemaining: -1,
		IsPaidTier:      true,
	}
}

// Name identifies the mock in logs.
func (m *MockProvider) Name() string { return "Mock" }
