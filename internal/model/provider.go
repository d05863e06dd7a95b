package model

import "time"

// QuotaStatus reports the provider's call budget at a point in time.
// DailyLimit and DailyRemaining are -1 for unlimited tiers.
type QuotaStatus struct {
	DailyCalls         int        `json:"daily_calls"`
	DailyLimit         int        `json:"daily_limit"`
	DailyRemaining     int        `json:"daily_remaining"`
	MinuteCalls        int        `json:"minute_calls"`
	MinuteLimit        int        `json:"minute_limit"`
	MinuteRemaining    int        `json:"minute_remaining"`
	IsPaidTier         bool       `json:"is_paid_tier"`
	LastSuccessfulCall *time.Time `json:"last_successful_call"`
}

// ProviderStatus is the provider-status endpoint payload.
type ProviderStatus struct {
	Provider        string      `json:"provider"`
	IsHealthy       bool        `json:"is_healthy"`
	CooldownSeconds int         `json:"cooldown_seconds"`
	Quota           QuotaStatus `json:"quota"`
	MarketOpen      *bool       `json:"market_open"`
}
