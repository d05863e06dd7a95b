// Package apperrors defines the error taxonomy shared across services
// and handlers. Sentinel errors classify failures; the typed errors
// carry the detail (remaining quota, remaining cooldown seconds) that
// the HTTP layer surfaces to clients.
package apperrors

import (
	"errors"
	"fmt"
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInsufficientShares indicates a SELL for more shares than the
	// replayed position holds at the trade date.
	ErrInsufficientShares = errors.New("insufficient shares for sale")

	// ErrInsufficientCash indicates a BUY whose total cost exceeds the
	// replayed cash balance.
	ErrInsufficientCash = errors.New("insufficient cash for purchase")

	// ErrInvalidDateRange indicates a start date after an end date.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrSellBeforeFirstBuy indicates a SELL dated before the ticker's
	// first recorded purchase.
	ErrSellBeforeFirstBuy = errors.New("cannot sell before first purchase")
)

// Provider errors.
var (
	// ErrQuotaExceeded indicates a call was rejected locally because a
	// quota counter was at its limit. Non-retryable; no network call
	// was made.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrInvalidAPIKey indicates the provider rejected our credentials.
	// Non-retryable.
	ErrInvalidAPIKey = errors.New("invalid provider API key")

	// ErrProviderUnavailable indicates transient failures exhausted the
	// retry budget.
	ErrProviderUnavailable = errors.New("provider unavailable after retries")

	// ErrCooldownActive indicates a refresh was requested before the
	// configured interval since the last one elapsed.
	ErrCooldownActive = errors.New("refresh cooldown active")
)

// Authentication errors.
var (
	// ErrNotAuthenticated indicates a protected endpoint was called
	// without a valid session.
	ErrNotAuthenticated = errors.New("authentication required")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Operation failure errors for the read endpoints.
var (
	ErrFailedToRetrievePrices    = errors.New("failed to retrieve prices")
	ErrFailedToRetrieveTrades    = errors.New("failed to retrieve trades")
	ErrFailedToRetrieveSnapshots = errors.New("failed to retrieve snapshots")
	ErrFailedToGetPortfolio      = errors.New("failed to get portfolio summary")
	ErrFailedToGetTimeline       = errors.New("failed to get portfolio timeline")
	ErrFailedToGetPerformance    = errors.New("failed to compute performance metrics")
	ErrFailedToGetStats          = errors.New("failed to retrieve statistics")
	ErrFailedToResetDatabase     = errors.New("failed to reset database")
)

// QuotaError wraps ErrQuotaExceeded with the detail surfaced to callers.
type QuotaError struct {
	Scope      string // "minute" or "day"
	Limit      int
	RetryAfter int // seconds until the counter frees up
}

func (e *QuotaError) Error() string {
	if e.Scope == "day" {
		return fmt.Sprintf("daily quota exceeded (%d calls)", e.Limit)
	}
	return fmt.Sprintf("rate limit exceeded (%d calls/min), wait %ds", e.Limit, e.RetryAfter)
}

// Unwrap classifies all quota errors under ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// CooldownError wraps ErrCooldownActive with the remaining wait time.
type CooldownError struct {
	Remaining int // seconds until the next refresh is allowed
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, wait %d seconds", e.Remaining)
}

// Unwrap classifies cooldown errors under ErrCooldownActive.
func (e *CooldownError) Unwrap() error { return ErrCooldownActive }
