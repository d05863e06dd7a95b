package alphavantage

import (
	"sync"
	"time"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/model"
)

// Unlimited marks a quota dimension with no cap (paid tier daily calls).
const Unlimited = -1

// QuotaTracker enforces the provider's call budget: a sliding 60-second
// window count and a calendar-day count that resets at UTC midnight.
// It is process-wide state scoped to the client's lifetime and is safe
// for concurrent use.
type QuotaTracker struct {
	mu sync.Mutex

	minuteLimit int
	dailyLimit  int // Unlimited for no cap

	dailyCalls  int
	dailyReset  time.Time // UTC date of the current daily window
	minuteCalls []time.Time
	lastSuccess *time.Time

	now func() time.Time
}

// NewQuotaTracker creates a tracker for the given limits.
func NewQuotaTracker(minuteLimit, dailyLimit int) *QuotaTracker {
	nowFn := func() time.Time { return time.Now().UTC() }
	return &QuotaTracker{
		minuteLimit: minuteLimit,
		dailyLimit:  dailyLimit,
		dailyReset:  dateOf(nowFn()),
		now:         nowFn,
	}
}

// Check verifies both counters without recording a call. It prunes
// window entries older than 60 seconds and resets the daily counter at
// UTC midnight. A violation returns a QuotaError before any network
// call is made.
func (q *QuotaTracker) Check() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.prune(now)

	if q.dailyLimit != Unlimited && q.dailyCalls >= q.dailyLimit {
		return &apperrors.QuotaError{Scope: "day", Limit: q.dailyLimit, RetryAfter: 86400}
	}

	if len(q.minuteCalls) >= q.minuteLimit {
		wait := 60 - int(now.Sub(q.minuteCalls[0]).Seconds())
		if wait < 0 {
			wait = 0
		}
		return &apperrors.QuotaError{Scope: "minute", Limit: q.minuteLimit, RetryAfter: wait}
	}

	return nil
}

// Record counts one successful call against both windows.
func (q *QuotaTracker) Record() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.prune(now)

	q.dailyCalls++
	q.minuteCalls = append(q.minuteCalls, now)
	q.lastSuccess = &now
}

// Status reports the current counters for the provider-status endpoint.
func (q *QuotaTracker) Status() model.QuotaStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(q.now())

	status := model.QuotaStatus{
		DailyCalls:         q.dailyCalls,
		DailyLimit:         q.dailyLimit,
		DailyRemaining:     Unlimited,
		MinuteCalls:        len(q.minuteCalls),
		MinuteLimit:        q.minuteLimit,
		MinuteRemaining:    max(0, q.minuteLimit-len(q.minuteCalls)),
		LastSuccessfulCall: q.lastSuccess,
	}
	if q.dailyLimit != Unlimited {
		status.DailyRemaining = max(0, q.dailyLimit-q.dailyCalls)
	}
	return status
}

// prune drops minute-window entries older than 60 seconds and resets
// the daily counter when the UTC date rolls over. Caller must hold mu.
func (q *QuotaTracker) prune(now time.Time) {
	if dateOf(now).After(q.dailyReset) {
		q.dailyCalls = 0
		q.dailyReset = dateOf(now)
	}

	cutoff := now.Add(-time.Minute)
	kept := q.minuteCalls[:0]
	for _, t := range q.minuteCalls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	q.minuteCalls = kept
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
