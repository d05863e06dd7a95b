package validation

import (
	"strings"
	"time"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/model"
)

const (
	maxTickerLength = 10
	maxNoteLength   = 1000
)

// ValidateExecuteTrade validates a trade execution request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - ticker: 1-10 characters
//   - action: BUY or SELL (case-insensitive)
//   - quantity: Must be a positive integer
//   - price: Must be positive
//
// Optional fields (validated if provided):
//   - date: Must be in YYYY-MM-DD format, not in the future
//   - note: At most 1000 characters
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateExecuteTrade(req request.ExecuteTradeRequest) error {
	errors := make(map[string]string)

	ticker := strings.TrimSpace(req.Ticker)
	if ticker == "" {
		errors["ticker"] = "ticker is required"
	} else if len(ticker) > maxTickerLength {
		errors["ticker"] = "ticker must be at most 10 characters"
	}

	action := strings.ToUpper(strings.TrimSpace(req.Action))
	if action != model.ActionBuy && action != model.ActionSell {
		errors["action"] = "action must be BUY or SELL"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be a positive integer"
	}

	if req.Price <= 0 {
		errors["price"] = "price must be positive"
	}

	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			errors["date"] = err.Error()
		} else if parsed.After(time.Now().UTC()) {
			errors["date"] = "date cannot be in the future"
		}
	}

	if len(req.Note) > maxNoteLength {
		errors["note"] = "note must be at most 1000 characters"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateLogin validates a login request.
func ValidateLogin(req request.LoginRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Username) == "" {
		errors["username"] = "username is required"
	}

	if req.Password == "" {
		errors["password"] = "password is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateTicker validates a ticker path parameter.
func ValidateTicker(ticker string) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" || len(ticker) > maxTickerLength {
		return &Error{Fields: map[string]string{"ticker": "ticker must be 1-10 characters"}}
	}
	return nil
}
