// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses,
// plus the mapping from the service error taxonomy to status codes.
package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/validation"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// MessageResponse is the generic success payload for mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends a JSON response with the given status code.
// Sets the Content-Type header to application/json and writes the status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("failed to encode JSON response: %v", err)
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
func RespondError(w http.ResponseWriter, status int, message string, details interface{}) {
	RespondJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// RespondServiceError maps a service-layer error onto the HTTP error
// taxonomy: validation and ledger constraint violations are 400s, auth
// failures 401, quota and cooldown 429 (with Retry-After), provider
// exhaustion 502, everything else 500.
func RespondServiceError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
		return
	}

	var quotaErr *apperrors.QuotaError
	if errors.As(err, &quotaErr) {
		if quotaErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(quotaErr.RetryAfter))
		}
		RespondError(w, http.StatusTooManyRequests, quotaErr.Error(), nil)
		return
	}

	var cooldownErr *apperrors.CooldownError
	if errors.As(err, &cooldownErr) {
		w.Header().Set("Retry-After", strconv.Itoa(cooldownErr.Remaining))
		RespondError(w, http.StatusTooManyRequests, "refresh cooldown active",
			map[string]int{"retry_after_seconds": cooldownErr.Remaining})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrInsufficientShares),
		errors.Is(err, apperrors.ErrInsufficientCash),
		errors.Is(err, apperrors.ErrSellBeforeFirstBuy),
		errors.Is(err, apperrors.ErrInvalidDateRange):
		RespondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotAuthenticated),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		RespondError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		RespondError(w, http.StatusTooManyRequests, err.Error(), nil)
	case errors.Is(err, apperrors.ErrInvalidAPIKey),
		errors.Is(err, apperrors.ErrProviderUnavailable):
		RespondError(w, http.StatusBadGateway, err.Error(), nil)
	default:
		RespondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
