package handlers

import (
	"net/http"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/api/response"
	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/service"
)

// SystemHandler handles HTTP requests for refresh, snapshot, and
// administrative endpoints.
type SystemHandler struct {
	priceService    *service.PriceService
	snapshotService *service.SnapshotService
	systemService   *service.SystemService
}

// NewSystemHandler creates a new SystemHandler with the provided service dependencies.
func NewSystemHandler(
	priceService *service.PriceService,
	snapshotService *service.SnapshotService,
	systemService *service.SystemService,
) *SystemHandler {
	return &SystemHandler{
		priceService:    priceService,
		snapshotService: snapshotService,
		systemService:   systemService,
	}
}

// Health handles GET requests for the health check.
//
// Endpoint: GET /api/health
// Response: 200 OK with {"status": "ok"}
// Error: 503 Service Unavailable if the database is unreachable
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.HealthCheck(); err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, "database unreachable", err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Refresh handles POST requests to backfill price data and snapshot
// the portfolio. Concurrent requests share one execution.
//
// Endpoint: POST /api/refresh
// Response: 200 OK with RefreshResult
// Error: 429 Too Many Requests while the cooldown is active (with Retry-After)
// Error: 500 Internal Server Error if the refresh fails
func (h *SystemHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.priceService.Refresh(r.Context())
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Snapshot handles POST requests to record a portfolio valuation now.
//
// Endpoint: POST /api/snapshot
// Request Body: SnapshotRequest (optional note)
// Response: 200 OK with the recorded portfolio value
// Error: 500 Internal Server Error if the snapshot fails
func (h *SystemHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SnapshotRequest](r)
	if err != nil {
		req = request.SnapshotRequest{}
	}

	value, err := h.snapshotService.Take(r.Context(), req.Note)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSnapshots.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]float64{"portfolio_value": value})
}

// Reset handles POST requests to wipe all stored data. Irreversible.
//
// Endpoint: POST /api/reset_db
// Response: 200 OK with confirmation message
// Error: 500 Internal Server Error if the reset fails
func (h *SystemHandler) Reset(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.Reset(); err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToResetDatabase.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, response.MessageResponse{Message: "database reset"})
}

// ProviderStatus handles GET requests for provider quota and market state.
//
// Endpoint: GET /api/provider-status
// Response: 200 OK with ProviderStatus
func (h *SystemHandler) ProviderStatus(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.systemService.ProviderStatus(r.Context()))
}

// MarketStatus handles GET requests for the market open/closed flag.
//
// Endpoint: GET /api/market-status
// Response: 200 OK with {"market_open": bool}
func (h *SystemHandler) MarketStatus(w http.ResponseWriter, r *http.Request) {
	status := h.systemService.ProviderStatus(r.Context())
	open := status.MarketOpen != nil && *status.MarketOpen
	response.RespondJSON(w, http.StatusOK, map[string]bool{"market_open": open})
}

// Stats handles GET requests for store statistics.
//
// Endpoint: GET /api/stats
// Response: 200 OK with StoreStats
// Error: 500 Internal Server Error if retrieval fails
func (h *SystemHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.systemService.Stats()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetStats.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
