package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"portfolio-tracker/internal/api/response"
	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/service"
	"portfolio-tracker/internal/validation"
)

// PortfolioHandler handles HTTP requests for the portfolio read endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the analyticsService.
type PortfolioHandler struct {
	analyticsService *service.AnalyticsService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependency.
func NewPortfolioHandler(analyticsService *service.AnalyticsService) *PortfolioHandler {
	return &PortfolioHandler{
		analyticsService: analyticsService,
	}
}

// Summary handles GET requests for the current portfolio valuation.
// Returns holdings with weights, cash, stock value, and total P&L.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with PortfolioSummary
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.analyticsService.Summary()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolio.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Timeline handles GET requests for the portfolio value series.
// Days clamps to [1, 3650] with a default of 90; the benchmark series
// is forward-filled onto the portfolio date axis when requested.
//
// Endpoint: GET /api/timeline?days=90&include_benchmark=true
// Response: 200 OK with Timeline
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 0)
	includeBenchmark := queryBool(r, "include_benchmark", true)

	timeline, err := h.analyticsService.Timeline(days, includeBenchmark)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetTimeline.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, timeline)
}

// Performance handles GET requests for the analytics metrics.
//
// Endpoint: GET /api/performance
// Response: 200 OK with PerformanceMetrics
// Error: 500 Internal Server Error if computation fails
func (h *PortfolioHandler) Performance(w http.ResponseWriter, _ *http.Request) {
	metrics, err := h.analyticsService.Performance()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPerformance.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, metrics)
}

// Stocks handles GET requests for the price series of every tracked ticker.
//
// Endpoint: GET /api/stocks?days=90
// Response: 200 OK with map of ticker to TickerSeries
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Stocks(w http.ResponseWriter, r *http.Request) {
	series, err := h.analyticsService.AllTickerSeries(queryInt(r, "days", 0))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}

// TickerPrices handles GET requests for one ticker's price series.
//
// Endpoint: GET /api/prices/{ticker}?days=90
// Response: 200 OK with TickerSeries
// Error: 400 Bad Request if the ticker is invalid
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) TickerPrices(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticker")))
	if err := validation.ValidateTicker(ticker); err != nil {
		response.RespondServiceError(w, err)
		return
	}

	series, err := h.analyticsService.TickerSeries(ticker, queryInt(r, "days", 0))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}
