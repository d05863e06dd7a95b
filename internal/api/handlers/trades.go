package handlers

import (
	"net/http"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/api/response"
	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/service"
	"portfolio-tracker/internal/validation"
)

const (
	defaultTradesLimit = 20
	maxTradesLimit     = 1000
)

// TradeHandler handles HTTP requests for the trade endpoints.
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler with the provided service dependency.
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// ExecuteTrade handles POST requests to record a buy or sell.
// Validates the request body and appends to the trade ledger; the
// same-day price observation is written in the same transaction.
//
// Endpoint: POST /api/trade
// Request Body: ExecuteTradeRequest (ticker, action, quantity, price, optional date/note)
// Response: 201 Created with Trade
// Error: 400 Bad Request if validation fails or a ledger constraint is violated
// Error: 500 Internal Server Error if persistence fails
func (h *TradeHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ExecuteTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateExecuteTrade(req); err != nil {
		response.RespondServiceError(w, err)
		return
	}

	trade, err := h.tradeService.ExecuteTrade(r.Context(), req)
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, trade)
}

// ListTrades handles GET requests for recent trades, newest first.
// The limit parameter defaults to 20 and caps at 1000.
//
// Endpoint: GET /api/trades?limit=20
// Response: 200 OK with array of Trade
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTradesLimit)
	if limit <= 0 {
		limit = defaultTradesLimit
	}
	if limit > maxTradesLimit {
		limit = maxTradesLimit
	}

	trades, err := h.tradeService.RecentTrades(limit)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTrades.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, trades)
}
