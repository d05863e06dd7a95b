package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/api/response"
	"portfolio-tracker/internal/model"
	"portfolio-tracker/internal/testutil"
)

func TestTradeHandler_ExecuteTrade(t *testing.T) {
	setupHandler := func(t *testing.T) *TradeHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		return NewTradeHandler(testutil.NewTestTradeService(t, db))
	}

	t.Run("records a valid trade", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/trade", request.ExecuteTradeRequest{
			Ticker: "AAPL", Action: "BUY", Quantity: 10, Price: 150,
		})
		w := httptest.NewRecorder()

		handler.ExecuteTrade(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		trade := testutil.DecodeJSON[model.Trade](t, w)
		if trade.Ticker != "AAPL" || trade.PositionAfter != 10 {
			t.Errorf("Unexpected trade payload: %+v", trade)
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		handler := setupHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		handler.ExecuteTrade(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("rejects validation failures with field errors", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/trade", request.ExecuteTradeRequest{
			Ticker: "", Action: "HOLD", Quantity: -1, Price: 0,
		})
		w := httptest.NewRecorder()

		handler.ExecuteTrade(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}

		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		fields, ok := resp.Details.(map[string]any)
		if !ok {
			t.Fatalf("Expected field error map, got %T", resp.Details)
		}
		for _, field := range []string{"ticker", "action", "quantity", "price"} {
			if _, present := fields[field]; !present {
				t.Errorf("Expected a %s field error", field)
			}
		}
	})

	t.Run("maps insufficient cash to 400", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/trade", request.ExecuteTradeRequest{
			Ticker: "AAPL", Action: "BUY", Quantity: 10000, Price: 500,
		})
		w := httptest.NewRecorder()

		handler.ExecuteTrade(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTradeHandler_ListTrades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestTradeService(t, db)
	handler := NewTradeHandler(svc)

	for i := 0; i < 3; i++ {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/trade", request.ExecuteTradeRequest{
			Ticker: "AAPL", Action: "BUY", Quantity: int64(i + 1), Price: 150,
		})
		w := httptest.NewRecorder()
		handler.ExecuteTrade(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Setup trade %d failed: %s", i, w.Body.String())
		}
	}

	t.Run("returns trades newest first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
		w := httptest.NewRecorder()

		handler.ListTrades(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		trades := testutil.DecodeJSON[[]model.Trade](t, w)
		if len(trades) != 3 {
			t.Fatalf("Expected 3 trades, got %d", len(trades))
		}
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/trades?limit=2", nil)
		w := httptest.NewRecorder()

		handler.ListTrades(w, req)

		trades := testutil.DecodeJSON[[]model.Trade](t, w)
		if len(trades) != 2 {
			t.Errorf("Expected 2 trades, got %d", len(trades))
		}
	})
}
