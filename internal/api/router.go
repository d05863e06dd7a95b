// Package api wires the HTTP surface: routing, middleware, handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"portfolio-tracker/internal/api/handlers"
	custommiddleware "portfolio-tracker/internal/api/middleware"
	"portfolio-tracker/internal/auth"
	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	priceService *service.PriceService,
	tradeService *service.TradeService,
	snapshotService *service.SnapshotService,
	analyticsService *service.AnalyticsService,
	systemService *service.SystemService,
	authManager *auth.Manager,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	portfolioHandler := handlers.NewPortfolioHandler(analyticsService)
	tradeHandler := handlers.NewTradeHandler(tradeService)
	systemHandler := handlers.NewSystemHandler(priceService, snapshotService, systemService)
	authHandler := handlers.NewAuthHandler(authManager)

	r.Route("/api", func(r chi.Router) {
		// Public read endpoints
		r.Get("/health", systemHandler.Health)
		r.Get("/portfolio", portfolioHandler.Summary)
		r.Get("/timeline", portfolioHandler.Timeline)
		r.Get("/performance", portfolioHandler.Performance)
		r.Get("/stocks", portfolioHandler.Stocks)
		r.Get("/prices/{ticker}", portfolioHandler.TickerPrices)
		r.Get("/trades", tradeHandler.ListTrades)
		r.Get("/market-status", systemHandler.MarketStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// Session-protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireAuth(authManager))

			r.Post("/trade", tradeHandler.ExecuteTrade)
			r.Post("/refresh", systemHandler.Refresh)
			r.Post("/snapshot", systemHandler.Snapshot)
			r.Post("/reset_db", systemHandler.Reset)
			r.Get("/provider-status", systemHandler.ProviderStatus)
			r.Get("/stats", systemHandler.Stats)
		})
	})

	return r
}
