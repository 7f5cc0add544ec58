package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/walletd/internal/adapter/http/handler"
	"github.com/iho/walletd/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler     *handler.WalletHandler
	LedgerHandler     *handler.LedgerHandler
	EscrowHandler     *handler.EscrowHandler
	AllocationHandler *handler.AllocationHandler
	VerifyHandler     *handler.VerifyHandler
	HealthHandler     *handler.HealthHandler
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			// Wallet lifecycle
			r.Post("/wallet", cfg.WalletHandler.Ensure)
			r.Get("/wallet", cfg.WalletHandler.Get)
			r.Put("/wallet/status", cfg.WalletHandler.SetStatus)

			// Accounts
			r.Get("/accounts", cfg.WalletHandler.ListAccounts)
			r.Route("/accounts/{accountType}", func(r chi.Router) {
				r.Get("/balance", cfg.WalletHandler.GetBalance)
				r.Post("/credit", cfg.LedgerHandler.Credit)
				r.Post("/debit", cfg.LedgerHandler.Debit)
				r.Get("/verify", cfg.VerifyHandler.Verify)
				r.Get("/reconcile", cfg.VerifyHandler.Reconcile)
			})

			// Escrow
			r.Route("/escrow", func(r chi.Router) {
				r.Post("/hold", cfg.EscrowHandler.Hold)
				r.Post("/release", cfg.EscrowHandler.Release)
				r.Post("/cancel", cfg.EscrowHandler.Cancel)
			})

			// Transactions
			r.Get("/transactions", cfg.LedgerHandler.List)
		})

		// Administrative wallet listing
		r.Get("/wallets", cfg.WalletHandler.List)

		// Allocations
		r.Post("/allocations", cfg.AllocationHandler.Create)

		// Transaction lookup by ID
		r.Get("/transactions/{id}", cfg.LedgerHandler.Get)
	})

	return r
}
