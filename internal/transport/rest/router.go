package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/paydash/payment-dashboard/internal/auth"
	"github.com/paydash/payment-dashboard/internal/payment"
	"github.com/paydash/payment-dashboard/internal/transport/middleware"
	"github.com/paydash/payment-dashboard/internal/transport/swagger"
	"github.com/paydash/payment-dashboard/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, paymentHandler *payment.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			// Current user
			pr.Get("/users/me", userHandler.GetCurrentUser)

			// Admin-only user management
			pr.Group(func(ar chi.Router) {
				ar.Use(authHandler.RequireAdmin)
				ar.Post("/users", userHandler.CreateUser)
			})

			// Payment routes
			pr.Route("/payments", func(py chi.Router) {
				py.Post("/", paymentHandler.CreatePayment)
				py.Get("/", paymentHandler.ListPayments)
				py.Get("/stats", paymentHandler.GetStats)
				py.Get("/quick-stats", paymentHandler.GetQuickStats)
				py.Get("/export", paymentHandler.Export)

				py.Route("/analytics", func(an chi.Router) {
					an.Get("/revenue-by-method", paymentHandler.RevenueByMethod)
					an.Get("/hourly-distribution", paymentHandler.HourlyDistribution)
					an.Get("/success-rate-trend", paymentHandler.SuccessRateTrend)
				})

				py.Get("/{id}", paymentHandler.GetPayment)
				py.Patch("/{id}/status", paymentHandler.UpdateStatus)
			})
		})
	})
}
