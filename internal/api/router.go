package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cinescope/backend/internal/auth"
	"github.com/cinescope/backend/internal/metrics"
	appmiddleware "github.com/cinescope/backend/internal/middleware"
)

// NewRouter assembles the middleware chain and routes. The access gate sits
// inside recovery/logging/metrics so denied requests are still observed.
func NewRouter(authHandlers *auth.Handlers, profileHandlers *ProfileHandlers, tokens *auth.Tokens, collector *metrics.Collector, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(appmiddleware.Recovery)
	r.Use(appmiddleware.Logging(logger))
	r.Use(appmiddleware.Metrics(collector))
	r.Use(appmiddleware.AccessGate())

	r.Get("/healthz", healthHandler)
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandlers.Signup)
		r.Post("/login", authHandlers.Login)
		r.Post("/logout", authHandlers.Logout)
		r.Post("/forgot-password", authHandlers.ForgotPassword)
		r.Post("/reset-password", authHandlers.ResetPassword)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireUser(tokens))
		r.Get("/me", profileHandlers.GetMe)
		r.Patch("/me", profileHandlers.UpdateMe)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
