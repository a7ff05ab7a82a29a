package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartline-ai/heartline/cmd/heartline-api/handlers"
	"github.com/heartline-ai/heartline/cmd/heartline-api/middleware"
	"github.com/heartline-ai/heartline/internal/app"
	"github.com/heartline-ai/heartline/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, a *app.App) http.Handler {
	cfg := a.Config
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Auth.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"heartline"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := a.Ready(ctx); err != nil {
			logger.Warn().Err(err).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	chatHandler := handlers.NewChatHandler(logger, a)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.Auth.APIKey))
		r.Use(middleware.Session)

		r.Post("/chatbot", chatHandler.Chat)
		r.Get("/context_history", chatHandler.History)
		r.Get("/session", chatHandler.Session)
		r.Post("/clear_context_history", chatHandler.ClearHistory)

		if a.TranscriptsEnabled() {
			transcriptHandler := handlers.NewTranscriptHandler(logger, a)
			r.Get("/transcripts/{session}", transcriptHandler.List)
		}
	})

	return r
}
