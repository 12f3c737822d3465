package api

import (
	"delivery-times-service/internal/api/handlers"
	"delivery-times-service/internal/platform/obs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Service        handlers.ReportService
	Storage        handlers.Pinger
	Log            *slog.Logger
	Metrics        *obs.Metrics
	AllowedOrigins []string
	// Serves /metrics; defaults to the global Prometheus registry.
	MetricsHandler http.Handler
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	reports := &handlers.ReportHandler{Service: deps.Service, Log: log}
	postcodes := &handlers.PostcodeHandler{Service: deps.Service, Log: log}
	stats := &handlers.StatsHandler{Service: deps.Service}
	ready := &handlers.ReadyHandler{DB: deps.Storage, Log: log}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log, deps.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", handlers.Health)
	r.Get("/readyz", ready.Ready)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/report", reports.Submit)
		r.Get("/postcode/{postcode}", postcodes.Summary)
		r.Get("/postcode/{postcode}/nearby", postcodes.Nearby)
		r.Get("/postcode-input", postcodes.FormatInput)
		r.Get("/stats", stats.Global)
	})

	return r
}
