package handlers

import (
	"context"
	"delivery-times-service/internal/domain"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// ReportService is the application API the handlers call into.
type ReportService interface {
	SubmitReport(ctx context.Context, sub domain.ReportSubmission) (string, error)
	GetPostcodeSummary(ctx context.Context, raw string) (*domain.PostcodeSummary, error)
	GetNearbySectorSummaries(ctx context.Context, outward string) ([]domain.AggregatedStats, error)
	GetGlobalStats(ctx context.Context) domain.GlobalStats
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// pathParam returns the decoded chi URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
