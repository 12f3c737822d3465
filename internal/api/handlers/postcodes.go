package handlers

import (
	"delivery-times-service/internal/api/dto"
	"delivery-times-service/internal/domain"
	"delivery-times-service/internal/platform/obs"
	"log/slog"
	"net/http"
)

// PostcodeHandler serves per-postcode summaries and input helpers.
type PostcodeHandler struct {
	Service ReportService
	Log     *slog.Logger
}

func (h *PostcodeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.GetPostcodeSummary(r.Context(), pathParam(r, "postcode"))
	if err != nil {
		loggerOrDefault(h.Log).ErrorContext(r.Context(), "get postcode summary failed",
			"req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to load postcode data")
		return
	}
	if summary == nil {
		writeError(w, r, http.StatusNotFound, "No data for postcode")
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// Nearby lists sibling sectors sharing the postcode's outward code.
// It accepts either a full postcode or a bare outward code.
func (h *PostcodeHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	raw := pathParam(r, "postcode")

	outward := ""
	if parts, ok := domain.ParsePostcode(raw); ok {
		outward = parts.Outward
	} else if candidate := domain.NormalisePostcodeInput(raw); domain.IsValidOutward(candidate) {
		outward = candidate
	}
	if outward == "" {
		writeError(w, r, http.StatusNotFound, "No data for postcode")
		return
	}

	sectors, err := h.Service.GetNearbySectorSummaries(r.Context(), outward)
	if err != nil {
		loggerOrDefault(h.Log).ErrorContext(r.Context(), "get nearby sectors failed",
			"req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to load postcode data")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NearbySectorsResponse{Outward: outward, Sectors: sectors})
}

func (h *PostcodeHandler) FormatInput(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")

	writeJSON(w, r, http.StatusOK, dto.PostcodeInputResponse{
		Formatted: domain.NormalisePostcodeInput(value),
		Display:   domain.FormatPostcodeForDisplay(value),
		Valid:     domain.IsValidPostcode(value),
	})
}
