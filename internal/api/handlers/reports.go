package handlers

import (
	"delivery-times-service/internal/api/dto"
	"delivery-times-service/internal/domain"
	"delivery-times-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const maxReportBodyBytes = 16 << 10

// ReportHandler accepts new delivery reports.
type ReportHandler struct {
	Service ReportService
	Log     *slog.Logger
}

func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReportBodyBytes)

	var req dto.SubmitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	postcode, err := h.Service.SubmitReport(r.Context(), req.ToSubmission())
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, r, http.StatusBadRequest, ve.Message)
			return
		}

		loggerOrDefault(h.Log).ErrorContext(r.Context(), "submit report failed",
			"req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to save report")
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.SubmitReportResponse{NormalisedPostcode: postcode})
}
