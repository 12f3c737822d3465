package handlers

import "net/http"

type StatsHandler struct {
	Service ReportService
}

func (h *StatsHandler) Global(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Service.GetGlobalStats(r.Context()))
}
