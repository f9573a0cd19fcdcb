package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/services"
)

type StatsHandler struct {
	service *services.AggregationService
	logr    *zap.Logger
}

func NewStatsHandler(svc *services.AggregationService, logr *zap.Logger) *StatsHandler {
	return &StatsHandler{service: svc, logr: logr}
}

// GetCountryStats serves classwise totals for the whole country at exact
// period bounds (?periodStart=...&periodEnd=..., RFC3339).
func (h *StatsHandler) GetCountryStats(w http.ResponseWriter, r *http.Request) {
	periodStart, periodEnd, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	rows, err := h.service.CountryStats(r.Context(), periodStart, periodEnd)
	if err != nil {
		h.logr.Error("failed to fetch country stats", zap.Error(err))
		http.Error(w, "failed to fetch country stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// GetProvinceStats serves classwise stats for one province resolved by name
// substring.
func (h *StatsHandler) GetProvinceStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	periodStart, periodEnd, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	rows, err := h.service.ProvinceStats(r.Context(), name, periodStart, periodEnd)
	if err != nil {
		h.logr.Error("failed to fetch province stats", zap.String("name", name), zap.Error(err))
		http.Error(w, "failed to fetch province stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"province": name, "data": rows})
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()

	periodStart, err := time.Parse(time.RFC3339, q.Get("periodStart"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid periodStart")
		return time.Time{}, time.Time{}, false
	}

	periodEnd, err := time.Parse(time.RFC3339, q.Get("periodEnd"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid periodEnd")
		return time.Time{}, time.Time{}, false
	}

	return periodStart, periodEnd, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(data)
}
