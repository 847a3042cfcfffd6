package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/infra/logger"
)

// StatsHandler serves read-only statistics over plain HTTP.
type StatsHandler struct {
	service *app.QuizService
}

func NewStatsHandler(service *app.QuizService) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	stats, err := h.service.GetStatistics(r.Context(), playerID)
	if err != nil {
		logger.Error("load stats failed", "player", playerID, "err", err)
		http.Error(w, "statistics unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// GetHistory accepts ?limit=; missing or invalid limits use the default.
func (h *StatsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.GetHistory(r.Context(), playerID, limit)
	if err != nil {
		logger.Error("load history failed", "player", playerID, "err", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response failed", "err", err)
	}
}
