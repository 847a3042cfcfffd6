package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kana-quiz-service/internal/app"
)

// NewRouter wires every endpoint of the service.
func NewRouter(service *app.QuizService) http.Handler {
	wsHandler := NewWSHandler(service)
	observeHandler := NewObserveHandler(service)
	statsHandler := NewStatsHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", wsHandler.ServeWS)
	r.Get("/ws/observe", observeHandler.ServeWS)

	r.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/stats", statsHandler.GetStats)
		r.Get("/history", statsHandler.GetHistory)
	})
	return r
}
