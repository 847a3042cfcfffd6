package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/infra/logger"
)

// ObserveHandler streams a "result" frame for every recorded session.
type ObserveHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewObserveHandler(service *app.QuizService) *ObserveHandler {
	return &ObserveHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *ObserveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	// subscribed before the handshake completes so no notice is missed
	notices, cancel := h.service.Subscribe(r.Context())
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("observer upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Observers only listen; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case notice, ok := <-notices:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "result", Payload: notice}); err != nil {
				logger.Warn("observer write error", "err", err)
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
