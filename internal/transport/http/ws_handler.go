package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/domain"
	"kana-quiz-service/internal/infra/logger"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades HTTP requests to websockets and wires one player into the quiz use cases.
// The session outlives the connection; a player may reconnect and ask for the current question.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("ws write error", "player", playerID, "err", err)
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, playerID, inbound) {
			select {
			case send <- msg:
			case <-writerDone:
			}
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, playerID string, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{invalidPayload("start")}
		}
		modality, err := domain.ParseModality(payload.Modality)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		tier := domain.Tier(payload.Tier)
		progress, err := h.service.StartSession(ctx, playerID, tier, modality)
		if err != nil && settle(ctx, h.service, err) == nil {
			// the overdue session in the way is now recorded
			progress, err = h.service.StartSession(ctx, playerID, tier, modality)
		}
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{progressMessage(progress)}

	case "current":
		progress, err := h.service.CurrentQuestion(ctx, playerID)
		if err = settle(ctx, h.service, err); err != nil && !progress.Finished() {
			return []outboundMessage[any]{errorMessage(err)}
		}
		out := []outboundMessage[any]{progressMessage(progress)}
		if err != nil {
			out = append(out, errorMessage(err))
		}
		return out

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{invalidPayload("answer")}
		}
		outcome, err := h.service.SubmitAnswer(ctx, playerID, payload.Index, payload.Answer)
		if err = settle(ctx, h.service, err); err != nil && !outcome.Progress.Finished() {
			return []outboundMessage[any]{errorMessage(err)}
		}
		var out []outboundMessage[any]
		// a rejected answer that timed the session out was never recorded
		if !outcome.Answer.SubmittedAt.IsZero() {
			out = append(out, outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				Index:    payload.Index,
				Correct:  outcome.Correct,
				Expected: expectedAnswer(outcome.Answer.Question),
				Score:    outcome.Progress.Score,
			}})
		}
		out = append(out, progressMessage(outcome.Progress))
		if err != nil {
			out = append(out, errorMessage(err))
		}
		return out

	case "abandon":
		if err := h.service.AbandonSession(ctx, playerID); err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "abandoned", Payload: map[string]string{"playerId": playerID}}}

	case "stats":
		stats, err := h.service.GetStatistics(ctx, playerID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "stats", Payload: stats}}

	case "history":
		var payload historyPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return []outboundMessage[any]{invalidPayload("history")}
			}
		}
		entries, err := h.service.GetHistory(ctx, playerID, payload.Limit)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "history", Payload: entries}}
	}
	return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Code: "unsupported", Message: "unsupported message type"}}}
}

func invalidPayload(kind string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "invalid_payload", Message: "invalid " + kind + " payload"}}
}
