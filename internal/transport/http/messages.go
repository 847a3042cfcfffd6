package http

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/domain"
	"kana-quiz-service/internal/infra/logger"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Tier     int    `json:"tier"`
	Modality string `json:"modality"`
}

type answerPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

type historyPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// questionView is what a player sees; it never carries the answer.
type questionView struct {
	SessionID       string          `json:"sessionId"`
	Tier            domain.Tier     `json:"tier"`
	Modality        domain.Modality `json:"modality"`
	Index           int             `json:"index"`
	Total           int             `json:"total"`
	Score           int             `json:"score"`
	Prompt          string          `json:"prompt"`
	Options         []string        `json:"options,omitempty"`
	Displayed       string          `json:"displayed,omitempty"`
	TimeRemainingMs int64           `json:"timeRemainingMs"`
}

type answerResult struct {
	Index    int    `json:"index"`
	Correct  bool   `json:"correct"`
	Expected string `json:"expected"`
	Score    int    `json:"score"`
}

func newQuestionView(p domain.Progress) questionView {
	view := questionView{
		SessionID:       p.SessionID,
		Tier:            p.Tier,
		Modality:        p.Modality,
		Index:           p.Index,
		Total:           p.Total,
		Score:           p.Score,
		TimeRemainingMs: p.TimeRemaining.Milliseconds(),
	}
	if q := p.Question; q != nil {
		view.Prompt = q.Prompt
		view.Options = q.Options
		view.Displayed = q.Displayed
	}
	return view
}

// expectedAnswer is revealed after the question has been answered.
func expectedAnswer(q domain.Question) string {
	if q.Kind == domain.ModalityVerification {
		return strconv.FormatBool(q.Claim)
	}
	return q.Symbol
}

// progressMessage is the frame following a progress change: the next
// question, or the result once the session is over.
func progressMessage(p domain.Progress) outboundMessage[any] {
	if p.Finished() {
		return outboundMessage[any]{Type: "result", Payload: p.Result}
	}
	return outboundMessage[any]{Type: "question", Payload: newQuestionView(p)}
}

// errorMessage maps a use-case error to a frame. Stale and missing-session
// errors are routine and sent as notices without logging.
func errorMessage(err error) outboundMessage[any] {
	payload := errorPayload{Code: errorCode(err), Message: err.Error()}
	switch payload.Code {
	case "stale_question", "session_not_found":
		return outboundMessage[any]{Type: "notice", Payload: payload}
	case "internal", "stats_unavailable", "empty_dictionary":
		logger.Error("quiz request failed", "code", payload.Code, "err", err)
	}
	return outboundMessage[any]{Type: "error", Payload: payload}
}

func errorCode(err error) string {
	var mergeErr *app.MergeError
	switch {
	case errors.Is(err, domain.ErrStaleQuestion):
		return "stale_question"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrSessionAlreadyActive):
		return "session_active"
	case errors.Is(err, domain.ErrInvalidTier):
		return "invalid_tier"
	case errors.Is(err, domain.ErrInvalidModality):
		return "invalid_modality"
	case errors.Is(err, domain.ErrInvalidAnswer):
		return "invalid_answer"
	case errors.Is(err, domain.ErrEmptyDictionary):
		return "empty_dictionary"
	case errors.As(err, &mergeErr):
		return "stats_unavailable"
	}
	return "internal"
}

// settle retries a failed statistics merge once. It returns nil when the
// error was not a merge failure or the retry succeeded.
func settle(ctx context.Context, service *app.QuizService, err error) error {
	var mergeErr *app.MergeError
	if !errors.As(err, &mergeErr) {
		return err
	}
	if _, retryErr := service.RecordResult(ctx, mergeErr.Result); retryErr != nil {
		return retryErr
	}
	logger.Warn("stats merge recovered on retry", "session", mergeErr.Result.SessionID, "player", mergeErr.Result.PlayerID)
	return nil
}
