package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// QuestionsPerSession is the fixed length of every round.
	QuestionsPerSession = 13
	// TimeBudget is how long a player has to finish a round.
	TimeBudget = 180 * time.Second
)

// Tier is a difficulty bucket of the dictionary.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
)

// MaxTier is the highest tier statistics are kept for.
const MaxTier = Tier4

// Valid reports whether t is one of Tier1..Tier4.
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= MaxTier
}

// Modality is the question style of a session.
type Modality string

const (
	ModalityChoice       Modality = "choice"
	ModalityVerification Modality = "verification"
)

// ParseModality accepts the canonical names and the "easy"/"hard" aliases.
func ParseModality(raw string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "choice", "easy":
		return ModalityChoice, nil
	case "verification", "hard":
		return ModalityVerification, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidModality, raw)
}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	return m == ModalityChoice || m == ModalityVerification
}

// SessionState is the lifecycle position of a session.
type SessionState string

const (
	StateCreated    SessionState = "created"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
	StateTimedOut   SessionState = "timed_out"
	StateAbandoned  SessionState = "abandoned"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateTimedOut || s == StateAbandoned
}

// Question is one generated prompt. Choice questions fill Options and
// CorrectIndex; verification questions fill Displayed and Claim.
type Question struct {
	Kind         Modality `json:"kind"`
	Prompt       string   `json:"prompt"`
	Symbol       string   `json:"symbol"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correctIndex"`
	Displayed    string   `json:"displayed,omitempty"`
	Claim        bool     `json:"claim"`
}

// Answer is a recorded submission within a session.
type Answer struct {
	Question    Question  `json:"question"`
	Response    string    `json:"response"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// SessionResult summarizes a finished session.
type SessionResult struct {
	SessionID  string        `json:"sessionId"`
	PlayerID   string        `json:"playerId"`
	Tier       Tier          `json:"tier"`
	Modality   Modality      `json:"modality"`
	Outcome    SessionState  `json:"outcome"`
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
	Grade      Grade         `json:"grade"`
	Questions  []Question    `json:"questions"`
	Answers    []Answer      `json:"answers"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Perfect reports whether every answered question was correct.
// A round with nothing answered is not perfect.
func (r SessionResult) Perfect() bool {
	return r.Total > 0 && r.Score == r.Total
}

// Progress is the player's view of a live session. Question is nil and
// Result is set once the session has finished.
type Progress struct {
	SessionID     string         `json:"sessionId"`
	Tier          Tier           `json:"tier"`
	Modality      Modality       `json:"modality"`
	Index         int            `json:"index"`
	Total         int            `json:"total"`
	Score         int            `json:"score"`
	Question      *Question      `json:"question,omitempty"`
	TimeRemaining time.Duration  `json:"timeRemaining"`
	Result        *SessionResult `json:"result,omitempty"`
}

// Finished reports whether the session ended with this view.
func (p Progress) Finished() bool {
	return p.Result != nil
}

// AnswerOutcome is the result of one submission plus what comes next.
type AnswerOutcome struct {
	Answer   Answer   `json:"answer"`
	Correct  bool     `json:"correct"`
	Progress Progress `json:"progress"`
}

// HistoryEntry is an immutable record of one merged session.
type HistoryEntry struct {
	ID         string        `json:"id"`
	PlayerID   string        `json:"playerId"`
	RecordedAt time.Time     `json:"recordedAt"`
	Result     SessionResult `json:"result"`
}

// ResultNotice is published to observers after a session is merged.
type ResultNotice struct {
	Result SessionResult    `json:"result"`
	Stats  PlayerStatistics `json:"stats"`
}
