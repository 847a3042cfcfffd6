package app

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"kana-quiz-service/internal/domain"
)

// Session is one player's timed attempt at a question sequence.
// All mutation happens under mu, so answers for one player are serialized.
type Session struct {
	id        string
	playerID  string
	tier      domain.Tier
	modality  domain.Modality
	questions []domain.Question
	budget    time.Duration
	now       func() time.Time

	mu        sync.Mutex
	state     domain.SessionState
	startedAt time.Time
	index     int
	score     int
	answers   []domain.Answer
}

func newSession(id, playerID string, tier domain.Tier, modality domain.Modality, questions []domain.Question, budget time.Duration, now func() time.Time) *Session {
	return &Session{
		id:        id,
		playerID:  playerID,
		tier:      tier,
		modality:  modality,
		questions: questions,
		budget:    budget,
		now:       now,
		state:     domain.StateCreated,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PlayerID returns the owning player.
func (s *Session) PlayerID() string { return s.playerID }

// State reports the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin moves a created session into play and starts its clock.
func (s *Session) begin() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.StateInProgress
	s.startedAt = s.now()
	return s.progressLocked(s.startedAt)
}

// current returns the question in play without advancing. An overdue
// session is timed out instead and the result is returned.
func (s *Session) current() (domain.Progress, *domain.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateInProgress {
		return domain.Progress{}, nil, domain.ErrSessionNotFound
	}
	now := s.now()
	if s.overdueLocked(now) {
		result := s.finishLocked(domain.StateTimedOut, now)
		progress := s.progressLocked(now)
		progress.Result = &result
		return progress, &result, nil
	}
	return s.progressLocked(now), nil, nil
}

// submit judges an answer to the question at questionIndex.
func (s *Session) submit(questionIndex int, raw string) (domain.AnswerOutcome, *domain.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateInProgress {
		return domain.AnswerOutcome{}, nil, domain.ErrSessionNotFound
	}
	now := s.now()
	if questionIndex != s.index {
		return s.rejectLocked(now, fmt.Errorf("%w: got %d, current %d", domain.ErrStaleQuestion, questionIndex, s.index))
	}

	question := s.questions[s.index]
	correct, err := judge(question, raw)
	if err != nil {
		return s.rejectLocked(now, err)
	}

	answer := domain.Answer{
		Question:    question,
		Response:    strings.TrimSpace(raw),
		Correct:     correct,
		SubmittedAt: now,
	}
	s.answers = append(s.answers, answer)
	if correct {
		s.score++
	}
	s.index++

	outcome := domain.AnswerOutcome{Answer: answer, Correct: correct}
	var result *domain.SessionResult
	switch {
	case s.index >= len(s.questions):
		r := s.finishLocked(domain.StateCompleted, now)
		result = &r
	case s.overdueLocked(now):
		// The late answer still counts; nothing more is offered.
		r := s.finishLocked(domain.StateTimedOut, now)
		result = &r
	}
	outcome.Progress = s.progressLocked(now)
	outcome.Progress.Result = result
	return outcome, result, nil
}

// rejectLocked refuses a submission with err. The answer is never recorded,
// but an overdue session is still timed out and its result returned.
func (s *Session) rejectLocked(now time.Time, err error) (domain.AnswerOutcome, *domain.SessionResult, error) {
	if !s.overdueLocked(now) {
		return domain.AnswerOutcome{}, nil, err
	}
	result := s.finishLocked(domain.StateTimedOut, now)
	outcome := domain.AnswerOutcome{Progress: s.progressLocked(now)}
	outcome.Progress.Result = &result
	return outcome, &result, err
}

// abandon ends the session without a result.
func (s *Session) abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return domain.ErrSessionNotFound
	}
	s.state = domain.StateAbandoned
	return nil
}

// expire times the session out if its budget is spent. ok is false when the
// session is still live or already finished.
func (s *Session) expire() (*domain.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateInProgress {
		return nil, false
	}
	now := s.now()
	if !s.overdueLocked(now) {
		return nil, false
	}
	result := s.finishLocked(domain.StateTimedOut, now)
	return &result, true
}

func (s *Session) overdueLocked(now time.Time) bool {
	return now.Sub(s.startedAt) > s.budget
}

func (s *Session) remainingLocked(now time.Time) time.Duration {
	left := s.budget - now.Sub(s.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (s *Session) progressLocked(now time.Time) domain.Progress {
	p := domain.Progress{
		SessionID: s.id,
		Tier:      s.tier,
		Modality:  s.modality,
		Index:     s.index,
		Total:     len(s.questions),
		Score:     s.score,
	}
	if s.state == domain.StateInProgress {
		q := s.questions[s.index]
		p.Question = &q
		p.TimeRemaining = s.remainingLocked(now)
	}
	return p
}

// finishLocked moves the session into a terminal state and builds its result.
// It is reached at most once per session because every caller first checks
// for StateInProgress.
func (s *Session) finishLocked(state domain.SessionState, now time.Time) domain.SessionResult {
	s.state = state
	pct := domain.Percentage(s.score, s.index)
	answers := make([]domain.Answer, len(s.answers))
	copy(answers, s.answers)
	return domain.SessionResult{
		SessionID:  s.id,
		PlayerID:   s.playerID,
		Tier:       s.tier,
		Modality:   s.modality,
		Outcome:    state,
		Score:      s.score,
		Total:      s.index,
		Percentage: pct,
		Duration:   now.Sub(s.startedAt),
		Grade:      domain.GradeFor(pct),
		Questions:  s.questions,
		Answers:    answers,
		StartedAt:  s.startedAt,
		FinishedAt: now,
	}
}

// judge decides whether raw answers q correctly.
// Choice answers are an option index or the option symbol itself;
// verification answers are a boolean.
func judge(q domain.Question, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	switch q.Kind {
	case domain.ModalityChoice:
		idx, err := strconv.Atoi(raw)
		if err != nil {
			idx = -1
			for i, opt := range q.Options {
				if opt == raw {
					idx = i
					break
				}
			}
		}
		if idx < 0 || idx >= len(q.Options) {
			return false, fmt.Errorf("%w: option %q", domain.ErrInvalidAnswer, raw)
		}
		return idx == q.CorrectIndex, nil
	case domain.ModalityVerification:
		claim, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not true or false", domain.ErrInvalidAnswer, raw)
		}
		return claim == q.Claim, nil
	}
	return false, fmt.Errorf("%w: %q", domain.ErrInvalidModality, q.Kind)
}
