package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kana-quiz-service/internal/domain"
)

// SessionRepository is the session registry: at most one live session per player.
type SessionRepository interface {
	// Create registers session unless the player's slot is taken.
	Create(playerID string, session *Session) bool
	Get(playerID string) (*Session, bool)
	// Delete clears the slot only if it still holds session.
	Delete(playerID string, session *Session)
}

// QuestionGenerator builds the question sequence of a new session.
type QuestionGenerator interface {
	Generate(tier domain.Tier, modality domain.Modality, count int) ([]domain.Question, error)
}

// MergeError reports a finished session whose statistics could not be saved.
// The session is already closed; pass Result to RecordResult to retry.
type MergeError struct {
	Result domain.SessionResult
	Err    error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge session %s: %v", e.Result.SessionID, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions  SessionRepository
	generator QuestionGenerator
	stats     *StatsAggregator
	feed      *Feed
	now       func() time.Time
	budget    time.Duration
}

func NewQuizService(sessions SessionRepository, generator QuestionGenerator, stats *StatsAggregator) *QuizService {
	return NewQuizServiceWithClock(sessions, generator, stats, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timing.
func NewQuizServiceWithClock(sessions SessionRepository, generator QuestionGenerator, stats *StatsAggregator, now func() time.Time) *QuizService {
	return &QuizService{
		sessions:  sessions,
		generator: generator,
		stats:     stats,
		feed:      NewFeed(),
		now:       now,
		budget:    domain.TimeBudget,
	}
}

// StartSession opens a new session and returns its first question.
func (s *QuizService) StartSession(ctx context.Context, playerID string, tier domain.Tier, modality domain.Modality) (domain.Progress, error) {
	questions, err := s.generator.Generate(tier, modality, domain.QuestionsPerSession)
	if err != nil {
		return domain.Progress{}, err
	}

	if existing, ok := s.sessions.Get(playerID); ok {
		// An overdue session is closed here rather than blocking the new one.
		result, expired := existing.expire()
		switch {
		case expired:
			s.sessions.Delete(playerID, existing)
			if _, err := s.merge(ctx, *result); err != nil {
				return domain.Progress{}, err
			}
		case existing.State().Terminal():
			// Finished by a concurrent call that has not cleared the slot yet.
			s.sessions.Delete(playerID, existing)
		default:
			return domain.Progress{}, domain.ErrSessionAlreadyActive
		}
	}

	session := newSession(uuid.NewString(), playerID, tier, modality, questions, s.budget, s.now)
	progress := session.begin()
	if !s.sessions.Create(playerID, session) {
		return domain.Progress{}, domain.ErrSessionAlreadyActive
	}
	return progress, nil
}

// CurrentQuestion returns the question in play. It times the session out
// when its budget is spent, in which case Progress.Result is set.
func (s *QuizService) CurrentQuestion(ctx context.Context, playerID string) (domain.Progress, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Progress{}, domain.ErrSessionNotFound
	}
	progress, result, err := session.current()
	if err != nil {
		return domain.Progress{}, err
	}
	if result != nil {
		s.sessions.Delete(playerID, session)
		if _, err := s.merge(ctx, *result); err != nil {
			return progress, err
		}
	}
	return progress, nil
}

// SubmitAnswer judges an answer to the question at questionIndex. A stale or
// invalid answer on an overdue session returns its error together with the
// timeout result in Progress.Result.
func (s *QuizService) SubmitAnswer(ctx context.Context, playerID string, questionIndex int, answer string) (domain.AnswerOutcome, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.AnswerOutcome{}, domain.ErrSessionNotFound
	}
	// A rejected submission can still time the session out, so the result
	// is handled before the error.
	outcome, result, err := session.submit(questionIndex, answer)
	if result != nil {
		s.sessions.Delete(playerID, session)
		if _, mergeErr := s.merge(ctx, *result); mergeErr != nil {
			return outcome, mergeErr
		}
	}
	return outcome, err
}

// AbandonSession drops the player's live session without recording it.
func (s *QuizService) AbandonSession(_ context.Context, playerID string) error {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.abandon(); err != nil {
		return err
	}
	s.sessions.Delete(playerID, session)
	return nil
}

// GetStatistics returns the player's record; never-played players get zeros.
func (s *QuizService) GetStatistics(ctx context.Context, playerID string) (domain.PlayerStatistics, error) {
	return s.stats.Get(ctx, playerID)
}

// GetHistory lists the player's finished sessions, newest first.
func (s *QuizService) GetHistory(ctx context.Context, playerID string, limit int) ([]domain.HistoryEntry, error) {
	return s.stats.History(ctx, playerID, limit)
}

// RecordResult retries the merge of a result returned in a MergeError.
func (s *QuizService) RecordResult(ctx context.Context, result domain.SessionResult) (domain.PlayerStatistics, error) {
	return s.merge(ctx, result)
}

// Subscribe streams a notice for every merged session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context) (<-chan domain.ResultNotice, func()) {
	return s.feed.Subscribe()
}

func (s *QuizService) merge(ctx context.Context, result domain.SessionResult) (domain.PlayerStatistics, error) {
	stats, err := s.stats.Merge(ctx, result)
	if err != nil {
		return domain.PlayerStatistics{}, &MergeError{Result: result, Err: err}
	}
	s.feed.Publish(domain.ResultNotice{Result: result, Stats: stats})
	return stats, nil
}
