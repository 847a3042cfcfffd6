package memory

import (
	"context"
	"testing"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/dictionary"
	"kana-quiz-service/internal/domain"
	"kana-quiz-service/internal/generator"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	service := app.NewQuizService(store, generator.New(dictionary.Hiragana()), app.NewStatsAggregator(NewStatsStore()))

	if _, err := service.StartSession(context.Background(), "p1", domain.Tier1, domain.ModalityChoice); err != nil {
		t.Fatalf("start: %v", err)
	}
	session, ok := store.Get("p1")
	if !ok || session.PlayerID() != "p1" {
		t.Fatalf("expected session registered for p1")
	}
	if store.Create("p1", session) {
		t.Fatalf("expected occupied slot to reject create")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	if err := service.AbandonSession(context.Background(), "p1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, ok := store.Get("p1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreDeleteIgnoresReplacedSession(t *testing.T) {
	store := NewSessionStore()
	service := app.NewQuizService(store, generator.New(dictionary.Hiragana()), app.NewStatsAggregator(NewStatsStore()))
	ctx := context.Background()

	if _, err := service.StartSession(ctx, "p1", domain.Tier1, domain.ModalityChoice); err != nil {
		t.Fatalf("start: %v", err)
	}
	first, _ := store.Get("p1")
	if err := service.AbandonSession(ctx, "p1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := service.StartSession(ctx, "p1", domain.Tier2, domain.ModalityChoice); err != nil {
		t.Fatalf("restart: %v", err)
	}

	store.Delete("p1", first)
	second, ok := store.Get("p1")
	if !ok || second == first {
		t.Fatalf("stale delete must not remove the new session")
	}
}
