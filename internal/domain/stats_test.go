package domain

import (
	"testing"
	"time"
)

func result(tier Tier, mode Modality, score, total int) SessionResult {
	return SessionResult{
		Tier:     tier,
		Modality: mode,
		Score:    score,
		Total:    total,
		Duration: 30 * time.Second,
	}
}

func TestApplyAccumulatesTotals(t *testing.T) {
	stats := NewPlayerStatistics("p1")
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	stats.Apply(result(Tier2, ModalityChoice, 10, 13), at)
	stats.Apply(result(Tier2, ModalityVerification, 4, 5), at.Add(time.Hour))

	if stats.TotalGames != 2 || stats.TotalQuestions != 18 || stats.TotalCorrect != 14 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.TimePlayed != time.Minute {
		t.Fatalf("expected 1m played, got %s", stats.TimePlayed)
	}
	if want := 14.0 / 18.0; stats.AverageAccuracy != want {
		t.Fatalf("expected accuracy %f, got %f", want, stats.AverageAccuracy)
	}
	if stats.Tiers.Tier2.Plays != 2 || stats.Tiers.Tier2.BestScore != 10 {
		t.Fatalf("unexpected tier2 stats: %+v", stats.Tiers.Tier2)
	}
	if stats.Tiers.Tier1.Plays != 0 {
		t.Fatalf("tier1 should be untouched, got %+v", stats.Tiers.Tier1)
	}
	if stats.Modalities.Choice != (ModalityStats{Games: 1, Correct: 10, Total: 13}) {
		t.Fatalf("unexpected choice stats: %+v", stats.Modalities.Choice)
	}
	if stats.Modalities.Verification != (ModalityStats{Games: 1, Correct: 4, Total: 5}) {
		t.Fatalf("unexpected verification stats: %+v", stats.Modalities.Verification)
	}
	if !stats.FirstPlayedAt.Equal(at) || !stats.LastPlayedAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("unexpected play timestamps: %v %v", stats.FirstPlayedAt, stats.LastPlayedAt)
	}
}

func TestApplyStreaks(t *testing.T) {
	stats := NewPlayerStatistics("p1")
	now := time.Now()
	for i := 0; i < 3; i++ {
		stats.Apply(result(Tier1, ModalityChoice, 13, 13), now)
		if stats.CurrentStreak != i+1 {
			t.Fatalf("expected streak %d, got %d", i+1, stats.CurrentStreak)
		}
	}
	stats.Apply(result(Tier1, ModalityChoice, 10, 13), now)

	if stats.BestStreak != 3 || stats.CurrentStreak != 0 {
		t.Fatalf("expected best=3 current=0, got best=%d current=%d", stats.BestStreak, stats.CurrentStreak)
	}

	stats.Apply(result(Tier1, ModalityChoice, 0, 0), now)
	if stats.CurrentStreak != 0 {
		t.Fatalf("empty round must not count as perfect")
	}
}

func TestApplyZeroQuestionsKeepsAccuracyZero(t *testing.T) {
	stats := NewPlayerStatistics("p1")
	stats.Apply(result(Tier3, ModalityChoice, 0, 0), time.Now())
	if stats.AverageAccuracy != 0 {
		t.Fatalf("expected accuracy 0, got %f", stats.AverageAccuracy)
	}
	if stats.TotalGames != 1 {
		t.Fatalf("expected game counted, got %d", stats.TotalGames)
	}
}

func TestGradeFor(t *testing.T) {
	cases := []struct {
		pct  float64
		want Grade
	}{
		{100, GradeMaster},
		{95, GradeMaster},
		{94.9, GradeExcellent},
		{85, GradeExcellent},
		{75, GradeGreat},
		{60, GradeGood},
		{59.99, GradePracticeNeeded},
		{0, GradePracticeNeeded},
	}
	for _, tc := range cases {
		if got := GradeFor(tc.pct); got != tc.want {
			t.Fatalf("GradeFor(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestParseModality(t *testing.T) {
	if m, err := ParseModality("easy"); err != nil || m != ModalityChoice {
		t.Fatalf("expected choice, got %v %v", m, err)
	}
	if m, err := ParseModality("Verification"); err != nil || m != ModalityVerification {
		t.Fatalf("expected verification, got %v %v", m, err)
	}
	if _, err := ParseModality("speed"); err == nil {
		t.Fatalf("expected error for unknown modality")
	}
}
