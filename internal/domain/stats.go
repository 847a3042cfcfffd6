package domain

import "time"

// TierStats tracks one tier's best score and play count.
type TierStats struct {
	BestScore int `json:"bestScore"`
	Plays     int `json:"plays"`
}

// TierBreakdown holds one slot per tier.
type TierBreakdown struct {
	Tier1 TierStats `json:"tier1"`
	Tier2 TierStats `json:"tier2"`
	Tier3 TierStats `json:"tier3"`
	Tier4 TierStats `json:"tier4"`
}

// Slot returns the stats for t, or nil for an unknown tier.
func (b *TierBreakdown) Slot(t Tier) *TierStats {
	switch t {
	case Tier1:
		return &b.Tier1
	case Tier2:
		return &b.Tier2
	case Tier3:
		return &b.Tier3
	case Tier4:
		return &b.Tier4
	}
	return nil
}

// ModalityStats tracks games and answers for one modality.
type ModalityStats struct {
	Games   int `json:"games"`
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ModalityBreakdown holds one slot per modality.
type ModalityBreakdown struct {
	Choice       ModalityStats `json:"choice"`
	Verification ModalityStats `json:"verification"`
}

// Slot returns the stats for m, or nil for an unknown modality.
func (b *ModalityBreakdown) Slot(m Modality) *ModalityStats {
	switch m {
	case ModalityChoice:
		return &b.Choice
	case ModalityVerification:
		return &b.Verification
	}
	return nil
}

// PlayerStatistics is the cross-session record of one player.
type PlayerStatistics struct {
	PlayerID        string            `json:"playerId"`
	TotalGames      int               `json:"totalGames"`
	TotalQuestions  int               `json:"totalQuestions"`
	TotalCorrect    int               `json:"totalCorrect"`
	TimePlayed      time.Duration     `json:"timePlayed"`
	AverageAccuracy float64           `json:"averageAccuracy"`
	Tiers           TierBreakdown     `json:"tiers"`
	Modalities      ModalityBreakdown `json:"modalities"`
	CurrentStreak   int               `json:"currentStreak"`
	BestStreak      int               `json:"bestStreak"`
	FirstPlayedAt   time.Time         `json:"firstPlayedAt"`
	LastPlayedAt    time.Time         `json:"lastPlayedAt"`
	// LastSessionID is the most recently applied session.
	LastSessionID   string            `json:"lastSessionId,omitempty"`
}

// NewPlayerStatistics returns the zero record for a player.
func NewPlayerStatistics(playerID string) PlayerStatistics {
	return PlayerStatistics{PlayerID: playerID}
}

// Apply folds a finished session into the record.
func (s *PlayerStatistics) Apply(r SessionResult, at time.Time) {
	s.TotalGames++
	s.TotalQuestions += r.Total
	s.TotalCorrect += r.Score
	s.TimePlayed += r.Duration

	// Always derived from the totals so it never drifts.
	s.AverageAccuracy = 0
	if s.TotalQuestions > 0 {
		s.AverageAccuracy = float64(s.TotalCorrect) / float64(s.TotalQuestions)
	}

	if tier := s.Tiers.Slot(r.Tier); tier != nil {
		tier.Plays++
		if r.Score > tier.BestScore {
			tier.BestScore = r.Score
		}
	}

	if mode := s.Modalities.Slot(r.Modality); mode != nil {
		mode.Games++
		mode.Correct += r.Score
		mode.Total += r.Total
	}

	if r.Perfect() {
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
	} else {
		s.CurrentStreak = 0
	}

	if s.FirstPlayedAt.IsZero() {
		s.FirstPlayedAt = at
	}
	s.LastPlayedAt = at
	s.LastSessionID = r.SessionID
}
