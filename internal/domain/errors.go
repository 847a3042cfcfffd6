package domain

import "errors"

var (
	// ErrInvalidTier is returned when a tier is outside the dictionary's tiers.
	ErrInvalidTier = errors.New("invalid tier")
	// ErrInvalidModality is returned for a question style other than choice or verification.
	ErrInvalidModality = errors.New("invalid modality")
	// ErrEmptyDictionary indicates there is nothing to draw questions from.
	ErrEmptyDictionary = errors.New("dictionary is empty")
	// ErrDuplicateSymbol is returned when a dictionary lists the same symbol twice.
	ErrDuplicateSymbol = errors.New("duplicate dictionary symbol")
	// ErrSessionAlreadyActive is returned when a player starts a session while one is still running.
	ErrSessionAlreadyActive = errors.New("quiz session already active")
	// ErrSessionNotFound is returned when the player has no live session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrStaleQuestion is returned when an answer targets a question other than the current one.
	ErrStaleQuestion = errors.New("stale question")
	// ErrInvalidAnswer is returned when a raw answer cannot be read for the question kind.
	ErrInvalidAnswer = errors.New("invalid answer")
)
