// Package generator builds randomized question sequences from a dictionary.
package generator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"kana-quiz-service/internal/dictionary"
	"kana-quiz-service/internal/domain"
)

// Distractors is how many wrong candidates a choice question carries.
const Distractors = 3

// Source is the pseudo-random source the generator draws from.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Generator produces question sequences. It is safe for concurrent use.
type Generator struct {
	dict *dictionary.Dictionary

	mu  sync.Mutex
	rnd Source
}

// New returns a Generator seeded with the current time.
func New(dict *dictionary.Dictionary) *Generator {
	return NewWithSource(dict, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithSource allows deterministic sequences in tests.
func NewWithSource(dict *dictionary.Dictionary, src Source) *Generator {
	return &Generator{dict: dict, rnd: src}
}

// Generate draws count questions for the tier. Symbols are drawn without
// replacement until the tier is exhausted, then the pool refills.
func (g *Generator) Generate(tier domain.Tier, modality domain.Modality, count int) ([]domain.Question, error) {
	if g.dict == nil || g.dict.Len() == 0 {
		return nil, domain.ErrEmptyDictionary
	}
	entries, ok := g.dict.Tier(tier)
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTier, tier)
	}
	if !modality.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidModality, modality)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	questions := make([]domain.Question, 0, count)
	var pool []dictionary.Entry
	for len(questions) < count {
		if len(pool) == 0 {
			pool = append(pool[:0], entries...)
		}
		i := g.rnd.Intn(len(pool))
		entry := pool[i]
		pool[i] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		if modality == domain.ModalityChoice {
			questions = append(questions, g.choice(entry, entries))
		} else {
			questions = append(questions, g.verification(entry))
		}
	}
	return questions, nil
}

func (g *Generator) choice(entry dictionary.Entry, tier []dictionary.Entry) domain.Question {
	others := make([]string, 0, len(tier))
	for _, e := range tier {
		if e.Symbol != entry.Symbol {
			others = append(others, e.Symbol)
		}
	}
	picked := g.sample(others, Distractors)

	// Small tiers borrow distractors from the whole dictionary.
	if len(picked) < Distractors {
		seen := make(map[string]struct{}, len(picked)+1)
		seen[entry.Symbol] = struct{}{}
		for _, s := range picked {
			seen[s] = struct{}{}
		}
		var rest []string
		for _, e := range g.dict.Entries() {
			if _, ok := seen[e.Symbol]; !ok {
				rest = append(rest, e.Symbol)
			}
		}
		picked = append(picked, g.sample(rest, Distractors-len(picked))...)
	}

	options := append(picked, entry.Symbol)
	g.shuffle(options)
	correct := 0
	for i, s := range options {
		if s == entry.Symbol {
			correct = i
			break
		}
	}
	return domain.Question{
		Kind:         domain.ModalityChoice,
		Prompt:       entry.Key,
		Symbol:       entry.Symbol,
		Options:      options,
		CorrectIndex: correct,
	}
}

func (g *Generator) verification(entry dictionary.Entry) domain.Question {
	displayed := entry.Symbol
	if g.rnd.Float64() >= 0.5 {
		var others []string
		for _, e := range g.dict.Entries() {
			if e.Symbol != entry.Symbol {
				others = append(others, e.Symbol)
			}
		}
		if len(others) > 0 {
			displayed = others[g.rnd.Intn(len(others))]
		}
	}
	return domain.Question{
		Kind:      domain.ModalityVerification,
		Prompt:    entry.Key,
		Symbol:    entry.Symbol,
		Displayed: displayed,
		Claim:     displayed == entry.Symbol,
	}
}

// sample picks up to n distinct items uniformly. src is not modified.
func (g *Generator) sample(src []string, n int) []string {
	if n > len(src) {
		n = len(src)
	}
	work := make([]string, len(src))
	copy(work, src)
	for i := 0; i < n; i++ {
		j := i + g.rnd.Intn(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:n]
}

func (g *Generator) shuffle(items []string) {
	for i := len(items) - 1; i > 0; i-- {
		j := g.rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
