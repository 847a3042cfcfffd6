// Package dictionary holds the symbol to phonetic-key table, split into tiers.
package dictionary

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"kana-quiz-service/internal/domain"
)

// Entry maps a symbol to its phonetic key.
type Entry struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Key    string `yaml:"key" json:"key"`
}

// Dictionary is immutable once built and safe for concurrent reads.
type Dictionary struct {
	tiers   map[domain.Tier][]Entry
	order   []domain.Tier
	entries []Entry
	keys    map[string]string
	symbols map[string][]string
}

// New builds a dictionary from tiered entries. A symbol may appear in one tier only.
func New(tiers map[domain.Tier][]Entry) (*Dictionary, error) {
	d := &Dictionary{
		tiers:   make(map[domain.Tier][]Entry, len(tiers)),
		keys:    make(map[string]string),
		symbols: make(map[string][]string),
	}
	for tier := range tiers {
		if !tier.Valid() {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTier, tier)
		}
		d.order = append(d.order, tier)
	}
	sort.Slice(d.order, func(i, j int) bool { return d.order[i] < d.order[j] })

	for _, tier := range d.order {
		entries := make([]Entry, 0, len(tiers[tier]))
		for _, e := range tiers[tier] {
			if _, dup := d.keys[e.Symbol]; dup {
				return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateSymbol, e.Symbol)
			}
			d.keys[e.Symbol] = e.Key
			d.symbols[e.Key] = append(d.symbols[e.Key], e.Symbol)
			entries = append(entries, e)
		}
		d.tiers[tier] = entries
		d.entries = append(d.entries, entries...)
	}
	return d, nil
}

// Tier returns the entries of t in their declared order.
func (d *Dictionary) Tier(t domain.Tier) ([]Entry, bool) {
	entries, ok := d.tiers[t]
	return entries, ok
}

// Tiers lists the tiers present, ascending.
func (d *Dictionary) Tiers() []domain.Tier {
	out := make([]domain.Tier, len(d.order))
	copy(out, d.order)
	return out
}

// Entries returns every entry across all tiers.
func (d *Dictionary) Entries() []Entry {
	return d.entries
}

// Len is the total number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Key returns the phonetic key of a symbol.
func (d *Dictionary) Key(symbol string) (string, bool) {
	key, ok := d.keys[symbol]
	return key, ok
}

// SymbolsFor returns every symbol read as key. Keys are not unique, so the
// result can hold more than one symbol.
func (d *Dictionary) SymbolsFor(key string) []string {
	return d.symbols[key]
}

type fileFormat struct {
	Tiers []struct {
		Tier    int     `yaml:"tier"`
		Entries []Entry `yaml:"entries"`
	} `yaml:"tiers"`
}

// Load reads a YAML dictionary file.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	tiers := make(map[domain.Tier][]Entry, len(raw.Tiers))
	for _, t := range raw.Tiers {
		tier := domain.Tier(t.Tier)
		tiers[tier] = append(tiers[tier], t.Entries...)
	}
	return New(tiers)
}
