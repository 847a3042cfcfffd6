package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kana-quiz-service/internal/domain"
)

func TestHiraganaTiers(t *testing.T) {
	d := Hiragana()
	if got := d.Tiers(); len(got) != 4 {
		t.Fatalf("expected 4 tiers, got %v", got)
	}
	for _, tier := range d.Tiers() {
		entries, ok := d.Tier(tier)
		if !ok || len(entries) != 12 {
			t.Fatalf("tier %d: expected 12 entries, got %d", tier, len(entries))
		}
	}
	if d.Len() != 48 {
		t.Fatalf("expected 48 entries, got %d", d.Len())
	}
	if key, ok := d.Key("し"); !ok || key != "shi" {
		t.Fatalf("expected shi, got %q %v", key, ok)
	}
}

func TestNewRejectsDuplicatesAndBadTiers(t *testing.T) {
	_, err := New(map[domain.Tier][]Entry{
		domain.Tier1: {{"あ", "a"}},
		domain.Tier2: {{"あ", "a"}},
	})
	if !errors.Is(err, domain.ErrDuplicateSymbol) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	_, err = New(map[domain.Tier][]Entry{5: {{"x", "x"}}})
	if !errors.Is(err, domain.ErrInvalidTier) {
		t.Fatalf("expected invalid tier, got %v", err)
	}
}

func TestSymbolsForToleratesSharedKeys(t *testing.T) {
	d, err := New(map[domain.Tier][]Entry{
		domain.Tier1: {{"じ", "ji"}, {"ぢ", "ji"}},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := d.SymbolsFor("ji"); len(got) != 2 {
		t.Fatalf("expected two symbols for ji, got %v", got)
	}
	if got := d.SymbolsFor("zz"); len(got) != 0 {
		t.Fatalf("expected no symbols, got %v", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	body := `tiers:
  - tier: 1
    entries:
      - symbol: ア
        key: a
      - symbol: イ
        key: i
  - tier: 2
    entries:
      - symbol: カ
        key: ka
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", d.Len())
	}
	entries, _ := d.Tier(domain.Tier1)
	if len(entries) != 2 || entries[0].Symbol != "ア" {
		t.Fatalf("unexpected tier1: %+v", entries)
	}
}
