package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsolomakha/idiomforge/internal/corpus"
)

func strPtr(s string) *string { return &s }

func sampleRecords() []corpus.Record {
	return []corpus.Record{
		{
			ID:                "fr001",
			IdiomFR:           "tirer le diable par la queue",
			Context:           "Depuis son licenciement, il tire le diable par la queue.",
			TranslationYandex: strPtr("едва сводить концы с концами"),
			TranslationHF:     strPtr("тянуть чёрта за хвост"),
			BestTranslation:   nil,
			Source:            "expressio",
			Embedding:         []float64{0.1, -0.2, 0.3},
		},
		{
			ID:      "fr002",
			IdiomFR: "poser un lapin",
			Source:  "wiktionary",
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idioms.jsonl")
	s := New(path)

	records := sampleRecords()
	if err := s.Save(records); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read dataset: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(loaded))
	}
	if loaded[0].ID != "fr001" || *loaded[0].TranslationYandex != "едва сводить концы с концами" {
		t.Errorf("first record mangled: %+v", loaded[0])
	}
	if loaded[1].TranslationYandex != nil || loaded[1].BestTranslation != nil {
		t.Error("missing optional fields should load as nil")
	}

	// Save(Load(Save(x))) must be byte-identical to Save(x).
	if err := s.Save(loaded); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to re-read dataset: %v", err)
	}
	if string(first) != string(second) {
		t.Error("save/load round trip is not stable")
	}
}

func TestStore_SaveWritesLiteralUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idioms.jsonl")
	s := New(path)

	if err := s.Save(sampleRecords()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read dataset: %v", err)
	}
	if !strings.Contains(string(data), "едва сводить концы с концами") {
		t.Error("expected Cyrillic text to be written literally, not escaped")
	}
	if strings.Contains(string(data), `\u04`) {
		t.Error("found escaped Cyrillic in dataset file")
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.jsonl"))

	records, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("expected empty corpus, got %d records", len(records))
	}
}

func TestStore_LoadCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idioms.jsonl")
	content := `{"id":"fr001","idiom_fr":"avoir le cafard","source":"expressio"}
not json at all
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path).Load()
	if err == nil {
		t.Fatal("expected error for corrupt line")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	if fe.Line != 2 {
		t.Errorf("expected failure on line 2, got line %d", fe.Line)
	}
}

func TestStore_LoadMissingRequiredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idioms.jsonl")
	content := `{"idiom_fr":"sans id","source":"expressio"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path).Load()
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError for missing id, got %v", err)
	}
}

func TestNextIDs(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		count    int
		want     []string
	}{
		{
			name:     "empty corpus",
			existing: nil,
			count:    3,
			want:     []string{"fr001", "fr002", "fr003"},
		},
		{
			name:     "continues from max",
			existing: []string{"fr001", "fr017", "fr003"},
			count:    2,
			want:     []string{"fr018", "fr019"},
		},
		{
			name:     "ignores foreign ids",
			existing: []string{"en005", "fr9x", "fr002"},
			count:    1,
			want:     []string{"fr003"},
		},
		{
			name:     "grows past three digits",
			existing: []string{"fr999"},
			count:    2,
			want:     []string{"fr1000", "fr1001"},
		},
		{
			name:     "zero count",
			existing: []string{"fr001"},
			count:    0,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextIDs(tt.existing, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("NextIDs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("NextIDs[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNextIDs_Unique(t *testing.T) {
	ids := NextIDs([]string{"fr042"}, 50)
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
	if ids[0] != "fr043" || ids[49] != "fr092" {
		t.Errorf("expected fr043..fr092, got %s..%s", ids[0], ids[49])
	}
}

func TestBackup_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup_expressio.json")
	raw := []corpus.RawRecord{
		{Idiom: "avoir le cafard", Context: "Il a le cafard depuis lundi.", Source: "expressio"},
		{Idiom: "poser un lapin", Source: "wiktionary"},
	}

	if err := WriteBackup(path, raw); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	loaded, err := ReadBackup(path)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Idiom != "avoir le cafard" {
		t.Errorf("backup round trip mangled records: %+v", loaded)
	}
}
