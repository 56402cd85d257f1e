package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vsolomakha/idiomforge/internal/corpus"
	"github.com/vsolomakha/idiomforge/internal/dataset"
)

type fakeSource struct {
	name    string
	records []corpus.RawRecord
	err     error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Collect(ctx context.Context, limit int) ([]corpus.RawRecord, error) {
	return f.records, f.err
}

func TestAggregator_IsolatesFailingSource(t *testing.T) {
	dir := t.TempDir()
	agg := NewAggregator(dir,
		&fakeSource{name: "wiktionary", err: fmt.Errorf("site is down")},
		&fakeSource{name: "expressio", records: []corpus.RawRecord{
			{Idiom: "avoir le cafard", Source: "expressio"},
			{Idiom: "poser un lapin", Source: "expressio"},
		}},
	)

	records, backups, err := agg.CollectAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records from the healthy source, got %d", len(records))
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup file, got %d", len(backups))
	}

	loaded, err := dataset.ReadBackup(backups[0])
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("backup holds %d records, want 2", len(loaded))
	}
	if !strings.Contains(filepath.Base(backups[0]), "expressio") {
		t.Errorf("backup name should carry the source name: %s", backups[0])
	}
}

func TestAggregator_KeepsPartialResults(t *testing.T) {
	dir := t.TempDir()
	agg := NewAggregator(dir,
		&fakeSource{
			name:    "wiktionary",
			records: []corpus.RawRecord{{Idiom: "avoir la pêche", Source: "wiktionary"}},
			err:     fmt.Errorf("cut off mid-walk"),
		},
	)

	records, _, err := agg.CollectAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("partial results should survive a source failure, got %d records", len(records))
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"wiktionary", "expressio"} {
		src, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%q) failed: %v", name, err)
		}
		if src.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, src.Name())
		}
	}
	if _, err := ByName("glosbe"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestWiktionary_Collect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("list") {
		case "categorymembers":
			var resp categoryResponse
			resp.Query.CategoryMembers = []struct {
				Title string `json:"title"`
			}{
				{Title: "avoir le cafard"},
				{Title: "poser un lapin"},
				{Title: "tirer le diable par la queue"},
			}
			json.NewEncoder(w).Encode(resp)
		default:
			title := r.URL.Query().Get("titles")
			fmt.Fprintf(w, `{"query":{"pages":{"1":{"extract":"== Français ==\n\nExemple avec %s."}}}}`, title)
		}
	}))
	defer server.Close()

	src := NewWiktionary().WithAPIURL(server.URL).WithPacing(1, time.Millisecond)

	records, err := src.Collect(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("limit not honored: got %d records", len(records))
	}
	if records[0].Idiom != "avoir le cafard" || records[0].Source != "wiktionary" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[0].Context != "Exemple avec avoir le cafard." {
		t.Errorf("context = %q (heading should be skipped)", records[0].Context)
	}
}

func TestExpressio_Collect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/toutes-les-expressions/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/expressions/avoir-le-cafard">x</a>
			<a href="/expressions/avoir-le-cafard">dup</a>
			<a href="/expressions/poser-un-lapin">y</a>
		</body></html>`)
	})
	mux.HandleFunc("/expressions/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/expressions/")
		fmt.Fprintf(w, `<html><h1>%s</h1>
			<div class="example">Premier <b>exemple</b> pour %s.</div>
			<div class="example">Deuxième exemple.</div></html>`, name, name)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewExpressio().WithBaseURL(server.URL).WithPacing(1, time.Millisecond)

	records, err := src.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (duplicate link skipped), got %d", len(records))
	}
	if records[0].Idiom != "avoir-le-cafard" {
		t.Errorf("idiom = %q", records[0].Idiom)
	}
	want := "Premier exemple pour avoir-le-cafard. | Deuxième exemple."
	if records[0].Context != want {
		t.Errorf("context = %q, want %q", records[0].Context, want)
	}
}

func TestFirstBodyLine(t *testing.T) {
	extract := "== Français ==\n\n=== Locution verbale ===\n\nIl a le cafard.\nAutre ligne."
	if got := firstBodyLine(extract); got != "Il a le cafard." {
		t.Errorf("firstBodyLine = %q", got)
	}
	if got := firstBodyLine("== Titre =="); got != "" {
		t.Errorf("expected empty for headings only, got %q", got)
	}
}
