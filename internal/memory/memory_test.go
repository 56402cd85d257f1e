package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "avoir le cafard", "yandex", "хандрить"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := s.Get(ctx, "avoir le cafard", "yandex")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || got != "хандрить" {
		t.Errorf("Get = %q, found=%v", got, found)
	}
}

func TestStore_GetMiss(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.Get(context.Background(), "inconnu", "yandex")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("expected miss for unknown idiom")
	}
}

func TestStore_ServicesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "poser un lapin", "yandex", "продинамить"); err != nil {
		t.Fatal(err)
	}

	_, found, err := s.Get(ctx, "poser un lapin", "hf")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("hf lookup must not hit the yandex entry")
	}
}

func TestStore_KeyNormalization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// NFD-composed input must hit the NFC-stored row.
	if err := s.Put(ctx, "  pétrir  ", "yandex", "месить"); err != nil {
		t.Fatal(err)
	}
	got, found, err := s.Get(ctx, "pétrir", "yandex")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != "месить" {
		t.Errorf("normalized lookup failed: %q found=%v", got, found)
	}
}

func TestStore_StatsAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Put(ctx, "a", "yandex", "а")
	s.Put(ctx, "a", "hf", "б")
	s.Put(ctx, "b", "yandex", "в")
	s.Get(ctx, "a", "yandex")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", stats.TotalEntries)
	}
	if stats.PerService["yandex"] != 2 || stats.PerService["hf"] != 1 {
		t.Errorf("PerService = %v", stats.PerService)
	}
	if stats.TotalUsage != 4 {
		t.Errorf("TotalUsage = %d, want 4", stats.TotalUsage)
	}

	removed, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear removed %d, want 3", removed)
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Put(ctx, "a", "yandex", "а")
	s.Put(ctx, "b", "hf", "б")

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}
