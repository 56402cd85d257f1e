// Package memory caches candidate translations in SQLite so that re-running
// stage 1 after a crash or with overlapping backups does not re-pay remote
// calls. The cache is an optimization only; the corpus file remains the
// source of truth.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- candidate_cache stores one translated candidate per (idiom, service).
	CREATE TABLE IF NOT EXISTS candidate_cache (
		idiom TEXT NOT NULL,
		service TEXT NOT NULL,
		translation TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (idiom, service)
	);

	CREATE INDEX IF NOT EXISTS idx_candidate_service ON candidate_cache(service);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the cached candidate for an idiom/service pair, bumping its
// usage counters on a hit.
func (s *Store) Get(ctx context.Context, idiom, service string) (string, bool, error) {
	var translation string
	err := s.db.QueryRowContext(ctx,
		`SELECT translation FROM candidate_cache WHERE idiom = ? AND service = ?`,
		normalizeKey(idiom), service).Scan(&translation)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE candidate_cache SET usage_count = usage_count + 1, last_used = ? WHERE idiom = ? AND service = ?`,
		time.Now(), normalizeKey(idiom), service)
	return translation, true, err
}

// Put stores or replaces the cached candidate for an idiom/service pair.
func (s *Store) Put(ctx context.Context, idiom, service, translation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO candidate_cache (idiom, service, translation, usage_count, created_at, last_used)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		normalizeKey(idiom), service, translation, time.Now(), time.Now())
	return err
}

// Entry is one cached candidate.
type Entry struct {
	Idiom       string
	Service     string
	Translation string
	UsageCount  int
	LastUsed    time.Time
}

// List returns all cached candidates ordered by most recently used.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idiom, service, translation, usage_count, last_used FROM candidate_cache ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Idiom, &e.Service, &e.Translation, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes cache contents per service.
type Stats struct {
	TotalEntries int
	TotalUsage   int
	PerService   map[string]int
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{PerService: make(map[string]int)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM candidate_cache`).
		Scan(&stats.TotalEntries, &stats.TotalUsage)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT service, COUNT(*) FROM candidate_cache GROUP BY service`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var service string
		var count int
		if err := rows.Scan(&service, &count); err != nil {
			return nil, err
		}
		stats.PerService[service] = count
	}
	return stats, rows.Err()
}

// Clear removes all cached candidates and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM candidate_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeKey trims whitespace and applies Unicode NFC normalization so the
// same idiom scraped with different composition forms hits the same row.
func normalizeKey(idiom string) string {
	return norm.NFC.String(strings.TrimSpace(idiom))
}
