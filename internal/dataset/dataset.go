// Package dataset persists the idiom corpus as a UTF-8 line-delimited JSON
// file, one record per line. The whole file is the unit of durability: every
// mutating stage rewrites it completely after each checkpoint, which keeps
// recovery simple at the cost of not scaling past moderate corpus sizes.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/vsolomakha/idiomforge/internal/corpus"
)

// IDPrefix is the language prefix of every corpus record id.
const IDPrefix = "fr"

// idWidth is the minimum zero-padded width of the numeric id suffix.
// Suffixes past 999 simply grow wider.
const idWidth = 3

// FormatError reports a dataset line that failed to parse. A corrupt line
// aborts the whole load: silently skipping it would lose records and shift
// id allocation.
type FormatError struct {
	Path string
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dataset %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Store reads and writes one corpus file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load parses the full corpus file. A missing file is an empty corpus (the
// first run starts from nothing); a malformed line is a *FormatError.
// Missing optional fields unmarshal as null/empty, which is valid.
func (s *Store) Load() ([]corpus.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var records []corpus.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec corpus.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &FormatError{Path: s.path, Line: line, Err: err}
		}
		if rec.ID == "" || rec.IdiomFR == "" {
			return nil, &FormatError{Path: s.path, Line: line, Err: fmt.Errorf("missing required field (id=%q)", rec.ID)}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return records, nil
}

// Save replaces the corpus file with the given records, one JSON object per
// line in the given order. The new content is written to a temporary file
// and renamed into place so readers never observe a half-written corpus.
// Non-ASCII text is written literally, not escaped.
func (s *Store) Save(records []corpus.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp dataset: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace dataset: %w", err)
	}
	return nil
}

var idSuffixRe = regexp.MustCompile(`^` + IDPrefix + `(\d+)$`)

// MaxIDNumber extracts the numeric suffix from every id matching
// "fr<digits>" and returns the maximum, or 0 when none match.
func MaxIDNumber(ids []string) int {
	max := 0
	for _, id := range ids {
		m := idSuffixRe.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

// NextIDs allocates count fresh ids following the maximum numeric suffix in
// existing. Allocation is computed once from the pre-batch maximum so that
// concurrently completed units within one batch can never collide.
func NextIDs(existing []string, count int) []string {
	max := MaxIDNumber(existing)
	ids := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, FormatID(max+i))
	}
	return ids
}

// FormatID renders a numeric suffix as a record id, zero-padded to three
// digits.
func FormatID(n int) string {
	return IDPrefix + fmt.Sprintf("%0*d", idWidth, n)
}

// IDs returns the ids of all records, in order.
func IDs(records []corpus.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

// ReadBackup loads a collector backup file: a single JSON array of raw
// records, as written by the collect command.
func ReadBackup(path string) ([]corpus.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %s: %w", path, err)
	}
	var records []corpus.RawRecord
	if err := json.Unmarshal(bytes.TrimSpace(data), &records); err != nil {
		return nil, fmt.Errorf("failed to parse backup %s: %w", path, err)
	}
	return records, nil
}

// WriteBackup writes raw records as an indented JSON array, the snapshot
// format the collect command produces per source.
func WriteBackup(path string, records []corpus.RawRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
