// Package collector gathers raw idioms from the known dictionary sources.
// Sources form a closed set; each one walks its site and returns raw
// records, and a failing source never aborts collection from the others.
package collector

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vsolomakha/idiomforge/internal/corpus"
	"github.com/vsolomakha/idiomforge/internal/dataset"
)

// Source is one idiom dictionary. Collect returns up to limit raw records
// (limit <= 0 means no cap).
type Source interface {
	Name() string
	Collect(ctx context.Context, limit int) ([]corpus.RawRecord, error)
}

// DefaultLimits caps how many idioms each source contributes per run.
var DefaultLimits = map[string]int{
	"expressio":  3000,
	"wiktionary": 1500,
}

// ByName resolves a source name to its collector. The set of sources is
// closed; unknown names are an error.
func ByName(name string) (Source, error) {
	switch name {
	case "wiktionary":
		return NewWiktionary(), nil
	case "expressio":
		return NewExpressio(), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

// AllSources returns every known source, in stable order.
func AllSources() []Source {
	return []Source{NewWiktionary(), NewExpressio()}
}

// Aggregator runs a set of sources and writes one backup file per source.
type Aggregator struct {
	Sources   []Source
	Limits    map[string]int
	BackupDir string
}

func NewAggregator(backupDir string, sources ...Source) *Aggregator {
	return &Aggregator{
		Sources:   sources,
		Limits:    DefaultLimits,
		BackupDir: backupDir,
	}
}

// CollectAll runs every source in turn and aggregates the results. A source
// that fails is logged and contributes zero records; the rest still run.
// Each successful source's records are also written to a backup file named
// after the source and this run's id, and the paths of written backups are
// returned alongside the records.
func (a *Aggregator) CollectAll(ctx context.Context) ([]corpus.RawRecord, []string, error) {
	runID := uuid.New().String()[:8]

	var all []corpus.RawRecord
	var backups []string

	for _, src := range a.Sources {
		limit := a.Limits[src.Name()]
		log.Printf("[collect] fetching from %s (limit %d)", src.Name(), limit)

		records, err := src.Collect(ctx, limit)
		if err != nil {
			log.Printf("[collect] source %s failed: %v", src.Name(), err)
			// One broken source must not kill the whole collection run,
			// but partial results gathered before the failure are kept.
		}
		if len(records) == 0 {
			continue
		}

		all = append(all, records...)

		path := filepath.Join(a.BackupDir, fmt.Sprintf("backup_%s_%s.json", src.Name(), runID))
		if werr := dataset.WriteBackup(path, records); werr != nil {
			log.Printf("[collect] failed to write backup for %s: %v", src.Name(), werr)
		} else {
			backups = append(backups, path)
		}

		log.Printf("[collect] %s contributed %d records", src.Name(), len(records))
	}

	if err := ctx.Err(); err != nil {
		return all, backups, err
	}
	return all, backups, nil
}
