// Package pipeline implements the two enrichment stages of the corpus
// builder. Stage 1 turns cleaned idioms into persisted records with
// embeddings and two candidate translations; stage 2 arbitrates between the
// candidates with a judge model.
//
// Concurrency exists only inside a batch: each stage runs its own bounded
// worker pool over independent remote calls and synchronizes on the batch
// boundary before touching the dataset file. Stages are never run
// concurrently with each other; the dataset's load→mutate→save cycle is
// single-threaded by construction.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vsolomakha/idiomforge/internal/cleaner"
	"github.com/vsolomakha/idiomforge/internal/corpus"
	"github.com/vsolomakha/idiomforge/internal/dataset"
	"github.com/vsolomakha/idiomforge/internal/embedder"
	"github.com/vsolomakha/idiomforge/internal/judge"
	"github.com/vsolomakha/idiomforge/internal/memory"
	"github.com/vsolomakha/idiomforge/internal/postprocess"
	"github.com/vsolomakha/idiomforge/internal/translator"
	"github.com/vsolomakha/idiomforge/internal/validator"
)

// Defaults for pool width and checkpoint cadence.
const (
	DefaultWorkers         = 5
	DefaultCheckpointEvery = 20
	DefaultBatchSize       = 50
)

// Config tunes both stages.
type Config struct {
	Workers         int // bounded pool width per stage
	CheckpointEvery int // stage 1: persist every N completed records
	BatchSize       int // stage 2: records per batch
	SourceLang      string
	TargetLang      string
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = DefaultCheckpointEvery
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.SourceLang == "" {
		c.SourceLang = "fr"
	}
	if c.TargetLang == "" {
		c.TargetLang = "ru"
	}
}

// Pipeline wires the stages to their backends. All backends are constructed
// once by the caller and passed in; Cache and Validator are optional.
type Pipeline struct {
	Store     *dataset.Store
	Primary   translator.Service // fills translation_yandex
	Secondary translator.Service // fills translation_hf
	Encoder   embedder.Encoder
	Judge     judge.Judge
	Cache     *memory.Store
	Validator *validator.Validator
	Config    Config

	// Progress receives human-readable telemetry lines; defaults to stderr.
	Progress io.Writer
}

func (p *Pipeline) progressf(format string, args ...interface{}) {
	w := p.Progress
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// translateOne resolves one candidate through the cache and a backend.
// A backend failure degrades to a nil candidate: the batch never aborts
// because one remote call ran out of retries.
func (p *Pipeline) translateOne(ctx context.Context, svc translator.Service, item corpus.CleanedRecord) *string {
	if p.Cache != nil {
		if cached, found, err := p.Cache.Get(ctx, item.Idiom, svc.Name()); err == nil && found {
			return &cached
		}
	}

	translated, err := svc.Translate(ctx, translator.Request{
		Idiom:      item.Idiom,
		Context:    item.Context,
		SourceLang: p.Config.SourceLang,
		TargetLang: p.Config.TargetLang,
	})
	if err != nil {
		p.progressf("[stage1] %s candidate for %q degraded to null: %v", svc.Name(), item.Idiom, err)
		return nil
	}

	if p.Validator != nil {
		if ok, verr := p.Validator.IsValid(translated, p.Config.TargetLang); !ok {
			p.progressf("[stage1] %s candidate for %q looks off: %v", svc.Name(), item.Idiom, verr)
		}
	}

	if p.Cache != nil {
		if err := p.Cache.Put(ctx, item.Idiom, svc.Name(), translated); err != nil {
			p.progressf("[stage1] cache write failed for %q: %v", item.Idiom, err)
		}
	}
	return &translated
}

// Stage1 cleans the raw records, embeds every new idiom in one batched
// encoder call, produces both candidate translations through a bounded
// worker pool, and appends the finished records to the dataset with a
// checkpoint every CheckpointEvery completions. Returns the number of
// records added.
//
// Ids are allocated once from the pre-batch maximum and assigned by input
// position, so completion order cannot produce collisions. An embedding
// failure aborts before any dataset mutation.
func (p *Pipeline) Stage1(ctx context.Context, raw []corpus.RawRecord) (int, error) {
	p.Config.applyDefaults()

	cleaned, stats := cleaner.Clean(raw)
	p.progressf("[stage1] cleaning: %d in, %d skipped, %d merged, %d unique",
		stats.Total, stats.Skipped, stats.Merged, stats.Remaining)

	if len(cleaned) == 0 {
		return 0, nil
	}

	data, err := p.Store.Load()
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(cleaned))
	for i, item := range cleaned {
		texts[i] = item.Idiom
	}
	embeddings, err := p.Encoder.Encode(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding failed before enrichment, nothing written: %w", err)
	}

	ids := dataset.NextIDs(dataset.IDs(data), len(cleaned))

	jobs := make(chan int)
	results := make(chan corpus.Record)

	var wg sync.WaitGroup
	for w := 0; w < p.Config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				item := cleaned[idx]
				results <- corpus.Record{
					ID:                ids[idx],
					IdiomFR:           item.Idiom,
					Context:           item.Context,
					TranslationYandex: p.translateOne(ctx, p.Primary, item),
					TranslationHF:     p.translateOne(ctx, p.Secondary, item),
					BestTranslation:   nil,
					Source:            item.Source,
					Embedding:         embeddings[idx],
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for idx := range cleaned {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	added := 0
	windowStart := time.Now()
	for rec := range results {
		data = append(data, rec)
		added++

		if added%p.Config.CheckpointEvery == 0 {
			if err := p.Store.Save(data); err != nil {
				return added, fmt.Errorf("checkpoint failed: %w", err)
			}
			p.progressf("[stage1] saved %d records (+%d in %.1fs)",
				len(data), p.Config.CheckpointEvery, time.Since(windowStart).Seconds())
			windowStart = time.Now()
		}
	}

	if err := ctx.Err(); err != nil {
		// Flush what completed before cancellation, then report it.
		if serr := p.Store.Save(data); serr != nil {
			return added, serr
		}
		return added, err
	}

	if err := p.Store.Save(data); err != nil {
		return added, fmt.Errorf("final flush failed: %w", err)
	}
	p.progressf("[stage1] done: %d idioms added", added)
	return added, nil
}

// Stage2 walks the dataset in fixed-size sequential batches and fills in
// best_translation for every record that lacks one. Within a batch, a
// bounded pool arbitrates records concurrently and each verdict is written
// back to the slot it was read from; already-arbitrated records pass through
// untouched, which makes re-running the stage a no-op for them. The dataset
// is persisted after every batch, and the judge-output extraction pass runs
// once all batches are done.
func (p *Pipeline) Stage2(ctx context.Context) error {
	p.Config.applyDefaults()

	data, err := p.Store.Load()
	if err != nil {
		return err
	}
	total := len(data)
	start := time.Now()

	for batchStart := 0; batchStart < total; batchStart += p.Config.BatchSize {
		batchEnd := batchStart + p.Config.BatchSize
		if batchEnd > total {
			batchEnd = total
		}

		var pending []int
		for i := batchStart; i < batchEnd; i++ {
			if !data[i].Arbitrated() {
				pending = append(pending, i)
			}
		}

		batchStartTime := time.Now()

		if len(pending) > 0 {
			if err := p.arbitrateBatch(ctx, data, pending); err != nil {
				// Persist the verdicts this batch did produce before failing.
				if serr := p.Store.Save(data); serr != nil {
					return serr
				}
				return err
			}
			if err := p.Store.Save(data); err != nil {
				return fmt.Errorf("batch checkpoint failed: %w", err)
			}
		}

		processed := batchEnd
		elapsed := time.Since(start)
		remaining := time.Duration(0)
		if processed > 0 {
			remaining = time.Duration(float64(elapsed) / float64(processed) * float64(total-processed))
		}
		p.progressf("[stage2] %d/%d records | batch %.1fs | elapsed %.1fs | remaining ≈ %.1fs",
			processed, total, time.Since(batchStartTime).Seconds(), elapsed.Seconds(), remaining.Seconds())
	}

	extracted, err := postprocess.ExtractFile(p.Store.Path(), "")
	if err != nil {
		return err
	}
	p.progressf("[stage2] done in %.1fs: %d records, %d verdicts collapsed",
		time.Since(start).Seconds(), total, extracted)
	return nil
}

// arbitrateBatch fans the pending indexes of one batch out to the worker
// pool. Results carry their original index so completion order never
// changes which slot a verdict lands in. A judge failure for one record
// leaves that record unarbitrated and does not stop the others.
func (p *Pipeline) arbitrateBatch(ctx context.Context, data []corpus.Record, pending []int) error {
	type verdict struct {
		idx  int
		text string
		err  error
	}

	jobs := make(chan int)
	results := make(chan verdict, len(pending))

	var wg sync.WaitGroup
	for w := 0; w < p.Config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec := data[idx]
				text, err := p.Judge.Evaluate(ctx, judge.Candidates{
					Idiom:   rec.IdiomFR,
					Context: rec.Context,
					Yandex:  deref(rec.TranslationYandex),
					HF:      deref(rec.TranslationHF),
				})
				results <- verdict{idx: idx, text: text, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, idx := range pending {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed int
	for v := range results {
		if v.err != nil {
			failed++
			p.progressf("[stage2] judge failed for %s: %v", data[v.idx].ID, v.err)
			continue
		}
		text := v.text
		data[v.idx].BestTranslation = &text
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed == len(pending) && failed > 0 {
		return fmt.Errorf("judge failed for all %d records in batch", failed)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
