// Package corpus defines the record types that flow through the idiom
// pipeline: raw scraped entries, cleaned unique entries, and the persisted
// corpus record.
package corpus

// RawRecord is one scraped idiom exactly as a source collector produced it,
// before any cleaning. Context may be empty.
type RawRecord struct {
	Idiom   string `json:"idiom"`
	Context string `json:"context"`
	Source  string `json:"source"`
}

// CleanedRecord is a deduplicated idiom ready for enrichment. Idiom is the
// unique key within a cleaned batch; Context holds merged fragments joined
// by " | " and Source is a comma-joined set of contributing source names.
type CleanedRecord struct {
	Idiom    string `json:"idiom"`
	Context  string `json:"context"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

// Record is the persisted corpus unit, one JSON object per line in the
// dataset file. Candidate translations and BestTranslation are pointers so
// that "not yet produced" serializes as null, not "".
type Record struct {
	ID                string    `json:"id"`
	IdiomFR           string    `json:"idiom_fr"`
	Context           string    `json:"context"`
	TranslationYandex *string   `json:"translation_yandex"`
	TranslationHF     *string   `json:"translation_hf"`
	BestTranslation   *string   `json:"best_translation"`
	Source            string    `json:"source"`
	Embedding         []float64 `json:"embedding"`
}

// Arbitrated reports whether the judge has already produced a final
// translation for this record. Stage 2 skips arbitrated records.
func (r *Record) Arbitrated() bool {
	return r.BestTranslation != nil && *r.BestTranslation != ""
}
