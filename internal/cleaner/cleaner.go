// Package cleaner normalizes raw scraped idioms and merges duplicates into a
// unique-by-idiom set that feeds the enrichment pipeline.
package cleaner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vsolomakha/idiomforge/internal/corpus"
)

// Stats summarizes one cleaning run. The counts are reported to the operator
// after every collection; downstream stages do not consume them.
type Stats struct {
	Total     int // raw records in
	Skipped   int // empty idioms and filtered wiktionary entries
	Merged    int // duplicates folded into an existing record
	Remaining int // unique cleaned records out
}

var (
	// citationRe marks the start of a "— (Author, Work)" citation tail in a
	// wiktionary example; everything from the marker on is dropped.
	citationRe = regexp.MustCompile(`—\s*\(`)
	// parenRe matches parenthetical asides stripped from context.
	parenRe = regexp.MustCompile(`\([^)]*\)`)
	// spaceRe collapses whitespace runs left behind by the other rewrites.
	spaceRe = regexp.MustCompile(`\s+`)
	// bracketRe matches a trailing "[...]" annotation on expressio titles.
	bracketRe = regexp.MustCompile(`\s*\[.*?\]$`)
)

// Clean filters, normalizes and deduplicates raw records. Malformed records
// never abort the run; they are skipped and counted. Output order follows
// first appearance of each idiom.
func Clean(raw []corpus.RawRecord) ([]corpus.CleanedRecord, Stats) {
	stats := Stats{Total: len(raw)}

	index := make(map[string]int)
	var cleaned []corpus.CleanedRecord

	for _, item := range raw {
		idiom := strings.TrimSpace(item.Idiom)
		context := NormalizeContext(item.Context)

		source := item.Source
		if source == "" {
			source = "unknown"
		}

		if idiom == "" {
			stats.Skipped++
			continue
		}

		if source == "expressio" {
			idiom = strings.TrimSpace(bracketRe.ReplaceAllString(idiom, ""))
		}

		// Wiktionary category listings mix in proper nouns and category
		// pages; an uppercase first letter is the scraper's noisy proxy
		// for those.
		if source == "wiktionary" && startsUpper(idiom) {
			stats.Skipped++
			continue
		}

		if i, ok := index[idiom]; ok {
			stats.Merged++
			merge(&cleaned[i], context, source)
			continue
		}

		index[idiom] = len(cleaned)
		cleaned = append(cleaned, corpus.CleanedRecord{
			Idiom:    idiom,
			Context:  context,
			Language: "fr",
			Source:   source,
		})
	}

	stats.Remaining = len(cleaned)
	return cleaned, stats
}

// NormalizeContext drops the citation tail, strips parenthetical asides and
// collapses whitespace.
func NormalizeContext(context string) string {
	context = strings.TrimSpace(context)
	if context == "" {
		return ""
	}
	if loc := citationRe.FindStringIndex(context); loc != nil {
		context = context[:loc[0]]
	}
	context = parenRe.ReplaceAllString(context, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(context, " "))
}

// merge folds a duplicate raw record into the already-cleaned one: context
// fragments accumulate with a " | " separator unless already present as a
// substring, and source names form a comma-joined set.
func merge(existing *corpus.CleanedRecord, context, source string) {
	if context != "" && !strings.Contains(existing.Context, context) {
		if existing.Context == "" {
			existing.Context = context
		} else {
			existing.Context += " | " + context
		}
	}

	for _, name := range strings.Split(existing.Source, ", ") {
		if name == source {
			return
		}
	}
	existing.Source += ", " + source
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
