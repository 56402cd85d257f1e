// Package postprocess cleans judge output. The judge answers in free text,
// usually an explanation with the chosen translation in quotes; this package
// removes LLM artifacts from the stream and extracts the quoted answer from
// persisted verdicts.
package postprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vsolomakha/idiomforge/internal/dataset"
)

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>).*$`,
)

// Clean strips reasoning blocks from a raw judge verdict and trims it.
// The explanation text itself is kept: it is persisted as-is and collapsed
// later by ExtractTranslation.
func Clean(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// quotedCyrillicRe matches the first quoted run of Cyrillic letters and
// whitespace, in ASCII or guillemet quotes.
var quotedCyrillicRe = regexp.MustCompile(`"([\p{Cyrillic}\s]+)"|«([\p{Cyrillic}\s]+)»`)

// ExtractTranslation returns the first quoted Cyrillic substring of a judge
// verdict, trimmed. ok is false when the verdict contains no such quote; the
// caller keeps the raw verdict in that case.
func ExtractTranslation(verdict string) (string, bool) {
	m := quotedCyrillicRe.FindStringSubmatch(verdict)
	if m == nil {
		return "", false
	}
	quoted := m[1]
	if quoted == "" {
		quoted = m[2]
	}
	quoted = strings.TrimSpace(quoted)
	if quoted == "" {
		return "", false
	}
	return quoted, true
}

// ExtractFile collapses every record's raw judge verdict down to the quoted
// answer and rewrites the dataset. When outPath differs from inPath the
// original file is left untouched. Returns how many records were rewritten.
func ExtractFile(inPath, outPath string) (int, error) {
	if outPath == "" {
		outPath = inPath
	}

	records, err := dataset.New(inPath).Load()
	if err != nil {
		return 0, fmt.Errorf("extraction load failed: %w", err)
	}

	extracted := 0
	for i := range records {
		if records[i].BestTranslation == nil {
			continue
		}
		if translation, ok := ExtractTranslation(*records[i].BestTranslation); ok {
			if *records[i].BestTranslation != translation {
				extracted++
			}
			best := translation
			records[i].BestTranslation = &best
		}
	}

	if err := dataset.New(outPath).Save(records); err != nil {
		return 0, fmt.Errorf("extraction save failed: %w", err)
	}
	return extracted, nil
}
