// Package detector identifies the language of short candidate translations.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector restricted to the languages that can plausibly
// appear in this corpus: the source language, the target language, and
// English (a common failure mode of a mistuned model). A small candidate
// set keeps detection usable on idiom-length texts.
func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.French, lingua.Russian, lingua.English).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}
