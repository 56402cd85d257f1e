// Package validator checks that a candidate translation is actually written
// in the target language. Validation is observability only: a failing
// candidate is reported, never dropped, since the judge still arbitrates it.
package validator

import (
	"fmt"
	"strings"

	"github.com/vsolomakha/idiomforge/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language
// detection. Idioms are short; below this, detection is noise and the
// candidate passes without validation.
const minValidationLength = 8

// Validator checks that a candidate is written in the expected language.
// The underlying detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// IsValid returns true when text appears to be written in targetLang.
//
// Short texts and texts whose language cannot be determined pass without
// error. When the detected language differs from targetLang the returned
// error names both codes.
func (v *Validator) IsValid(text, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("candidate is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		// Ambiguous language, cannot validate.
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}
