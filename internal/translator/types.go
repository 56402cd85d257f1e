// Package translator provides the candidate translation backends. Each
// backend is a black-box text-in/text-out remote call; the pipeline invokes
// two of them independently per idiom to produce candidate translations.
package translator

import (
	"context"
	"errors"
	"time"
)

// ErrConfiguration marks a missing credential or endpoint. It is fatal at
// call time and is never retried.
var ErrConfiguration = errors.New("translator configuration error")

// Request carries one idiom to translate. Context, when present, is folded
// into the request text with a backend-specific marker so the backend can
// use it without it leaking into the result.
type Request struct {
	Idiom      string
	Context    string
	SourceLang string
	TargetLang string
}

// Service is one candidate translation backend.
//
// Translate returns the translated idiom. Transient failures are retried
// inside the implementation with a fixed budget and fixed delay; when the
// budget is exhausted the error is returned and the caller records a null
// candidate instead of aborting the batch.
type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
