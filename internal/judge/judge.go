// Package judge arbitrates between the two candidate translations of an
// idiom. The judge backend is a streaming text-generation model; its raw
// free-text verdict is persisted and later collapsed by the postprocess
// extraction pass.
package judge

import "context"

// Candidates carries everything the judge sees for one record.
type Candidates struct {
	Idiom   string
	Context string
	Yandex  string
	HF      string
}

// Judge picks or synthesizes the best translation from the candidates and
// returns its raw free-text answer.
type Judge interface {
	Evaluate(ctx context.Context, c Candidates) (string, error)
}
