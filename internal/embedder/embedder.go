// Package embedder maps idiom texts to fixed-length vectors through a remote
// embedding server (a text-embeddings-inference style endpoint serving a
// sentence-transformers model).
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultDim is the output dimensionality of the default MiniLM encoder.
const DefaultDim = 384

// DefaultBatchSize bounds how many texts travel in one request. Batching
// amortizes per-request overhead; order within and across batches is
// preserved because embeddings are matched to idioms by position.
const DefaultBatchSize = 50

// Encoder turns a batch of texts into a parallel, order-preserving batch of
// fixed-dimension vectors.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
	Dim() int
}

// HTTPEncoder calls a remote embedding endpoint.
type HTTPEncoder struct {
	endpoint  string
	dim       int
	batchSize int
	client    *http.Client
}

func NewHTTPEncoder(endpoint string, dim int) *HTTPEncoder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HTTPEncoder{
		endpoint:  endpoint,
		dim:       dim,
		batchSize: DefaultBatchSize,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBatchSize overrides the per-request batch size.
func (e *HTTPEncoder) WithBatchSize(n int) *HTTPEncoder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

func (e *HTTPEncoder) Dim() int { return e.dim }

type encodeRequest struct {
	Inputs []string `json:"inputs"`
}

// Encode embeds all texts, splitting them into batches of at most batchSize.
// The result has exactly one vector per input text, in input order, each of
// length Dim; any deviation is an error.
func (e *HTTPEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	if e.endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint is not set")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.encodeBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *HTTPEncoder) encodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(encodeRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}

	var vectors [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != e.dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), e.dim)
		}
	}
	return vectors, nil
}
