package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultHFModel is the seq2seq model served for the fr→ru pair.
const DefaultHFModel = "Helsinki-NLP/opus-mt-fr-ru"

// HFService translates through a Hugging Face inference endpoint serving an
// opus-mt model. The language pair is fixed by the deployed model, so the
// request's language codes are not sent over the wire.
type HFService struct {
	endpoint string
	token    string
	client   *http.Client
	retries  int
	delay    time.Duration
}

// NewHFService creates a client for a translation inference endpoint.
// token may be empty for an unauthenticated self-hosted deployment.
func NewHFService(endpoint, token string) *HFService {
	return &HFService{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
		retries:  3,
		delay:    3 * time.Second,
	}
}

// WithRetry overrides the retry budget and inter-retry delay.
func (s *HFService) WithRetry(retries int, delay time.Duration) *HFService {
	s.retries = retries
	s.delay = delay
	return s
}

func (s *HFService) Name() string { return "hf" }

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfTranslation struct {
	TranslationText string `json:"translation_text"`
}

func (s *HFService) Translate(ctx context.Context, req Request) (string, error) {
	if s.endpoint == "" {
		return "", fmt.Errorf("%w: HF endpoint is not set", ErrConfiguration)
	}

	text := req.Idiom
	if req.Context != "" {
		text = req.Idiom + ". Context: " + req.Context
	}

	body, err := json.Marshal(hfRequest{Inputs: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal hf request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		translated, err := s.attempt(ctx, body)
		if err == nil {
			return translated, nil
		}
		lastErr = err

		if attempt < s.retries {
			if serr := sleep(ctx, s.delay); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("hf: %d attempts exhausted: %w", s.retries, lastErr)
}

func (s *HFService) attempt(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hf endpoint returned status %d", resp.StatusCode)
	}

	var parsed []hfTranslation
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed) == 0 || parsed[0].TranslationText == "" {
		return "", fmt.Errorf("empty translation in response")
	}
	return strings.TrimSpace(parsed[0].TranslationText), nil
}
