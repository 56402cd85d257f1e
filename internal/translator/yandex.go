package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultYandexEndpoint is the Yandex Translate v2 endpoint.
const DefaultYandexEndpoint = "https://translate.api.cloud.yandex.net/translate/v2/translate"

// idiomMarker prefixes the idiom when context is sent along with it, so the
// translated idiom can be split back out of the response.
const idiomMarker = "Идиома:"

// YandexService translates through the Yandex Cloud Translate API.
// Authentication uses a pre-shared API key plus a folder identifier.
//
// Transient failures (transport errors, non-2xx statuses) are retried with a
// fixed budget and a fixed inter-retry delay; there is deliberately no
// backoff, matching a degrade-not-fail policy where exhaustion yields a null
// candidate rather than a failed batch.
type YandexService struct {
	apiKey   string
	folderID string
	endpoint string
	client   *http.Client
	retries  int
	delay    time.Duration
}

func NewYandexService(apiKey, folderID string) *YandexService {
	return &YandexService{
		apiKey:   apiKey,
		folderID: folderID,
		endpoint: DefaultYandexEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		retries:  5,
		delay:    3 * time.Second,
	}
}

// WithEndpoint overrides the API endpoint (used by tests).
func (s *YandexService) WithEndpoint(endpoint string) *YandexService {
	s.endpoint = endpoint
	return s
}

// WithRetry overrides the retry budget and inter-retry delay.
func (s *YandexService) WithRetry(retries int, delay time.Duration) *YandexService {
	s.retries = retries
	s.delay = delay
	return s
}

func (s *YandexService) Name() string { return "yandex" }

type yandexRequest struct {
	FolderID           string   `json:"folderId"`
	SourceLanguageCode string   `json:"sourceLanguageCode"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
	Texts              []string `json:"texts"`
}

type yandexResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (s *YandexService) Translate(ctx context.Context, req Request) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: YANDEX_API_KEY is not set", ErrConfiguration)
	}

	text := req.Idiom
	if req.Context != "" {
		text = req.Context + "\n" + idiomMarker + " " + req.Idiom
	}

	body, err := json.Marshal(yandexRequest{
		FolderID:           s.folderID,
		SourceLanguageCode: req.SourceLang,
		TargetLanguageCode: req.TargetLang,
		Texts:              []string{text},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal yandex request: %w", err)
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
	return "", fmt.Errorf("yandex: %d attempts exhausted: %w", s.retries, lastErr)
}

func (s *YandexService) attempt(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Api-Key "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("yandex returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return "", fmt.Errorf("no translations in response")
	}

	translated := parsed.Translations[0].Text

	// When context was sent along, the response contains the translated
	// context too; keep only the part after the translated marker.
	if idx := strings.LastIndex(translated, idiomMarker); idx >= 0 {
		translated = translated[idx+len(idiomMarker):]
	}
	return strings.TrimSpace(translated), nil
}
