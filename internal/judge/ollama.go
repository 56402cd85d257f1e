package judge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vsolomakha/idiomforge/internal/postprocess"
)

// OllamaJudge asks a local Ollama model to pick the better candidate. The
// generate API is used in streaming mode; chunks are concatenated into the
// final verdict.
type OllamaJudge struct {
	model   string
	baseURL string
	client  *http.Client
	retries int
	delay   time.Duration
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaJudge(model, baseURL string) *OllamaJudge {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "mistral"
	}
	return &OllamaJudge{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		retries: 3,
		delay:   3 * time.Second,
	}
}

// WithRetry overrides the retry budget and inter-retry delay.
func (j *OllamaJudge) WithRetry(retries int, delay time.Duration) *OllamaJudge {
	j.retries = retries
	j.delay = delay
	return j
}

// Evaluate streams the judge's verdict for one record. Transient failures
// are retried with a fixed budget; on exhaustion the error propagates and
// the record keeps its null best translation, so the next arbitration run
// picks it up again.
func (j *OllamaJudge) Evaluate(ctx context.Context, c Candidates) (string, error) {
	prompt := buildPrompt(c)

	body, err := json.Marshal(ollamaRequest{
		Model:  j.model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal judge request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= j.retries; attempt++ {
		verdict, err := j.attempt(ctx, body)
		if err == nil {
			return verdict, nil
		}
		lastErr = err

		if attempt < j.retries {
			t := time.NewTimer(j.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return "", ctx.Err()
			case <-t.C:
			}
		}
	}
	return "", fmt.Errorf("judge: %d attempts exhausted: %w", j.retries, lastErr)
}

func (j *OllamaJudge) attempt(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	// The response is one JSON object per line until done=true.
	var sb strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("failed to decode judge chunk: %w", err)
		}
		sb.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to read judge stream: %w", err)
	}

	verdict := postprocess.Clean(sb.String())
	if verdict == "" {
		return "", fmt.Errorf("judge produced an empty verdict")
	}
	return verdict, nil
}

func buildPrompt(c Candidates) string {
	context := c.Context
	if context == "" {
		context = "Без контекста."
	}

	var sb strings.Builder
	sb.WriteString("Ты эксперт по переводу идиом с французского на русский.\n")
	fmt.Fprintf(&sb, "У тебя есть французская идиома: \"%s\"\n", c.Idiom)
	fmt.Fprintf(&sb, "Контекст: \"%s\"\n\n", context)
	fmt.Fprintf(&sb, "Перевод Яндекса: \"%s\"\n", c.Yandex)
	fmt.Fprintf(&sb, "Перевод HuggingFace: \"%s\"\n\n", c.HF)
	sb.WriteString("Определи, какой перевод лучше передаёт смысл идиомы с учётом контекста, и верни его в кавычках.\n")
	return sb.String()
}
