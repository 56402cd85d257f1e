package collector

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vsolomakha/idiomforge/internal/corpus"
)

const expressioBase = "https://www.expressio.fr"

var (
	expressionLinkRe = regexp.MustCompile(`href="(/expressions/[^"]+)"`)
	nextLinkRe       = regexp.MustCompile(`<a[^>]+rel="next"[^>]+href="([^"]+)"`)
	titleRe          = regexp.MustCompile(`(?s)<h1[^>]*>(.*?)</h1>`)
	exampleRe        = regexp.MustCompile(`(?s)<div class="example"[^>]*>(.*?)</div>`)
	tagRe            = regexp.MustCompile(`<[^>]*>`)
)

// Expressio walks the expressio.fr expression index, fetching each
// expression page for its title and usage examples.
type Expressio struct {
	baseURL   string
	client    *http.Client
	retries   int
	sleepTime time.Duration
}

func NewExpressio() *Expressio {
	return &Expressio{
		baseURL:   expressioBase,
		client:    &http.Client{Timeout: 15 * time.Second},
		retries:   3,
		sleepTime: 1500 * time.Millisecond,
	}
}

// WithBaseURL overrides the site root (used by tests).
func (e *Expressio) WithBaseURL(baseURL string) *Expressio {
	e.baseURL = strings.TrimSuffix(baseURL, "/")
	return e
}

// WithPacing overrides the retry budget and inter-request delay.
func (e *Expressio) WithPacing(retries int, sleepTime time.Duration) *Expressio {
	e.retries = retries
	e.sleepTime = sleepTime
	return e
}

func (e *Expressio) Name() string { return "expressio" }

// Collect pages through the index and fetches every linked expression page.
// On a mid-walk failure the records gathered so far are returned along with
// the error.
func (e *Expressio) Collect(ctx context.Context, limit int) ([]corpus.RawRecord, error) {
	var collected []corpus.RawRecord
	seen := make(map[string]bool)
	pageURL := e.baseURL + "/toutes-les-expressions/"

	for pageURL != "" {
		listing, err := e.get(ctx, pageURL)
		if err != nil {
			return collected, fmt.Errorf("expressio index walk: %w", err)
		}

		for _, m := range expressionLinkRe.FindAllStringSubmatch(string(listing), -1) {
			link := m[1]
			if seen[link] {
				continue
			}
			seen[link] = true

			record, err := e.fetchExpression(ctx, e.baseURL+link)
			if err != nil {
				// Skip the one page, keep walking.
				continue
			}
			if record.Idiom == "" {
				continue
			}
			collected = append(collected, record)

			if limit > 0 && len(collected) >= limit {
				return collected, nil
			}
		}

		pageURL = e.nextPage(string(listing))
	}
	return collected, nil
}

func (e *Expressio) fetchExpression(ctx context.Context, pageURL string) (corpus.RawRecord, error) {
	body, err := e.get(ctx, pageURL)
	if err != nil {
		return corpus.RawRecord{}, err
	}
	html := string(body)

	var idiom string
	if m := titleRe.FindStringSubmatch(html); m != nil {
		idiom = stripTags(m[1])
	}

	var examples []string
	for _, m := range exampleRe.FindAllStringSubmatch(html, -1) {
		if text := stripTags(m[1]); text != "" {
			examples = append(examples, text)
		}
	}

	return corpus.RawRecord{
		Idiom:   idiom,
		Context: strings.Join(examples, " | "),
		Source:  "expressio",
	}, nil
}

func (e *Expressio) nextPage(html string) string {
	m := nextLinkRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	next := m[1]
	if strings.HasPrefix(next, "http") {
		return next
	}
	u, err := url.JoinPath(e.baseURL, next)
	if err != nil {
		return ""
	}
	return u
}

func stripTags(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	return strings.Join(strings.Fields(text), " ")
}

// get issues a GET with a rotated user agent and a fixed retry budget,
// pacing requests with the configured sleep between attempts.
func (e *Expressio) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= e.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", uaList[rand.Intn(len(uaList))])
		req.Header.Set("Accept-Language", "fr-FR")

		resp, err := e.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		lastErr = err

		if attempt < e.retries {
			t := time.NewTimer(e.sleepTime)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", e.retries, lastErr)
}
