package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vsolomakha/idiomforge/internal/corpus"
)

const wiktionaryAPI = "https://fr.wiktionary.org/w/api.php"

// idiomCategory is the French Wiktionary category listing idiomatic
// expressions.
const idiomCategory = "Catégorie:Expressions en français"

var uaList = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/117.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:110.0) Gecko/20100101 Firefox/110.0",
}

// Wiktionary walks the French Wiktionary expressions category through the
// MediaWiki API, fetching a usage example for each entry.
type Wiktionary struct {
	apiURL    string
	client    *http.Client
	retries   int
	sleepTime time.Duration
}

func NewWiktionary() *Wiktionary {
	return &Wiktionary{
		apiURL:    wiktionaryAPI,
		client:    &http.Client{Timeout: 10 * time.Second},
		retries:   3,
		sleepTime: 2 * time.Second,
	}
}

// WithAPIURL overrides the API endpoint (used by tests).
func (w *Wiktionary) WithAPIURL(apiURL string) *Wiktionary {
	w.apiURL = apiURL
	return w
}

// WithPacing overrides the retry budget and inter-request delay.
func (w *Wiktionary) WithPacing(retries int, sleepTime time.Duration) *Wiktionary {
	w.retries = retries
	w.sleepTime = sleepTime
	return w
}

func (w *Wiktionary) Name() string { return "wiktionary" }

type categoryResponse struct {
	Continue struct {
		CmContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query struct {
		CategoryMembers []struct {
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Collect pages through the category, one API call per page of members plus
// one per idiom for its context extract. On a mid-walk failure the records
// gathered so far are returned along with the error.
func (w *Wiktionary) Collect(ctx context.Context, limit int) ([]corpus.RawRecord, error) {
	var collected []corpus.RawRecord
	cont := ""

	for {
		page, err := w.fetchCategoryPage(ctx, cont)
		if err != nil {
			return collected, fmt.Errorf("wiktionary category walk: %w", err)
		}

		for _, member := range page.Query.CategoryMembers {
			example, err := w.fetchContext(ctx, member.Title)
			if err != nil {
				// A missing example is not worth losing the idiom over.
				example = ""
			}

			collected = append(collected, corpus.RawRecord{
				Idiom:   strings.TrimSpace(member.Title),
				Context: example,
				Source:  "wiktionary",
			})

			if limit > 0 && len(collected) >= limit {
				return collected, nil
			}
		}

		cont = page.Continue.CmContinue
		if cont == "" {
			return collected, nil
		}
	}
}

func (w *Wiktionary) fetchCategoryPage(ctx context.Context, cont string) (*categoryResponse, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "categorymembers")
	q.Set("cmtitle", idiomCategory)
	q.Set("cmlimit", "500")
	q.Set("format", "json")
	if cont != "" {
		q.Set("cmcontinue", cont)
	}

	body, err := w.get(ctx, w.apiURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed categoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse category response: %w", err)
	}
	return &parsed, nil
}

// fetchContext pulls the plain-text extract of an idiom's page and keeps the
// first body line as its usage context.
func (w *Wiktionary) fetchContext(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("explaintext", "1")
	q.Set("titles", title)
	q.Set("format", "json")

	body, err := w.get(ctx, w.apiURL+"?"+q.Encode())
	if err != nil {
		return "", err
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse extract response: %w", err)
	}

	for _, page := range parsed.Query.Pages {
		return firstBodyLine(page.Extract), nil
	}
	return "", nil
}

// firstBodyLine returns the first non-empty line of a plain-text extract
// that is not a section heading.
func firstBodyLine(extract string) string {
	for _, line := range strings.Split(extract, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		return line
	}
	return ""
}

// get issues a GET with a rotated user agent and a fixed retry budget.
func (w *Wiktionary) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= w.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", uaList[rand.Intn(len(uaList))])

		resp, err := w.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		lastErr = err

		if attempt < w.retries {
			t := time.NewTimer(w.sleepTime)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", w.retries, lastErr)
}
