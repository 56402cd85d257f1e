package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func streamHandler(t *testing.T, chunks []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request: %v", err)
		}
		if !req.Stream {
			t.Error("expected streaming request")
		}
		for i, c := range chunks {
			done := i == len(chunks)-1
			fmt.Fprintf(w, `{"response":%q,"done":%v}`+"\n", c, done)
		}
	}
}

func TestOllamaJudge_Evaluate(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, []string{"Лучший перевод: ", `"бить баклуши"`, ""}))
	defer server.Close()

	j := NewOllamaJudge("mistral", server.URL)

	verdict, err := j.Evaluate(context.Background(), Candidates{
		Idiom:  "se tourner les pouces",
		Yandex: "крутить пальцами",
		HF:     "бить баклуши",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != `Лучший перевод: "бить баклуши"` {
		t.Errorf("verdict = %q", verdict)
	}
}

func TestOllamaJudge_PromptContents(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Prompt
		fmt.Fprintln(w, `{"response":"ок","done":true}`)
	}))
	defer server.Close()

	j := NewOllamaJudge("mistral", server.URL)

	_, err := j.Evaluate(context.Background(), Candidates{
		Idiom:   "poser un lapin",
		Context: "Il m'a posé un lapin hier soir.",
		Yandex:  "подставить кролика",
		HF:      "продинамить",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"poser un lapin", "Il m'a posé un lapin hier soir.", "подставить кролика", "продинамить"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestOllamaJudge_EmptyContextFallback(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Prompt
		fmt.Fprintln(w, `{"response":"ок","done":true}`)
	}))
	defer server.Close()

	j := NewOllamaJudge("mistral", server.URL)
	if _, err := j.Evaluate(context.Background(), Candidates{Idiom: "x", Yandex: "а", HF: "б"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "Без контекста.") {
		t.Error("expected empty-context placeholder in prompt")
	}
}

func TestOllamaJudge_RetryThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintln(w, `{"response":"вердикт","done":true}`)
	}))
	defer server.Close()

	j := NewOllamaJudge("mistral", server.URL).WithRetry(3, time.Millisecond)

	verdict, err := j.Evaluate(context.Background(), Candidates{Idiom: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != "вердикт" || atomic.LoadInt32(&calls) != 2 {
		t.Errorf("verdict=%q calls=%d", verdict, calls)
	}
}

func TestOllamaJudge_RetryExhaustion(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	j := NewOllamaJudge("mistral", server.URL).WithRetry(2, time.Millisecond)

	_, err := j.Evaluate(context.Background(), Candidates{Idiom: "x"})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}
