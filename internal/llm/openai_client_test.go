package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wikiqa/internal/logging"
	"wikiqa/internal/remote"
)

func newServerClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient("test-model", Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  logging.Nop(),
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return client
}

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIClient("m", Config{}); err == nil {
		t.Fatal("expected configuration error for missing API key")
	}
}

func TestCompleteSuccess(t *testing.T) {
	client := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Path; got != "/chat/completions" {
			t.Fatalf("unexpected path: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("expected Authorization header, got %q", got)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Fatalf("unexpected model: %v", payload["model"])
		}
		if payload["temperature"] != 0.3 {
			t.Fatalf("unexpected temperature: %v", payload["temperature"])
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []any{
				map[string]any{
					"message":       map[string]any{"content": "  hello  "},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     3,
				"completion_tokens": 4,
				"total_tokens":      7,
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("write response: %v", err)
		}
	}))

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "  hello  " {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.StopReason != "stop" {
		t.Fatalf("unexpected stop reason: %q", resp.StopReason)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestCompleteAPIErrorBody(t *testing.T) {
	client := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))

	_, err := client.Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error for error payload")
	}
}

func TestCompleteRateLimitIsTransient(t *testing.T) {
	client := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))

	_, err := client.Complete(context.Background(), CompletionRequest{})
	if !remote.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	client := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))

	if _, err := client.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestEmbed(t *testing.T) {
	client := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/embeddings" {
			t.Fatalf("unexpected path: %s", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["model"] != "text-embedding-3-small" {
			t.Fatalf("unexpected embedding model: %v", payload["model"])
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,-0.25,1.0]}]}`))
	}))

	vec, err := client.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestModelDefaulting(t *testing.T) {
	client, err := NewOpenAIClient("", Config{APIKey: "k", Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	if client.Model() == "" {
		t.Fatal("expected a default model name")
	}
}
