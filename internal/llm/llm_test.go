package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "anthropic-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    string `json:"system"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.MaxTokens != 4096 {
			t.Errorf("max_tokens = %d, want default 4096", body.MaxTokens)
		}
		if body.System != "You write marketing copy." {
			t.Errorf("system = %q", body.System)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", body.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "A headline that sells."},
			},
		})
	}))
	defer srv.Close()

	provider := NewAnthropic("anthropic-key")
	provider.baseURL = srv.URL
	got, err := provider.Generate(context.Background(), Request{
		System: "You write marketing copy.",
		Prompt: "Write a headline.",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "A headline that sells." {
		t.Errorf("Generate() = %q", got)
	}
}

func TestAnthropicGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	provider := NewAnthropic("anthropic-key")
	provider.baseURL = srv.URL
	_, err := provider.Generate(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("Generate() error = nil, want rate limit error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("error = %v, want status and body snippet", err)
	}
}

func TestAnthropicGenerateNoTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	provider := NewAnthropic("anthropic-key")
	provider.baseURL = srv.URL
	if _, err := provider.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("Generate() error = nil, want no-content error")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer openai-key" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", body.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Five welcome emails."}},
			},
		})
	}))
	defer srv.Close()

	provider := NewOpenAI("openai-key")
	provider.baseURL = srv.URL
	got, err := provider.Generate(context.Background(), Request{
		System: "You write onboarding sequences.",
		Prompt: "Write the sequence.",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Five welcome emails." {
		t.Errorf("Generate() = %q", got)
	}
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	provider := NewOpenAI("openai-key")
	provider.baseURL = srv.URL
	if _, err := provider.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("Generate() error = nil, want empty-choices error")
	}
}

func TestRegistryRoutesByName(t *testing.T) {
	registry := NewRegistry()
	anthropic := NewAnthropic("k1")
	openai := NewOpenAI("k2")
	registry.Register(anthropic)
	registry.Register(openai)

	got, err := registry.Get("anthropic")
	if err != nil {
		t.Fatalf("Get(anthropic) error = %v", err)
	}
	if got != anthropic {
		t.Error("Get(anthropic) returned a different provider")
	}

	if names := registry.Names(); len(names) != 2 || names[0] != "anthropic" || names[1] != "openai" {
		t.Errorf("Names() = %v", names)
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewOpenAI("k"))

	if _, err := registry.Get("anthropic"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get(anthropic) error = %v, want ErrProviderNotFound", err)
	}
}
