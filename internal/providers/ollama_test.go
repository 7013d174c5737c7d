package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body.Stream {
			t.Error("expected stream=false")
		}
		if body.Model != "llama3.1" {
			t.Errorf("model = %q", body.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.1",
			"message":           map[string]string{"role": "assistant", "content": "pong"},
			"done":              true,
			"prompt_eval_count": 7,
			"eval_count":        3,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, RateLimit: 6000})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Content != "pong" {
		t.Errorf("content = %q", result.Content)
	}
	if result.Provider != OllamaName {
		t.Errorf("provider = %q", result.Provider)
	}
	if result.PromptTokens != 7 || result.CompletionTokens != 3 || result.TotalTokens != 10 {
		t.Errorf("tokens = %d/%d/%d", result.PromptTokens, result.CompletionTokens, result.TotalTokens)
	}
}

func TestOllamaStructuredOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Format != "json" {
			t.Errorf("format = %q, want json", body.Format)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "llama3.1",
			"message": map[string]string{"role": "assistant", "content": `{"word":"osmosis"}`},
			"done":    true,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, RateLimit: 6000})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "define"}},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if string(result.ParsedJSON) != `{"word":"osmosis"}` {
		t.Errorf("ParsedJSON = %s", result.ParsedJSON)
	}
}

func TestOllamaOptionsPassed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&body)

		var opts map[string]any
		if err := json.Unmarshal(body.Options, &opts); err != nil {
			t.Fatalf("decoding options: %v", err)
		}
		if opts["temperature"] != 0.2 {
			t.Errorf("temperature = %v", opts["temperature"])
		}
		if opts["num_predict"] != float64(512) {
			t.Errorf("num_predict = %v", opts["num_predict"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "custom",
			"message": map[string]string{"role": "assistant", "content": "ok"},
			"done":    true,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, RateLimit: 6000})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Model:       "custom",
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
}

func TestOllamaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`model not found`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, RateLimit: 6000})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if result.ErrorType != "http_error" {
		t.Errorf("error type = %q", result.ErrorType)
	}
}

func TestOllamaInlineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "model 'missing' not found"})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, RateLimit: 6000})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error from error field")
	}
}

func TestOllamaDefaults(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{})
	if client.Model() != "llama3.1" {
		t.Errorf("default model = %q", client.Model())
	}
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("default base URL = %q", client.baseURL)
	}
	if client.Name() != "ollama" {
		t.Errorf("name = %q", client.Name())
	}
}
