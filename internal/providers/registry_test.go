package providers

import (
	"context"
	"testing"
	"time"
)

func TestRegistryRegisterGet(t *testing.T) {
	r := NewRegistry()

	mock := NewMockClient()
	r.RegisterLLM("mock", mock)

	if !r.HasLLM("mock") {
		t.Error("expected mock to be registered")
	}

	got, err := r.GetLLM("mock")
	if err != nil {
		t.Fatalf("GetLLM() error = %v", err)
	}
	if got != mock {
		t.Error("GetLLM returned different client")
	}

	if _, err := r.GetLLM("missing"); err == nil {
		t.Error("expected error for missing client")
	}

	r.UnregisterLLM("mock")
	if r.HasLLM("mock") {
		t.Error("expected mock to be unregistered")
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"deepseek": {
				Type:    "deepseek",
				Model:   "deepseek-chat",
				APIKey:  "sk-test",
				Enabled: true,
			},
			"deepseek-nokey": {
				Type:    "deepseek",
				Model:   "deepseek-chat",
				Enabled: true,
			},
			"ollama": {
				Type:    "ollama",
				Model:   "llama3.1",
				Enabled: true,
			},
			"disabled": {
				Type:    "deepseek",
				APIKey:  "sk-test",
				Enabled: false,
			},
			"unknown": {
				Type:    "gpt-neo",
				APIKey:  "sk-test",
				Enabled: true,
			},
		},
	}

	r := NewRegistryFromConfig(cfg)

	if !r.HasLLM("deepseek") {
		t.Error("deepseek should be registered")
	}
	// Ollama runs locally and needs no API key.
	if !r.HasLLM("ollama") {
		t.Error("ollama should be registered without an API key")
	}
	if r.HasLLM("deepseek-nokey") {
		t.Error("deepseek without API key should be skipped")
	}
	if r.HasLLM("disabled") {
		t.Error("disabled provider should be skipped")
	}
	if r.HasLLM("unknown") {
		t.Error("unknown provider type should be skipped")
	}
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"deepseek": {Type: "deepseek", Model: "deepseek-chat", APIKey: "sk-a", Enabled: true},
			"ollama":   {Type: "ollama", Model: "llama3.1", Enabled: true},
		},
	})

	before, _ := r.GetLLM("deepseek")

	// Reload with a new key: deepseek rebuilt, ollama dropped.
	r.Reload(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"deepseek": {Type: "deepseek", Model: "deepseek-chat", APIKey: "sk-b", Enabled: true},
		},
	})

	after, err := r.GetLLM("deepseek")
	if err != nil {
		t.Fatalf("GetLLM(deepseek) error = %v", err)
	}
	if before == after {
		t.Error("expected deepseek client to be recreated on key change")
	}
	if r.HasLLM("ollama") {
		t.Error("ollama should be removed after reload")
	}
}

func TestRegistryReloadUnchanged(t *testing.T) {
	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"deepseek": {Type: "deepseek", Model: "deepseek-chat", APIKey: "sk-a", Enabled: true},
		},
	}

	r := NewRegistryFromConfig(cfg)
	before, _ := r.GetLLM("deepseek")

	r.Reload(cfg)

	after, _ := r.GetLLM("deepseek")
	if before != after {
		t.Error("unchanged config should keep the same client")
	}
}

func TestMockClient(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := NewMockClient()
		mock.Latency = 0
		mock.ResponseText = "answer"

		result, err := mock.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "question"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "answer" {
			t.Errorf("content = %q", result.Content)
		}
		if mock.RequestCount() != 1 {
			t.Errorf("request count = %d", mock.RequestCount())
		}
	})

	t.Run("fail after", func(t *testing.T) {
		mock := NewMockClient()
		mock.Latency = 0
		mock.FailAfter = 1

		if _, err := mock.Chat(context.Background(), &ChatRequest{}); err != nil {
			t.Fatalf("first request should succeed: %v", err)
		}
		if _, err := mock.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Fatal("second request should fail")
		}
	})

	t.Run("structured response", func(t *testing.T) {
		mock := NewMockClient()
		mock.Latency = 0
		mock.ResponseJSON = []byte(`{"ok":true}`)

		result, err := mock.Chat(context.Background(), &ChatRequest{
			ResponseFormat: &ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if string(result.ParsedJSON) != `{"ok":true}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("try consume", func(t *testing.T) {
		rl := NewRateLimiter(60)
		if !rl.TryConsume() {
			t.Error("expected token available")
		}
	})

	t.Run("drains on 429", func(t *testing.T) {
		rl := NewRateLimiter(60)
		rl.Record429(10 * time.Second)
		if rl.TryConsume() {
			t.Error("expected no tokens after 429 drain")
		}
	})

	t.Run("wait honors cancellation", func(t *testing.T) {
		rl := NewRateLimiter(1)
		rl.Record429(time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := rl.Wait(ctx); err == nil {
			t.Error("expected context deadline error")
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"zero", "0", 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}
