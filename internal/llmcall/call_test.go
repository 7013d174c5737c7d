package llmcall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/tome/internal/defra"
	"github.com/jackzampolin/tome/internal/providers"
)

func TestFromChatResult(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		if call := FromChatResult(nil, RecordOptions{}); call != nil {
			t.Error("expected nil call for nil result")
		}
	})

	t.Run("successful result", func(t *testing.T) {
		result := &providers.ChatResult{
			Content:          "extracted terms",
			PromptTokens:     100,
			CompletionTokens: 20,
			ExecutionTime:    1500 * time.Millisecond,
			Provider:         "deepseek",
			ModelUsed:        "deepseek-chat",
			Success:          true,
		}

		call := FromChatResult(result, RecordOptions{
			BookID:  "book1",
			TopicID: "topic1",
			Stage:   "extract",
			Prompt:  "list the terms",
		})

		if call.ID == "" {
			t.Error("expected generated ID")
		}
		if call.Stage != "extract" {
			t.Errorf("stage = %q", call.Stage)
		}
		if call.BookID != "book1" || call.TopicID != "topic1" {
			t.Errorf("refs = %q/%q", call.BookID, call.TopicID)
		}
		if call.DurationMs != 1500 {
			t.Errorf("duration = %d", call.DurationMs)
		}
		if call.TokensPrompt != 100 || call.TokensCompletion != 20 {
			t.Errorf("tokens = %d/%d", call.TokensPrompt, call.TokensCompletion)
		}
		if call.Error != "" {
			t.Errorf("unexpected error field: %q", call.Error)
		}
	})

	t.Run("failed result", func(t *testing.T) {
		result := &providers.ChatResult{
			Provider:     "deepseek",
			Success:      false,
			ErrorMessage: "timeout",
		}
		call := FromChatResult(result, RecordOptions{Stage: "enrich"})
		if call.Error != "timeout" {
			t.Errorf("error = %q", call.Error)
		}
	})
}

func TestCallToMap(t *testing.T) {
	call := &Call{
		ID:        "c1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Stage:     "extract",
		Provider:  "deepseek",
		Model:     "deepseek-chat",
		BookID:    "book1",
	}

	m := call.ToMap()
	if m["call_id"] != "c1" {
		t.Errorf("call_id = %v", m["call_id"])
	}
	if m["created_at"] != "2025-06-01T12:00:00Z" {
		t.Errorf("created_at = %v", m["created_at"])
	}
	if _, ok := m["topic_id"]; ok {
		t.Error("empty topic_id should be omitted")
	}
	if _, ok := m["error"]; ok {
		t.Error("empty error should be omitted")
	}
}

func TestStoreList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		query, _ := body["query"].(string)
		if !strings.Contains(query, `stage: {_eq: "extract"}`) || !strings.Contains(query, `book_id: {_eq: "book1"}`) {
			t.Errorf("unexpected query: %s", query)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"LLMCall": []map[string]any{
					{
						"call_id":           "c1",
						"created_at":        "2025-06-01T12:00:00Z",
						"duration_ms":       float64(900),
						"book_id":           "book1",
						"stage":             "extract",
						"provider":          "deepseek",
						"model":             "deepseek-chat",
						"tokens_prompt":     float64(50),
						"tokens_completion": float64(10),
						"response":          "terms",
					},
				},
			},
		})
	}))
	defer server.Close()

	store := NewStore(defra.NewClient(server.URL))
	calls, err := store.List(context.Background(), QueryFilter{BookID: "book1", Stage: "extract"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].ID != "c1" || calls[0].DurationMs != 900 || calls[0].TokensPrompt != 50 {
		t.Errorf("call = %+v", calls[0])
	}
}
