// Package llmcall provides LLM call recording and querying for traceability.
// Every LLM API call is recorded with its pipeline stage, prompt, response,
// and token usage.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/tome/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"call_id"`

	// Timing
	CreatedAt  time.Time `json:"created_at"`
	DurationMs int       `json:"duration_ms"`

	// Context references
	BookID  string `json:"book_id,omitempty"`
	TopicID string `json:"topic_id,omitempty"`

	// Pipeline stage that issued the call ("extract", "enrich", ...)
	Stage string `json:"stage"`

	// Model info
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Token usage
	TokensPrompt     int `json:"tokens_prompt"`
	TokensCompletion int `json:"tokens_completion"`

	// Request/response payloads
	Prompt   string `json:"prompt"`
	Response string `json:"response"`

	// Error message when the call failed
	Error string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	BookID  string
	TopicID string

	// Stage identifies the pipeline step issuing the call (required)
	Stage string

	// Prompt is the user-visible prompt text sent to the model
	Prompt string
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:               uuid.New().String(),
		CreatedAt:        time.Now(),
		DurationMs:       int(result.ExecutionTime.Milliseconds()),
		BookID:           opts.BookID,
		TopicID:          opts.TopicID,
		Stage:            opts.Stage,
		Provider:         result.Provider,
		Model:            result.ModelUsed,
		TokensPrompt:     result.PromptTokens,
		TokensCompletion: result.CompletionTokens,
		Prompt:           opts.Prompt,
		Response:         result.Content,
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}

	return call
}

// ToMap converts the Call to a map for DefraDB insertion.
func (c *Call) ToMap() map[string]any {
	m := map[string]any{
		"call_id":           c.ID,
		"created_at":        c.CreatedAt.Format(time.RFC3339),
		"duration_ms":       c.DurationMs,
		"stage":             c.Stage,
		"provider":          c.Provider,
		"model":             c.Model,
		"tokens_prompt":     c.TokensPrompt,
		"tokens_completion": c.TokensCompletion,
		"prompt":            c.Prompt,
		"response":          c.Response,
	}

	if c.BookID != "" {
		m["book_id"] = c.BookID
	}
	if c.TopicID != "" {
		m["topic_id"] = c.TopicID
	}
	if c.Error != "" {
		m["error"] = c.Error
	}

	return m
}
