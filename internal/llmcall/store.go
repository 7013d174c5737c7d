package llmcall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackzampolin/tome/internal/defra"
)

// Store provides access to LLM call records in DefraDB.
type Store struct {
	client *defra.Client
}

// NewStore creates a new LLMCall store.
func NewStore(client *defra.Client) *Store {
	return &Store{client: client}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	BookID   string
	TopicID  string
	Stage    string
	Provider string
	Model    string
	After    *time.Time
	Before   *time.Time
	Limit    int
	Offset   int
}

const callFields = `
		call_id
		created_at
		duration_ms
		book_id
		topic_id
		stage
		provider
		model
		tokens_prompt
		tokens_completion
		prompt
		response
		error`

// Get retrieves a single LLM call by its call ID.
func (s *Store) Get(ctx context.Context, id string) (*Call, error) {
	query := fmt.Sprintf(`{
		LLMCall(filter: {call_id: {_eq: %q}}) {%s
		}
	}`, id, callFields)

	resp, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("graphql error: %s", errMsg)
	}

	calls, err := parseLLMCalls(resp.Data)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, nil
	}
	return &calls[0], nil
}

// List retrieves LLM calls matching the filter.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Call, error) {
	var conditions []string

	if filter.BookID != "" {
		conditions = append(conditions, fmt.Sprintf(`book_id: {_eq: %q}`, filter.BookID))
	}
	if filter.TopicID != "" {
		conditions = append(conditions, fmt.Sprintf(`topic_id: {_eq: %q}`, filter.TopicID))
	}
	if filter.Stage != "" {
		conditions = append(conditions, fmt.Sprintf(`stage: {_eq: %q}`, filter.Stage))
	}
	if filter.Provider != "" {
		conditions = append(conditions, fmt.Sprintf(`provider: {_eq: %q}`, filter.Provider))
	}
	if filter.Model != "" {
		conditions = append(conditions, fmt.Sprintf(`model: {_eq: %q}`, filter.Model))
	}
	if filter.After != nil {
		conditions = append(conditions, fmt.Sprintf(`created_at: {_gt: %q}`, filter.After.Format(time.RFC3339)))
	}
	if filter.Before != nil {
		conditions = append(conditions, fmt.Sprintf(`created_at: {_lt: %q}`, filter.Before.Format(time.RFC3339)))
	}

	filterStr := ""
	if len(conditions) > 0 {
		filterStr = fmt.Sprintf("filter: {%s}", strings.Join(conditions, ", "))
	}

	var args []string
	if filterStr != "" {
		args = append(args, filterStr)
	}
	if filter.Limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", filter.Limit))
	}
	if filter.Offset > 0 {
		args = append(args, fmt.Sprintf("offset: %d", filter.Offset))
	}

	argsStr := ""
	if len(args) > 0 {
		argsStr = fmt.Sprintf("(%s)", strings.Join(args, ", "))
	}

	query := fmt.Sprintf(`{
		LLMCall%s {%s
		}
	}`, argsStr, callFields)

	resp, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("graphql error: %s", errMsg)
	}

	return parseLLMCalls(resp.Data)
}

// CountByStage returns call counts grouped by pipeline stage.
func (s *Store) CountByStage(ctx context.Context, bookID string) (map[string]int, error) {
	// DefraDB doesn't have GROUP BY, so we fetch all and aggregate client-side
	calls, err := s.List(ctx, QueryFilter{BookID: bookID})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.Stage]++
	}
	return counts, nil
}

// parseLLMCalls parses LLMCall entries from GraphQL response data.
func parseLLMCalls(data map[string]any) ([]Call, error) {
	callData, ok := data["LLMCall"]
	if !ok {
		return nil, nil
	}

	docs, ok := callData.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected LLMCall type: %T", callData)
	}

	calls := make([]Call, 0, len(docs))
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}

		call := Call{}
		if v, ok := doc["call_id"].(string); ok {
			call.ID = v
		}
		if v, ok := doc["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				call.CreatedAt = t
			}
		}
		if v, ok := doc["duration_ms"].(float64); ok {
			call.DurationMs = int(v)
		}
		if v, ok := doc["book_id"].(string); ok {
			call.BookID = v
		}
		if v, ok := doc["topic_id"].(string); ok {
			call.TopicID = v
		}
		if v, ok := doc["stage"].(string); ok {
			call.Stage = v
		}
		if v, ok := doc["provider"].(string); ok {
			call.Provider = v
		}
		if v, ok := doc["model"].(string); ok {
			call.Model = v
		}
		if v, ok := doc["tokens_prompt"].(float64); ok {
			call.TokensPrompt = int(v)
		}
		if v, ok := doc["tokens_completion"].(float64); ok {
			call.TokensCompletion = int(v)
		}
		if v, ok := doc["prompt"].(string); ok {
			call.Prompt = v
		}
		if v, ok := doc["response"].(string); ok {
			call.Response = v
		}
		if v, ok := doc["error"].(string); ok {
			call.Error = v
		}

		calls = append(calls, call)
	}

	return calls, nil
}
