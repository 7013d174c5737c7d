package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	OllamaName           = "ollama"
	ollamaDefaultModel   = "llama3.1"
	ollamaDefaultBaseURL = "http://localhost:11434"
)

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	Model      string // Default model (e.g., "llama3.1")
	BaseURL    string // Server address, default http://localhost:11434
	RateLimit  float64
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// OllamaClient implements LLMClient against a local Ollama server's
// /api/chat endpoint. No API key is required.
type OllamaClient struct {
	defaultModel string
	baseURL      string
	limiter      *RateLimiter
	httpClient   *http.Client
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  json.RawMessage `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.Model == "" {
		cfg.Model = ollamaDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ollamaDefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 600.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OllamaClient{
		defaultModel: cfg.Model,
		baseURL:      cfg.BaseURL,
		limiter:      NewRateLimiter(int(cfg.RateLimit)),
		httpClient:   httpClient,
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaName
}

// Chat sends a chat request to the Ollama server. Structured output uses
// Ollama's format=json mode plus local validation with the same repair loop
// as the hosted providers.
func (c *OllamaClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OllamaName,
	}

	messages := make([]Message, len(req.Messages))
	copy(messages, req.Messages)

	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1

		if err := c.limiter.Wait(ctx); err != nil {
			result.Success = false
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, err
		}

		body := ollamaChatRequest{
			Model:    model,
			Messages: messages,
			Stream:   false,
		}
		if req.ResponseFormat != nil {
			body.Format = "json"
		}
		if req.Temperature > 0 || req.MaxTokens > 0 {
			opts := map[string]any{}
			if req.Temperature > 0 {
				opts["temperature"] = req.Temperature
			}
			if req.MaxTokens > 0 {
				opts["num_predict"] = req.MaxTokens
			}
			raw, err := json.Marshal(opts)
			if err != nil {
				return nil, fmt.Errorf("marshaling options: %w", err)
			}
			body.Options = raw
		}

		execStart := time.Now()
		resp, err := c.do(ctx, &body)
		result.ExecutionTime += time.Since(execStart)

		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				result.ErrorType = "rate_limited"
				result.RetryAfter = rl.RetryAfter
			} else {
				result.ErrorType = "http_error"
			}
			result.Success = false
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, err
		}

		content := resp.Message.Content
		result.Content = content
		result.ModelUsed = resp.Model
		result.PromptTokens += resp.PromptEvalCount
		result.CompletionTokens += resp.EvalCount
		result.TotalTokens = result.PromptTokens + result.CompletionTokens

		if req.ResponseFormat == nil {
			result.Success = true
			result.TotalTime = time.Since(start)
			return result, nil
		}

		parsed, perr := parseStructuredJSON(content)
		if perr == nil {
			perr = validateStructuredJSON(req.ResponseFormat.JSONSchema, parsed)
		}
		if perr == nil {
			result.Success = true
			result.ParsedJSON = parsed
			result.TotalTime = time.Since(start)
			return result, nil
		}

		if attempt >= maxStructuredRepairAttempts {
			result.Success = false
			result.ErrorType = "structured_output"
			result.ErrorMessage = perr.Error()
			result.TotalTime = time.Since(start)
			return result, perr
		}

		messages = append(messages,
			Message{Role: "assistant", Content: content},
			Message{Role: "user", Content: structuredRepairPrompt(req.ResponseFormat.JSONSchema, content, perr)},
		)
	}
}

func (c *OllamaClient) do(ctx context.Context, body *ollamaChatRequest) (*ollamaChatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		c.limiter.Record429(retryAfter)
		return nil, &RateLimitError{
			Message:    "ollama rate limited",
			RetryAfter: retryAfter,
			StatusCode: httpResp.StatusCode,
		}
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama error (status %d): %s", httpResp.StatusCode, truncateBody(data))
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", resp.Error)
	}
	return &resp, nil
}

func truncateBody(data []byte) string {
	const max = 512
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

// Model returns the configured default model.
func (c *OllamaClient) Model() string {
	return c.defaultModel
}

var _ LLMClient = (*OllamaClient)(nil)
