package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DeepSeekName           = "deepseek"
	deepSeekDefaultModel   = "deepseek-chat"
	deepSeekDefaultBaseURL = "https://api.deepseek.com"
)

// DeepSeekConfig holds configuration for the DeepSeek client.
type DeepSeekConfig struct {
	APIKey     string
	Model      string  // "deepseek-chat" (default), "deepseek-reasoner"
	BaseURL    string  // Optional override (tests)
	RateLimit  float64 // Requests per minute
	MaxRetries int     // Retry attempts for SDK transport
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// DeepSeekClient implements LLMClient against the DeepSeek API, which speaks
// the OpenAI chat completions protocol.
type DeepSeekClient struct {
	apiKey       string
	defaultModel string
	baseURL      string
	rpm          float64
	limiter      *RateLimiter
	client       openai.Client
}

// NewDeepSeekClient creates a new DeepSeek client.
func NewDeepSeekClient(cfg DeepSeekConfig) *DeepSeekClient {
	if cfg.Model == "" {
		cfg.Model = deepSeekDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = deepSeekDefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 60.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	)

	return &DeepSeekClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.Model,
		baseURL:      cfg.BaseURL,
		rpm:          cfg.RateLimit,
		limiter:      NewRateLimiter(int(cfg.RateLimit)),
		client:       client,
	}
}

// Name returns the client identifier.
func (c *DeepSeekClient) Name() string {
	return DeepSeekName
}

// Chat sends a chat completion request. When the request asks for structured
// output, the response is parsed and validated locally; on failure the model
// is asked to repair its own output before the call is reported as failed.
func (c *DeepSeekClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
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
		Provider:  DeepSeekName,
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1

		if err := c.limiter.Wait(ctx); err != nil {
			result.Success = false
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, err
		}

		params := openai.ChatCompletionNewParams{
			Model:    shared.ChatModel(model),
			Messages: messages,
		}
		if req.Temperature > 0 {
			params.Temperature = openai.Float(req.Temperature)
		}
		if req.MaxTokens > 0 {
			params.MaxTokens = openai.Int(int64(req.MaxTokens))
		}
		if req.ResponseFormat != nil {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			}
		}

		execStart := time.Now()
		completion, err := c.client.Chat.Completions.New(ctx, params)
		result.ExecutionTime += time.Since(execStart)

		if err != nil {
			err = c.mapError(err)
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

		if len(completion.Choices) == 0 {
			result.Success = false
			result.ErrorType = "empty_response"
			result.ErrorMessage = "no choices in response"
			result.TotalTime = time.Since(start)
			return result, fmt.Errorf("no choices in response")
		}

		content := completion.Choices[0].Message.Content
		result.Content = content
		result.ModelUsed = completion.Model
		result.PromptTokens += int(completion.Usage.PromptTokens)
		result.CompletionTokens += int(completion.Usage.CompletionTokens)
		result.TotalTokens += int(completion.Usage.TotalTokens)

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

		// Feed the failure back and let the model repair its output.
		messages = append(messages,
			openai.AssistantMessage(content),
			openai.UserMessage(structuredRepairPrompt(req.ResponseFormat.JSONSchema, content, perr)),
		)
	}
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case "system":
		return openai.SystemMessage(m.Content)
	case "assistant":
		return openai.AssistantMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}

func (c *DeepSeekClient) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			c.limiter.Record429(retryAfter)
			return &RateLimitError{
				Message:    fmt.Sprintf("deepseek rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		if apiErr.Message != "" {
			return fmt.Errorf("deepseek error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("deepseek error (status %d)", apiErr.StatusCode)
	}
	return err
}

// Model returns the configured default model.
func (c *DeepSeekClient) Model() string {
	return c.defaultModel
}

var _ LLMClient = (*DeepSeekClient)(nil)
