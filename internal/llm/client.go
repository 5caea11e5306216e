package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Request holds the parameters for one chat-completion call.
type Request struct {
	Task         TaskType
	Model        string // empty uses the standard model
	SystemPrompt string
	UserPrompt   string
	JSON         bool     // ask for a json_object response
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
}

// Response holds the result of a call.
type Response struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Client provides access to a chat-completion provider.
type Client interface {
	// Complete sends the prompts and returns the raw text response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// openaiClient implements Client on the OpenAI-compatible chat API.
type openaiClient struct {
	cfg      Config
	api      openai.Client
	observer Observer
}

// NewOpenAIClient creates a Client for any OpenAI-compatible endpoint.
// Retries are handled here rather than by the SDK so each attempt is
// observable.
func NewOpenAIClient(cfg Config, observer Observer) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openaiClient{
		cfg:      cfg,
		api:      openai.NewClient(opts...),
		observer: observer,
	}, nil
}

func (c *openaiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	taskCfg := c.cfg.Tasks[req.Task]
	temp := taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	model := req.Model
	if model == "" {
		model = c.cfg.StandardModel
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TaskTimeout(req.Task))*time.Millisecond)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(temp),
	}
	if maxTok > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTok))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	made := 0

	for i := 0; i < attempts; i++ {
		made++
		text, err := c.doRequest(ctx, params)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(CallEvent{
				Task:      req.Task,
				Model:     model,
				LatencyMs: latency,
				Attempts:  made,
				Success:   true,
			})
			return &Response{Text: text, Model: model, LatencyMs: latency}, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	err := classify(ctx, lastErr)
	c.observer.OnCallComplete(CallEvent{
		Task:      req.Task,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
		Attempts:  made,
		Success:   false,
		ErrorCode: errorCode(err),
	})
	return nil, err
}

func (c *openaiClient) doRequest(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrInvalidOutput)
	}
	return resp.Choices[0].Message.Content, nil
}

// retryable reports whether another attempt could succeed. Client errors
// other than 429 will not.
func retryable(err error) bool {
	if errors.Is(err, ErrInvalidOutput) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrTimeout
	}
	if errors.Is(err, ErrInvalidOutput) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", ErrProviderRateLimited, apiErr.StatusCode)
		case apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: status %d", ErrProviderUnavailable, apiErr.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrRetryExhausted, apiErr.StatusCode)
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return ErrProviderUnavailable
	}
	return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrProviderUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrProviderRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
