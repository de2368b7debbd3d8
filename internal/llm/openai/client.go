// Package openai adapts the OpenAI chat completions API to llm.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/llm"
	"github.com/teemow/mailtriage/internal/logging"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// ErrNoChoices is returned when the API answers without a choice.
var ErrNoChoices = errors.New("completion returned no choices")

var _ llm.Provider = (*Client)(nil)

// Config for a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
	MaxRetries *int
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// Client implements llm.Provider for OpenAI compatible endpoints.
type Client struct {
	sdk     openaisdk.Client
	model   string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// New returns nil when no API key is configured.
func New(cfg Config) *Client {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed+"/"))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		sdk:     openaisdk.NewClient(opts...),
		model:   model,
		metrics: cfg.Metrics,
		logger:  logging.WithOperation(logger, "llm"),
	}
}

func (c *Client) Model() string { return c.model }

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params, err := toSDKParams(c.model, req)
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartLLMSpan(ctx, c.model, len(req.Messages))
	defer span.End()

	start := time.Now()
	completion, err := c.sdk.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordLLMRequest(ctx, c.model, instrumentation.StatusError, 0, 0, duration)
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	resp, err := fromSDKCompletion(completion)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordLLMRequest(ctx, c.model, instrumentation.StatusError, 0, 0, duration)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordLLMRequest(ctx, c.model, instrumentation.StatusSuccess,
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, duration)
	c.logger.Debug("completion received",
		"tool_calls", len(resp.ToolCalls),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		slog.Duration(logging.KeyDuration, duration))
	return resp, nil
}
