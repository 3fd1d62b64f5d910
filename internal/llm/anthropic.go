package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pulselabs/pulse/internal/config"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/metrics"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

// AnthropicClient implements Completer backed by the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int
	limiter   *ratelimit.Limiter
	metrics   *metrics.Metrics
	logger    logger.Logger
}

var _ Completer = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration. The limiter is
// consulted before every request so the LLM quota is respected across all
// concurrent jobs. A nil metrics instance disables recording.
func NewAnthropicClient(cfg config.LLMConfig, limiter *ratelimit.Limiter, m *metrics.Metrics, log logger.Logger) *AnthropicClient {
	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		limiter:   limiter,
		metrics:   m,
		logger:    log,
	}
}

// Complete sends one prompt and returns the concatenated text blocks of
// the response.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if d := c.limiter.Admit(); !d.Allowed {
		c.count("rate_limited")
		if c.metrics != nil {
			c.metrics.RateLimitHits.WithLabelValues(c.limiter.Service()).Inc()
		}
		return "", &ratelimit.DeniedError{Service: c.limiter.Service(), Wait: d.Wait}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.count("error")
		return "", fmt.Errorf("anthropic complete: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		c.count("error")
		return "", ErrEmptyCompletion
	}
	c.count("success")

	c.logger.Debug("llm completion",
		logger.String("model", string(c.model)),
		logger.Int("prompt_len", len(req.Prompt)),
		logger.Int("completion_len", len(text)),
	)

	return text, nil
}

func (c *AnthropicClient) count(status string) {
	if c.metrics != nil {
		c.metrics.LLMRequests.WithLabelValues(status).Inc()
	}
}
