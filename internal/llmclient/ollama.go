// internal/llmclient/ollama.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

// OllamaClient talks to a local Ollama server through its /api/chat endpoint.
type OllamaClient struct {
	client *api.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

var _ schemas.LLMClient = (*OllamaClient)(nil)

// NewOllamaClient builds a client for cfg.ProviderURL. No token is required.
func NewOllamaClient(cfg config.LLMConfig, logger *zap.Logger) (*OllamaClient, error) {
	cfg = cfg.WithProviderDefaults()
	base, err := url.Parse(cfg.ProviderURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ConfigError{Provider: string(config.ProviderOllama), Reason: fmt.Sprintf("invalid provider_url %q", cfg.ProviderURL)}
	}

	return &OllamaClient{
		client: api.NewClient(base, newHTTPClient()),
		cfg:    cfg,
		logger: logger.Named("llm_client.ollama"),
	}, nil
}

// Send performs a one-shot system/user exchange.
func (c *OllamaClient) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	return c.Chat(ctx, prompt.Messages(), opts)
}

// Chat sends the whole conversation with streaming disabled.
func (c *OllamaClient) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	defaultTemp := defaultOllamaTemp
	temp, _ := temperature(opts, c.cfg, &defaultTemp)

	stream := false
	req := &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: make([]api.Message, 0, len(messages)),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": temp,
			"num_predict": maxTokens(c.cfg, defaultOllamaPredict),
		},
	}
	if len(opts.ResponseSchema) > 0 {
		req.Format = opts.ResponseSchema
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	reqCtx, cancel, classify := withTimeout(ctx, vendorOllama, c.cfg.Timeout)
	defer cancel()

	var (
		content strings.Builder
		final   api.ChatResponse
	)
	startTime := time.Now()
	err := c.client.Chat(reqCtx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		return "", c.handleAPIError(classify(err))
	}

	c.logger.Debug("LLM generation complete (Ollama)",
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("prompt_tokens", final.PromptEvalCount),
		zap.Int("completion_tokens", final.EvalCount),
	)
	return content.String(), nil
}

// handleAPIError normalizes SDK status errors into *APIError.
func (c *OllamaClient) handleAPIError(err error) error {
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return timeout
	}

	var status api.StatusError
	if errors.As(err, &status) {
		c.logger.Error("Ollama returned error status", zap.Int("status", status.StatusCode), zap.String("response", status.ErrorMessage))
		return newAPIError(vendorOllama, status.StatusCode, status.ErrorMessage)
	}
	return fmt.Errorf("ollama request failed: %w", err)
}
