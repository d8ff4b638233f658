// internal/llmclient/openai.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

const openAISchemaName = "agent_response"

// OpenAIClient calls an OpenAI compatible /v1/chat/completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

var _ schemas.LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient resolves the API key (config, then OPENAI_API_KEY) and
// fails when neither is set.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	cfg = cfg.WithProviderDefaults()
	token, err := resolveToken(config.ProviderOpenAI, cfg.Token, envOpenAIKey)
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(token)
	clientCfg.BaseURL = strings.TrimRight(cfg.ProviderURL, "/") + "/v1"
	clientCfg.HTTPClient = newHTTPClient()

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.Named("llm_client.openai"),
	}, nil
}

// Send performs a one-shot system/user exchange.
func (c *OpenAIClient) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	return c.Chat(ctx, prompt.Messages(), opts)
}

// Chat sends the conversation. A response schema is forwarded as a strict
// json_schema format only when its root is an object; the API rejects array
// roots, and the parser copes with free-form output in that case.
func (c *OpenAIClient) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens(c.cfg, defaultHostedMaxTokens),
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if temp, ok := temperature(opts, c.cfg, nil); ok {
		req.Temperature = float32(temp)
	}
	if schemaRootIsObject(opts.ResponseSchema) {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   openAISchemaName,
				Schema: opts.ResponseSchema,
			},
		}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	reqCtx, cancel, classify := withTimeout(ctx, vendorOpenAI, c.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(reqCtx, req)
	if err != nil {
		return "", c.handleAPIError(classify, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai API returned no choices")
	}

	c.logger.Debug("LLM generation complete (OpenAI)",
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}

// handleAPIError maps SDK errors onto the package taxonomy.
func (c *OpenAIClient) handleAPIError(classify func(error) error, err error) error {
	var timeout *TimeoutError
	if errors.As(classify(err), &timeout) {
		return timeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Error("OpenAI API returned error status", zap.Int("status", apiErr.HTTPStatusCode), zap.String("response", apiErr.Message))
		return newAPIError(vendorOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusBadRequest {
		body := string(reqErr.Body)
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		c.logger.Error("OpenAI API returned error status", zap.Int("status", reqErr.HTTPStatusCode), zap.String("response", body))
		return newAPIError(vendorOpenAI, reqErr.HTTPStatusCode, body)
	}
	return fmt.Errorf("openai request failed: %w", err)
}
