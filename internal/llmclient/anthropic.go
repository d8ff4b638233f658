// internal/llmclient/anthropic.go
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	cfg        config.LLMConfig
	logger     *zap.Logger
}

var _ schemas.LLMClient = (*AnthropicClient)(nil)

// -- Anthropic API Request/Response Structures --

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicClient resolves the API key (config, then ANTHROPIC_API_KEY)
// and fails when neither is set.
func NewAnthropicClient(cfg config.LLMConfig, logger *zap.Logger) (*AnthropicClient, error) {
	cfg = cfg.WithProviderDefaults()
	apiKey, err := resolveToken(config.ProviderAnthropic, cfg.Token, envAnthropicKey)
	if err != nil {
		return nil, err
	}

	return &AnthropicClient{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(cfg.ProviderURL, "/") + "/v1/messages",
		httpClient: newHTTPClient(),
		cfg:        cfg,
		logger:     logger.Named("llm_client.anthropic"),
	}, nil
}

// Send performs a one-shot system/user exchange.
func (c *AnthropicClient) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	return c.Chat(ctx, prompt.Messages(), opts)
}

// Chat sends the conversation. The Messages API has no JSON schema mode, so
// opts.ResponseSchema is ignored.
func (c *AnthropicClient) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	body, err := json.Marshal(c.buildRequestPayload(messages, opts))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	reqCtx, cancel, classify := withTimeout(ctx, vendorAnthropic, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", timeoutOr(classify, err, "failed to execute HTTP request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", timeoutOr(classify, err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.handleAPIError(resp.StatusCode, respBody)
	}

	var payload anthropicResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("failed to decode response payload: %w", err)
	}

	var text strings.Builder
	for _, block := range payload.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.logger.Debug("LLM generation complete (Anthropic)",
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("prompt_tokens", payload.Usage.InputTokens),
		zap.Int("completion_tokens", payload.Usage.OutputTokens),
		zap.String("stop_reason", payload.StopReason),
	)
	return text.String(), nil
}

// buildRequestPayload lifts system messages to the top-level system field;
// the Messages API only accepts user and assistant roles in the list.
func (c *AnthropicClient) buildRequestPayload(messages []schemas.ChatMessage, opts schemas.ChatOptions) anthropicRequest {
	req := anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens(c.cfg, defaultHostedMaxTokens),
		Messages:  make([]anthropicMessage, 0, len(messages)),
	}
	if temp, ok := temperature(opts, c.cfg, nil); ok {
		req.Temperature = &temp
	}

	var system []string
	for _, m := range messages {
		if m.Role == schemas.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")
	return req
}

func (c *AnthropicClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Anthropic API returned error status", zap.Int("status", statusCode), zap.String("response", string(body)))
	return newAPIError(vendorAnthropic, statusCode, string(body))
}
