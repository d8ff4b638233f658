// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

const geminiJSONMimeType = "application/json"

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

var _ schemas.LLMClient = (*GeminiClient)(nil)

// NewGeminiClient resolves the API key (config, then GEMINI_API_KEY) and
// builds the SDK client. A configured provider_url overrides the API host.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	cfg = cfg.WithProviderDefaults()
	apiKey, err := resolveToken(config.ProviderGemini, cfg.Token, envGeminiKey)
	if err != nil {
		return nil, err
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(),
	}
	if cfg.ProviderURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.ProviderURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, &ConfigError{Provider: string(config.ProviderGemini), Reason: err.Error()}
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

// Send performs a one-shot system/user exchange.
func (c *GeminiClient) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	return c.Chat(ctx, prompt.Messages(), opts)
}

// Chat sends the conversation. A requested schema switches the reply to the
// JSON mime type; the schema itself is enforced by the parser.
func (c *GeminiClient) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	contents, genCfg := c.buildRequest(messages, opts)

	reqCtx, cancel, classify := withTimeout(ctx, vendorGemini, c.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(reqCtx, c.cfg.Model, contents, genCfg)
	if err != nil {
		return "", c.handleAPIError(classify, err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini API returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety || candidate.FinishReason == genai.FinishReasonBlocklist {
		return "", fmt.Errorf("gemini API blocked the request (Reason: %s)", candidate.FinishReason)
	}

	fields := []zap.Field{
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", time.Since(startTime)),
	}
	if usage := resp.UsageMetadata; usage != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", usage.PromptTokenCount),
			zap.Int32("completion_tokens", usage.CandidatesTokenCount),
		)
	}
	c.logger.Debug("LLM generation complete (Gemini)", fields...)
	return resp.Text(), nil
}

func (c *GeminiClient) buildRequest(messages []schemas.ChatMessage, opts schemas.ChatOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens(c.cfg, defaultHostedMaxTokens)),
	}
	if temp, ok := temperature(opts, c.cfg, nil); ok {
		t := float32(temp)
		genCfg.Temperature = &t
	}
	if len(opts.ResponseSchema) > 0 {
		genCfg.ResponseMIMEType = geminiJSONMimeType
	}

	contents := make([]*genai.Content, 0, len(messages))
	var system []*genai.Part
	for _, m := range messages {
		switch m.Role {
		case schemas.RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case schemas.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		genCfg.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, genCfg
}

// handleAPIError maps SDK errors onto the package taxonomy. The SDK has
// returned APIError both by value and by pointer across releases.
func (c *GeminiClient) handleAPIError(classify func(error) error, err error) error {
	var timeout *TimeoutError
	if errors.As(classify(err), &timeout) {
		return timeout
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return c.statusError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return c.statusError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

func (c *GeminiClient) statusError(code int, message string) error {
	c.logger.Error("Gemini API returned error status", zap.Int("status", code), zap.String("response", message))
	return newAPIError(vendorGemini, code, message)
}
