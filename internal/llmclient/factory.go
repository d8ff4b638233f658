// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

// NewClient creates the LLMClient selected by cfg.Provider (ollama when
// empty), wrapped in a rate limiter when requests_per_minute is set.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	cfg = cfg.WithProviderDefaults()
	if cfg.Timeout <= 0 {
		return nil, &ConfigError{Provider: string(cfg.Provider), Reason: "timeout must be a positive duration"}
	}

	var (
		client schemas.LLMClient
		err    error
	)
	switch cfg.Provider {
	case config.ProviderOllama:
		client, err = NewOllamaClient(cfg, logger)
	case config.ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, logger)
	case config.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s, %s, %s]",
			cfg.Provider, config.ProviderOllama, config.ProviderAnthropic, config.ProviderOpenAI, config.ProviderGemini)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM client initialized",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	if cfg.RequestsPerMinute > 0 {
		return NewRateLimitedClient(client, cfg.RequestsPerMinute, logger)
	}
	return client, nil
}
