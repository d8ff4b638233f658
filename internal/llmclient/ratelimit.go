// internal/llmclient/ratelimit.go
package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// RateLimitedClient wraps another client and spaces out its requests.
// Waiting honours the caller's context and is not part of the request timeout.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ schemas.LLMClient = (*RateLimitedClient)(nil)

// NewRateLimitedClient allows requestsPerMinute requests per minute with a
// burst of one.
func NewRateLimitedClient(next schemas.LLMClient, requestsPerMinute int, logger *zap.Logger) (*RateLimitedClient, error) {
	if next == nil {
		return nil, fmt.Errorf("rate limited client requires a wrapped client")
	}
	if requestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive (got %d)", requestsPerMinute)
	}

	interval := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger.Named("llm_ratelimit"),
	}, nil
}

func (r *RateLimitedClient) wait(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		r.logger.Debug("Throttled LLM request", zap.Duration("waited", waited))
	}
	return nil
}

// Send waits for a token and delegates.
func (r *RateLimitedClient) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return r.next.Send(ctx, prompt, opts)
}

// Chat waits for a token and delegates.
func (r *RateLimitedClient) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return r.next.Chat(ctx, messages, opts)
}
