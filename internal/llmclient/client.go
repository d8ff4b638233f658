// internal/llmclient/client.go
package llmclient

import (
	"net/http"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Vendor names used in error messages and logger names.
const (
	vendorOllama    = "Ollama"
	vendorAnthropic = "Anthropic"
	vendorOpenAI    = "OpenAI"
	vendorGemini    = "Gemini"
)

// Environment fallbacks consulted when no token is configured.
const (
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envOpenAIKey    = "OPENAI_API_KEY"
	envGeminiKey    = "GEMINI_API_KEY"
)

const (
	defaultHostedMaxTokens = 1024
	defaultOllamaPredict   = 2048
	defaultOllamaTemp      = 0.1
)

// resolveToken returns the configured token, falling back to envVar.
// A missing token is a construction-time *ConfigError.
func resolveToken(provider config.LLMProvider, configured, envVar string) (string, error) {
	if token := strings.TrimSpace(configured); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv(envVar)); token != "" {
		return token, nil
	}
	return "", &ConfigError{
		Provider: string(provider),
		Reason:   "no API token configured (set llm.token or " + envVar + ")",
	}
}

// temperature picks the per-call value, then the configured one, then fallback.
// The second return is false when nothing was chosen and the vendor default applies.
func temperature(opts schemas.ChatOptions, cfg config.LLMConfig, fallback *float64) (float64, bool) {
	switch {
	case opts.Temperature != nil:
		return *opts.Temperature, true
	case cfg.Temperature > 0:
		return cfg.Temperature, true
	case fallback != nil:
		return *fallback, true
	default:
		return 0, false
	}
}

func maxTokens(cfg config.LLMConfig, fallback int) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return fallback
}

// newHTTPClient has no client-level timeout; requests are bounded per call
// through their context so expiry can be reported as a *TimeoutError.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

func schemaRootIsObject(schema []byte) bool {
	var shape struct {
		Type string `json:"type"`
	}
	if len(schema) == 0 || json.Unmarshal(schema, &shape) != nil {
		return false
	}
	return shape.Type == "object"
}
