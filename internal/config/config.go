// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Appium  AppiumConfig  `mapstructure:"appium" yaml:"appium"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderOllama    LLMProvider = "ollama"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderGemini    LLMProvider = "gemini"
)

// ProviderDefault is the fallback endpoint and model of a provider.
type ProviderDefault struct {
	URL   string
	Model string
}

// ProviderDefaults is consulted whenever provider_url or model are left empty.
var ProviderDefaults = map[LLMProvider]ProviderDefault{
	ProviderOllama:    {URL: "http://localhost:11434", Model: "qwen2.5-coder:7b"},
	ProviderAnthropic: {URL: "https://api.anthropic.com", Model: "claude-sonnet-4-20250514"},
	ProviderOpenAI:    {URL: "https://api.openai.com", Model: "gpt-4o-mini"},
	ProviderGemini:    {URL: "", Model: "gemini-2.5-flash"},
}

// LLMConfig selects and tunes the model backend.
type LLMConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	ProviderURL       string        `mapstructure:"provider_url" yaml:"provider_url"`
	Token             string        `mapstructure:"token" yaml:"token"`
	Model             string        `mapstructure:"model" yaml:"model"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature       float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// WithProviderDefaults returns a copy with an empty provider, URL or model
// replaced by the provider's defaults.
func (c LLMConfig) WithProviderDefaults() LLMConfig {
	if c.Provider == "" {
		c.Provider = ProviderOllama
	}
	c.Provider = LLMProvider(strings.ToLower(string(c.Provider)))
	if def, ok := ProviderDefaults[c.Provider]; ok {
		if c.ProviderURL == "" {
			c.ProviderURL = def.URL
		}
		if c.Model == "" {
			c.Model = def.Model
		}
	}
	return c
}

// AgentConfig holds the budgets and encoding used by the agent loop.
type AgentConfig struct {
	MaxActions          int    `mapstructure:"max_actions" yaml:"max_actions"`
	MaxSteps            int    `mapstructure:"max_steps" yaml:"max_steps"`
	ContextWindow       int    `mapstructure:"context_window" yaml:"context_window"`
	Encoding            string `mapstructure:"encoding" yaml:"encoding"`
	SnapshotMode        string `mapstructure:"snapshot_mode" yaml:"snapshot_mode"`
	MaxRepeatedFailures int    `mapstructure:"max_repeated_failures" yaml:"max_repeated_failures"`
}

// BrowserEngine names the library driving desktop browsers.
type BrowserEngine string

const (
	EngineChromedp   BrowserEngine = "chromedp"
	EnginePlaywright BrowserEngine = "playwright"
)

// BrowserConfig holds settings for the browser session.
type BrowserConfig struct {
	Engine            BrowserEngine  `mapstructure:"engine" yaml:"engine"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	RemoteURL         string         `mapstructure:"remote_url" yaml:"remote_url"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	StartURL          string         `mapstructure:"start_url" yaml:"start_url"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration  `mapstructure:"action_timeout" yaml:"action_timeout"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// AppiumConfig configures the mobile driver. When enabled it replaces the
// browser session. ExtraCapabilities is a JSON object merged into the session
// capabilities verbatim, which keeps their case intact.
type AppiumConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	URL               string        `mapstructure:"url" yaml:"url"`
	PlatformName      string        `mapstructure:"platform_name" yaml:"platform_name"`
	AutomationName    string        `mapstructure:"automation_name" yaml:"automation_name"`
	DeviceName        string        `mapstructure:"device_name" yaml:"device_name"`
	App               string        `mapstructure:"app" yaml:"app"`
	ExtraCapabilities string        `mapstructure:"extra_capabilities" yaml:"extra_capabilities"`
	StartupTimeout    time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	CommandTimeout    time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	cfg.LLM = cfg.LLM.WithProviderDefaults()
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderOllama))
	v.SetDefault("llm.provider_url", "")
	v.SetDefault("llm.token", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.requests_per_minute", 0)

	// -- Agent --
	v.SetDefault("agent.max_actions", 1)
	v.SetDefault("agent.max_steps", 1)
	v.SetDefault("agent.context_window", 3)
	v.SetDefault("agent.encoding", "yaml-like")
	v.SetDefault("agent.snapshot_mode", "visible")
	v.SetDefault("agent.max_repeated_failures", 0)

	// -- Browser --
	v.SetDefault("browser.engine", string(EngineChromedp))
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.start_url", "")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.action_timeout", "10s")

	// -- Appium --
	v.SetDefault("appium.enabled", false)
	v.SetDefault("appium.url", "http://127.0.0.1:4723")
	v.SetDefault("appium.startup_timeout", "60s")
	v.SetDefault("appium.command_timeout", "15s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The generic token may also come from the environment without the prefix
	// rules applying to nested keys.
	_ = v.BindEnv("llm.token", "PILOT_LLM_TOKEN")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.LLM = cfg.LLM.WithProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	switch c.Browser.Engine {
	case EngineChromedp, EnginePlaywright, "":
	default:
		return fmt.Errorf("browser.engine must be one of chromedp, playwright (got %q)", c.Browser.Engine)
	}
	if c.Appium.Enabled {
		if c.Appium.URL == "" {
			return fmt.Errorf("appium.url is required when appium is enabled")
		}
		switch strings.ToLower(c.Appium.PlatformName) {
		case "ios", "android":
		default:
			return fmt.Errorf("appium.platform_name must be iOS or Android (got %q)", c.Appium.PlatformName)
		}
	}
	return nil
}

// Validate checks the LLM settings.
func (l *LLMConfig) Validate() error {
	if _, ok := ProviderDefaults[l.Provider]; !ok {
		return fmt.Errorf("unknown provider %q (valid: ollama, anthropic, openai, gemini)", l.Provider)
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute cannot be negative")
	}
	return nil
}

// Validate checks the agent budgets.
func (a *AgentConfig) Validate() error {
	if a.MaxActions <= 0 {
		return fmt.Errorf("max_actions must be a positive integer")
	}
	if a.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be a positive integer")
	}
	if a.ContextWindow <= 0 {
		return fmt.Errorf("context_window must be a positive integer")
	}
	if a.MaxRepeatedFailures < 0 {
		return fmt.Errorf("max_repeated_failures cannot be negative")
	}
	switch a.Encoding {
	case "yaml-like", "tabular":
	default:
		return fmt.Errorf("encoding must be one of yaml-like, tabular (got %q)", a.Encoding)
	}
	switch a.SnapshotMode {
	case "visible", "a11y", "all":
	default:
		return fmt.Errorf("snapshot_mode must be one of visible, a11y, all (got %q)", a.SnapshotMode)
	}
	return nil
}
