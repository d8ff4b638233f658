// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.ProviderURL)
	assert.Equal(t, "qwen2.5-coder:7b", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.Agent.MaxActions)
	assert.Equal(t, 1, cfg.Agent.MaxSteps)
	assert.Equal(t, 3, cfg.Agent.ContextWindow)
	assert.Equal(t, "yaml-like", cfg.Agent.Encoding)
	assert.Equal(t, "visible", cfg.Agent.SnapshotMode)
	assert.Equal(t, 0, cfg.Agent.MaxRepeatedFailures)
	assert.Equal(t, EngineChromedp, cfg.Browser.Engine)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Appium.Enabled)

	require.NoError(t, cfg.Validate(), "defaults must always validate")
}

func TestWithProviderDefaults(t *testing.T) {
	tests := []struct {
		name      string
		in        LLMConfig
		wantURL   string
		wantModel string
	}{
		{"empty provider falls back to ollama", LLMConfig{}, "http://localhost:11434", "qwen2.5-coder:7b"},
		{"anthropic model", LLMConfig{Provider: ProviderAnthropic}, "https://api.anthropic.com", "claude-sonnet-4-20250514"},
		{"openai model", LLMConfig{Provider: "OpenAI"}, "https://api.openai.com", "gpt-4o-mini"},
		{"explicit values win", LLMConfig{Provider: ProviderOllama, ProviderURL: "http://gpu:11434", Model: "llama3.2"}, "http://gpu:11434", "llama3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.WithProviderDefaults()
			assert.Equal(t, tt.wantURL, got.ProviderURL)
			assert.Equal(t, tt.wantModel, got.Model)
		})
	}
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Agent Budgets", func(t *testing.T) {
		cfg := NewDefaultConfig()

		invalid := *cfg
		invalid.Agent.MaxSteps = 0
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_steps must be a positive integer")

		invalid = *cfg
		invalid.Agent.ContextWindow = 0
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "context_window must be a positive integer")

		invalid = *cfg
		invalid.Agent.MaxActions = -2
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_actions must be a positive integer")
	})

	t.Run("Encoding And Snapshot Mode", func(t *testing.T) {
		cfg := NewDefaultConfig()

		invalid := *cfg
		invalid.Agent.Encoding = "toon"
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encoding must be one of yaml-like, tabular")

		invalid = *cfg
		invalid.Agent.SnapshotMode = "screenshot"
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "snapshot_mode must be one of")
	})

	t.Run("LLM Settings", func(t *testing.T) {
		cfg := NewDefaultConfig()

		invalid := *cfg
		invalid.LLM.Provider = "bedrock"
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown provider "bedrock"`)

		invalid = *cfg
		invalid.LLM.Timeout = 0
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout must be a positive duration")
	})

	t.Run("Browser And Appium", func(t *testing.T) {
		cfg := NewDefaultConfig()

		invalid := *cfg
		invalid.Browser.Engine = "selenium"
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.engine must be one of")

		invalid = *cfg
		invalid.Appium.Enabled = true
		invalid.Appium.URL = ""
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "appium.url is required")

		invalid = *cfg
		invalid.Appium.Enabled = true
		invalid.Appium.PlatformName = "Windows"
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "appium.platform_name must be iOS or Android")

		valid := *cfg
		valid.Appium.Enabled = true
		valid.Appium.PlatformName = "Android"
		assert.NoError(t, valid.Validate())
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
llm:
  provider: anthropic
  timeout: 45s
agent:
  max_steps: 5
  context_window: 2
  encoding: tabular
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
		assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model, "provider default model should be applied")
		assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
		assert.Equal(t, 5, cfg.Agent.MaxSteps)
		assert.Equal(t, 2, cfg.Agent.ContextWindow)
		assert.Equal(t, "tabular", cfg.Agent.Encoding)
		// Untouched keys keep their defaults.
		assert.Equal(t, 1, cfg.Agent.MaxActions)
		assert.Equal(t, "info", cfg.Logger.Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("agent.max_steps", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "max_steps must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		t.Setenv("PILOT_LLM_TOKEN", "tok-from-env")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "tok-from-env", cfg.LLM.Token)
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/pilot.log
browser:
  engine: playwright
  args: ["--lang=en-US"]
appium:
  enabled: true
  platform_name: Android
  extra_capabilities: '{"appium:noReset": true}'
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "/var/log/pilot.log", cfg.Logger.LogFile)
	assert.Equal(t, EnginePlaywright, cfg.Browser.Engine)
	assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser.Args)
	assert.Equal(t, 10*time.Second, cfg.Browser.ActionTimeout)
	assert.Equal(t, "Android", cfg.Appium.PlatformName)
	assert.Equal(t, `{"appium:noReset": true}`, cfg.Appium.ExtraCapabilities)
}
