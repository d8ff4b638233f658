// cmd/drivers.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/agent"
	"github.com/xkilldash9x/pilot-cli/internal/appium"
	"github.com/xkilldash9x/pilot-cli/internal/browser/pwdriver"
	"github.com/xkilldash9x/pilot-cli/internal/browser/session"
	"github.com/xkilldash9x/pilot-cli/internal/config"
	"github.com/xkilldash9x/pilot-cli/internal/llmclient"
)

// Swappable constructors, replaced in tests.
var (
	newDriver    = openDriver
	newLLMClient = llmclient.NewClient
)

// openDriver starts the automation driver selected by the configuration:
// Appium when enabled, otherwise the configured browser engine.
func openDriver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.Driver, error) {
	var (
		driver schemas.Driver
		err    error
	)
	switch {
	case cfg.Appium.Enabled:
		driver, err = appium.New(ctx, cfg.Appium, logger)
	case cfg.Browser.Engine == config.EnginePlaywright:
		driver, err = pwdriver.New(ctx, cfg.Browser, logger)
	case cfg.Browser.Engine == config.EngineChromedp, cfg.Browser.Engine == "":
		driver, err = session.New(ctx, cfg.Browser, logger)
	default:
		return nil, fmt.Errorf("unsupported browser engine %q", cfg.Browser.Engine)
	}
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// workspace is a driver plus the agent bound to it.
type workspace struct {
	driver schemas.Driver
	agent  *agent.Agent
	logger *zap.Logger
}

// openWorkspace starts a driver and an agent. The caller must call close.
func openWorkspace(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*workspace, error) {
	llm, err := newLLMClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	driver, err := newDriver(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start driver: %w", err)
	}

	a, err := agent.New(llm, driver, cfg.Agent, logger)
	if err != nil {
		closeDriver(driver, logger)
		return nil, err
	}
	return &workspace{driver: driver, agent: a, logger: logger}, nil
}

func (w *workspace) close() {
	closeDriver(w.driver, w.logger)
}

// closeDriver closes d with a fresh context, since the command context may
// already be cancelled by the time cleanup runs.
func closeDriver(d schemas.Driver, logger *zap.Logger) {
	if err := d.Close(context.Background()); err != nil {
		logger.Warn("Failed to close driver", zap.Error(err))
	}
}
