// internal/browser/session/session.go
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultActionTimeout     = 10 * time.Second
)

// Session drives one Chrome tab over the DevTools protocol. It implements
// schemas.Driver.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.Driver = (*Session)(nil)

// New launches (or attaches to) a browser and opens a tab. The browser lives
// until Close; cancelling ctx only aborts startup.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	log := logger.Named("browser").With(zap.String("session_id", sessionID))

	// The browser must outlive the startup context.
	root := Detach(ctx)

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		log.Info("Attaching to remote browser", zap.String("url", cfg.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(root, cfg.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(root, allocatorOptions(cfg)...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	s := &Session{
		id:     sessionID,
		ctx:    tabCtx,
		cancel: cancel,
		cfg:    cfg,
		logger: log,
	}

	startCtx, startCancel := CombineContext(tabCtx, ctx)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if cfg.StartURL != "" {
		if err := s.Navigate(ctx, schemas.NormalizeURL(cfg.StartURL)); err != nil {
			cancel()
			return nil, err
		}
	}

	log.Info("Browser session ready", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// allocatorOptions builds the exec allocator flags from the configuration.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	for name, value := range parseFlags(cfg.Args) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// parseFlags turns "--name=value" and "--name" arguments into allocator flags.
func parseFlags(args []string) map[string]interface{} {
	flags := make(map[string]interface{}, len(args))
	for _, arg := range args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if key, value, found := strings.Cut(arg, "="); found {
			flags[key] = value
		} else {
			flags[arg] = true
		}
	}
	return flags
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Platform reports the automation platform.
func (s *Session) Platform() schemas.Platform {
	return schemas.PlatformBrowser
}

// Close terminates the tab and the browser process it owns.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true

	s.logger.Debug("Closing browser session")
	closeCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	// A graceful close lets Chrome flush its profile; the cancel below is the fallback.
	if err := chromedp.Cancel(closeCtx); err != nil {
		s.logger.Debug("Graceful browser shutdown failed", zap.Error(err))
	}
	s.cancel()
	return nil
}

// runActions executes chromedp actions bound to both the session lifetime and
// the caller's context, limited by timeout.
func (s *Session) runActions(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, timeout)
		defer timeoutCancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.ActionTimeout > 0 {
		return s.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

func (s *Session) navigationTimeout() time.Duration {
	if s.cfg.NavigationTimeout > 0 {
		return s.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}

// queryOption selects XPath search for XPath selectors and CSS otherwise.
func queryOption(selector string) chromedp.QueryOption {
	if dom.IsXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
