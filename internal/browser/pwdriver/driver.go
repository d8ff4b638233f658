// Package pwdriver drives Chromium through Playwright. It is the alternative
// to the chromedp session, selected with browser.engine: playwright.
package pwdriver

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultActionTimeout     = 10 * time.Second
)

// Driver is a Playwright-backed schemas.Driver.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	cfg     config.BrowserConfig
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ schemas.Driver = (*Driver)(nil)

// New starts the Playwright driver, launches Chromium (or connects over CDP
// when remote_url is set) and opens a page.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	log := logger.Named("playwright")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright (are the drivers installed?): %w", err)
	}

	var browser playwright.Browser
	if cfg.RemoteURL != "" {
		browser, err = pw.Chromium.ConnectOverCDP(cfg.RemoteURL)
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Headless),
			Args:     cfg.Args,
		}
		if cfg.ExecPath != "" {
			opts.ExecutablePath = playwright.String(cfg.ExecPath)
		}
		browser, err = pw.Chromium.Launch(opts)
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: w, Height: h}
	}
	browserCtx, err := browser.NewContext(ctxOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	d := &Driver{pw: pw, browser: browser, page: page, cfg: cfg, logger: log}
	page.SetDefaultTimeout(millis(d.actionTimeout()))

	if cfg.StartURL != "" {
		if err := d.Navigate(ctx, schemas.NormalizeURL(cfg.StartURL)); err != nil {
			_ = d.Close(ctx)
			return nil, err
		}
	}
	log.Info("Playwright session ready", zap.Bool("headless", cfg.Headless))
	return d, nil
}

// Platform reports the automation platform.
func (d *Driver) Platform() schemas.Platform { return schemas.PlatformBrowser }

// Navigate loads url and waits for DOMContentLoaded.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	timeout, err := boundedTimeout(ctx, d.navigationTimeout())
	if err != nil {
		return err
	}
	d.logger.Debug("Navigating to URL", zap.String("url", url))
	_, err = d.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(millis(timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (d *Driver) Click(ctx context.Context, selector string) error {
	locator, timeout, err := d.locate(ctx, selector)
	if err != nil {
		return err
	}
	if err := locator.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(millis(timeout))}); err != nil {
		return fmt.Errorf("click failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Tap is a click in a desktop browser.
func (d *Driver) Tap(ctx context.Context, selector string) error {
	return d.Click(ctx, selector)
}

// SetValue replaces the value of the first element matching selector.
func (d *Driver) SetValue(ctx context.Context, selector, text string) error {
	locator, timeout, err := d.locate(ctx, selector)
	if err != nil {
		return err
	}
	if err := locator.Fill(text, playwright.LocatorFillOptions{Timeout: playwright.Float(millis(timeout))}); err != nil {
		return fmt.Errorf("set value failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Snapshot lists the interactable elements of the current page.
func (d *Driver) Snapshot(ctx context.Context, mode schemas.SnapshotMode) ([]schemas.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []dom.Record
	switch mode {
	case schemas.SnapshotAll:
		source, err := d.page.Content()
		if err != nil {
			return nil, fmt.Errorf("all snapshot failed: %w", err)
		}
		return dom.ParseHTML(source)
	case schemas.SnapshotVisible, "", schemas.SnapshotA11y:
		raw, err := d.page.Evaluate(dom.CollectFunction(), mode != schemas.SnapshotA11y)
		if err != nil {
			return nil, fmt.Errorf("%s snapshot failed: %w", mode, err)
		}
		if records, err = decodeRecords(raw); err != nil {
			return nil, err
		}
		if mode == schemas.SnapshotA11y {
			records = dom.Accessible(records)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot mode %q", mode)
	}
	return dom.Elements(records), nil
}

// Close shuts down the browser and the Playwright driver.
func (d *Driver) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.logger.Debug("Closing playwright session")
		if err := d.browser.Close(); err != nil {
			d.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		if err := d.pw.Stop(); err != nil && d.closeErr == nil {
			d.closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	})
	return d.closeErr
}

// -- Helpers --

// locate resolves selector to a locator, failing fast when nothing matches.
func (d *Driver) locate(ctx context.Context, selector string) (playwright.Locator, time.Duration, error) {
	timeout, err := boundedTimeout(ctx, d.actionTimeout())
	if err != nil {
		return nil, 0, err
	}
	locator := d.page.Locator(Selector(selector))
	count, err := locator.Count()
	if err != nil {
		return nil, 0, fmt.Errorf("invalid selector '%s': %w", selector, err)
	}
	if count == 0 {
		return nil, 0, fmt.Errorf("no element found for selector %q", selector)
	}
	return locator.First(), timeout, nil
}

// Selector converts a snapshot selector into Playwright's selector syntax.
func Selector(selector string) string {
	s := strings.TrimSpace(selector)
	if dom.IsXPath(s) {
		return "xpath=" + s
	}
	return s
}

// boundedTimeout shortens timeout to the context deadline, if sooner.
func boundedTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			if remaining <= 0 {
				return 0, context.DeadlineExceeded
			}
			timeout = remaining
		}
	}
	return timeout, nil
}

func millis(d time.Duration) float64 {
	return math.Max(1, float64(d.Milliseconds()))
}

func decodeRecords(raw interface{}) ([]dom.Record, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode snapshot: %w", err)
	}
	var records []dom.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return records, nil
}

func (d *Driver) actionTimeout() time.Duration {
	if d.cfg.ActionTimeout > 0 {
		return d.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

func (d *Driver) navigationTimeout() time.Duration {
	if d.cfg.NavigationTimeout > 0 {
		return d.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}
