// Package appium drives native iOS and Android apps through an Appium server
// using the W3C WebDriver protocol.
package appium

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

// w3cElementKey is the member naming an element reference in W3C replies.
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

const (
	defaultStartupTimeout = 60 * time.Second
	defaultCommandTimeout = 15 * time.Second
)

// Driver is an Appium-backed schemas.Driver.
type Driver struct {
	client    *client
	sessionID string
	platform  schemas.Platform
	logger    *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ schemas.Driver = (*Driver)(nil)

// New opens an Appium session with the configured capabilities.
func New(ctx context.Context, cfg config.AppiumConfig, logger *zap.Logger) (*Driver, error) {
	log := logger.Named("appium")

	caps, err := Capabilities(cfg)
	if err != nil {
		return nil, err
	}
	platform, err := platformOf(cfg.PlatformName)
	if err != nil {
		return nil, err
	}

	commandTimeout := cfg.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}
	startupTimeout := cfg.StartupTimeout
	if startupTimeout <= 0 {
		startupTimeout = defaultStartupTimeout
	}

	c := newClient(cfg.URL, commandTimeout, log)
	log.Info("Creating appium session", zap.String("url", cfg.URL), zap.String("platform", string(platform)))
	sessionID, _, err := c.newSession(ctx, caps, startupTimeout)
	if err != nil {
		return nil, err
	}

	log.Info("Appium session ready", zap.String("session_id", sessionID))
	return &Driver{client: c, sessionID: sessionID, platform: platform, logger: log}, nil
}

// Capabilities assembles the W3C capabilities for cfg. Appium-specific keys get
// the appium: vendor prefix; ExtraCapabilities are merged in last and win.
func Capabilities(cfg config.AppiumConfig) (map[string]interface{}, error) {
	caps := map[string]interface{}{
		"platformName": cfg.PlatformName,
	}
	if cfg.AutomationName != "" {
		caps["appium:automationName"] = cfg.AutomationName
	}
	if cfg.DeviceName != "" {
		caps["appium:deviceName"] = cfg.DeviceName
	}
	if cfg.App != "" {
		caps["appium:app"] = cfg.App
	}

	if extra := strings.TrimSpace(cfg.ExtraCapabilities); extra != "" {
		var extras map[string]interface{}
		if err := json.Unmarshal([]byte(extra), &extras); err != nil {
			return nil, fmt.Errorf("invalid appium.extra_capabilities: %w", err)
		}
		for k, v := range extras {
			caps[k] = v
		}
	}
	return caps, nil
}

func platformOf(name string) (schemas.Platform, error) {
	switch strings.ToLower(name) {
	case "ios":
		return schemas.PlatformIOS, nil
	case "android":
		return schemas.PlatformAndroid, nil
	default:
		return "", fmt.Errorf("unsupported appium platform %q", name)
	}
}

// Platform reports ios or android.
func (d *Driver) Platform() schemas.Platform { return d.platform }

// Click taps the element; on touch devices the W3C element click is a tap.
func (d *Driver) Click(ctx context.Context, selector string) error {
	id, err := d.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := d.client.do(ctx, http.MethodPost, d.elementPath(id, "click"), map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("click failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Tap taps the element matching selector.
func (d *Driver) Tap(ctx context.Context, selector string) error {
	return d.Click(ctx, selector)
}

// SetValue clears the field and types text into it.
func (d *Driver) SetValue(ctx context.Context, selector, text string) error {
	id, err := d.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := d.client.do(ctx, http.MethodPost, d.elementPath(id, "clear"), map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("clear failed for selector '%s': %w", selector, err)
	}
	if err := d.client.do(ctx, http.MethodPost, d.elementPath(id, "value"), map[string]interface{}{"text": text}, nil); err != nil {
		return fmt.Errorf("set value failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Navigate opens a URL or deep link on the device.
func (d *Driver) Navigate(ctx context.Context, target string) error {
	d.logger.Debug("Opening URL", zap.String("url", target))
	if err := d.client.do(ctx, http.MethodPost, d.sessionPath("url"), map[string]string{"url": target}, nil); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", target, err)
	}
	return nil
}

// Snapshot reads the page source. Mobile screens have a single snapshot form,
// so mode is ignored.
func (d *Driver) Snapshot(ctx context.Context, mode schemas.SnapshotMode) ([]schemas.Element, error) {
	var source string
	if err := d.client.do(ctx, http.MethodGet, d.sessionPath("source"), nil, &source); err != nil {
		return nil, fmt.Errorf("failed to read page source: %w", err)
	}
	elements, err := ParseSource(d.platform, source)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("Snapshot taken", zap.String("mode", string(mode)), zap.Int("elements", len(elements)))
	return elements, nil
}

// Close deletes the session.
func (d *Driver) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.logger.Debug("Deleting appium session", zap.String("session_id", d.sessionID))
		if err := d.client.do(ctx, http.MethodDelete, "/session/"+url.PathEscape(d.sessionID), nil, nil); err != nil {
			d.closeErr = fmt.Errorf("failed to delete appium session: %w", err)
		}
	})
	return d.closeErr
}

// -- Helpers --

// find resolves selector to a W3C element id.
func (d *Driver) find(ctx context.Context, selector string) (string, error) {
	var ref map[string]string
	if err := d.client.do(ctx, http.MethodPost, d.sessionPath("element"), Locate(selector), &ref); err != nil {
		if IsNoSuchElement(err) {
			return "", fmt.Errorf("no element found for selector %q", selector)
		}
		return "", fmt.Errorf("failed to find element '%s': %w", selector, err)
	}
	id := ref[w3cElementKey]
	if id == "" {
		id = ref["ELEMENT"]
	}
	if id == "" {
		return "", fmt.Errorf("no element found for selector %q", selector)
	}
	return id, nil
}

func (d *Driver) sessionPath(command string) string {
	return "/session/" + url.PathEscape(d.sessionID) + "/" + command
}

func (d *Driver) elementPath(id, command string) string {
	return d.sessionPath("element/" + url.PathEscape(id) + "/" + command)
}
