// internal/appium/client.go
package appium

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WebDriverError is an error reported by the server in the W3C error shape.
type WebDriverError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *WebDriverError) Error() string {
	return fmt.Sprintf("webdriver error %q (status %d): %s", e.Code, e.Status, e.Message)
}

// IsNoSuchElement reports whether err is the server saying nothing matched.
func IsNoSuchElement(err error) bool {
	var wdErr *WebDriverError
	return errors.As(err, &wdErr) && wdErr.Code == "no such element"
}

// retryable reports whether a failed session request is worth another try.
// Transport failures and gateway statuses mean the server is still starting.
func (e *WebDriverError) retryable() bool {
	switch e.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// client is a minimal W3C WebDriver wire client.
type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func newClient(baseURL string, timeout time.Duration, logger *zap.Logger) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// do issues one command and decodes the "value" member of the reply into out.
func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope struct {
		Value jsoniter.RawMessage `json:"value"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return &WebDriverError{Status: resp.StatusCode, Code: "unknown error", Message: strings.TrimSpace(string(raw))}
			}
			return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		wdErr := &WebDriverError{Status: resp.StatusCode}
		if len(envelope.Value) > 0 {
			_ = json.Unmarshal(envelope.Value, wdErr)
		}
		if wdErr.Code == "" {
			wdErr.Code = "unknown error"
		}
		return wdErr
	}

	if out != nil && len(envelope.Value) > 0 {
		if err := json.Unmarshal(envelope.Value, out); err != nil {
			return fmt.Errorf("failed to decode value of %s %s: %w", method, path, err)
		}
	}
	return nil
}

// newSession creates a session, retrying with exponential backoff until the
// server accepts or startupTimeout elapses.
func (c *client) newSession(ctx context.Context, caps map[string]interface{}, startupTimeout time.Duration) (string, map[string]interface{}, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = startupTimeout

	body := map[string]interface{}{
		"capabilities": map[string]interface{}{"alwaysMatch": caps},
	}

	var created struct {
		SessionID    string                 `json:"sessionId"`
		Capabilities map[string]interface{} `json:"capabilities"`
	}
	operation := func() error {
		err := c.do(ctx, http.MethodPost, "/session", body, &created)
		if err == nil {
			return nil
		}
		var wdErr *WebDriverError
		if errors.As(err, &wdErr) && !wdErr.retryable() {
			return backoff.Permanent(err)
		}
		c.logger.Warn("Appium server not ready, retrying...", zap.Error(err))
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", nil, fmt.Errorf("failed to create appium session: %w", err)
	}
	if created.SessionID == "" {
		return "", nil, fmt.Errorf("appium returned no session id")
	}
	return created.SessionID, created.Capabilities, nil
}
