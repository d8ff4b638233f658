// internal/llmclient/errors.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"
)

// ErrTimeout is matched by every *TimeoutError through errors.Is.
var ErrTimeout = errors.New("llm request timed out")

// TimeoutError reports a model request aborted by the configured bound.
type TimeoutError struct {
	Vendor  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out after %dms", e.Vendor, e.Timeout.Milliseconds())
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// APIError reports a non-2xx response from a model backend.
type APIError struct {
	Vendor     string
	StatusCode int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s request failed: %d %s - %s", e.Vendor, e.StatusCode, e.StatusText, e.Body)
}

func newAPIError(vendor string, statusCode int, body string) *APIError {
	return &APIError{
		Vendor:     vendor,
		StatusCode: statusCode,
		StatusText: http.StatusText(statusCode),
		Body:       truncate(body, maxErrorBody),
	}
}

// ConfigError reports a client that cannot be constructed, such as a missing
// credential. It is raised before any request is attempted.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s client configuration invalid: %s", e.Provider, e.Reason)
}

const maxErrorBody = 2048

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// withTimeout bounds one request. The returned classify func maps an error
// from that request to a *TimeoutError when the bound, and not the caller's
// own context, cut it short.
func withTimeout(parent context.Context, vendor string, timeout time.Duration) (context.Context, context.CancelFunc, func(error) error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	classify := func(err error) error {
		if err == nil {
			return nil
		}
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Vendor: vendor, Timeout: timeout}
		}
		return err
	}
	return ctx, cancel, classify
}

// timeoutOr returns the *TimeoutError for err when the request bound expired,
// otherwise err wrapped with msg.
func timeoutOr(classify func(error) error, err error, msg string) error {
	var timeout *TimeoutError
	if errors.As(classify(err), &timeout) {
		return timeout
	}
	return fmt.Errorf("%s: %w", msg, err)
}
