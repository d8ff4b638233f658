// internal/agent/errors.go
package agent

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// ErrorCode classifies driver failures for structured logging. Results carry
// the driver's own message; the code is a log field only.
type ErrorCode string

const (
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
	ErrCodeUnknownAction    ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeExecutorPanic    ErrorCode = "EXECUTOR_PANIC"

	// -- Driver Errors --
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeNotInteractable ErrorCode = "ELEMENT_NOT_INTERACTABLE"
	ErrCodeTimeoutError    ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNavigationError ErrorCode = "NAVIGATION_ERROR"
)

// ClassifyDriverError maps a driver error message onto an ErrorCode using
// the phrases chromedp, playwright and Appium put in their messages.
func ClassifyDriverError(err error) ErrorCode {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "no element found"),
		strings.Contains(msg, "no such element"),
		strings.Contains(msg, "could not be located"),
		strings.Contains(msg, "selector"):
		return ErrCodeElementNotFound
	case strings.Contains(msg, "not interactable"),
		strings.Contains(msg, "not visible"),
		strings.Contains(msg, "zero size"):
		return ErrCodeNotInteractable
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return ErrCodeTimeoutError
	case strings.Contains(msg, "net::err"):
		return ErrCodeNavigationError
	default:
		return ErrCodeExecutionFailure
	}
}

// ActionFailedError aborts a single-pass run at the first failed action.
// Later actions in the same reply are not executed.
type ActionFailedError struct {
	Index  int
	Action schemas.Action
	Reason string
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action %d (%s) failed: %s", e.Index+1, e.Action, e.Reason)
}
