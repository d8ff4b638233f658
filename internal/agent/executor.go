// internal/agent/executor.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// Executor runs validated actions against a live session. It never returns an
// error: every outcome, including a driver panic, becomes an ActionResult.
type Executor struct {
	session schemas.Session
	logger  *zap.Logger
}

// NewExecutor creates an executor bound to one session.
func NewExecutor(session schemas.Session, logger *zap.Logger) *Executor {
	return &Executor{
		session: session,
		logger:  logger.Named("executor"),
	}
}

// Execute performs a single action and reports its outcome.
func (e *Executor) Execute(ctx context.Context, action schemas.Action) (result schemas.ActionResult) {
	result = schemas.ActionResult{Action: action}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic recovered during action execution",
				zap.Stringer("action", action),
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
			result.Success = false
			result.Error = fmt.Sprintf("driver panicked: %v", r)
			e.logFailure(action, ErrCodeExecutorPanic, result.Error)
		}
	}()

	var err error
	switch action.Type {
	case schemas.ActionClick:
		err = e.session.Click(ctx, action.Target)
	case schemas.ActionSetValue:
		err = e.session.SetValue(ctx, action.Target, action.Value)
	case schemas.ActionTap:
		err = e.session.Tap(ctx, action.Target)
	case schemas.ActionNavigate:
		err = e.session.Navigate(ctx, schemas.NormalizeURL(action.Target))
	default:
		result.Error = fmt.Sprintf("Unknown action type: %s", action.Type)
		e.logFailure(action, ErrCodeUnknownAction, result.Error)
		return result
	}

	if err != nil {
		result.Error = err.Error()
		e.logFailure(action, ClassifyDriverError(err), result.Error)
		return result
	}

	result.Success = true
	e.logger.Debug("Action executed", zap.Stringer("action", action))
	return result
}

func (e *Executor) logFailure(action schemas.Action, code ErrorCode, msg string) {
	e.logger.Warn("Action failed",
		zap.Stringer("action", action),
		zap.String("error_code", string(code)),
		zap.String("error", msg),
	)
}
