// internal/agent/agent.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
	"github.com/xkilldash9x/pilot-cli/internal/elements"
	"github.com/xkilldash9x/pilot-cli/internal/llmutil"
	"github.com/xkilldash9x/pilot-cli/internal/prompts"
)

// Target is the automation surface an agent drives: the session it acts on
// and the snapshot source it observes.
type Target interface {
	schemas.Session
	schemas.Snapshotter
}

// Agent turns natural language goals into UI actions. Invocations are
// serialized because the underlying session accepts one command at a time.
type Agent struct {
	mu       sync.Mutex
	llm      schemas.LLMClient
	target   Target
	executor *Executor
	cfg      config.AgentConfig
	style    elements.Style
	mode     schemas.SnapshotMode
	logger   *zap.Logger
}

// New creates an agent bound to one model client and one target.
func New(llm schemas.LLMClient, target Target, cfg config.AgentConfig, logger *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, fmt.Errorf("agent requires an LLM client")
	}
	if target == nil {
		return nil, fmt.Errorf("agent requires an automation target")
	}
	style, err := elements.ParseStyle(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	mode, err := schemas.ParseSnapshotMode(cfg.SnapshotMode)
	if err != nil {
		return nil, err
	}

	logger = logger.Named("agent")
	return &Agent{
		llm:      llm,
		target:   target,
		executor: NewExecutor(target, logger),
		cfg:      cfg,
		style:    style,
		mode:     mode,
		logger:   logger,
	}, nil
}

// Elements returns the encoded snapshot of the current screen exactly as it
// would be embedded in a prompt.
func (a *Agent) Elements(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot(ctx)
}

// Run pursues goal. A step budget of one runs a single model exchange and
// aborts on the first failed action; larger budgets run the observe and act
// loop, which treats failed actions as observations.
func (a *Agent) Run(ctx context.Context, goal string, opts schemas.CallOptions) (*schemas.AgentResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	maxSteps := firstPositive(opts.MaxSteps, a.cfg.MaxSteps, 1)
	maxActions := firstPositive(opts.MaxActions, a.cfg.MaxActions, 1)

	runID := uuid.New().String()
	logger := a.logger.With(zap.String("run_id", runID))
	logger.Info("Agent run starting",
		zap.String("goal", goal),
		zap.Int("max_steps", maxSteps),
		zap.Int("max_actions", maxActions),
		zap.String("platform", string(a.target.Platform())),
	)

	var (
		result *schemas.AgentResult
		err    error
	)
	if maxSteps <= 1 {
		result, err = a.runSinglePass(ctx, logger, goal, maxActions)
	} else {
		result, err = a.runLoop(ctx, logger, goal, maxSteps)
	}
	if err != nil {
		logger.Warn("Agent run failed", zap.Error(err))
		return nil, err
	}

	result.RunID = runID
	logger.Info("Agent run finished",
		zap.Bool("goal_achieved", result.GoalAchieved),
		zap.Int("total_steps", result.TotalSteps),
		zap.Int("actions", len(result.Actions)),
	)
	return result, nil
}

// -- Single Pass --

func (a *Agent) runSinglePass(ctx context.Context, logger *zap.Logger, goal string, maxActions int) (*schemas.AgentResult, error) {
	listing, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	prompt := prompts.BuildSinglePass(listing, goal, maxActions, a.target.Platform())
	raw, err := a.llm.Send(ctx, prompt, schemas.ChatOptions{ResponseSchema: schemas.ActionArraySchema})
	if err != nil {
		return nil, err
	}

	actions, err := llmutil.ParseActionList(raw, maxActions)
	if err != nil {
		return nil, err
	}
	logger.Debug("Model proposed actions", zap.Int("count", len(actions)))

	results := make([]schemas.ActionResult, 0, len(actions))
	for i, action := range actions {
		res := a.executor.Execute(ctx, action)
		results = append(results, res)
		if !res.Success {
			return nil, &ActionFailedError{Index: i, Action: action, Reason: res.Error}
		}
	}

	return &schemas.AgentResult{
		Actions:      actions,
		Steps:        []schemas.StepRecord{{Step: 1, Actions: results, Done: true}},
		GoalAchieved: true,
		TotalSteps:   1,
	}, nil
}

// -- Loop --

func (a *Agent) runLoop(ctx context.Context, logger *zap.Logger, goal string, maxSteps int) (*schemas.AgentResult, error) {
	listing, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	conv := NewConversation(prompts.BuildAgenticInitial(listing, goal, a.target.Platform()), a.cfg.ContextWindow)
	guard := newFailureGuard(a.cfg.MaxRepeatedFailures)
	result := &schemas.AgentResult{
		Actions: []schemas.Action{},
		Steps:   make([]schemas.StepRecord, 0, maxSteps),
	}

	for step := 1; step <= maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepLogger := logger.With(zap.Int("step", step))

		raw, err := a.llm.Chat(ctx, conv.Messages(), schemas.ChatOptions{ResponseSchema: schemas.AgentStepSchema})
		if err != nil {
			return nil, err
		}
		result.TotalSteps = step

		parsed, err := llmutil.ParseStep(raw)
		if err != nil {
			var parseErr *llmutil.ParseError
			if !errors.As(err, &parseErr) {
				return nil, err
			}
			stepLogger.Warn("Model reply could not be parsed, re-prompting", zap.String("reason", parseErr.Reason))
			result.Steps = append(result.Steps, schemas.StepRecord{
				Step:       step,
				Actions:    []schemas.ActionResult{},
				ParseError: parseErr.Reason,
			})
			conv.Append(raw, prompts.BuildParseCorrection(err))
			continue
		}

		results := make([]schemas.ActionResult, 0, len(parsed.Actions))
		for _, action := range parsed.Actions {
			res := a.executor.Execute(ctx, action)
			results = append(results, res)
			result.Actions = append(result.Actions, action)
			guard.observe(res)
		}
		result.Steps = append(result.Steps, schemas.StepRecord{
			Step:      step,
			Actions:   results,
			Done:      parsed.Done,
			Reasoning: parsed.Reasoning,
		})
		stepLogger.Debug("Step completed",
			zap.Int("actions", len(results)),
			zap.Bool("done", parsed.Done),
			zap.String("reasoning", parsed.Reasoning),
		)

		if parsed.Done {
			result.GoalAchieved = true
			return result, nil
		}
		if guard.tripped() {
			stepLogger.Warn("Stopping early after repeated identical failures",
				zap.Stringer("action", guard.last),
				zap.Int("failures", guard.count),
			)
			return result, nil
		}
		if step == maxSteps {
			break
		}

		listing, err = a.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		conv.Append(raw, prompts.BuildObservation(results, listing, step, maxSteps))
	}

	logger.Info("Step budget exhausted without completion", zap.Int("max_steps", maxSteps))
	return result, nil
}

// -- Helpers --

func (a *Agent) snapshot(ctx context.Context) (string, error) {
	found, err := a.target.Snapshot(ctx, a.mode)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot elements: %w", err)
	}
	listing, err := elements.Encode(found, a.style)
	if err != nil {
		return "", fmt.Errorf("failed to encode elements: %w", err)
	}
	return listing, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// failureGuard counts consecutive failures of one identical action. A limit
// of zero disables it.
type failureGuard struct {
	limit int
	last  schemas.Action
	count int
}

func newFailureGuard(limit int) *failureGuard {
	return &failureGuard{limit: limit}
}

func (g *failureGuard) observe(res schemas.ActionResult) {
	switch {
	case res.Success:
		g.count = 0
	case g.count > 0 && res.Action.SameAs(g.last):
		g.count++
	default:
		g.last = res.Action
		g.count = 1
	}
}

func (g *failureGuard) tripped() bool {
	return g.limit > 0 && g.count >= g.limit
}
