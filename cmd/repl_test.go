// File: cmd/repl_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

type scriptedRunner struct {
	goals   []string
	results map[string]*schemas.AgentResult
	errs    map[string]error
}

func (r *scriptedRunner) Run(ctx context.Context, goal string, opts schemas.CallOptions) (*schemas.AgentResult, error) {
	r.goals = append(r.goals, goal)
	if err := r.errs[goal]; err != nil {
		return nil, err
	}
	if res := r.results[goal]; res != nil {
		return res, nil
	}
	return &schemas.AgentResult{GoalAchieved: true}, nil
}

func actionResult(t *testing.T, typ schemas.ActionType, target, value string, failure string) schemas.ActionResult {
	t.Helper()
	a, err := schemas.NewAction(typ, target, value)
	require.NoError(t, err)
	return schemas.ActionResult{Action: a, Success: failure == "", Error: failure}
}

// -- Test Cases: REPL --

func TestRunREPL(t *testing.T) {
	runner := &scriptedRunner{
		results: map[string]*schemas.AgentResult{
			"log in": {Steps: []schemas.StepRecord{{Step: 1, Done: true, Actions: []schemas.ActionResult{
				actionResult(t, schemas.ActionSetValue, "#username", "admin", ""),
				actionResult(t, schemas.ActionClick, "#login", "", ""),
			}}}},
			"open menu": {Steps: []schemas.StepRecord{{Step: 1, Actions: []schemas.ActionResult{
				actionResult(t, schemas.ActionClick, "#menu", "", "no element found"),
			}}}},
		},
		errs: map[string]error{"explode": errors.New("model unavailable")},
	}
	input := "log in\n\n   \nexplode\nopen menu\n.exit\nnever reached\n"
	var out bytes.Buffer

	err := runREPL(context.Background(), strings.NewReader(input), &out, runner, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"log in", "explode", "open menu"}, runner.goals)
	text := out.String()
	assert.Contains(t, text, "Type .exit to quit")
	assert.Contains(t, text, "agent> ")
	assert.Contains(t, text, "  ✓ SET_VALUE \"#username\" = \"admin\"\n")
	assert.Contains(t, text, "  ✓ CLICK \"#login\"\n")
	assert.Contains(t, text, "  Error: model unavailable\n")
	assert.Contains(t, text, "  ✗ CLICK \"#menu\" -> no element found\n")
}

func TestRunREPL_EOFEndsSession(t *testing.T) {
	runner := &scriptedRunner{}
	var out bytes.Buffer

	err := runREPL(context.Background(), strings.NewReader("click login"), &out, runner, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"click login"}, runner.goals)
}

func TestRunREPL_CancelledContext(t *testing.T) {
	runner := &scriptedRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runREPL(ctx, strings.NewReader("click login\n"), &bytes.Buffer{}, runner, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.goals)
}

func TestReplCommand(t *testing.T) {
	h := setupHarness(t)

	_, err := executeCommand(t, "log in\n.exit\n", "repl", "--max-actions", "2")
	require.Error(t, err, "repl has no --max-actions flag")

	out, err := executeCommand(t, "log in\n.exit\n", "repl", "--url", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ SET_VALUE")
	assert.Equal(t, "navigate https://example.com", h.driver.calls[0])
	assert.True(t, h.driver.closed)
}
