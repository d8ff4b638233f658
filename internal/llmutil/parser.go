// internal/llmutil/parser.go
package llmutil

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rawTruncateLimit bounds how much of a bad response is echoed in error messages.
const rawTruncateLimit = 500

// ParseError reports a model response that could not be turned into actions.
// Raw holds the untouched response for diagnostics.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s\nResponse: %s", e.Reason, truncateString(e.Raw, rawTruncateLimit))
}

func newParseError(raw, format string, args ...interface{}) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...), Raw: raw}
}

// completionSignals are pseudo-actions some models use instead of the done flag.
var completionSignals = map[string]bool{
	"DONE":     true,
	"COMPLETE": true,
	"FINISH":   true,
}

// looseString accepts strings, numbers and booleans, since small models do not
// always quote a typed value.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return fmt.Errorf("expected a scalar, got %s", truncateString(string(data), 40))
	}
	*s = looseString(data)
	return nil
}

// looseBool accepts true/false as booleans or strings.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(text)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", text)
	}
	*b = looseBool(v)
	return nil
}

// proposedAction is an action as the model wrote it, before validation.
type proposedAction struct {
	Action looseString `json:"action"`
	Type   looseString `json:"type"`
	Target looseString `json:"target"`
	Value  looseString `json:"value"`
}

func (p proposedAction) name() string {
	if p.Action != "" {
		return strings.TrimSpace(string(p.Action))
	}
	return strings.TrimSpace(string(p.Type))
}

// actionItem is one entry of an actions array. Besides objects it accepts a
// bare string such as "DONE", read as an action with that name.
type actionItem struct {
	proposedAction
}

func (a *actionItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		a.proposedAction = proposedAction{Action: looseString(name)}
		return nil
	}
	return json.Unmarshal(data, &a.proposedAction)
}

// proposedPayload covers every shape a reply may take: a step object, a bare
// action object, or (decoded separately) a bare array of actions.
type proposedPayload struct {
	Actions   *[]actionItem `json:"actions"`
	Done      looseBool         `json:"done"`
	Reasoning string            `json:"reasoning"`
	Thought   string            `json:"thought"`

	proposedAction
}

func (p proposedPayload) reasoning() string {
	if p.Reasoning != "" {
		return p.Reasoning
	}
	return p.Thought
}

// decodePayload decodes data as an array of actions or as an object. It never
// returns a partially decoded payload.
func decodePayload(data string) (proposedPayload, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return proposedPayload{}, fmt.Errorf("empty input")
	}

	if data[0] == '[' {
		var actions []actionItem
		if err := json.Unmarshal([]byte(data), &actions); err != nil {
			return proposedPayload{}, err
		}
		return proposedPayload{Actions: &actions}, nil
	}

	var payload proposedPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return proposedPayload{}, err
	}
	if payload.Actions == nil {
		switch {
		case payload.name() != "":
			single := []actionItem{{payload.proposedAction}}
			payload.Actions = &single
		case bool(payload.Done):
			// A bare completion report such as {"done": true}.
			payload.Actions = &[]actionItem{}
		default:
			return proposedPayload{}, fmt.Errorf("object has neither an actions array nor an action")
		}
	}
	return payload, nil
}

// extractPayload runs the tolerant decode pipeline over a raw model reply.
func extractPayload(raw string) (proposedPayload, error) {
	cleaned := strings.TrimSpace(StripLineComments(StripThinking(raw)))

	// Constrained-output models usually return clean JSON.
	if payload, err := decodePayload(cleaned); err == nil {
		return payload, nil
	}

	unfenced := StripFences(cleaned)
	candidates := jsonCandidates(unfenced)
	if len(candidates) == 0 {
		return proposedPayload{}, newParseError(raw, "No JSON array or object found in LLM response")
	}

	var lastErr error
	for _, candidate := range candidates {
		payload, err := decodePayload(candidate)
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	return proposedPayload{}, newParseError(raw, "Failed to parse JSON from LLM response: %v", lastErr)
}

// validateAction checks one proposed action and builds the immutable Action.
// index is the action's position in the model's array.
func validateAction(raw string, index int, p proposedAction) (schemas.Action, error) {
	name := p.name()
	actionType, ok := schemas.ParseActionType(name)
	if !ok {
		return schemas.Action{}, newParseError(raw, "Invalid action type %q at index %d. Valid: %s",
			strings.ToUpper(name), index, schemas.ValidActionNames())
	}

	target := strings.TrimSpace(string(p.Target))
	if target == "" {
		return schemas.Action{}, newParseError(raw, "Missing target at index %d", index)
	}

	value := string(p.Value)
	if actionType == schemas.ActionSetValue && value == "" {
		return schemas.Action{}, newParseError(raw, "SET_VALUE at index %d requires value field", index)
	}

	action, err := schemas.NewAction(actionType, target, value)
	if err != nil {
		return schemas.Action{}, newParseError(raw, "Invalid action at index %d: %v", index, err)
	}
	return action, nil
}

// ParseActionList turns a single-pass reply into at most maxActions validated
// actions, in the order the model listed them. The list is truncated before
// validation, so entries past the limit are never inspected. A maxActions
// below 1 is treated as 1.
func ParseActionList(raw string, maxActions int) ([]schemas.Action, error) {
	if maxActions < 1 {
		maxActions = 1
	}

	payload, err := extractPayload(raw)
	if err != nil {
		return nil, err
	}

	proposed := *payload.Actions
	if len(proposed) == 0 {
		return nil, newParseError(raw, "LLM returned empty or invalid actions array")
	}
	if len(proposed) > maxActions {
		proposed = proposed[:maxActions]
	}

	actions := make([]schemas.Action, 0, len(proposed))
	for i, p := range proposed {
		action, err := validateAction(raw, i, p.proposedAction)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// ParseStep turns a loop-mode reply into an AgentStep. A DONE, COMPLETE or
// FINISH pseudo-action sets Done and is dropped from the actions. A step with
// no actions is valid; the model may only be reporting completion.
func ParseStep(raw string) (schemas.AgentStep, error) {
	payload, err := extractPayload(raw)
	if err != nil {
		return schemas.AgentStep{}, err
	}

	step := schemas.AgentStep{
		Done:      bool(payload.Done),
		Reasoning: strings.TrimSpace(payload.reasoning()),
		Actions:   make([]schemas.Action, 0, len(*payload.Actions)),
	}

	for i, p := range *payload.Actions {
		if completionSignals[strings.ToUpper(p.name())] {
			step.Done = true
			continue
		}
		action, err := validateAction(raw, i, p.proposedAction)
		if err != nil {
			return schemas.AgentStep{}, err
		}
		step.Actions = append(step.Actions, action)
	}
	return step, nil
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
