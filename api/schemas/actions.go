// File: api/schemas/actions.go
package schemas

import (
	"fmt"
	"regexp"
	"strings"
)

// ActionType enumerates the UI actions a model may request.
type ActionType string

const (
	ActionClick    ActionType = "CLICK"     // Browser: click an element.
	ActionNavigate ActionType = "NAVIGATE"  // Browser: load a URL.
	ActionTap      ActionType = "TAP"       // Mobile: tap an element.
	ActionSetValue ActionType = "SET_VALUE" // Shared: type text into an input.
)

// ValidActionTypes lists every executable action type in the order used by
// validation messages.
var ValidActionTypes = []ActionType{ActionClick, ActionNavigate, ActionTap, ActionSetValue}

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// ParseActionType resolves a model-supplied action name, ignoring case and
// surrounding whitespace.
func ParseActionType(name string) (ActionType, bool) {
	candidate := ActionType(strings.ToUpper(strings.TrimSpace(name)))
	for _, t := range ValidActionTypes {
		if t == candidate {
			return t, true
		}
	}
	return candidate, false
}

// ValidActionNames renders ValidActionTypes as a comma separated list.
func ValidActionNames() string {
	names := make([]string, len(ValidActionTypes))
	for i, t := range ValidActionTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Action is a single validated UI action. Values are built through NewAction
// and treated as immutable afterwards.
type Action struct {
	Type   ActionType `json:"type" yaml:"type"`
	Target string     `json:"target" yaml:"target"`
	Value  string     `json:"value,omitempty" yaml:"value,omitempty"`
}

// NewAction builds an Action and enforces its invariants: the target is never
// empty and a value is carried by SET_VALUE only. NAVIGATE targets without a
// scheme are upgraded to https.
func NewAction(t ActionType, target, value string) (Action, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Action{}, fmt.Errorf("action %s requires a target", t)
	}
	switch t {
	case ActionSetValue:
		if value == "" {
			return Action{}, fmt.Errorf("action %s requires a value", t)
		}
	case ActionNavigate:
		target = NormalizeURL(target)
		value = ""
	case ActionClick, ActionTap:
		value = ""
	default:
		return Action{}, fmt.Errorf("unknown action type: %s", t)
	}
	return Action{Type: t, Target: target, Value: value}, nil
}

// NormalizeURL prefixes https:// to a bare host or path.
func NormalizeURL(raw string) string {
	if schemePattern.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// String renders the action the way it is echoed to users and logs.
func (a Action) String() string {
	if a.Value != "" {
		return fmt.Sprintf("%s %q = %q", a.Type, a.Target, a.Value)
	}
	return fmt.Sprintf("%s %q", a.Type, a.Target)
}

// SameAs reports whether two actions would perform the same operation.
func (a Action) SameAs(other Action) bool {
	return a.Type == other.Type && a.Target == other.Target && a.Value == other.Value
}

// ActionResult records the outcome of executing exactly one Action.
// Error is set if and only if Success is false.
type ActionResult struct {
	Action  Action `json:"action"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AgentStep is one parsed model turn in loop mode.
type AgentStep struct {
	Actions   []Action `json:"actions"`
	Done      bool     `json:"done"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// StepRecord is the history entry for one loop iteration. ParseError is set
// when the model reply for that step could not be parsed.
type StepRecord struct {
	Step       int            `json:"step"`
	Actions    []ActionResult `json:"actions"`
	Done       bool           `json:"done"`
	Reasoning  string         `json:"reasoning,omitempty"`
	ParseError string         `json:"parseError,omitempty"`
}

// AgentResult aggregates a whole agent invocation.
type AgentResult struct {
	RunID        string       `json:"runId,omitempty"`
	Actions      []Action     `json:"actions"`
	Steps        []StepRecord `json:"steps"`
	GoalAchieved bool         `json:"goalAchieved"`
	TotalSteps   int          `json:"totalSteps"`
}

// CallOptions override the configured budgets for a single invocation.
// Zero values fall back to the configuration.
type CallOptions struct {
	MaxSteps   int `json:"maxSteps,omitempty"`
	MaxActions int `json:"maxActions,omitempty"`
}
