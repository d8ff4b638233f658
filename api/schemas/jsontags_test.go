package schemas_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// TestStructJSONTags uses reflection to verify the `json` tags on result and
// snapshot types, which are printed by the CLI and consumed by scripts.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "Action",
			structRef: schemas.Action{},
			expectedTags: map[string]string{
				"Type":   "type",
				"Target": "target",
				"Value":  "value,omitempty",
			},
		},
		{
			name:      "ActionResult",
			structRef: schemas.ActionResult{},
			expectedTags: map[string]string{
				"Action":  "action",
				"Success": "success",
				"Error":   "error,omitempty",
			},
		},
		{
			name:      "StepRecord",
			structRef: schemas.StepRecord{},
			expectedTags: map[string]string{
				"Step":       "step",
				"Actions":    "actions",
				"Done":       "done",
				"Reasoning":  "reasoning,omitempty",
				"ParseError": "parseError,omitempty",
			},
		},
		{
			name:      "AgentResult",
			structRef: schemas.AgentResult{},
			expectedTags: map[string]string{
				"RunID":        "runId,omitempty",
				"Actions":      "actions",
				"Steps":        "steps",
				"GoalAchieved": "goalAchieved",
				"TotalSteps":   "totalSteps",
			},
		},
		{
			name:      "Element",
			structRef: schemas.Element{},
			expectedTags: map[string]string{
				"Selector":    "selector",
				"Tag":         "tag,omitempty",
				"Role":        "role,omitempty",
				"Text":        "text,omitempty",
				"Label":       "label,omitempty",
				"Placeholder": "placeholder,omitempty",
				"Href":        "href,omitempty",
				"InputType":   "type,omitempty",
				"Name":        "name,omitempty",
				"ResourceID":  "resourceId,omitempty",
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			typ := reflect.TypeOf(tc.structRef)
			assert.Equal(t, len(tc.expectedTags), typ.NumField(), "unexpected number of fields on %s", tc.name)
			for field, expected := range tc.expectedTags {
				f, ok := typ.FieldByName(field)
				if assert.True(t, ok, "field %s missing from %s", field, tc.name) {
					assert.Equal(t, expected, f.Tag.Get("json"), "json tag of %s.%s", tc.name, field)
				}
			}
		})
	}
}
