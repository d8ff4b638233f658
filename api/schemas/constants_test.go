package schemas_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// TestConstants pins the wire values of every enum. Models and config files
// depend on these exact strings.
func TestConstants(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		constant interface{}
		expected string
	}{
		// Action types
		{"ActionClick", schemas.ActionClick, "CLICK"},
		{"ActionNavigate", schemas.ActionNavigate, "NAVIGATE"},
		{"ActionTap", schemas.ActionTap, "TAP"},
		{"ActionSetValue", schemas.ActionSetValue, "SET_VALUE"},

		// Platforms
		{"PlatformBrowser", schemas.PlatformBrowser, "browser"},
		{"PlatformIOS", schemas.PlatformIOS, "ios"},
		{"PlatformAndroid", schemas.PlatformAndroid, "android"},

		// Snapshot modes
		{"SnapshotVisible", schemas.SnapshotVisible, "visible"},
		{"SnapshotA11y", schemas.SnapshotA11y, "a11y"},
		{"SnapshotAll", schemas.SnapshotAll, "all"},

		// Chat roles
		{"RoleSystem", schemas.RoleSystem, "system"},
		{"RoleUser", schemas.RoleUser, "user"},
		{"RoleAssistant", schemas.RoleAssistant, "assistant"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, fmt.Sprintf("%v", tc.constant))
		})
	}
}

func TestValidActionNames(t *testing.T) {
	assert.Equal(t, "CLICK, NAVIGATE, TAP, SET_VALUE", schemas.ValidActionNames())
}
