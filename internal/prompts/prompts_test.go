// File: internal/prompts/prompts_test.go
package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/llmutil"
)

const sampleElements = `- selector: "#login-btn"
  tag: button
  text: Login`

// -- Test Cases: Single Pass --

func TestBuildSinglePass(t *testing.T) {
	t.Run("browser prompt", func(t *testing.T) {
		p := BuildSinglePass(sampleElements, "click the Login button", 2, schemas.PlatformBrowser)

		assert.Contains(t, p.System, "CLICK")
		assert.Contains(t, p.System, "NAVIGATE")
		assert.NotContains(t, p.System, "TAP:")
		assert.Contains(t, p.System, "ONLY the JSON array")
		assert.Contains(t, p.System, "EXACTLY")

		assert.Contains(t, p.User, "<elements>\n"+sampleElements+"\n</elements>")
		assert.Contains(t, p.User, "<user_request>\nclick the Login button\n</user_request>")
		assert.Contains(t, p.User, "<max_actions>\n2\n</max_actions>")
	})

	t.Run("mobile prompt", func(t *testing.T) {
		for _, platform := range []schemas.Platform{schemas.PlatformAndroid, schemas.PlatformIOS} {
			p := BuildSinglePass(sampleElements, "skip", 1, platform)
			assert.Contains(t, p.System, "TAP")
			assert.NotContains(t, p.System, "NAVIGATE")
			assert.Contains(t, p.System, `android=new UiSelector().text(\"Skip\")`)
		}
	})

	t.Run("limit below one is clamped", func(t *testing.T) {
		p := BuildSinglePass("", "x", 0, schemas.PlatformBrowser)
		assert.Contains(t, p.User, "<max_actions>\n1\n</max_actions>")
	})
}

// -- Test Cases: Agentic --

func TestBuildAgenticInitial(t *testing.T) {
	p := BuildAgenticInitial(sampleElements, "log in as admin", schemas.PlatformBrowser)

	for _, want := range []string{`"reasoning"`, `"actions"`, `"done"`, "Never repeat a failed action", "no further progress is possible"} {
		assert.Contains(t, p.System, want)
	}
	assert.Contains(t, p.User, "log in as admin")
	assert.Contains(t, p.User, sampleElements)

	mobile := BuildAgenticInitial(sampleElements, "log in", schemas.PlatformIOS)
	assert.Contains(t, mobile.System, "mobile app")
	assert.NotEqual(t, p.System, mobile.System)
}

func TestBuildObservation(t *testing.T) {
	results := []schemas.ActionResult{
		{Action: schemas.Action{Type: schemas.ActionSetValue, Target: "#username", Value: "admin"}, Success: true},
		{Action: schemas.Action{Type: schemas.ActionClick, Target: "#submit"}, Success: false, Error: "element not found"},
	}

	obs := BuildObservation(results, "- selector: \"#dashboard\"", 2, 5)

	assert.True(t, strings.HasPrefix(obs, "Observation after step 2/5:"))
	assert.Contains(t, obs, `✓ SET_VALUE "#username" = "admin"`)
	assert.Contains(t, obs, `✗ CLICK "#submit" -> element not found`)
	assert.Contains(t, obs, "1 of 2 action(s) failed")
	assert.Contains(t, obs, "<elements>\n- selector: \"#dashboard\"\n</elements>")
	assert.Contains(t, obs, "3 step(s) remain")
	assert.Contains(t, obs, `"done": true`)

	empty := BuildObservation(nil, "", 1, 3)
	assert.Contains(t, empty, "No actions were executed.")
	assert.NotContains(t, empty, "failed")
}

func TestBuildParseCorrection(t *testing.T) {
	perr := &llmutil.ParseError{Reason: "Missing target at index 0", Raw: "raw"}
	msg := BuildParseCorrection(perr)
	assert.Contains(t, msg, "could not be parsed: Missing target at index 0")
	assert.Contains(t, msg, "CLICK, NAVIGATE, TAP, SET_VALUE")
	assert.NotContains(t, msg, "Response: raw", "raw text is not echoed back to the model")

	assert.Contains(t, BuildParseCorrection(errors.New("boom")), "boom")
	assert.Contains(t, BuildParseCorrection(nil), "unreadable response")
}
