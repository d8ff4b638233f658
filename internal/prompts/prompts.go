// File: internal/prompts/prompts.go
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/llmutil"
)

// -- System prompts --

//go:embed templates/browser_single.md
var browserSinglePassSystem string

//go:embed templates/mobile_single.md
var mobileSinglePassSystem string

//go:embed templates/browser_agentic.md
var browserAgenticSystem string

//go:embed templates/mobile_agentic.md
var mobileAgenticSystem string

const (
	successMark = "✓"
	failureMark = "✗"
)

func singlePassSystem(platform schemas.Platform) string {
	if platform.IsMobile() {
		return strings.TrimSpace(mobileSinglePassSystem)
	}
	return strings.TrimSpace(browserSinglePassSystem)
}

func agenticSystem(platform schemas.Platform) string {
	if platform.IsMobile() {
		return strings.TrimSpace(mobileAgenticSystem)
	}
	return strings.TrimSpace(browserAgenticSystem)
}

func elementsBlock(b *strings.Builder, elements string) {
	b.WriteString("<elements>\n")
	b.WriteString(strings.TrimSpace(elements))
	b.WriteString("\n</elements>\n")
}

// -- Builders --

// BuildSinglePass composes the one-shot prompt asking for a JSON array of at
// most maxActions actions.
func BuildSinglePass(elements, goal string, maxActions int, platform schemas.Platform) schemas.PromptInput {
	if maxActions < 1 {
		maxActions = 1
	}

	var b strings.Builder
	b.WriteString("Interactable elements:\n")
	elementsBlock(&b, elements)
	b.WriteString("\nRequest:\n<user_request>\n")
	b.WriteString(strings.TrimSpace(goal))
	b.WriteString("\n</user_request>\n\n")
	fmt.Fprintf(&b, "Maximum number of actions:\n<max_actions>\n%d\n</max_actions>\n\n", maxActions)
	b.WriteString("Respond with the JSON array only.")

	return schemas.PromptInput{System: singlePassSystem(platform), User: b.String()}
}

// BuildAgenticInitial composes the opening messages of a loop run.
func BuildAgenticInitial(elements, goal string, platform schemas.Platform) schemas.PromptInput {
	var b strings.Builder
	b.WriteString("Goal:\n<user_request>\n")
	b.WriteString(strings.TrimSpace(goal))
	b.WriteString("\n</user_request>\n\n")
	b.WriteString("Current elements:\n")
	elementsBlock(&b, elements)
	b.WriteString("\nStart with your first Thought and the actions for step 1. Respond with the JSON object only.")

	return schemas.PromptInput{System: agenticSystem(platform), User: b.String()}
}

// FormatResult renders one action outcome as a single line, for example
// `✓ CLICK "#login"` or `✗ TAP "~Skip" -> element not found`.
func FormatResult(r schemas.ActionResult) string {
	if r.Success {
		return fmt.Sprintf("%s %s", successMark, r.Action)
	}
	return fmt.Sprintf("%s %s -> %s", failureMark, r.Action, r.Error)
}

// BuildObservation renders the feedback message appended after a step: a
// step header, one line per action and the refreshed element listing.
func BuildObservation(results []schemas.ActionResult, elements string, step, maxSteps int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Observation after step %d/%d:\n", step, maxSteps)

	if len(results) == 0 {
		b.WriteString("No actions were executed.\n")
	}
	failed := 0
	for _, r := range results {
		b.WriteString(FormatResult(r))
		b.WriteByte('\n')
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(&b, "%d of %d action(s) failed. Do not repeat them unchanged.\n", failed, len(results))
	}

	b.WriteString("\nUpdated elements:\n")
	elementsBlock(&b, elements)

	remaining := maxSteps - step
	fmt.Fprintf(&b, "\n%d step(s) remain. Decide the next actions, or set \"done\": true if the goal is achieved or no further progress is possible.", remaining)
	return b.String()
}

// BuildParseCorrection is the user message sent after a reply that could not
// be parsed. It restates the expected shape so the model can recover.
func BuildParseCorrection(err error) string {
	reason := "unreadable response"
	var pe *llmutil.ParseError
	switch {
	case errors.As(err, &pe):
		reason = pe.Reason
	case err != nil:
		reason = err.Error()
	}

	var b strings.Builder
	b.WriteString("Your previous response could not be parsed: ")
	b.WriteString(reason)
	b.WriteString("\nRespond again with ONLY a JSON object of the form ")
	b.WriteString(`{"reasoning": "...", "actions": [{"action": "...", "target": "..."}], "done": false}`)
	b.WriteString(fmt.Sprintf(". Valid action types: %s.", schemas.ValidActionNames()))
	return b.String()
}
