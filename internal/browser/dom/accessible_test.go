package dom_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/pilot-cli/internal/browser/dom"
)

func TestAccessible(t *testing.T) {
	records := []dom.Record{
		{Tag: "a", Href: "/home", Text: "Home"},
		{Tag: "a", Text: "No href"},
		{Tag: "input", Type: "text", Placeholder: "Username"},
		{Tag: "input", Type: "checkbox", Label: "Remember me"},
		{Tag: "button"},
		{Tag: "div", Role: "button", Text: "Menu"},
		{Tag: "div", Role: "presentation", Text: "Decor"},
		{Tag: "select", Label: "Country"},
	}

	got := dom.Accessible(records)

	roles := make([]string, 0, len(got))
	for _, r := range got {
		roles = append(roles, r.Role+":"+strings.TrimSpace(r.Text+r.Label+r.Placeholder))
	}
	assert.Equal(t, []string{
		"link:Home",
		"textbox:Username",
		"checkbox:Remember me",
		"button:Menu",
		"combobox:Country",
	}, roles)
}

func TestAccessible_DoesNotMutateInput(t *testing.T) {
	records := []dom.Record{{Tag: "button", Text: "Go"}}
	_ = dom.Accessible(records)
	assert.Empty(t, records[0].Role)
}

func TestScripts(t *testing.T) {
	visible := dom.SnapshotExpression(true)
	assert.True(t, strings.HasSuffix(visible, ", true)"))
	assert.Contains(t, visible, "function describe(el)")
	assert.True(t, strings.HasSuffix(dom.SnapshotExpression(false), ", false)"))

	collect := dom.CollectFunction()
	assert.True(t, strings.HasPrefix(collect, "(onlyVisible) =>"))
	assert.True(t, strings.HasSuffix(collect, ", onlyVisible)"))

	describe := dom.DescribeFunction()
	assert.True(t, strings.HasPrefix(describe, "function() { return ("))
	assert.Contains(t, describe, "(this)")
}
