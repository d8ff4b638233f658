package dom_test

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pilot-cli/internal/browser/dom"
)

const layoutHTML = `
	<html>
	<body>
		<div id="header">
			<h1>Welcome</h1>
		</div>
		<form class="login">
			<input name="user"><input name="pass" type="password">
			<button>Go</button>
		</form>
		<form class="login"><button>Again</button></form>
	</body>
	</html>
	`

func TestGenerateUniqueXPath(t *testing.T) {
	doc, err := htmlquery.Parse(strings.NewReader(layoutHTML))
	require.NoError(t, err)

	tests := []struct {
		name     string
		target   string
		expected string
	}{
		{"Body", "//body", "/html[1]/body[1]"},
		{"Element with ID", "//div[@id='header']", `//*[@id='header']`},
		{"Child of ID element", "//h1", `//*[@id='header']/h1[1]`},
		{"Second sibling of same tag", "//input[@name='pass']", "/html[1]/body[1]/form[1]/input[2]"},
		{"Same tag in second form", "(//button)[2]", "/html[1]/body[1]/form[2]/button[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := htmlquery.FindOne(doc, tt.target)
			require.NotNil(t, node, "setup: %s matched nothing", tt.target)

			got := dom.GenerateUniqueXPath(node)
			assert.Equal(t, tt.expected, got)
			assert.Same(t, node, htmlquery.FindOne(doc, got), "generated xpath must select the original node")
		})
	}

	assert.Empty(t, dom.GenerateUniqueXPath(nil))
}

func TestIsXPath(t *testing.T) {
	assert.True(t, dom.IsXPath("/html[1]/body[1]"))
	assert.True(t, dom.IsXPath(`//*[@id='x']/a[1]`))
	assert.True(t, dom.IsXPath("(//button)[2]"))
	assert.False(t, dom.IsXPath("#login-btn"))
	assert.False(t, dom.IsXPath(`input[name="q"]`))
}
