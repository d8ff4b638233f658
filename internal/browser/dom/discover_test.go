package dom_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/browser/dom"
)

const loginHTML = `
<html><body>
  <nav><a href="/home">Home</a> <a>No href</a></nav>
  <form>
    <label for="username">User name</label>
    <input id="username" type="text" placeholder="Username">
    <input name="password" type="password">
    <input type="hidden" name="csrf" value="x">
    <input type="submit" value="Sign in">
    <button id="login-btn">Login</button>
    <button disabled>Disabled</button>
    <button aria-disabled="true">Also disabled</button>
  </form>
  <div hidden><button>Invisible</button></div>
  <div role="button" data-testid="menu-toggle">Menu</div>
  <label>Remember me <input type="checkbox" name="remember"></label>
  <input name="q"><input name="q">
</body></html>`

func TestParseHTML(t *testing.T) {
	elements, err := dom.ParseHTML(loginHTML)
	require.NoError(t, err)

	bySelector := make(map[string]schemas.Element, len(elements))
	for _, el := range elements {
		bySelector[el.Selector] = el
	}

	assert.Equal(t, schemas.Element{Selector: "#login-btn", Tag: "button", Text: "Login"}, bySelector["#login-btn"])
	assert.Equal(t, schemas.Element{
		Selector: "#username", Tag: "input", Label: "User name", Placeholder: "Username", InputType: "text",
	}, bySelector["#username"])
	assert.Equal(t, "password", bySelector[`input[name="password"]`].InputType, "unique names are used as selectors")
	assert.Equal(t, "Menu", bySelector[`[data-testid="menu-toggle"]`].Text)
	assert.Equal(t, "Remember me", bySelector[`input[name="remember"]`].Label)
	assert.Equal(t, "/home", bySelector["/html[1]/body[1]/nav[1]/a[1]"].Href)

	var submit *schemas.Element
	for i := range elements {
		if elements[i].InputType == "submit" {
			submit = &elements[i]
		}
	}
	require.NotNil(t, submit)
	assert.Equal(t, "Sign in", submit.Text, "button-like inputs show their value")

	for _, el := range elements {
		assert.NotContains(t, []string{"Disabled", "Also disabled", "Invisible", "No href"}, el.Text)
		assert.NotEqual(t, "hidden", el.InputType)
	}

	var duplicateNames int
	for _, el := range elements {
		if el.Name == "q" {
			duplicateNames++
			assert.True(t, dom.IsXPath(el.Selector), "duplicated names fall back to xpath, got %s", el.Selector)
		}
	}
	assert.Equal(t, 2, duplicateNames)
}

func TestParseHTML_Empty(t *testing.T) {
	elements, err := dom.ParseHTML("<html><body><p>Nothing to click</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, elements)
}

func TestRecord_Selector(t *testing.T) {
	tests := []struct {
		name   string
		record dom.Record
		want   string
	}{
		{"id wins", dom.Record{Tag: "button", ID: "go", TestID: "t", XPath: "/x"}, "#go"},
		{"id that is not a css identifier", dom.Record{Tag: "div", ID: "1st", XPath: "/html[1]/div[1]"}, "/html[1]/div[1]"},
		{"test id", dom.Record{Tag: "div", TestID: "cart", XPath: "/x"}, `[data-testid="cart"]`},
		{"unique name", dom.Record{Tag: "INPUT", Name: "email", NameUnique: true, XPath: "/x"}, `input[name="email"]`},
		{"shared name", dom.Record{Tag: "input", Name: "email", XPath: "/x"}, "/x"},
		{"nothing", dom.Record{Tag: "a"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Selector())
		})
	}
}

func TestElements_TruncatesTextAndDropsUntargetable(t *testing.T) {
	long := strings.Repeat("word ", 30)
	elements := dom.Elements([]dom.Record{
		{Tag: "A", ID: "more", Text: "  Read\n\tmore  "},
		{Tag: "p", Text: long},
		{Tag: "button", ID: "long", Text: long},
	})

	require.Len(t, elements, 2)
	assert.Equal(t, "Read more", elements[0].Text)
	assert.Equal(t, "a", elements[0].Tag)
	assert.Len(t, []rune(elements[1].Text), dom.MaxTextLength+3)
	assert.True(t, strings.HasSuffix(elements[1].Text, "..."))
}
