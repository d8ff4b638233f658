// internal/browser/dom/discover.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// A broad XPath finds candidates; filtering happens in Go.
const interactiveXPath = `
    //a[@href] | //button | //input | //textarea | //select | //summary |
    //*[normalize-space(@contenteditable)='true' or (@contenteditable and normalize-space(@contenteditable)='')] |
    //*[@role='button' or @role='link' or @role='tab' or @role='menuitem' or @role='checkbox' or @role='radio' or @role='switch' or @role='textbox' or @role='combobox']
`

// ParseHTML lists every interactable element of an HTML document.
func ParseHTML(source string) ([]schemas.Element, error) {
	doc, err := htmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return Elements(Discover(doc)), nil
}

// Discover finds interactable elements under doc in document order.
func Discover(doc *html.Node) []Record {
	candidates, err := htmlquery.QueryAll(doc, interactiveXPath)
	if err != nil {
		// The expression is a constant; a failure here is a programming error.
		panic(fmt.Sprintf("invalid interactive xpath: %v", err))
	}

	seen := make(map[*html.Node]bool, len(candidates))
	records := make([]Record, 0, len(candidates))
	for _, node := range candidates {
		if seen[node] || !isInteractable(node) {
			continue
		}
		seen[node] = true
		records = append(records, recordFor(doc, node))
	}
	return records
}

// isInteractable filters out structural, disabled and hidden candidates.
func isInteractable(node *html.Node) bool {
	tag := strings.ToLower(node.Data)
	if tag == "html" || tag == "body" {
		return false
	}
	if hasAttr(node, "disabled") || hasAttr(node, "hidden") {
		return false
	}
	if strings.EqualFold(htmlquery.SelectAttr(node, "aria-disabled"), "true") {
		return false
	}
	if tag == "input" && strings.EqualFold(htmlquery.SelectAttr(node, "type"), "hidden") {
		return false
	}
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasAttr(p, "hidden") {
			return false
		}
	}
	return true
}

func recordFor(doc, node *html.Node) Record {
	tag := strings.ToLower(node.Data)
	r := Record{
		Tag:         tag,
		ID:          htmlquery.SelectAttr(node, "id"),
		Name:        htmlquery.SelectAttr(node, "name"),
		TestID:      htmlquery.SelectAttr(node, "data-testid"),
		Role:        htmlquery.SelectAttr(node, "role"),
		Placeholder: htmlquery.SelectAttr(node, "placeholder"),
		Href:        htmlquery.SelectAttr(node, "href"),
		Type:        htmlquery.SelectAttr(node, "type"),
		XPath:       GenerateUniqueXPath(node),
	}

	switch tag {
	case "input", "textarea", "select":
		// Form controls have no meaningful inner text; a button-like input
		// shows its value instead.
		if tag == "input" {
			switch strings.ToLower(r.Type) {
			case "submit", "button", "reset":
				r.Text = htmlquery.SelectAttr(node, "value")
			}
		}
	default:
		r.Text = htmlquery.InnerText(node)
	}

	r.Label = labelFor(doc, node, r.ID)
	if r.Name != "" && !strings.Contains(r.Name, "'") {
		matches := htmlquery.Find(doc, fmt.Sprintf("//%s[@name='%s']", tag, r.Name))
		r.NameUnique = len(matches) == 1
	}
	return r
}

// labelFor resolves an accessible label: aria-label, a <label for=id>, an
// enclosing <label>, then title.
func labelFor(doc, node *html.Node, id string) string {
	if v := htmlquery.SelectAttr(node, "aria-label"); v != "" {
		return v
	}
	if id != "" && !strings.Contains(id, "'") {
		if label := htmlquery.FindOne(doc, fmt.Sprintf("//label[@for='%s']", id)); label != nil {
			return htmlquery.InnerText(label)
		}
	}
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.EqualFold(p.Data, "label") {
			return htmlquery.InnerText(p)
		}
	}
	return htmlquery.SelectAttr(node, "title")
}

func hasAttr(node *html.Node, key string) bool {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}
