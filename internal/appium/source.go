// internal/appium/source.go
package appium

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

const maxTextLength = 64

// iosInteractive lists the XCUITest element types offered to the model.
var iosInteractive = map[string]bool{
	"Button": true, "TextField": true, "SecureTextField": true, "SearchField": true,
	"TextView": true, "Switch": true, "Link": true, "Cell": true, "Slider": true,
	"SegmentedControl": true, "PickerWheel": true, "Tab": true, "MenuItem": true,
	"CheckBox": true, "Toggle": true, "Key": true,
}

// ParseSource turns an Appium page source document into the visible,
// interactable elements of the screen.
func ParseSource(platform schemas.Platform, source string) ([]schemas.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(source); err != nil {
		return nil, fmt.Errorf("failed to parse page source: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return []schemas.Element{}, nil
	}

	p := sourceParser{platform: platform, counts: make(map[string]int)}
	p.countIDs(root)
	p.walk(root, "/"+root.Tag)
	return p.elements, nil
}

type sourceParser struct {
	platform schemas.Platform
	counts   map[string]int
	elements []schemas.Element
}

// countIDs records how often each resource id occurs so that only unique ids
// become selectors.
func (p *sourceParser) countIDs(el *etree.Element) {
	if id := el.SelectAttrValue("resource-id", ""); id != "" {
		p.counts[id]++
	}
	for _, child := range el.ChildElements() {
		p.countIDs(child)
	}
}

// walk visits el, whose absolute XPath is path, and its subtree.
func (p *sourceParser) walk(el *etree.Element, path string) {
	if hidden(el) {
		return
	}

	var (
		element schemas.Element
		ok      bool
	)
	if p.platform == schemas.PlatformIOS {
		element, ok = p.iosElement(el, path)
	} else {
		element, ok = p.androidElement(el, path)
	}
	if ok {
		p.elements = append(p.elements, element)
	}

	for _, child := range el.ChildElements() {
		p.walk(child, fmt.Sprintf("%s/%s[%d]", path, child.Tag, siblingIndex(child)))
	}
}

func (p *sourceParser) androidElement(el *etree.Element, path string) (schemas.Element, bool) {
	class := el.SelectAttrValue("class", el.Tag)
	editable := strings.HasSuffix(class, "EditText")
	if !editable && !isTrue(el, "clickable") && !isTrue(el, "checkable") && !isTrue(el, "long-clickable") {
		return schemas.Element{}, false
	}
	if el.SelectAttrValue("enabled", "true") == "false" {
		return schemas.Element{}, false
	}

	desc := el.SelectAttrValue("content-desc", "")
	resourceID := el.SelectAttrValue("resource-id", "")
	text := el.SelectAttrValue("text", "")
	if text == "" && !editable {
		text = descendantText(el)
	}

	element := schemas.Element{
		Tag:        shortClass(class),
		Text:       truncate(text),
		Label:      desc,
		ResourceID: resourceID,
	}
	if editable {
		element.Text = ""
		element.Placeholder = el.SelectAttrValue("hint", "")
		if isTrue(el, "password") {
			element.InputType = "password"
		}
	}

	switch {
	case desc != "" && !strings.Contains(desc, "\n"):
		element.Selector = "~" + desc
	case resourceID != "" && p.counts[resourceID] == 1:
		element.Selector = "id=" + resourceID
	default:
		element.Selector = path
	}
	return element, true
}

func (p *sourceParser) iosElement(el *etree.Element, path string) (schemas.Element, bool) {
	kind := strings.TrimPrefix(el.SelectAttrValue("type", el.Tag), "XCUIElementType")
	if !iosInteractive[kind] {
		return schemas.Element{}, false
	}
	if el.SelectAttrValue("enabled", "true") == "false" {
		return schemas.Element{}, false
	}

	name := el.SelectAttrValue("name", "")
	label := el.SelectAttrValue("label", "")
	value := el.SelectAttrValue("value", "")

	element := schemas.Element{
		Tag:   kind,
		Name:  name,
		Label: label,
	}
	switch kind {
	case "TextField", "SecureTextField", "SearchField", "TextView":
		element.Placeholder = el.SelectAttrValue("placeholderValue", "")
		if kind == "SecureTextField" {
			element.InputType = "password"
		}
	default:
		element.Text = truncate(value)
	}

	if name != "" && !strings.Contains(name, "\n") {
		element.Selector = "~" + name
	} else {
		element.Selector = path
	}
	return element, true
}

// -- Helpers --

func hidden(el *etree.Element) bool {
	return el.SelectAttrValue("displayed", "true") == "false" ||
		el.SelectAttrValue("visible", "true") == "false"
}

func isTrue(el *etree.Element, attr string) bool {
	return el.SelectAttrValue(attr, "false") == "true"
}

// siblingIndex is the 1-based position of el among siblings sharing its tag.
func siblingIndex(el *etree.Element) int {
	parent := el.Parent()
	if parent == nil {
		return 1
	}
	index := 0
	for _, sibling := range parent.ChildElements() {
		if sibling.Tag == el.Tag {
			index++
		}
		if sibling == el {
			return index
		}
	}
	return 1
}

// descendantText is the first non-empty text attribute below el, used for
// clickable containers that wrap a label.
func descendantText(el *etree.Element) string {
	for _, child := range el.ChildElements() {
		if t := child.SelectAttrValue("text", ""); t != "" {
			return t
		}
		if t := descendantText(child); t != "" {
			return t
		}
	}
	return ""
}

func shortClass(class string) string {
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[i+1:]
	}
	return class
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxTextLength {
		return s
	}
	return string(runes[:maxTextLength]) + "..."
}
