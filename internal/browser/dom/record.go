// internal/browser/dom/record.go
package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// MaxTextLength bounds the visible text kept per element.
const MaxTextLength = 64

var cssIdent = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Record is the raw description of one interactable element. Records come
// from parsed HTML or from the in-page snapshot script, which emits the same
// JSON shape.
type Record struct {
	Tag         string `json:"tag"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameUnique  bool   `json:"nameUnique"`
	TestID      string `json:"testId"`
	Role        string `json:"role"`
	Text        string `json:"text"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Href        string `json:"href"`
	Type        string `json:"type"`
	XPath       string `json:"xpath"`
}

// Selector picks the most stable selector available: an id, then a test id,
// then a unique name, and finally the generated XPath.
func (r Record) Selector() string {
	switch {
	case r.ID != "" && cssIdent.MatchString(r.ID):
		return "#" + r.ID
	case r.TestID != "" && !strings.Contains(r.TestID, `"`):
		return fmt.Sprintf(`[data-testid="%s"]`, r.TestID)
	case r.Name != "" && r.NameUnique && !strings.Contains(r.Name, `"`):
		return fmt.Sprintf(`%s[name="%s"]`, strings.ToLower(r.Tag), r.Name)
	default:
		return r.XPath
	}
}

// Element converts the record into the snapshot form embedded in prompts.
// It returns false when no selector can target the element.
func (r Record) Element() (schemas.Element, bool) {
	selector := r.Selector()
	if selector == "" {
		return schemas.Element{}, false
	}
	return schemas.Element{
		Selector:    selector,
		Tag:         strings.ToLower(r.Tag),
		Role:        r.Role,
		Text:        truncateText(r.Text),
		Label:       truncateText(r.Label),
		Placeholder: r.Placeholder,
		Href:        r.Href,
		InputType:   strings.ToLower(r.Type),
		Name:        r.Name,
	}, true
}

// Elements converts records, dropping any that cannot be targeted.
func Elements(records []Record) []schemas.Element {
	out := make([]schemas.Element, 0, len(records))
	for _, r := range records {
		if el, ok := r.Element(); ok {
			out = append(out, el)
		}
	}
	return out
}

func truncateText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > MaxTextLength {
		return string(r[:MaxTextLength]) + "..."
	}
	return s
}
