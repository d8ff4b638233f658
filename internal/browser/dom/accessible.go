// internal/browser/dom/accessible.go
package dom

import "strings"

// implicitRole maps a record to the ARIA role its element carries without an
// explicit role attribute.
func implicitRole(r Record) string {
	switch strings.ToLower(r.Tag) {
	case "a":
		if r.Href != "" {
			return "link"
		}
	case "button", "summary":
		return "button"
	case "select":
		return "combobox"
	case "textarea":
		return "textbox"
	case "input":
		switch strings.ToLower(r.Type) {
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "button", "submit", "reset", "image":
			return "button"
		case "range":
			return "slider"
		case "number":
			return "spinbutton"
		case "search":
			return "searchbox"
		default:
			return "textbox"
		}
	}
	return ""
}

// Accessible keeps the records exposed to assistive technology: those with a
// role and an accessible name. Missing roles are filled in from the tag.
func Accessible(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Role == "" {
			r.Role = implicitRole(r)
		}
		if r.Role == "" || r.Role == "presentation" || r.Role == "none" {
			continue
		}
		if strings.TrimSpace(r.Label) == "" && strings.TrimSpace(r.Text) == "" &&
			strings.TrimSpace(r.Placeholder) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
