// Package elements renders UI element snapshots into the compact text the
// prompts embed.
package elements

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// Style selects an element encoding.
type Style string

const (
	// StyleYAMLLike lists one element per YAML sequence item with empty
	// fields omitted. Small models follow it most reliably.
	StyleYAMLLike Style = "yaml-like"
	// StyleTabular is a header plus one CSV row per element. Cheaper in
	// tokens for larger models.
	StyleTabular Style = "tabular"
)

// EmptySnapshot is the listing used when a screen has no interactable elements.
const EmptySnapshot = "(no interactable elements found)"

// ParseStyle validates a configured encoding name. Empty means yaml-like.
func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleYAMLLike, StyleTabular:
		return st, nil
	case "":
		return StyleYAMLLike, nil
	default:
		return "", fmt.Errorf("unknown element encoding %q (valid: yaml-like, tabular)", s)
	}
}

// Encode renders elements in the given style.
func Encode(elements []schemas.Element, style Style) (string, error) {
	if len(elements) == 0 {
		return EmptySnapshot, nil
	}
	switch style {
	case StyleYAMLLike, "":
		return encodeYAML(elements)
	case StyleTabular:
		return encodeTabular(elements)
	default:
		return "", fmt.Errorf("unknown element encoding %q", style)
	}
}

func encodeYAML(elements []schemas.Element) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(elements); err != nil {
		return "", fmt.Errorf("failed to encode elements as YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to flush YAML encoder: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// column is one tabular field and its accessor.
type column struct {
	name string
	get  func(schemas.Element) string
}

var allColumns = []column{
	{"selector", func(e schemas.Element) string { return e.Selector }},
	{"tag", func(e schemas.Element) string { return e.Tag }},
	{"role", func(e schemas.Element) string { return e.Role }},
	{"text", func(e schemas.Element) string { return e.Text }},
	{"label", func(e schemas.Element) string { return e.Label }},
	{"placeholder", func(e schemas.Element) string { return e.Placeholder }},
	{"type", func(e schemas.Element) string { return e.InputType }},
	{"name", func(e schemas.Element) string { return e.Name }},
	{"href", func(e schemas.Element) string { return e.Href }},
	{"resourceId", func(e schemas.Element) string { return e.ResourceID }},
}

// encodeTabular writes `elements[N]{col,...}:` followed by CSV rows. Columns
// that are empty for every element are dropped; selector is always kept.
func encodeTabular(elements []schemas.Element) (string, error) {
	var cols []column
	for i, c := range allColumns {
		if i == 0 || anyValue(elements, c) {
			cols = append(cols, c)
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "elements[%d]{%s}:\n", len(elements), strings.Join(names, ","))

	w := csv.NewWriter(&buf)
	row := make([]string, len(cols))
	for _, e := range elements {
		for i, c := range cols {
			row[i] = singleLine(c.get(e))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to encode element row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to encode elements as table: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func anyValue(elements []schemas.Element, c column) bool {
	for _, e := range elements {
		if c.get(e) != "" {
			return true
		}
	}
	return false
}

// singleLine collapses whitespace runs so a row never spans lines.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
