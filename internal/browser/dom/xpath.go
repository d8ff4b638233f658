// internal/browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// IsXPath reports whether a selector is an XPath expression rather than CSS.
// Drivers use it to pick the matching query strategy.
func IsXPath(selector string) bool {
	s := strings.TrimSpace(selector)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(/")
}

// GenerateUniqueXPath builds an XPath that selects exactly node. The nearest
// ancestor with an id anchors the path; otherwise it is absolute from <html>.
func GenerateUniqueXPath(node *html.Node) string {
	if node == nil || node.Type != html.ElementNode {
		return ""
	}

	var segments []string
	anchored := false
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode || n.Data == "" {
			continue
		}
		if id := htmlquery.SelectAttr(n, "id"); id != "" && !strings.Contains(id, "'") {
			segments = append(segments, fmt.Sprintf(`//*[@id='%s']`, id))
			anchored = true
			break
		}
		tag := strings.ToLower(n.Data)
		segments = append(segments, fmt.Sprintf("%s[%d]", tag, siblingIndex(n, tag)))
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	path := strings.Join(segments, "/")
	if !anchored {
		path = "/" + path
	}
	return path
}

// siblingIndex is the 1-based position of n among preceding siblings sharing its tag.
func siblingIndex(n *html.Node, tag string) int {
	index := 1
	for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.ElementNode && strings.EqualFold(prev.Data, tag) {
			index++
		}
	}
	return index
}
