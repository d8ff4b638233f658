// internal/browser/dom/scripts.go
package dom

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed describe.js
var describeScript string

//go:embed snapshot.js
var snapshotScript string

// SnapshotExpression evaluates to the records of the page's interactable
// elements, optionally only those inside the viewport.
func SnapshotExpression(onlyVisible bool) string {
	return fmt.Sprintf("(%s)(%s, %t)", strings.TrimSpace(snapshotScript), strings.TrimSpace(describeScript), onlyVisible)
}

// CollectFunction is the snapshot as a one-argument page function; the
// argument selects viewport-only collection.
func CollectFunction() string {
	return fmt.Sprintf("(onlyVisible) => (%s)(%s, onlyVisible)", strings.TrimSpace(snapshotScript), strings.TrimSpace(describeScript))
}

// DescribeFunction is called on a resolved node with `this` bound to it.
func DescribeFunction() string {
	return fmt.Sprintf("function() { return (%s)(this); }", strings.TrimSpace(describeScript))
}
