// internal/browser/session/snapshot.go
package session

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/accessibility"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/browser/dom"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// interactiveRoles are the accessibility roles listed by the a11y snapshot.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "searchbox": true, "checkbox": true,
	"radio": true, "combobox": true, "listbox": true, "menuitem": true, "menuitemcheckbox": true,
	"menuitemradio": true, "option": true, "switch": true, "tab": true, "slider": true, "spinbutton": true,
}

// Snapshot lists the interactable elements of the current page.
func (s *Session) Snapshot(ctx context.Context, mode schemas.SnapshotMode) ([]schemas.Element, error) {
	var (
		records []dom.Record
		err     error
	)
	switch mode {
	case schemas.SnapshotVisible, "":
		err = s.runActions(ctx, s.actionTimeout(), chromedp.Evaluate(dom.SnapshotExpression(true), &records))
	case schemas.SnapshotAll:
		var source string
		if err = s.runActions(ctx, s.actionTimeout(), chromedp.OuterHTML("html", &source, chromedp.ByQuery)); err == nil {
			return dom.ParseHTML(source)
		}
	case schemas.SnapshotA11y:
		err = s.runActions(ctx, s.actionTimeout(), chromedp.ActionFunc(func(c context.Context) error {
			var aerr error
			records, aerr = s.accessibilityRecords(c)
			return aerr
		}))
	default:
		return nil, fmt.Errorf("unsupported snapshot mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%s snapshot failed: %w", mode, err)
	}

	s.logger.Debug("Snapshot taken", zap.String("mode", string(mode)), zap.Int("elements", len(records)))
	return dom.Elements(records), nil
}

// accessibilityRecords walks the full accessibility tree and describes every
// node with an interactive role and a backing DOM node.
func (s *Session) accessibilityRecords(ctx context.Context) ([]dom.Record, error) {
	nodes, err := accessibility.GetFullAXTree().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read accessibility tree: %w", err)
	}

	describe := dom.DescribeFunction()
	records := make([]dom.Record, 0, len(nodes)/4)
	for _, node := range nodes {
		if node.Ignored || node.BackendDOMNodeID == 0 {
			continue
		}
		role := axString(node.Role)
		if !interactiveRoles[role] {
			continue
		}

		obj, err := cdpdom.ResolveNode().WithBackendNodeID(node.BackendDOMNodeID).Do(ctx)
		if err != nil || obj == nil {
			s.logger.Debug("Could not resolve accessibility node", zap.String("role", role), zap.Error(err))
			continue
		}
		res, exc, err := runtime.CallFunctionOn(describe).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		if err != nil || exc != nil || res == nil {
			continue
		}

		var rec dom.Record
		if err := json.Unmarshal([]byte(res.Value), &rec); err != nil {
			continue
		}
		rec.Role = role
		if name := axString(node.Name); name != "" {
			rec.Label = name
		}
		records = append(records, rec)
	}
	return records, nil
}

// axString decodes an accessibility value holding a string.
func axString(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(v.Value), &s); err != nil {
		return ""
	}
	return s
}
