// File: api/schemas/session.go
package schemas

import (
	"context"
	"fmt"
	"strings"
)

// Platform identifies the kind of automation target.
type Platform string

const (
	PlatformBrowser Platform = "browser"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// IsMobile reports whether the platform is driven through Appium.
func (p Platform) IsMobile() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// SnapshotMode selects which elements a snapshot includes.
type SnapshotMode string

const (
	SnapshotVisible SnapshotMode = "visible" // Interactable elements inside the viewport.
	SnapshotA11y    SnapshotMode = "a11y"    // Accessibility tree nodes with a role and name.
	SnapshotAll     SnapshotMode = "all"     // Every interactable element in the document.
)

// ParseSnapshotMode validates a configured snapshot mode.
func ParseSnapshotMode(s string) (SnapshotMode, error) {
	switch m := SnapshotMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SnapshotVisible, SnapshotA11y, SnapshotAll:
		return m, nil
	case "":
		return SnapshotVisible, nil
	default:
		return "", fmt.Errorf("unknown snapshot mode %q (valid: visible, a11y, all)", s)
	}
}

// Element describes one interactable UI element in a snapshot.
type Element struct {
	Selector    string `json:"selector" yaml:"selector"`
	Tag         string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Role        string `json:"role,omitempty" yaml:"role,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Href        string `json:"href,omitempty" yaml:"href,omitempty"`
	InputType   string `json:"type,omitempty" yaml:"type,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	ResourceID  string `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`
}

// Session is the capability surface consumed by the action executor.
// Implementations are single-occupancy: callers never issue concurrent commands.
type Session interface {
	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error
	// SetValue replaces the element's value with text.
	SetValue(ctx context.Context, selector string, text string) error
	// Tap taps the element matching selector.
	Tap(ctx context.Context, selector string) error
	// Navigate loads url in the current window.
	Navigate(ctx context.Context, url string) error
	// Platform reports the automation platform.
	Platform() Platform
}

// Snapshotter lists the interactable elements of the current screen.
type Snapshotter interface {
	Snapshot(ctx context.Context, mode SnapshotMode) ([]Element, error)
}

// Driver is a live automation session together with its snapshot source.
type Driver interface {
	Session
	Snapshotter
	Close(ctx context.Context) error
}
