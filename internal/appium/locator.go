// internal/appium/locator.go
package appium

import (
	"regexp"
	"strings"
)

// W3C and Appium locator strategies.
const (
	StrategyAccessibilityID = "accessibility id"
	StrategyID              = "id"
	StrategyXPath           = "xpath"
	StrategyClassName       = "class name"
	StrategyUIAutomator     = "-android uiautomator"
	StrategyPredicate       = "-ios predicate string"
	StrategyClassChain      = "-ios class chain"
)

// androidResourceID matches fully qualified resource ids like com.app:id/login.
var androidResourceID = regexp.MustCompile(`^[A-Za-z][\w.]*:id/[\w.]+$`)

// Locator is a resolved find-element request.
type Locator struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

// Locate maps a snapshot selector onto a WebDriver locator. The prefixes follow
// the mobile selector conventions used in element snapshots:
//
//	~name          accessibility id
//	id=...         resource id (Android) or element id
//	android=...    UiAutomator expression
//	ios=...        iOS predicate string
//	-ios class chain:...
//	class=...      class name
//	/... or (/...) XPath
//
// A bare Android resource id is accepted as is; anything else is treated as
// an accessibility id.
func Locate(selector string) Locator {
	s := strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(s, "~"):
		return Locator{StrategyAccessibilityID, s[1:]}
	case strings.HasPrefix(s, "id="):
		return Locator{StrategyID, s[len("id="):]}
	case strings.HasPrefix(s, "android="):
		return Locator{StrategyUIAutomator, s[len("android="):]}
	case strings.HasPrefix(s, "ios="):
		return Locator{StrategyPredicate, s[len("ios="):]}
	case strings.HasPrefix(s, StrategyPredicate+":"):
		return Locator{StrategyPredicate, s[len(StrategyPredicate)+1:]}
	case strings.HasPrefix(s, StrategyClassChain+":"):
		return Locator{StrategyClassChain, s[len(StrategyClassChain)+1:]}
	case strings.HasPrefix(s, "class="):
		return Locator{StrategyClassName, s[len("class="):]}
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "(/"):
		return Locator{StrategyXPath, s}
	case androidResourceID.MatchString(s):
		return Locator{StrategyID, s}
	default:
		return Locator{StrategyAccessibilityID, s}
	}
}
