// Package selector defines how screen objects identify UI elements:
// locator strategies, selectors, element handles and per-platform tables.
package selector

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
)

// Strategy is a W3C/Appium locator strategy.
type Strategy string

// Supported strategies.
const (
	ByID                 Strategy = "id"
	ByXPath              Strategy = "xpath"
	ByAccessibilityID    Strategy = "accessibility id"
	ByClassName          Strategy = "class name"
	ByAndroidUIAutomator Strategy = "-android uiautomator"
	ByIOSPredicate       Strategy = "-ios predicate string"
	ByIOSClassChain      Strategy = "-ios class chain"
)

// strategyKeys maps the short keys used in selector files to strategies.
var strategyKeys = map[string]Strategy{
	"id":            ByID,
	"xpath":         ByXPath,
	"accessibility": ByAccessibilityID,
	"class":         ByClassName,
	"uiautomator":   ByAndroidUIAutomator,
	"predicate":     ByIOSPredicate,
	"classChain":    ByIOSClassChain,
}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	for _, known := range strategyKeys {
		if s == known {
			return true
		}
	}
	return false
}

// Target is either a Selector (locate on use) or a Handle (already located).
// Only this package's types implement it.
type Target interface {
	target()
	String() string
}

// Selector identifies zero or more elements on the current screen.
type Selector struct {
	Strategy Strategy
	Value    string
}

func (Selector) target() {}

// String returns "strategy=value" for logs and error messages.
func (s Selector) String() string {
	return fmt.Sprintf("%s=%s", s.Strategy, s.Value)
}

// ID builds a resource-id selector.
func ID(value string) Selector { return Selector{Strategy: ByID, Value: value} }

// XPath builds an XPath selector.
func XPath(value string) Selector { return Selector{Strategy: ByXPath, Value: value} }

// AccessibilityID builds an accessibility id selector.
func AccessibilityID(value string) Selector {
	return Selector{Strategy: ByAccessibilityID, Value: value}
}

// Handle is a located element. It is only valid while its screen is shown,
// so callers re-locate for every action instead of keeping handles.
type Handle struct {
	ID string
}

func (Handle) target() {}

// String returns the element ID.
func (h Handle) String() string { return "element:" + h.ID }

// Platform is the mobile OS under test.
type Platform int

// Platforms.
const (
	Android Platform = iota + 1
	IOS
)

// String returns the lowercase platform name used in configs and paths.
func (p Platform) String() string {
	switch p {
	case Android:
		return "android"
	case IOS:
		return "ios"
	default:
		return "unknown"
	}
}

// ParsePlatform converts a config platform name (any case) to a Platform.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "android":
		return Android, nil
	case "ios":
		return IOS, nil
	default:
		return 0, core.ErrUnsupportedPlatform.
			WithMessagef("unknown test platform %q, please use ios or android", name)
	}
}
