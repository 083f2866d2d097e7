package core

import (
	"strings"
	"time"
)

// Session is the capability surface of a remote automation session.
// Implementations: appium.Client (W3C WebDriver over HTTP), mock.Session.
// Element handles are opaque IDs valid only while their screen is shown.
type Session interface {
	// FindElements returns every match for the locator, possibly none.
	FindElements(using, value string) ([]string, error)
	// FindChildElements searches within a parent element.
	FindChildElements(parentID, using, value string) ([]string, error)

	ClickElement(elementID string) error
	ClearElement(elementID string) error
	SendElementKeys(elementID, text string) error
	GetElementText(elementID string) (string, error)
	GetElementAttribute(elementID, name string) (string, error)
	IsElementDisplayed(elementID string) (bool, error)
	IsElementEnabled(elementID string) (bool, error)

	Swipe(startX, startY, endX, endY, durationMs int) error
	PressKeyCode(keycode int) error
	BackgroundApp(d time.Duration) error
	ExecuteMobile(command string, args map[string]interface{}) (interface{}, error)
	ScreenSize() (int, int)

	// GetAlertText fails while no system alert is shown.
	GetAlertText() (string, error)

	// Screenshot returns PNG bytes.
	Screenshot() ([]byte, error)
	StartRecordingScreen(options map[string]interface{}) error
	// StopRecordingScreen returns the base64 encoded video.
	StopRecordingScreen() (string, error)

	Disconnect() error
}

// Android key codes used by the suite.
const (
	KeycodeBack  = 4
	KeycodeEnter = 66
	KeycodeTab   = 61
)

// IsStaleElement reports whether err means the element went away between
// locating and probing it. Waits treat that as "not yet" instead of a fault.
func IsStaleElement(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "stale element reference") ||
		strings.Contains(msg, "no such element")
}
