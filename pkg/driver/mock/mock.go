// Package mock provides an in-memory core.Session for testing without a
// device or an Appium server.
package mock

import (
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
)

// PNG is what Screenshot returns.
var PNG = []byte("\x89PNG\r\n\x1a\nmock")

// Video is the decoded recording returned by StopRecordingScreen.
var Video = []byte("mock-video")

// Element is a fake UI element.
type Element struct {
	ID     string
	Using  string // locator strategy that finds it
	Value  string // locator value that finds it
	Parent string // parent element ID for child lookups

	Text       string
	Attributes map[string]string
	Hidden     bool
	Disabled   bool

	// Navigate switches to the named screen when the element is clicked.
	Navigate string
}

// Config configures the fake device.
type Config struct {
	Platform string
	ScreenW  int
	ScreenH  int
	// Screens maps a screen name to the elements it shows.
	Screens map[string][]Element
	// Start is the screen shown first.
	Start string
}

// Call is one recorded session call.
type Call struct {
	Method string
	Args   []interface{}
}

// Session implements core.Session against a scripted set of screens.
type Session struct {
	Config Config

	// Errors makes a method fail with the given error, keyed by method name.
	Errors map[string]error
	// Alert is the text of the system alert on screen, empty for none.
	Alert string

	Calls     []Call
	Typed     map[string]string
	screen    string
	recording bool
	closed    bool
}

var _ core.Session = (*Session)(nil)

// New creates a mock session showing cfg.Start.
func New(cfg Config) *Session {
	if cfg.Platform == "" {
		cfg.Platform = "android"
	}
	if cfg.ScreenW == 0 {
		cfg.ScreenW = 1080
	}
	if cfg.ScreenH == 0 {
		cfg.ScreenH = 1920
	}
	if cfg.Screens == nil {
		cfg.Screens = map[string][]Element{}
	}
	return &Session{
		Config: cfg,
		Errors: map[string]error{},
		Typed:  map[string]string{},
		screen: cfg.Start,
	}
}

// Show switches the current screen.
func (s *Session) Show(screen string) {
	s.screen = screen
}

// Screen returns the current screen name.
func (s *Session) Screen() string {
	return s.screen
}

// Update changes an element on the current screen in place.
func (s *Session) Update(id string, fn func(*Element)) {
	elems := s.Config.Screens[s.screen]
	for i := range elems {
		if elems[i].ID == id {
			fn(&elems[i])
		}
	}
}

// Add puts an element on the current screen.
func (s *Session) Add(el Element) {
	s.Config.Screens[s.screen] = append(s.Config.Screens[s.screen], el)
}

// Remove takes an element off the current screen.
func (s *Session) Remove(id string) {
	elems := s.Config.Screens[s.screen]
	kept := elems[:0]
	for _, el := range elems {
		if el.ID != id {
			kept = append(kept, el)
		}
	}
	s.Config.Screens[s.screen] = kept
}

// Count returns how many times method was called.
func (s *Session) Count(method string) int {
	n := 0
	for _, c := range s.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Recording reports whether a screen recording is in progress.
func (s *Session) Recording() bool {
	return s.recording
}

// Closed reports whether Disconnect was called.
func (s *Session) Closed() bool {
	return s.closed
}

// Methods returns the distinct method names called, sorted.
func (s *Session) Methods() []string {
	seen := map[string]bool{}
	for _, c := range s.Calls {
		seen[c.Method] = true
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s *Session) record(method string, args ...interface{}) error {
	s.Calls = append(s.Calls, Call{Method: method, Args: args})
	if s.closed && method != "Disconnect" {
		return core.ErrSessionNotOpen
	}
	return s.Errors[method]
}

func (s *Session) element(id string) (*Element, error) {
	elems := s.Config.Screens[s.screen]
	for i := range elems {
		if elems[i].ID == id {
			return &elems[i], nil
		}
	}
	return nil, fmt.Errorf("stale element reference: %s is no longer on screen", id)
}

func (s *Session) match(parent, using, value string) []string {
	var ids []string
	for _, el := range s.Config.Screens[s.screen] {
		if el.Using == using && el.Value == value && el.Parent == parent {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// FindElements returns the IDs of top level matches on the current screen.
func (s *Session) FindElements(using, value string) ([]string, error) {
	if err := s.record("FindElements", using, value); err != nil {
		return nil, err
	}
	return s.match("", using, value), nil
}

// FindChildElements returns matches whose parent is parentID.
func (s *Session) FindChildElements(parentID, using, value string) ([]string, error) {
	if err := s.record("FindChildElements", parentID, using, value); err != nil {
		return nil, err
	}
	if _, err := s.element(parentID); err != nil {
		return nil, err
	}
	return s.match(parentID, using, value), nil
}

// ClickElement clicks, following Navigate when set.
func (s *Session) ClickElement(elementID string) error {
	if err := s.record("ClickElement", elementID); err != nil {
		return err
	}
	el, err := s.element(elementID)
	if err != nil {
		return err
	}
	if el.Navigate != "" {
		s.screen = el.Navigate
	}
	return nil
}

// ClearElement empties typed text.
func (s *Session) ClearElement(elementID string) error {
	if err := s.record("ClearElement", elementID); err != nil {
		return err
	}
	if _, err := s.element(elementID); err != nil {
		return err
	}
	s.Typed[elementID] = ""
	return nil
}

// SendElementKeys appends to the element's typed text.
func (s *Session) SendElementKeys(elementID, text string) error {
	if err := s.record("SendElementKeys", elementID, text); err != nil {
		return err
	}
	if _, err := s.element(elementID); err != nil {
		return err
	}
	s.Typed[elementID] += text
	return nil
}

// GetElementText returns the element text.
func (s *Session) GetElementText(elementID string) (string, error) {
	if err := s.record("GetElementText", elementID); err != nil {
		return "", err
	}
	el, err := s.element(elementID)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

// GetElementAttribute returns an attribute, empty when unset.
func (s *Session) GetElementAttribute(elementID, name string) (string, error) {
	if err := s.record("GetElementAttribute", elementID, name); err != nil {
		return "", err
	}
	el, err := s.element(elementID)
	if err != nil {
		return "", err
	}
	return el.Attributes[name], nil
}

// IsElementDisplayed reports !Hidden.
func (s *Session) IsElementDisplayed(elementID string) (bool, error) {
	if err := s.record("IsElementDisplayed", elementID); err != nil {
		return false, err
	}
	el, err := s.element(elementID)
	if err != nil {
		return false, err
	}
	return !el.Hidden, nil
}

// IsElementEnabled reports !Disabled.
func (s *Session) IsElementEnabled(elementID string) (bool, error) {
	if err := s.record("IsElementEnabled", elementID); err != nil {
		return false, err
	}
	el, err := s.element(elementID)
	if err != nil {
		return false, err
	}
	return !el.Disabled, nil
}

func (s *Session) Swipe(startX, startY, endX, endY, durationMs int) error {
	return s.record("Swipe", startX, startY, endX, endY, durationMs)
}

func (s *Session) PressKeyCode(keycode int) error {
	return s.record("PressKeyCode", keycode)
}

func (s *Session) BackgroundApp(d time.Duration) error {
	return s.record("BackgroundApp", d)
}

func (s *Session) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	if err := s.record("ExecuteMobile", command, args); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Session) ScreenSize() (int, int) {
	return s.Config.ScreenW, s.Config.ScreenH
}

// GetAlertText fails unless Alert is set.
func (s *Session) GetAlertText() (string, error) {
	if err := s.record("GetAlertText"); err != nil {
		return "", err
	}
	if s.Alert == "" {
		return "", fmt.Errorf("no such alert: no alert is open")
	}
	return s.Alert, nil
}

// Screenshot returns PNG.
func (s *Session) Screenshot() ([]byte, error) {
	if err := s.record("Screenshot"); err != nil {
		return nil, err
	}
	return PNG, nil
}

func (s *Session) StartRecordingScreen(options map[string]interface{}) error {
	if err := s.record("StartRecordingScreen", options); err != nil {
		return err
	}
	s.recording = true
	return nil
}

// StopRecordingScreen returns Video base64 encoded.
func (s *Session) StopRecordingScreen() (string, error) {
	if err := s.record("StopRecordingScreen"); err != nil {
		return "", err
	}
	s.recording = false
	return base64.StdEncoding.EncodeToString(Video), nil
}

// Disconnect closes the session.
func (s *Session) Disconnect() error {
	if err := s.record("Disconnect"); err != nil {
		return err
	}
	s.closed = true
	return nil
}
