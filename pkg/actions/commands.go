// Package actions turns "click", "type" and "read" intentions into one
// locate-then-act round trip against a session.
//
// Every call re-locates its element. Handles are never cached across steps
// because they die with the screen that produced them.
package actions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

// DefaultScreenshotDir is where CaptureScreenshot writes when no directory is set.
const DefaultScreenshotDir = "screenshots"

// Commands is the action facade shared by every screen object.
type Commands struct {
	session       core.Session
	rec           core.Recorder
	log           *zap.Logger
	screenshotDir string
	now           func() time.Time
}

// Option configures Commands.
type Option func(*Commands)

// WithLogger sets the logger. Defaults to the global logger named "actions".
func WithLogger(l *zap.Logger) Option {
	return func(c *Commands) { c.log = l }
}

// WithScreenshotDir sets the directory diagnostic screenshots are saved in.
func WithScreenshotDir(dir string) Option {
	return func(c *Commands) {
		if dir != "" {
			c.screenshotDir = dir
		}
	}
}

// WithNow overrides the clock used for fallback screenshot names.
func WithNow(now func() time.Time) Option {
	return func(c *Commands) { c.now = now }
}

// New creates the facade. A nil recorder discards steps and attachments.
func New(session core.Session, rec core.Recorder, opts ...Option) *Commands {
	if rec == nil {
		rec = core.NopRecorder{}
	}
	c := &Commands{
		session:       session,
		rec:           rec,
		screenshotDir: DefaultScreenshotDir,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.Named(c.log, "actions")
	return c
}

// Session returns the underlying session.
func (c *Commands) Session() core.Session { return c.session }

// Recorder returns the report recorder.
func (c *Commands) Recorder() core.Recorder { return c.rec }

// Logger returns the facade's logger.
func (c *Commands) Logger() *zap.Logger { return c.log }

// Find resolves a target to a live handle. Handles pass through untouched;
// selectors resolve to their first match. No match captures a diagnostic
// screenshot and fails with ErrElementNotFound naming the selector.
func (c *Commands) Find(target selector.Target) (selector.Handle, error) {
	switch t := target.(type) {
	case selector.Handle:
		return t, nil
	case selector.Selector:
		handles, err := c.FindAll(t)
		if err != nil {
			return selector.Handle{}, err
		}
		if len(handles) == 0 {
			c.OnLocateFailure()
			return selector.Handle{}, core.ErrElementNotFound.WithMessagef(
				"could not locate elements by parameters: %s", t)
		}
		c.log.Debug("found element", zap.Stringer("selector", t))
		return handles[0], nil
	default:
		return selector.Handle{}, fmt.Errorf("unsupported target %T", target)
	}
}

// FindAll returns every match for sel, possibly none.
func (c *Commands) FindAll(sel selector.Selector) ([]selector.Handle, error) {
	ids, err := c.session.FindElements(string(sel.Strategy), sel.Value)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", sel, err)
	}
	c.log.Debug("found elements", zap.Stringer("selector", sel), zap.Int("count", len(ids)))
	return toHandles(ids), nil
}

// FindChildren returns every match for child inside parent, possibly none.
func (c *Commands) FindChildren(parent selector.Handle, child selector.Selector) ([]selector.Handle, error) {
	ids, err := c.session.FindChildElements(parent.ID, string(child.Strategy), child.Value)
	if err != nil {
		return nil, fmt.Errorf("find %s in %s: %w", child, parent, err)
	}
	return toHandles(ids), nil
}

func toHandles(ids []string) []selector.Handle {
	handles := make([]selector.Handle, len(ids))
	for i, id := range ids {
		handles[i] = selector.Handle{ID: id}
	}
	return handles
}

// Click finds target and clicks it.
func (c *Commands) Click(target selector.Target) error {
	h, err := c.Find(target)
	if err != nil {
		return err
	}
	if err := c.session.ClickElement(h.ID); err != nil {
		return fmt.Errorf("click %s: %w", target, err)
	}
	c.log.Debug("element clicked", zap.Stringer("target", target))
	return nil
}

// TypeText clears target, then types value. An empty value only clears.
func (c *Commands) TypeText(target selector.Target, value string) error {
	h, err := c.Find(target)
	if err != nil {
		return err
	}
	if err := c.session.ClearElement(h.ID); err != nil {
		return fmt.Errorf("clear %s: %w", target, err)
	}
	if value != "" {
		if err := c.session.SendElementKeys(h.ID, value); err != nil {
			return fmt.Errorf("type into %s: %w", target, err)
		}
	}
	c.log.Debug("input field filled", zap.Stringer("target", target))
	return nil
}

// ReadText returns the text of target.
func (c *Commands) ReadText(target selector.Target) (string, error) {
	h, err := c.Find(target)
	if err != nil {
		return "", err
	}
	text, err := c.session.GetElementText(h.ID)
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", target, err)
	}
	return text, nil
}

// Attribute returns the named attribute of target.
func (c *Commands) Attribute(target selector.Target, name string) (string, error) {
	h, err := c.Find(target)
	if err != nil {
		return "", err
	}
	value, err := c.session.GetElementAttribute(h.ID, name)
	if err != nil {
		return "", fmt.Errorf("read %s of %s: %w", name, target, err)
	}
	return value, nil
}

// AssertText fails with ErrTextMismatch unless target's text equals expected.
func (c *Commands) AssertText(target selector.Target, expected string) error {
	text, err := c.ReadText(target)
	if err != nil {
		return err
	}
	if text != expected {
		return core.ErrTextMismatch.
			WithMessagef("wrong text. Should be %q instead of %q", expected, text).
			WithDetails(map[string]interface{}{"expected": expected, "actual": text, "target": target.String()})
	}
	c.log.Debug("text is correct", zap.String("text", expected))
	return nil
}

// Point is a screen coordinate in pixels.
type Point struct{ X, Y int }

// Swipe drags from one point to another over d.
func (c *Commands) Swipe(from, to Point, d time.Duration) error {
	if err := c.session.Swipe(from.X, from.Y, to.X, to.Y, int(d.Milliseconds())); err != nil {
		return fmt.Errorf("swipe: %w", err)
	}
	return nil
}

// Direction names a swipe direction.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

const directionSwipeDuration = 500 * time.Millisecond

// SwipeDirection swipes across the middle third of the screen.
func (c *Commands) SwipeDirection(dir Direction) error {
	w, h := c.session.ScreenSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("swipe %s: unknown screen size %dx%d", dir, w, h)
	}
	centerX, centerY := w/2, h/2

	var from, to Point
	switch Direction(strings.ToLower(string(dir))) {
	case Up:
		from, to = Point{centerX, h * 2 / 3}, Point{centerX, h / 3}
	case Down:
		from, to = Point{centerX, h / 3}, Point{centerX, h * 2 / 3}
	case Left:
		from, to = Point{w * 2 / 3, centerY}, Point{w / 3, centerY}
	case Right:
		from, to = Point{w / 3, centerY}, Point{w * 2 / 3, centerY}
	default:
		return fmt.Errorf("invalid direction: %s", dir)
	}
	return c.Swipe(from, to, directionSwipeDuration)
}

// PressKey presses a hardware key (Android key code).
func (c *Commands) PressKey(code int) error {
	if err := c.session.PressKeyCode(code); err != nil {
		return fmt.Errorf("press key %d: %w", code, err)
	}
	return nil
}

// Background sends the app to the background for d, then brings it back.
func (c *Commands) Background(d time.Duration) error {
	if err := c.session.BackgroundApp(d); err != nil {
		return fmt.Errorf("background app: %w", err)
	}
	return nil
}

// ExecuteMobile runs a "mobile:" script command.
func (c *Commands) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	out, err := c.session.ExecuteMobile(command, args)
	if err != nil {
		return nil, fmt.Errorf("mobile: %s: %w", command, err)
	}
	return out, nil
}

// WindowSize returns the screen size in pixels.
func (c *Commands) WindowSize() (int, int) {
	return c.session.ScreenSize()
}

// CaptureScreenshot saves the screen as <dir>/<test name>.png, falling back
// to screenshot_<unix time> outside a test. Failures are logged and yield "".
func (c *Commands) CaptureScreenshot() string {
	name := c.rec.TestName()
	if name == "" {
		name = fmt.Sprintf("screenshot_%d", c.now().Unix())
	}
	path := filepath.Join(c.screenshotDir, name+".png")

	if err := c.saveScreenshot(path); err != nil {
		c.log.Warn("an error occurred while trying to take the screenshot",
			zap.Error(core.ErrScreenshot.WithCause(err)))
		return ""
	}
	c.log.Info("screenshot saved", zap.String("path", path))
	return path
}

func (c *Commands) saveScreenshot(path string) error {
	data, err := c.session.Screenshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// OnLocateFailure captures a screenshot and attaches it to the report.
func (c *Commands) OnLocateFailure() {
	if path := c.CaptureScreenshot(); path != "" {
		c.rec.Attach(core.NewScreenshotAttachment(path))
	}
}
