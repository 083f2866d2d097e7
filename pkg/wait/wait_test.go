package wait

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/devicelab-dev/mobile-qa/pkg/actions"
	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/driver/mock"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

// fakeClock advances only when slept on.
type fakeClock struct {
	start   time.Time
	now     time.Time
	sleeps  []time.Duration
	onSleep func(elapsed time.Duration)
}

func newFakeClock() *fakeClock {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &fakeClock{start: t, now: t}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.onSleep != nil {
		c.onSleep(c.elapsed())
	}
}

func (c *fakeClock) elapsed() time.Duration { return c.now.Sub(c.start) }

var title = selector.ID("login_register_title")

type fixture struct {
	session *mock.Session
	clock   *fakeClock
	waiter  *Waiter
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, elems ...mock.Element) *fixture {
	t.Helper()
	session := mock.New(mock.Config{
		Start:   "login",
		Screens: map[string][]mock.Element{"login": elems},
	})
	obs, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(obs)
	cmd := actions.New(session, nil, actions.WithScreenshotDir(t.TempDir()), actions.WithLogger(log))
	clock := newFakeClock()
	return &fixture{
		session: session,
		clock:   clock,
		waiter:  New(cmd, Config{Clock: clock, Logger: log}),
		logs:    logs,
	}
}

func titleElement(text string, hidden bool) mock.Element {
	return mock.Element{ID: "t", Using: "id", Value: "login_register_title", Text: text, Hidden: hidden}
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 5*time.Second, f.waiter.Timeout())
	assert.Equal(t, 500*time.Millisecond, f.waiter.Interval())
}

func TestVisible_NeverResolves(t *testing.T) {
	f := newFixture(t)

	_, err := f.waiter.Visible(title)

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrElementNotFound))
	assert.Equal(t, DefaultTimeout, f.clock.elapsed(), "a failing wait takes exactly the timeout")
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestVisible_DetectedWithinOneInterval(t *testing.T) {
	f := newFixture(t, titleElement("Log In", true))
	f.clock.onSleep = func(elapsed time.Duration) {
		if elapsed >= 1200*time.Millisecond {
			f.session.Update("t", func(e *mock.Element) { e.Hidden = false })
		}
	}

	h, err := f.waiter.Visible(title)

	require.NoError(t, err)
	assert.Equal(t, "t", h.ID)
	assert.Equal(t, 1500*time.Millisecond, f.clock.elapsed())
	assert.Zero(t, f.session.Count("Screenshot"))

	entries := f.logs.FilterMessage("waiting for visibility").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, title.String(), fields["selector"])
	assert.Equal(t, DefaultTimeout, fields["timeout"])
}

func TestVisible_SleepClampedToDeadline(t *testing.T) {
	f := newFixture(t)

	_, err := f.waiter.Visible(title, WithTimeout(time.Second), WithInterval(400*time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 400 * time.Millisecond, 200 * time.Millisecond}, f.clock.sleeps)
	assert.Equal(t, time.Second, f.clock.elapsed())
}

func TestVisible_StaleElementIsNotYet(t *testing.T) {
	f := newFixture(t, titleElement("Log In", false))
	f.session.Errors["IsElementDisplayed"] = fmt.Errorf("stale element reference: gone")
	f.clock.onSleep = func(elapsed time.Duration) {
		if elapsed >= time.Second {
			delete(f.session.Errors, "IsElementDisplayed")
		}
	}

	_, err := f.waiter.Visible(title)

	require.NoError(t, err)
	assert.Equal(t, time.Second, f.clock.elapsed())
}

func TestVisible_SessionFaultIsTerminal(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("invalid session id")
	f.session.Errors["FindElements"] = boom

	_, err := f.waiter.Visible(title)

	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, core.ErrElementNotFound))
	assert.Zero(t, f.clock.elapsed())
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestPresent_IgnoresVisibility(t *testing.T) {
	f := newFixture(t, titleElement("Log In", true))

	h, err := f.waiter.Present(title)

	require.NoError(t, err)
	assert.Equal(t, "t", h.ID)
	assert.Zero(t, f.clock.elapsed())
}

func TestNotVisible_Complement(t *testing.T) {
	f := newFixture(t, titleElement("Log In", false))
	f.clock.onSleep = func(elapsed time.Duration) {
		if elapsed >= 1200*time.Millisecond {
			f.session.Update("t", func(e *mock.Element) { e.Hidden = true })
		}
	}

	require.NoError(t, f.waiter.NotVisible(title))
	assert.Equal(t, 1500*time.Millisecond, f.clock.elapsed())
}

func TestNotVisible_RemovedElement(t *testing.T) {
	f := newFixture(t, titleElement("Log In", false))
	f.clock.onSleep = func(elapsed time.Duration) {
		f.session.Remove("t")
	}

	require.NoError(t, f.waiter.NotVisible(title))
	assert.Equal(t, 500*time.Millisecond, f.clock.elapsed())
}

func TestNotVisible_Timeout(t *testing.T) {
	f := newFixture(t, titleElement("Log In", false))

	err := f.waiter.NotVisible(title, WithTimeout(2*time.Second))

	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Equal(t, 2*time.Second, f.clock.elapsed())
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestClickable(t *testing.T) {
	el := titleElement("Log In", false)
	el.Disabled = true
	f := newFixture(t, el)
	f.clock.onSleep = func(elapsed time.Duration) {
		if elapsed >= time.Second {
			f.session.Update("t", func(e *mock.Element) { e.Disabled = false })
		}
	}

	h, err := f.waiter.Clickable(title)

	require.NoError(t, err)
	assert.Equal(t, "t", h.ID)
	assert.Equal(t, time.Second, f.clock.elapsed())
}

func TestClickable_TimeoutCapturesScreenshot(t *testing.T) {
	f := newFixture(t)

	_, err := f.waiter.Clickable(title)

	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestNotClickable(t *testing.T) {
	f := newFixture(t, titleElement("Log In", false))
	f.clock.onSleep = func(elapsed time.Duration) {
		f.session.Update("t", func(e *mock.Element) { e.Disabled = true })
	}

	require.NoError(t, f.waiter.NotClickable(title))
	assert.Equal(t, 500*time.Millisecond, f.clock.elapsed())

	f.session.Update("t", func(e *mock.Element) { e.Disabled = false })
	f.clock.onSleep = nil
	assert.Error(t, f.waiter.NotClickable(title, WithTimeout(time.Second)))
}

func TestText_HandlePolledEvery200ms(t *testing.T) {
	f := newFixture(t, titleElement("Sign up", false))
	f.clock.onSleep = func(elapsed time.Duration) {
		if elapsed >= 600*time.Millisecond {
			f.session.Update("t", func(e *mock.Element) { e.Text = "Log In" })
		}
	}

	text, err := f.waiter.Text(selector.Handle{ID: "t"}, "Log In")

	require.NoError(t, err)
	assert.Equal(t, "Log In", text)
	for _, d := range f.clock.sleeps {
		assert.Equal(t, 200*time.Millisecond, d)
	}
	assert.Equal(t, 600*time.Millisecond, f.clock.elapsed())
}

func TestText_SelectorUsesContainment(t *testing.T) {
	f := newFixture(t, titleElement("Please Log In now", false))

	text, err := f.waiter.Text(title, "Log In")

	require.NoError(t, err)
	assert.Equal(t, "Please Log In now", text)
}

func TestText_TimeoutReportsLastText(t *testing.T) {
	f := newFixture(t, titleElement("Sign up", false))

	_, err := f.waiter.Text(selector.Handle{ID: "t"}, "Log In", WithTimeout(time.Second))

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Contains(t, err.Error(), `"Sign up"`)
	assert.Contains(t, err.Error(), `"Log In"`)
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestAlert(t *testing.T) {
	f := newFixture(t)
	f.clock.onSleep = func(elapsed time.Duration) {
		if elapsed >= time.Second {
			f.session.Alert = "Allow access?"
		}
	}

	text, err := f.waiter.Alert()

	require.NoError(t, err)
	assert.Equal(t, "Allow access?", text)
	assert.Equal(t, time.Second, f.clock.elapsed())
}

func TestAlert_Timeout(t *testing.T) {
	f := newFixture(t)

	_, err := f.waiter.Alert(WithTimeout(time.Second))

	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestElements_OneSecondSteps(t *testing.T) {
	f := newFixture(t)

	_, err := f.waiter.Elements(title, 3)

	assert.True(t, errors.Is(err, core.ErrElementNotFound))
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, f.clock.sleeps)
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestElements_Found(t *testing.T) {
	f := newFixture(t)
	f.clock.onSleep = func(time.Duration) {
		f.session.Add(titleElement("Log In", false))
	}

	handles, err := f.waiter.Elements(title, 3)

	require.NoError(t, err)
	assert.Len(t, handles, 1)
	assert.Equal(t, time.Second, f.clock.elapsed())
}

func TestChildren(t *testing.T) {
	f := newFixture(t,
		mock.Element{ID: "list", Using: "id", Value: "terms"},
		mock.Element{ID: "row-1", Using: "class name", Value: "row", Parent: "list"},
	)
	row := selector.Selector{Strategy: selector.ByClassName, Value: "row"}

	h, err := f.waiter.Child(selector.ID("terms"), row)
	require.NoError(t, err)
	assert.Equal(t, "row-1", h.ID)

	_, err = f.waiter.Children(selector.ID("terms"), selector.Selector{Strategy: selector.ByClassName, Value: "none"})
	assert.True(t, errors.Is(err, core.ErrElementNotFound))
	assert.Equal(t, 10*time.Second, f.clock.elapsed(), "child lookups default to 10s")
}

func TestSleep_Logged(t *testing.T) {
	f := newFixture(t)

	f.waiter.Sleep(2 * time.Second)

	assert.Equal(t, 2*time.Second, f.clock.elapsed())
	entries := f.logs.FilterMessage("sleep").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 2*time.Second, entries[0].ContextMap()["duration"])
}
