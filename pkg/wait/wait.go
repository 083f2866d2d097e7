// Package wait polls the remote session until a condition holds or a fixed
// timeout elapses.
//
// Each wait computes its deadline once and never sleeps past it, so a wait
// that never succeeds returns after exactly its timeout. Failures are
// reported at the public methods only, after one diagnostic screenshot.
package wait

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/actions"
	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 500 * time.Millisecond

	// handleTextInterval is the re-read period when waiting on a live handle's text.
	handleTextInterval = 200 * time.Millisecond
	// childTimeout bounds lookups of elements inside a parent.
	childTimeout = 10 * time.Second
)

// Clock abstracts time so tests can run waits instantly.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Config configures a Waiter. Zero values take the defaults.
type Config struct {
	Timeout  time.Duration
	Interval time.Duration
	Clock    Clock
	Logger   *zap.Logger
}

// Waiter runs poll-until loops against the session behind a Commands facade.
type Waiter struct {
	cmd      *actions.Commands
	session  core.Session
	timeout  time.Duration
	interval time.Duration
	clock    Clock
	log      *zap.Logger
}

// New creates a Waiter.
func New(cmd *actions.Commands, cfg Config) *Waiter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	return &Waiter{
		cmd:      cmd,
		session:  cmd.Session(),
		timeout:  cfg.Timeout,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		log:      logger.Named(cfg.Logger, "wait"),
	}
}

// Timeout returns the default timeout.
func (w *Waiter) Timeout() time.Duration { return w.timeout }

// Interval returns the default poll interval.
func (w *Waiter) Interval() time.Duration { return w.interval }

// Option overrides timing for a single wait.
type Option func(*settings)

type settings struct {
	timeout  time.Duration
	interval time.Duration
}

// WithTimeout overrides the timeout of one wait.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithInterval overrides the poll interval of one wait.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

func (w *Waiter) settings(opts []Option) settings {
	s := settings{timeout: w.timeout, interval: w.interval}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// probe is the outcome of one poll: found, or not yet.
type probe struct {
	handle selector.Handle
	found  bool
}

// errTimedOut marks an exhausted deadline inside the engine. Public methods
// translate it into the error their caller expects.
var errTimedOut = fmt.Errorf("timed out")

// poll calls check until it reports found, returns an error, or the deadline
// passes. The deadline is fixed before the first check.
func (w *Waiter) poll(s settings, check func() (probe, error)) (probe, error) {
	deadline := w.clock.Now().Add(s.timeout)
	for {
		p, err := check()
		if err != nil {
			return probe{}, err
		}
		if p.found {
			return p, nil
		}
		remaining := deadline.Sub(w.clock.Now())
		if remaining <= 0 {
			return probe{}, errTimedOut
		}
		sleep := s.interval
		if sleep > remaining {
			sleep = remaining
		}
		w.clock.Sleep(sleep)
	}
}

// fail captures the diagnostic screenshot and returns the public error.
// A timeout becomes timeoutErr; any other fault is wrapped with context.
func (w *Waiter) fail(err error, timeoutErr error, what string) error {
	w.cmd.OnLocateFailure()
	if err == errTimedOut {
		return timeoutErr
	}
	return fmt.Errorf("%s: %w", what, err)
}

// lookup returns the current matches for sel.
func (w *Waiter) lookup(sel selector.Selector) ([]string, error) {
	return w.session.FindElements(string(sel.Strategy), sel.Value)
}

// displayed reports visibility, treating a vanished element as hidden.
func (w *Waiter) displayed(id string) (bool, error) {
	ok, err := w.session.IsElementDisplayed(id)
	if core.IsStaleElement(err) {
		return false, nil
	}
	return ok, err
}

// clickable reports displayed and enabled, treating a vanished element as not clickable.
func (w *Waiter) clickable(id string) (bool, error) {
	ok, err := w.displayed(id)
	if err != nil || !ok {
		return false, err
	}
	enabled, err := w.session.IsElementEnabled(id)
	if core.IsStaleElement(err) {
		return false, nil
	}
	return enabled, err
}

// Visible waits for the first displayed match of sel.
func (w *Waiter) Visible(sel selector.Selector, opts ...Option) (selector.Handle, error) {
	s := w.settings(opts)
	w.log.Info("waiting for visibility", zap.Stringer("selector", sel), zap.Duration("timeout", s.timeout))
	p, err := w.poll(s, func() (probe, error) {
		ids, err := w.lookup(sel)
		if err != nil {
			return probe{}, err
		}
		for _, id := range ids {
			ok, err := w.displayed(id)
			if err != nil {
				return probe{}, err
			}
			if ok {
				return probe{handle: selector.Handle{ID: id}, found: true}, nil
			}
		}
		return probe{}, nil
	})
	if err != nil {
		return selector.Handle{}, w.fail(err,
			core.ErrElementNotFound.WithMessagef("could not find visible element %s within %s", sel, s.timeout),
			"wait for visibility of "+sel.String())
	}
	return p.handle, nil
}

// Present waits for sel to match at least one element, displayed or not.
func (w *Waiter) Present(sel selector.Selector, opts ...Option) (selector.Handle, error) {
	s := w.settings(opts)
	w.log.Info("waiting for presence", zap.Stringer("selector", sel), zap.Duration("timeout", s.timeout))
	p, err := w.poll(s, func() (probe, error) {
		ids, err := w.lookup(sel)
		if err != nil || len(ids) == 0 {
			return probe{}, err
		}
		return probe{handle: selector.Handle{ID: ids[0]}, found: true}, nil
	})
	if err != nil {
		return selector.Handle{}, w.fail(err,
			core.ErrElementNotFound.WithMessagef("element %s is not located on screen within %s", sel, s.timeout),
			"wait for presence of "+sel.String())
	}
	return p.handle, nil
}

// NotVisible waits until sel matches nothing or some match is hidden.
func (w *Waiter) NotVisible(sel selector.Selector, opts ...Option) error {
	s := w.settings(opts)
	w.log.Info("waiting for element to disappear", zap.Stringer("selector", sel), zap.Duration("timeout", s.timeout))
	_, err := w.poll(s, func() (probe, error) {
		ids, err := w.lookup(sel)
		if err != nil {
			return probe{}, err
		}
		if len(ids) == 0 {
			return probe{found: true}, nil
		}
		for _, id := range ids {
			ok, err := w.displayed(id)
			if err != nil {
				return probe{}, err
			}
			if !ok {
				return probe{found: true}, nil
			}
		}
		return probe{}, nil
	})
	if err != nil {
		return w.fail(err,
			core.ErrWaitTimeout.WithMessagef("timeout waiting for element %s to disappear", sel),
			"wait for disappearance of "+sel.String())
	}
	return nil
}

// Clickable waits for the first match of sel to be displayed and enabled.
func (w *Waiter) Clickable(sel selector.Selector, opts ...Option) (selector.Handle, error) {
	s := w.settings(opts)
	w.log.Info("waiting for element to be clickable", zap.Stringer("selector", sel), zap.Duration("timeout", s.timeout))
	p, err := w.poll(s, func() (probe, error) {
		ids, err := w.lookup(sel)
		if err != nil || len(ids) == 0 {
			return probe{}, err
		}
		ok, err := w.clickable(ids[0])
		if err != nil || !ok {
			return probe{}, err
		}
		return probe{handle: selector.Handle{ID: ids[0]}, found: true}, nil
	})
	if err != nil {
		return selector.Handle{}, w.fail(err,
			core.ErrWaitTimeout.WithMessagef("timeout waiting for element %s to be clickable", sel),
			"wait for clickable "+sel.String())
	}
	return p.handle, nil
}

// NotClickable waits until the first match of sel is gone, hidden or disabled.
func (w *Waiter) NotClickable(sel selector.Selector, opts ...Option) error {
	s := w.settings(opts)
	w.log.Info("waiting for element to not be clickable", zap.Stringer("selector", sel), zap.Duration("timeout", s.timeout))
	_, err := w.poll(s, func() (probe, error) {
		ids, err := w.lookup(sel)
		if err != nil {
			return probe{}, err
		}
		if len(ids) == 0 {
			return probe{found: true}, nil
		}
		ok, err := w.clickable(ids[0])
		if err != nil {
			return probe{}, err
		}
		return probe{found: !ok}, nil
	})
	if err != nil {
		return w.fail(err,
			core.ErrWaitTimeout.WithMessagef("timeout waiting for element %s to not be clickable", sel),
			"wait for not clickable "+sel.String())
	}
	return nil
}

// Text waits for target's text. A live handle is re-read every 200ms until
// its text equals expected. A selector waits until the text of its first
// match contains expected. Returns the observed text.
func (w *Waiter) Text(target selector.Target, expected string, opts ...Option) (string, error) {
	s := w.settings(opts)
	w.log.Info("waiting for text", zap.Stringer("target", target), zap.String("expected", expected), zap.Duration("timeout", s.timeout))

	var last string
	var check func() (probe, error)
	switch t := target.(type) {
	case selector.Handle:
		s.interval = handleTextInterval
		check = func() (probe, error) {
			text, err := w.session.GetElementText(t.ID)
			if err != nil {
				return probe{}, err
			}
			last = text
			return probe{handle: t, found: text == expected}, nil
		}
	case selector.Selector:
		check = func() (probe, error) {
			ids, err := w.lookup(t)
			if err != nil || len(ids) == 0 {
				return probe{}, err
			}
			text, err := w.session.GetElementText(ids[0])
			if core.IsStaleElement(err) {
				return probe{}, nil
			}
			if err != nil {
				return probe{}, err
			}
			last = text
			return probe{handle: selector.Handle{ID: ids[0]}, found: strings.Contains(text, expected)}, nil
		}
	default:
		return "", fmt.Errorf("unsupported target %T", target)
	}

	if _, err := w.poll(s, check); err != nil {
		return "", w.fail(err,
			core.ErrWaitTimeout.
				WithMessagef("something went wrong with reading text from the element %s: expected %q, last read %q", target, expected, last).
				WithDetails(map[string]interface{}{"expected": expected, "actual": last}),
			"wait for text of "+target.String())
	}
	return last, nil
}

// Alert waits for a system alert and returns its text.
func (w *Waiter) Alert(opts ...Option) (string, error) {
	s := w.settings(opts)
	var text string
	_, err := w.poll(s, func() (probe, error) {
		t, err := w.session.GetAlertText()
		if err != nil {
			if strings.Contains(err.Error(), "no such alert") {
				return probe{}, nil
			}
			return probe{}, err
		}
		text = t
		return probe{found: true}, nil
	})
	if err != nil {
		return "", w.fail(err,
			core.ErrWaitTimeout.WithMessagef("no system alert within %s", s.timeout),
			"wait for alert")
	}
	return text, nil
}

// Elements polls once a second, maxSeconds times, for a non-empty match list.
func (w *Waiter) Elements(sel selector.Selector, maxSeconds int) ([]selector.Handle, error) {
	for i := 0; i < maxSeconds; i++ {
		handles, err := w.cmd.FindAll(sel)
		if err != nil {
			w.cmd.OnLocateFailure()
			return nil, err
		}
		if len(handles) > 0 {
			return handles, nil
		}
		w.Sleep(time.Second)
	}
	w.cmd.OnLocateFailure()
	return nil, core.ErrElementNotFound.WithMessagef("couldn't find requested elements %s", sel)
}

// Children waits up to 10 seconds for child matches inside the first match
// of parent.
func (w *Waiter) Children(parent selector.Target, child selector.Selector, opts ...Option) ([]selector.Handle, error) {
	ph, err := w.cmd.Find(parent)
	if err != nil {
		return nil, err
	}
	s := settings{timeout: childTimeout, interval: w.interval}
	for _, opt := range opts {
		opt(&s)
	}

	var found []selector.Handle
	_, err = w.poll(s, func() (probe, error) {
		handles, err := w.cmd.FindChildren(ph, child)
		if err != nil {
			return probe{}, err
		}
		found = handles
		return probe{found: len(handles) > 0}, nil
	})
	if err != nil {
		return nil, w.fail(err,
			core.ErrElementNotFound.WithMessagef("no %s inside %s within %s", child, parent, s.timeout),
			"wait for children of "+parent.String())
	}
	return found, nil
}

// Child is Children returning only the first match.
func (w *Waiter) Child(parent selector.Target, child selector.Selector, opts ...Option) (selector.Handle, error) {
	handles, err := w.Children(parent, child, opts...)
	if err != nil {
		return selector.Handle{}, err
	}
	return handles[0], nil
}

// Sleep pauses for d and logs it.
func (w *Waiter) Sleep(d time.Duration) {
	w.log.Info("sleep", zap.Duration("duration", d))
	w.clock.Sleep(d)
}
