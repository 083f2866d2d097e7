// Package scenario runs groups of test cases against one device session:
// the fixture owns the session and its screen recording, the runner drives
// cases through it and reports them.
package scenario

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

// State is the fixture lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateSessionOpen
	StateRunning
	StatePassed
	StateFailed
	StateSessionClosed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateSessionOpen:
		return "session open"
	case StateRunning:
		return "running"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateSessionClosed:
		return "session closed"
	default:
		return "unknown"
	}
}

// Opener opens the device session shared by a scenario.
type Opener func(ctx context.Context) (core.Session, selector.Platform, error)

// FixtureOption configures a Fixture.
type FixtureOption func(*Fixture)

// WithVideoDir sets the root directory for failure videos.
func WithVideoDir(dir string) FixtureOption {
	return func(f *Fixture) {
		if dir != "" {
			f.videoDir = dir
		}
	}
}

// WithFixtureLogger sets the logger.
func WithFixtureLogger(l *zap.Logger) FixtureOption {
	return func(f *Fixture) { f.log = l }
}

// WithFixtureClock overrides the time source used to name videos.
func WithFixtureClock(now func() time.Time) FixtureOption {
	return func(f *Fixture) { f.now = now }
}

// Fixture owns one session for a group of tests and records the screen of
// every test, keeping the video only when the test fails.
type Fixture struct {
	open     Opener
	rec      core.Recorder
	videoDir string
	log      *zap.Logger
	now      func() time.Time

	session     core.Session
	platform    selector.Platform
	state       State
	recording   bool
	setupFailed bool
}

// NewFixture creates a fixture. Nothing is opened until SetupSuite.
func NewFixture(open Opener, rec core.Recorder, opts ...FixtureOption) *Fixture {
	if rec == nil {
		rec = core.NopRecorder{}
	}
	f := &Fixture{
		open:     open,
		rec:      rec,
		videoDir: "video",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = logger.Named(f.log, "fixture")
	return f
}

func (f *Fixture) State() State                { return f.state }
func (f *Fixture) Session() core.Session       { return f.session }
func (f *Fixture) Platform() selector.Platform { return f.platform }
func (f *Fixture) Recording() bool             { return f.recording }

// SetupSuite opens the session, starts recording and runs setup. When any
// of it fails the test and suite teardowns run before the error is returned.
func (f *Fixture) SetupSuite(ctx context.Context, setup func(core.Session, selector.Platform) error) error {
	err := f.setupSuite(ctx, setup)
	if err != nil {
		f.setupFailed = true
		f.log.Error("suite setup failed", zap.Error(err))
		f.TeardownTest(true)
		if cerr := f.TeardownSuite(); cerr != nil {
			f.log.Warn("teardown after failed setup", zap.Error(cerr))
		}
	}
	return err
}

func (f *Fixture) setupSuite(ctx context.Context, setup func(core.Session, selector.Platform) error) error {
	session, platform, err := f.open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	f.session = session
	f.platform = platform
	f.state = StateSessionOpen
	f.log.Info("session opened", zap.Stringer("platform", platform))

	f.startRecording()
	if setup == nil {
		return nil
	}
	return setup(session, platform)
}

// SetupTest marks a test as running and makes sure the screen is recorded.
func (f *Fixture) SetupTest(name string) error {
	if f.session == nil {
		return core.ErrSessionNotOpen
	}
	f.log.Info("start test", zap.String("test", name))
	f.state = StateRunning
	f.startRecording()
	return nil
}

// IsFailed reports whether the current test counts as failed: suite setup
// failed or the test itself returned an error.
func (f *Fixture) IsFailed(testErr error) bool {
	return f.setupFailed || testErr != nil
}

// TeardownTest stops the recording. A failed test keeps the video as
// <videoDir>/<platform>/<test name>.mp4 and attaches it.
func (f *Fixture) TeardownTest(failed bool) {
	payload := f.stopRecording()
	if f.session != nil {
		if failed {
			f.state = StateFailed
		} else {
			f.state = StatePassed
		}
	}
	if !failed || payload == "" {
		return
	}
	path, err := f.saveVideo(payload)
	if err != nil {
		f.log.Warn("could not save the recorded video", zap.Error(core.ErrRecording.WithCause(err)))
		return
	}
	f.log.Info("test failed, recorded video saved", zap.String("path", path))
	f.rec.Attach(core.NewVideoAttachment(path))
}

// TeardownSuite closes the session if one is open.
func (f *Fixture) TeardownSuite() error {
	if f.session == nil {
		return nil
	}
	err := f.session.Disconnect()
	f.session = nil
	f.recording = false
	f.state = StateSessionClosed
	f.log.Info("session closed")
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (f *Fixture) startRecording() {
	if f.recording {
		f.log.Debug("screen recording already started")
		return
	}
	opts := map[string]interface{}{}
	if f.platform == selector.IOS {
		opts["videoType"] = "h264"
	}
	if err := f.session.StartRecordingScreen(opts); err != nil {
		f.log.Warn("could not start screen recording", zap.Error(core.ErrRecording.WithCause(err)))
		return
	}
	f.recording = true
}

// stopRecording returns the base64 video, or "" when nothing was recorded.
func (f *Fixture) stopRecording() string {
	if !f.recording || f.session == nil {
		return ""
	}
	f.recording = false
	payload, err := f.session.StopRecordingScreen()
	if err != nil {
		f.log.Warn("could not stop screen recording", zap.Error(core.ErrRecording.WithCause(err)))
		return ""
	}
	return payload
}

func (f *Fixture) saveVideo(payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode video: %w", err)
	}
	name := f.rec.TestName()
	if name == "" {
		name = strconv.FormatInt(f.now().UnixMilli(), 10)
	}
	dir := filepath.Join(f.videoDir, f.platform.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
