package scenario

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/actions"
	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
	"github.com/devicelab-dev/mobile-qa/pkg/pages"
	"github.com/devicelab-dev/mobile-qa/pkg/report"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
	"github.com/devicelab-dev/mobile-qa/pkg/wait"
)

// Env is what a case gets to drive the app.
type Env struct {
	Session  core.Session
	Platform selector.Platform
	Commands *actions.Commands
	Wait     *wait.Waiter
	Screens  *pages.Screens
}

// Case is one test of a scenario.
type Case struct {
	Name  string // identifies the test and names its artifacts
	Title string // shown in the report
	Run   func(env *Env) error
}

// Scenario is a group of cases sharing one session. Setup runs once, after
// the session is opened; cases run in order.
type Scenario struct {
	Name  string
	Setup func(env *Env) error
	Cases []Case
}

// RunnerConfig configures the runner. Zero values take the defaults of the
// packages they are passed to.
type RunnerConfig struct {
	VideoDir      string
	ScreenshotDir string
	Timeout       time.Duration // default wait timeout
	Interval      time.Duration // default poll interval
	Catalog       selector.Catalog
	Filter        *regexp.Regexp // runs only cases whose name or title match
	Clock         wait.Clock
	Logger        *zap.Logger

	// Live progress callbacks
	OnCaseStart func(idx, total int, name string)
	OnCaseEnd   func(name string, status core.TestStatus, d time.Duration, err error)
}

// Runner executes scenarios through a Fixture and records them in a report suite.
type Runner struct {
	open  Opener
	suite *report.Suite
	cfg   RunnerConfig
	log   *zap.Logger
}

// NewRunner creates a runner.
func NewRunner(open Opener, suite *report.Suite, cfg RunnerConfig) *Runner {
	return &Runner{
		open:  open,
		suite: suite,
		cfg:   cfg,
		log:   logger.Named(cfg.Logger, "runner"),
	}
}

// Run executes sc. Failures are reported in the result, never returned:
// every case ends up in the report suite as passed, failed, broken or skipped.
func (r *Runner) Run(ctx context.Context, sc Scenario) *core.RunResult {
	start := time.Now()
	res := &core.RunResult{Scenario: sc.Name, Status: core.StatusPassed}
	cases := r.selectCases(sc.Cases)
	r.log.Info("running scenario", zap.String("scenario", sc.Name), zap.Int("cases", len(cases)))

	fixture := NewFixture(r.open, r.suite, WithVideoDir(r.cfg.VideoDir), WithFixtureLogger(r.cfg.Logger))

	var env *Env
	r.suite.StartTest(sc.Name+"_setup", report.WithTitle(sc.Name+" setup"))
	err := fixture.SetupSuite(ctx, func(session core.Session, platform selector.Platform) error {
		env = r.newEnv(session, platform)
		if sc.Setup == nil {
			return nil
		}
		return guard(func() error { return sc.Setup(env) })
	})
	if err != nil {
		r.suite.StopTest(core.StatusBroken, err)
		res.SetupErr = err
		res.Status = core.StatusBroken
		r.skip(res, cases, fmt.Errorf("scenario setup failed: %w", err))
		res.Duration = time.Since(start)
		return res
	}
	r.suite.Discard()

	for i, c := range cases {
		if ctx.Err() != nil {
			r.skip(res, cases[i:], ctx.Err())
			break
		}
		cr := r.runCase(fixture, env, c, i, len(cases))
		res.Cases = append(res.Cases, cr)
		if cr.Status.IsFailure() {
			res.Status = worse(res.Status, cr.Status)
		}
	}

	if err := fixture.TeardownSuite(); err != nil {
		r.log.Warn("suite teardown", zap.Error(err))
	}
	res.Duration = time.Since(start)
	return res
}

func (r *Runner) runCase(fixture *Fixture, env *Env, c Case, idx, total int) core.CaseResult {
	if r.cfg.OnCaseStart != nil {
		r.cfg.OnCaseStart(idx, total, c.Name)
	}
	start := time.Now()

	r.suite.StartTest(c.Name, report.WithTitle(c.Title))
	err := fixture.SetupTest(c.Name)
	if err == nil {
		err = guard(func() error { return c.Run(env) })
	}
	fixture.TeardownTest(fixture.IsFailed(err))
	status := core.StatusOf(err)
	r.suite.StopTest(status, err)

	d := time.Since(start)
	if err != nil {
		r.log.Error("test "+status.String(), zap.String("test", c.Name), zap.Error(err))
	} else {
		r.log.Info("test passed", zap.String("test", c.Name), zap.Duration("duration", d))
	}
	if r.cfg.OnCaseEnd != nil {
		r.cfg.OnCaseEnd(c.Name, status, d, err)
	}
	return core.CaseResult{Name: c.Name, Title: c.Title, Status: status, Duration: d, Err: err}
}

// skip records cases that never ran.
func (r *Runner) skip(res *core.RunResult, cases []Case, reason error) {
	for _, c := range cases {
		r.suite.StartTest(c.Name, report.WithTitle(c.Title))
		r.suite.StopTest(core.StatusSkipped, reason)
		res.Cases = append(res.Cases, core.CaseResult{Name: c.Name, Title: c.Title, Status: core.StatusSkipped, Err: reason})
	}
}

func (r *Runner) selectCases(all []Case) []Case {
	if r.cfg.Filter == nil {
		return all
	}
	var out []Case
	for _, c := range all {
		if r.cfg.Filter.MatchString(c.Name) || r.cfg.Filter.MatchString(c.Title) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Runner) newEnv(session core.Session, platform selector.Platform) *Env {
	cmd := actions.New(session, r.suite,
		actions.WithScreenshotDir(r.cfg.ScreenshotDir),
		actions.WithLogger(r.cfg.Logger))
	w := wait.New(cmd, wait.Config{
		Timeout:  r.cfg.Timeout,
		Interval: r.cfg.Interval,
		Clock:    r.cfg.Clock,
		Logger:   r.cfg.Logger,
	})
	return &Env{
		Session:  session,
		Platform: platform,
		Commands: cmd,
		Wait:     w,
		Screens: pages.NewScreens(pages.Deps{
			Commands: cmd,
			Wait:     w,
			Platform: platform,
			Catalog:  r.cfg.Catalog,
		}),
	}
}

// guard turns a panic in fn, such as an unknown selector key, into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

// worse returns the more severe of two failure statuses.
func worse(a, b core.TestStatus) core.TestStatus {
	if a == core.StatusBroken || b == core.StatusBroken {
		return core.StatusBroken
	}
	if a == core.StatusFailed || b == core.StatusFailed {
		return core.StatusFailed
	}
	return b
}
