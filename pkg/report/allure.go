package report

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Suite collects Allure results for one scenario run. It implements
// core.Recorder for the test that is currently running.
type Suite struct {
	name   string
	labels []AllureLabel
	env    map[string]string
	now    func() time.Time
	newID  func() string
	log    *zap.Logger

	results  []*AllureResult
	current  *AllureResult
	testName string
	steps    []*AllureStep // open steps, innermost last

	// attachment source name -> local file to copy on Write
	files map[string]string
}

var _ core.Recorder = (*Suite)(nil)

// Option configures a Suite.
type Option func(*Suite)

// WithLabel adds a label to every result.
func WithLabel(name, value string) Option {
	return func(s *Suite) { s.labels = append(s.labels, AllureLabel{Name: name, Value: value}) }
}

// WithEnvironment sets the entries of environment.properties.
func WithEnvironment(env map[string]string) Option {
	return func(s *Suite) {
		for k, v := range env {
			s.env[k] = v
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Suite) { s.now = now }
}

// WithIDs overrides UUID generation.
func WithIDs(newID func() string) Option {
	return func(s *Suite) { s.newID = newID }
}

// NewSuite creates an empty suite.
func NewSuite(name string, opts ...Option) *Suite {
	s := &Suite{
		name:  name,
		env:   map[string]string{"framework": "mobile-qa"},
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Named(nil, "report"),
		files: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.name }

// TestOption configures one test result.
type TestOption func(*AllureResult)

// WithTitle sets the displayed name. The test name still identifies the
// result and names its artifacts.
func WithTitle(title string) TestOption {
	return func(r *AllureResult) {
		if title != "" {
			r.Name = title
		}
	}
}

// StartTest opens a result for the named test. A test still open is stopped
// as broken first.
func (s *Suite) StartTest(name string, opts ...TestOption) {
	if s.current != nil {
		s.StopTest(core.StatusBroken, fmt.Errorf("test %s was not stopped", s.testName))
	}
	labels := []AllureLabel{
		{Name: "suite", Value: s.name},
		{Name: "framework", Value: "mobile-qa"},
		{Name: "severity", Value: "normal"},
	}
	labels = append(labels, s.labels...)

	s.current = &AllureResult{
		UUID:        s.newID(),
		HistoryID:   fnv32aHash(s.name + "." + name),
		FullName:    s.name + "." + name,
		Name:        name,
		Status:      mapAllureStatus(core.StatusRunning),
		Stage:       "running",
		Start:       s.now().UnixMilli(),
		Labels:      labels,
		Steps:       []*AllureStep{},
		Attachments: []AllureAttachment{},
	}
	for _, opt := range opts {
		opt(s.current)
	}
	s.testName = name
	s.steps = nil
}

// Discard drops the running test without recording a result. Its
// attachments are dropped too.
func (s *Suite) Discard() {
	if s.current == nil {
		return
	}
	s.forget(s.current.Attachments, s.current.Steps)
	s.current = nil
	s.testName = ""
	s.steps = nil
}

// StopTest closes the running test with status. err, if any, becomes the
// status message.
func (s *Suite) StopTest(status core.TestStatus, err error) {
	r := s.current
	if r == nil {
		return
	}
	r.Status = mapAllureStatus(status)
	r.Stage = "finished"
	r.Stop = s.now().UnixMilli()
	r.StatusDetails = statusDetails(err)

	s.results = append(s.results, r)
	s.current = nil
	s.testName = ""
	s.steps = nil
}

func (s *Suite) forget(atts []AllureAttachment, steps []*AllureStep) {
	for _, a := range atts {
		delete(s.files, a.Source)
	}
	for _, st := range steps {
		s.forget(st.Attachments, st.Steps)
	}
}

// TestName returns the running test's name, or "".
func (s *Suite) TestName() string {
	return s.testName
}

// Attach adds an artifact to the innermost open step, or to the test.
// Outside a test it goes to the last finished test, if any.
func (s *Suite) Attach(a core.Attachment) {
	source := s.newID() + "-attachment" + filepath.Ext(a.Path)
	att := AllureAttachment{Name: a.Name, Source: source, Type: a.ContentType}

	switch {
	case len(s.steps) > 0:
		step := s.steps[len(s.steps)-1]
		step.Attachments = append(step.Attachments, att)
	case s.current != nil:
		s.current.Attachments = append(s.current.Attachments, att)
	case len(s.results) > 0:
		last := s.results[len(s.results)-1]
		last.Attachments = append(last.Attachments, att)
	default:
		s.log.Debug("attachment outside any test dropped", zap.String("path", a.Path))
		return
	}
	s.files[source] = a.Path
}

// Step runs fn as a named step of the running test. Outside a test fn just runs.
func (s *Suite) Step(name string, fn func() error) error {
	if s.current == nil {
		return fn()
	}
	step := &AllureStep{
		Name:        name,
		Stage:       "running",
		Start:       s.now().UnixMilli(),
		Steps:       []*AllureStep{},
		Attachments: []AllureAttachment{},
	}
	if n := len(s.steps); n > 0 {
		s.steps[n-1].Steps = append(s.steps[n-1].Steps, step)
	} else {
		s.current.Steps = append(s.current.Steps, step)
	}
	s.steps = append(s.steps, step)

	done := false
	defer func() {
		if done {
			return
		}
		// A panicking step is closed as broken before the panic moves on.
		r := recover()
		if r == nil {
			// runtime.Goexit, e.g. t.FailNow inside fn.
			s.finishStep(step, errors.New("step aborted"))
			return
		}
		s.finishStep(step, fmt.Errorf("panic: %v", r))
		panic(r)
	}()

	err := fn()
	done = true
	s.finishStep(step, err)
	return err
}

func (s *Suite) finishStep(step *AllureStep, err error) {
	step.Status = mapAllureStatus(core.StatusOf(err))
	step.Stage = "finished"
	step.Stop = s.now().UnixMilli()
	step.StatusDetails = statusDetails(err)
	// The step body may have stopped the test; only pop what is still open.
	if n := len(s.steps); n > 0 && s.steps[n-1] == step {
		s.steps = s.steps[:n-1]
	}
}

// Results returns the finished results in order.
func (s *Suite) Results() []AllureResult {
	out := make([]AllureResult, len(s.results))
	for i, r := range s.results {
		out[i] = *r
	}
	return out
}

// Summary counts finished results by status.
func (s *Suite) Summary() Summary {
	var sum Summary
	for _, r := range s.results {
		sum.Total++
		switch r.Status {
		case "passed":
			sum.Passed++
		case "failed":
			sum.Failed++
		case "broken":
			sum.Broken++
		case "skipped":
			sum.Skipped++
		}
	}
	return sum
}

// Write stores the finished results and their attachments in dir.
func (s *Suite) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for _, r := range s.results {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", r.Name, err)
		}
		resultPath := filepath.Join(dir, r.UUID+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", r.Name, err)
		}
	}

	for source, path := range s.files {
		if err := copyFile(path, filepath.Join(dir, source)); err != nil {
			s.log.Warn("failed to copy attachment", zap.String("path", path), zap.Error(err))
		}
	}

	if err := writeAllureCategories(dir); err != nil {
		return err
	}
	if err := writeAllureEnvironment(dir, s.env); err != nil {
		return err
	}
	if err := writeAllureExecutor(dir); err != nil {
		return err
	}

	s.log.Info("allure results written", zap.String("dir", dir), zap.Int("results", len(s.results)))
	return nil
}

func statusDetails(err error) AllureStatusDetails {
	if err == nil {
		return AllureStatusDetails{}
	}
	details := AllureStatusDetails{Message: err.Error()}
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) && len(execErr.Details) > 0 {
		keys := make([]string, 0, len(execErr.Details))
		for k := range execErr.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %v\n", k, execErr.Details[k])
		}
		details.Trace = b.String()
	}
	return details
}

// copyFile copies a single file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// mapAllureStatus maps a test status to an Allure status string.
func mapAllureStatus(s core.TestStatus) string {
	switch s {
	case core.StatusPassed:
		return "passed"
	case core.StatusFailed:
		return "failed"
	case core.StatusBroken:
		return "broken"
	case core.StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(dir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*could not (locate|find).*|.*not located.*"},
		{Name: "Wrong Text", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*wrong text.*|.*reading text.*"},
		{Name: "Timeout", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*timeout.*|.*timed out.*"},
		{Name: "Connection Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*connect.*|.*session.*"},
		{Name: "Configuration Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*config.*|.*required key.*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(dir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}

	return nil
}

// writeAllureEnvironment writes environment.properties, keys sorted.
func writeAllureEnvironment(dir string, env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if env[k] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}

	path := filepath.Join(dir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}

	return nil
}

// writeAllureExecutor writes executor.json.
func writeAllureExecutor(dir string) error {
	executor := AllureExecutor{
		Name:       "mobile-qa",
		Type:       "mobile-qa",
		ReportName: "Mobile UI tests",
	}

	data, err := json.MarshalIndent(executor, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal executor: %w", err)
	}

	path := filepath.Join(dir, "executor.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write executor.json: %w", err)
	}

	return nil
}
