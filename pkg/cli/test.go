package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/mobile-qa/pkg/config"
	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/driver/appium"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
	"github.com/devicelab-dev/mobile-qa/pkg/pages"
	"github.com/devicelab-dev/mobile-qa/pkg/report"
	"github.com/devicelab-dev/mobile-qa/pkg/scenario"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

var testCommand = &cli.Command{
	Name:      "test",
	Usage:     "Run scenarios on the configured device",
	ArgsUsage: "[scenario]...",
	Description: `Run one or more scenarios (default: all) against the device named in
the configuration directory.

Artifacts:
  - Allure results: --report-dir (default ./allure-results)
  - Videos of failed tests: --video-dir/<platform>/<test>.mp4
  - Screenshots of failed lookups: --screenshot-dir/<test>.png

Examples:
  mobile-qa test
  mobile-qa test login --run test_05
  mobile-qa test --timeout 10s --report-dir ./results`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "report-dir",
			Usage: "Directory for Allure results",
			Value: "allure-results",
		},
		&cli.StringFlag{
			Name:  "video-dir",
			Usage: "Directory for videos of failed tests",
			Value: "video",
		},
		&cli.StringFlag{
			Name:  "screenshot-dir",
			Usage: "Directory for diagnostic screenshots",
			Value: "screenshots",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Default wait timeout",
			Value: 5 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Default poll interval",
			Value: 500 * time.Millisecond,
		},
		&cli.StringFlag{
			Name:  "run",
			Usage: "Only run cases whose name or title match this regular expression",
		},
	},
	Action: runTest,
}

// RunConfig holds the options of a test run.
type RunConfig struct {
	Scenarios     []string
	SelectorsFile string
	ReportDir     string
	VideoDir      string
	ScreenshotDir string
	Timeout       time.Duration
	Interval      time.Duration
	Run           string
	ReportEnv     map[string]string // environment.properties entries
}

func runTest(c *cli.Context) error {
	configDir, appDir, err := dirs(c)
	if err != nil {
		return err
	}
	selectors, err := config.ExpandPath(c.String("selectors"), "")
	if err != nil {
		return fmt.Errorf("--selectors: %w", err)
	}

	// Config problems abort before any session is opened.
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if _, err := appium.BuildCapabilities(cfg.Device, appDir); err != nil {
		return err
	}

	rc := &RunConfig{
		Scenarios:     c.Args().Slice(),
		SelectorsFile: selectors,
		ReportDir:     c.String("report-dir"),
		VideoDir:      c.String("video-dir"),
		ScreenshotDir: c.String("screenshot-dir"),
		Timeout:       c.Duration("timeout"),
		Interval:      c.Duration("interval"),
		Run:           c.String("run"),
		ReportEnv: map[string]string{
			"platform":        cfg.Platform.String(),
			"platformVersion": cfg.Device.PlatformVersion,
			"device":          cfg.Device.DeviceName,
			"app":             cfg.Device.App,
			"remote":          cfg.Device.Remote,
		},
	}

	open := func(ctx context.Context) (core.Session, selector.Platform, error) {
		client, err := appium.Open(ctx, cfg, appDir)
		if err != nil {
			return nil, cfg.Platform, err
		}
		return client, cfg.Platform, nil
	}

	// Ctrl+C skips the remaining cases; the session is still closed.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return executeTest(ctx, rc, open, c.App.Writer)
}

func executeTest(ctx context.Context, rc *RunConfig, open scenario.Opener, out io.Writer) error {
	catalog, err := pages.LoadCatalog(rc.SelectorsFile)
	if err != nil {
		return err
	}
	var filter *regexp.Regexp
	if rc.Run != "" {
		if filter, err = regexp.Compile(rc.Run); err != nil {
			return fmt.Errorf("--run: %w", err)
		}
	}
	scenarios, err := selectScenarios(rc.Scenarios)
	if err != nil {
		return err
	}

	logger.Info("=== Test execution started ===")
	logger.Info("Report directory: %s", rc.ReportDir)

	p := &progress{out: out}
	var results []*core.RunResult
	for _, sc := range scenarios {
		suite := report.NewSuite(sc.Name, report.WithEnvironment(rc.ReportEnv))
		runner := scenario.NewRunner(open, suite, scenario.RunnerConfig{
			VideoDir:      rc.VideoDir,
			ScreenshotDir: rc.ScreenshotDir,
			Timeout:       rc.Timeout,
			Interval:      rc.Interval,
			Catalog:       catalog,
			Filter:        filter,
			OnCaseStart:   p.onCaseStart,
			OnCaseEnd:     p.onCaseEnd,
		})

		p.onScenarioStart(sc.Name)
		res := runner.Run(ctx, sc)
		if res.SetupErr != nil {
			p.onSetupFailed(res.SetupErr)
		}
		results = append(results, res)

		if err := suite.Write(rc.ReportDir); err != nil {
			fmt.Fprintf(out, "  %s⚠%s Warning: failed to write Allure results: %v\n", color(colorYellow), color(colorReset), err)
		}
	}

	printSummary(out, results)
	fmt.Fprintf(out, "  Allure results: %s\n\n", rc.ReportDir)

	for _, res := range results {
		if !res.OK() {
			return cli.Exit("", 1)
		}
	}
	return nil
}

// selectScenarios resolves names to scenarios; no names means all of them.
func selectScenarios(names []string) ([]scenario.Scenario, error) {
	if len(names) == 0 {
		names = scenario.Names()
	}
	out := make([]scenario.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := scenario.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (available: %s)", name, strings.Join(scenario.Names(), ", "))
		}
		out = append(out, sc)
	}
	return out, nil
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow case threshold
const slowThreshold = 30 * time.Second

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// progress prints live results.
type progress struct {
	out io.Writer
}

func (p *progress) onScenarioStart(name string) {
	fmt.Fprintf(p.out, "\n%s%s%s\n", color(colorBold), name, color(colorReset))
	fmt.Fprintln(p.out, strings.Repeat("─", 60))
}

func (p *progress) onSetupFailed(err error) {
	fmt.Fprintf(p.out, "  %s✗%s setup failed\n", color(colorRed), color(colorReset))
	fmt.Fprintf(p.out, "    %s╰─%s %v\n", color(colorGray), color(colorReset), err)
}

func (p *progress) onCaseStart(idx, total int, name string) {
	fmt.Fprintf(p.out, "  %s[%d/%d]%s %s\n", color(colorCyan), idx+1, total, color(colorReset), name)
}

func (p *progress) onCaseEnd(name string, status core.TestStatus, d time.Duration, err error) {
	durStr := formatDuration(d)
	switch {
	case err == nil && d >= slowThreshold:
		fmt.Fprintf(p.out, "    %s⚠%s %s %s(%s)%s\n", color(colorYellow), color(colorReset), name, color(colorYellow), durStr, color(colorReset))
	case err == nil:
		fmt.Fprintf(p.out, "    %s✓%s %s (%s)\n", color(colorGreen), color(colorReset), name, durStr)
	default:
		fmt.Fprintf(p.out, "    %s✗%s %s %s (%s)\n", color(colorRed), color(colorReset), name, status, durStr)
		fmt.Fprintf(p.out, "      %s╰─%s %v\n", color(colorGray), color(colorReset), err)
	}
}

func printSummary(out io.Writer, results []*core.RunResult) {
	tableWidth := 80
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("═", tableWidth))
	fmt.Fprintf(out, "  %-44s %8s %10s\n", "Test", "Status", "Duration")
	fmt.Fprintln(out, strings.Repeat("─", tableWidth))

	counts := map[core.TestStatus]int{}
	var total time.Duration
	for _, res := range results {
		total += res.Duration
		for _, cr := range res.Cases {
			counts[cr.Status]++
			name := cr.Name
			if len(name) > 44 {
				name = name[:41] + "..."
			}
			fmt.Fprintf(out, "  %-44s %s%8s%s %10s\n",
				name, statusColor(cr.Status), strings.ToUpper(cr.Status.String()), color(colorReset),
				formatDuration(cr.Duration))
		}
	}

	fmt.Fprintln(out, strings.Repeat("─", tableWidth))
	fmt.Fprintf(out, "  %s%d passed%s, %s%d failed%s, %s%d broken%s, %d skipped (%s)\n",
		color(colorGreen), counts[core.StatusPassed], color(colorReset),
		color(colorRed), counts[core.StatusFailed], color(colorReset),
		color(colorRed), counts[core.StatusBroken], color(colorReset),
		counts[core.StatusSkipped], formatDuration(total))
	fmt.Fprintln(out, strings.Repeat("═", tableWidth))
}

func statusColor(s core.TestStatus) string {
	switch s {
	case core.StatusPassed:
		return color(colorGreen)
	case core.StatusFailed, core.StatusBroken:
		return color(colorRed)
	default:
		return color(colorCyan)
	}
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
