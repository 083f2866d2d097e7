// Package cli provides the command-line interface for mobile-qa.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/mobile-qa/pkg/config"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config-dir",
		Usage:   "Directory holding env_config.json and the device configs (default: <home>/configuration)",
		EnvVars: []string{"MOBILE_QA_CONFIG_DIR"},
	},
	&cli.StringFlag{
		Name:    "app-dir",
		Usage:   "Directory holding the app binaries (default: <home>/test_apps)",
		EnvVars: []string{"MOBILE_QA_APP_DIR"},
	},
	&cli.StringFlag{
		Name:    "selectors",
		Usage:   "YAML file with selectors overriding the built-in ones",
		EnvVars: []string{"MOBILE_QA_SELECTORS"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		EnvVars: []string{"MOBILE_QA_LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Also write JSON logs to this file",
		EnvVars: []string{"MOBILE_QA_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"MOBILE_QA_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "mobile-qa",
		Usage:   "End-to-end UI tests for the mobile app",
		Version: Version,
		Description: `mobile-qa drives the app through an Appium server and writes Allure
results. Failing tests keep a screen recording and a screenshot.

Examples:
  mobile-qa test
  mobile-qa test login --run 'test_0[1-3]'
  mobile-qa --config-dir ./configuration caps`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return initLogging(c)
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			testCommand,
			capsCommand,
			scenariosCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogging(c *cli.Context) error {
	level := c.String("log-level")
	if c.Bool("verbose") {
		level = "debug"
	}
	return logger.Init(logger.Options{
		Level:   level,
		File:    c.String("log-file"),
		NoColor: !colorsEnabled,
		Console: c.App.ErrWriter,
	})
}

// dirs resolves the configuration and app directories.
func dirs(c *cli.Context) (configDir, appDir string, err error) {
	configDir, err = config.ExpandPath(c.String("config-dir"), config.GetConfigDir())
	if err != nil {
		return "", "", fmt.Errorf("--config-dir: %w", err)
	}
	appDir, err = config.ExpandPath(c.String("app-dir"), config.GetAppDir())
	if err != nil {
		return "", "", fmt.Errorf("--app-dir: %w", err)
	}
	return configDir, appDir, nil
}
