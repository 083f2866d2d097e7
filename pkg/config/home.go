package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

const envHome = "MOBILE_QA_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the project root holding configuration/, test_apps/ and
// the artifact directories.
//
// Resolution order:
//  1. $MOBILE_QA_HOME environment variable
//  2. Parent of the binary's directory (if binary is in <home>/bin/)
//  3. Current working directory (development fallback)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetConfigDir returns <home>/configuration.
func GetConfigDir() string {
	return filepath.Join(GetHome(), "configuration")
}

// GetAppDir returns <home>/test_apps.
func GetAppDir() string {
	return filepath.Join(GetHome(), "test_apps")
}

// ExpandPath expands a leading ~ and makes a relative path absolute against
// the home directory. Empty input yields fallback.
func ExpandPath(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(GetHome(), expanded)
	}
	return expanded, nil
}

func resolveHome() string {
	// 1. Environment variable
	if env := os.Getenv(envHome); env != "" {
		if expanded, err := homedir.Expand(env); err == nil {
			return expanded
		}
		return env
	}

	// 2. Binary-relative: if binary is at <home>/bin/mobile-qa, use <home>
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	// 3. Current working directory
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
