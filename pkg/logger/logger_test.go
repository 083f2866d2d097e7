package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL_NopBeforeInit(t *testing.T) {
	ResetForTest()
	assert.NotPanics(t, func() {
		Info("not initialised %d", 1)
		L().Warn("still fine")
	})
}

func TestInit_ConsoleLevel(t *testing.T) {
	defer ResetForTest()

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", NoColor: true, Console: &buf}))

	Info("hidden")
	Warn("shown %s", "warning")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown warning")
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	defer ResetForTest()

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "loud", NoColor: true, Console: &buf}))

	Debug("debug line")
	Info("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestInit_ColorLevels(t *testing.T) {
	defer ResetForTest()

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "info", Console: &buf}))
	Error("boom")
	Warn("careful")

	out := buf.String()
	assert.True(t, strings.Contains(out, "\x1b[31mERROR\x1b[0m"), "error level should be red: %q", out)
	assert.True(t, strings.Contains(out, "\x1b[33mWARN\x1b[0m"), "warn level should be yellow: %q", out)
}

func TestInit_FileOutput(t *testing.T) {
	defer ResetForTest()

	path := filepath.Join(t.TempDir(), "run.log")
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "debug", File: path, Console: &buf}))

	Named(nil, "wait").Info("polling")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"polling"`)
	assert.Contains(t, string(data), `"logger":"wait"`)
}

func TestInit_BadFilePath(t *testing.T) {
	defer ResetForTest()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Init(Options{File: filepath.Join(blocker, "nested", "run.log"), Console: &bytes.Buffer{}})
	assert.Error(t, err)
}
