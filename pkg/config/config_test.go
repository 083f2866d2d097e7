package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

const androidConfig = `{
  "appiumVersion": "1.22.3",
  "deviceOrientation": "portrait",
  "app": "app-debug.apk",
  "deviceName": "Android Emulator",
  "platformName": "Android",
  "platformVersion": "11.0",
  "appPackage": "com.example.appiumqatest",
  "appActivity": ".MainActivity",
  "unicodeKeyboard": true,
  "resetKeyboard": true,
  "remote": "http://127.0.0.1:4723/wd/hub"
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocument_ValidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "env_config.json", `{"platformName": "android", "retries": 2}`)

	doc, err := LoadDocument(path)
	require.NoError(t, err)

	platform, err := doc.String("platformName")
	require.NoError(t, err)
	assert.Equal(t, "android", platform)
	assert.True(t, doc.Has("retries"))
}

func TestLoadDocument_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "env_config.yaml", "platformName: ios\nverbose: true\n")

	doc, err := LoadDocument(path)
	require.NoError(t, err)

	platform, err := doc.String("platformName")
	require.NoError(t, err)
	assert.Equal(t, "ios", platform)

	verbose, err := doc.Bool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)
}

func TestLoadDocument_NonExistentFile(t *testing.T) {
	doc, err := LoadDocument("/nonexistent/env_config.json")

	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, core.ErrConfigNotFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDocument_InvalidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "env_config.json", `{"platformName": "android",`)

	doc, err := LoadDocument(path)

	require.Error(t, err)
	assert.Nil(t, doc, "no partially parsed mapping may be returned")
	assert.True(t, errors.Is(err, core.ErrConfigDecode))
}

func TestLoadDocument_EmptyJSONNull(t *testing.T) {
	path := writeFile(t, t.TempDir(), "env_config.json", `null`)

	_, err := LoadDocument(path)
	assert.True(t, errors.Is(err, core.ErrConfigDecode))
}

func TestDocument_MissingKey(t *testing.T) {
	doc := Document{"platformName": "android"}

	_, err := doc.String("deviceName")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingKey))
	assert.Contains(t, err.Error(), "deviceName")

	_, err = doc.Bool("resetKeyboard")
	assert.True(t, errors.Is(err, core.ErrMissingKey))
}

func TestDocument_WrongTypes(t *testing.T) {
	doc := Document{"flag": "yes", "nested": map[string]interface{}{}, "version": 6.0}

	_, err := doc.Bool("flag")
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))

	_, err = doc.String("nested")
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))

	v, err := doc.String("version")
	require.NoError(t, err)
	assert.Equal(t, "6", v)
}

func TestLoad_Android(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnvFile, `{"platformName": "Android"}`)
	writeFile(t, dir, AndroidFile, androidConfig)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, selector.Android, cfg.Platform)
	assert.Equal(t, "Android Emulator", cfg.Device.DeviceName)
	assert.Equal(t, "com.example.appiumqatest", cfg.Device.AppPackage)
	require.NotNil(t, cfg.Device.UnicodeKeyboard)
	assert.True(t, *cfg.Device.UnicodeKeyboard)
	assert.Equal(t, "http://127.0.0.1:4723/wd/hub", cfg.Device.Remote)
	assert.True(t, cfg.DeviceDoc.Has("appActivity"))
}

func TestLoad_PicksIOSDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnvFile, `{"platformName": "iOS"}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigNotFound))
	assert.Contains(t, err.Error(), IOSFile)
}

func TestLoad_NumericVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnvFile, `{"platformName": "android"}`)
	writeFile(t, dir, AndroidFile, `{
  "appiumVersion": "1.22.3", "deviceOrientation": "portrait", "app": "a.apk",
  "deviceName": "emu", "platformName": "Android", "platformVersion": 6.0,
  "remote": "http://localhost:4723/wd/hub"
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "6.0", cfg.Device.PlatformVersion)
}

func TestLoad_UnknownPlatform(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnvFile, `{"platformName": "symbian"}`)

	_, err := Load(dir)
	assert.True(t, errors.Is(err, core.ErrUnsupportedPlatform))
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnvFile, `{"platformName": "android"}`)
	writeFile(t, dir, AndroidFile, `{"appiumVersion": "1.22.3", "remote": "not a url"}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	assert.Contains(t, err.Error(), `missing required key "deviceName"`)
	assert.Contains(t, err.Error(), `key "remote" failed "url"`)
}

func TestLoad_MissingPlatformName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnvFile, `{}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required key "platformName"`)
}
