// Package config loads the environment and device documents that describe
// where and on what the suite runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
	"github.com/devicelab-dev/mobile-qa/pkg/selector"
)

// Default document names inside the config directory.
const (
	EnvFile     = "env_config.json"
	AndroidFile = "android_config.json"
	IOSFile     = "ios_config.json"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// Document is a decoded config file. Keys are required: reading an absent
// key is an error, never a zero value.
type Document map[string]interface{}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Get returns the raw value for key.
func (d Document) Get(key string) (interface{}, error) {
	v, ok := d[key]
	if !ok {
		return nil, core.ErrMissingKey.WithMessagef("missing required key %q", key)
	}
	return v, nil
}

// String returns key as a string. Numbers are formatted so "platformVersion": 6.0
// and "platformVersion": "6.0" read the same.
func (d Document) String(key string) (string, error) {
	v, err := d.Get(key)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64, int, bool:
		return fmt.Sprint(t), nil
	default:
		return "", core.ErrInvalidConfig.WithMessagef("key %q is not a string", key)
	}
}

// Bool returns key as a boolean.
func (d Document) Bool(key string) (bool, error) {
	v, err := d.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, core.ErrInvalidConfig.WithMessagef("key %q is not a boolean", key)
	}
	return b, nil
}

// LoadDocument reads a JSON (or .yaml/.yml) file. A missing file or invalid
// syntax returns an error and no document.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("%s does not exist", path)
			return nil, core.ErrConfigNotFound.WithMessagef("%s does not exist", path).WithCause(err)
		}
		return nil, core.ErrConfig.WithMessagef("read %s", path).WithCause(err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		logger.Error("config file %s is invalid", path)
		return nil, core.ErrConfigDecode.WithMessagef("config file %s is invalid", path).WithCause(err)
	}
	if doc == nil {
		return nil, core.ErrConfigDecode.WithMessagef("config file %s is empty", path)
	}

	logger.Info("data from %s loaded", path)
	return doc, nil
}

// Environment is the environment document.
type Environment struct {
	PlatformName string `json:"platformName" validate:"required"`
}

// Device is the platform-specific device document.
type Device struct {
	AppiumVersion     string `json:"appiumVersion" validate:"required"`
	DeviceOrientation string `json:"deviceOrientation" validate:"required"`
	App               string `json:"app" validate:"required"`
	DeviceName        string `json:"deviceName" validate:"required"`
	PlatformName      string `json:"platformName" validate:"required"`
	PlatformVersion   string `json:"platformVersion" validate:"required"`
	Remote            string `json:"remote" validate:"required,url"`

	// Android only; presence is checked when capabilities are built.
	AppPackage      string `json:"appPackage,omitempty"`
	AppActivity     string `json:"appActivity,omitempty"`
	UnicodeKeyboard *bool  `json:"unicodeKeyboard,omitempty"`
	ResetKeyboard   *bool  `json:"resetKeyboard,omitempty"`
	BrowserName     string `json:"browserName,omitempty"`
}

// Config is everything loaded at process start.
type Config struct {
	Platform  selector.Platform
	Env       Environment
	Device    Device
	EnvDoc    Document
	DeviceDoc Document
}

// DeviceFile returns the device document name for a platform.
func DeviceFile(p selector.Platform) string {
	if p == selector.IOS {
		return IOSFile
	}
	return AndroidFile
}

// LoadEnvironment reads and validates env_config.json from dir.
func LoadEnvironment(dir string) (Environment, Document, error) {
	var env Environment
	doc, err := LoadDocument(filepath.Join(dir, EnvFile))
	if err != nil {
		return env, nil, err
	}
	if err := bind(doc, &env); err != nil {
		return env, nil, fmt.Errorf("%s: %w", EnvFile, err)
	}
	return env, doc, nil
}

// LoadDevice reads and validates the device document for a platform.
func LoadDevice(dir string, p selector.Platform) (Device, Document, error) {
	var device Device
	name := DeviceFile(p)
	doc, err := LoadDocument(filepath.Join(dir, name))
	if err != nil {
		return device, nil, err
	}
	if err := bind(doc, &device); err != nil {
		return device, nil, fmt.Errorf("%s: %w", name, err)
	}
	return device, doc, nil
}

// Load reads env_config.json from dir, then the device document for the
// platform it names.
func Load(dir string) (*Config, error) {
	env, envDoc, err := LoadEnvironment(dir)
	if err != nil {
		return nil, err
	}

	platform, err := selector.ParsePlatform(env.PlatformName)
	if err != nil {
		return nil, err
	}

	device, deviceDoc, err := LoadDevice(dir, platform)
	if err != nil {
		return nil, err
	}

	return &Config{
		Platform:  platform,
		Env:       env,
		Device:    device,
		EnvDoc:    envDoc,
		DeviceDoc: deviceDoc,
	}, nil
}

// bind converts a document into a typed struct and validates required fields.
func bind(doc Document, v interface{}) error {
	normalized := make(Document, len(doc))
	for k, val := range doc {
		// Versions are often written as numbers.
		if f, ok := val.(float64); ok && (k == "platformVersion" || k == "appiumVersion") {
			val = formatVersion(f)
		}
		normalized[k] = val
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return core.ErrInvalidConfig.WithCause(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return core.ErrInvalidConfig.WithCause(err)
	}
	if err := validate.Struct(v); err != nil {
		return Validate(err)
	}
	return nil
}

func formatVersion(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprint(f)
}

// Validate turns validator errors into a single ErrInvalidConfig naming every
// offending JSON key.
func Validate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return core.ErrInvalidConfig.WithCause(err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if len(field) > 0 {
			field = strings.ToLower(field[:1]) + field[1:]
		}
		if fe.Tag() == "required" {
			problems = append(problems, fmt.Sprintf("missing required key %q", field))
		} else {
			problems = append(problems, fmt.Sprintf("key %q failed %q", field, fe.Tag()))
		}
	}
	return core.ErrInvalidConfig.WithMessage(strings.Join(problems, "; "))
}
