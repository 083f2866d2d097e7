package appium

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/config"
	"github.com/devicelab-dev/mobile-qa/pkg/core"
	"github.com/devicelab-dev/mobile-qa/pkg/logger"
)

const (
	newCommandTimeout = 600   // seconds
	adbExecTimeout    = 50000 // milliseconds

	// legacyBrowserVersion is the Android release whose images need browserName set.
	legacyBrowserVersion = "6.0"
)

// W3C capability names. Anything that is not a standard capability must be
// vendor prefixed or the server rejects the session.
func vendor(name string) string {
	return "appium:" + name
}

// BuildCapabilities returns the capabilities for a new session on the device
// described by the device document. app is resolved against appDir.
func BuildCapabilities(device config.Device, appDir string) (map[string]interface{}, error) {
	caps := map[string]interface{}{
		vendor("appiumVersion"):     device.AppiumVersion,
		vendor("deviceOrientation"): device.DeviceOrientation,
		vendor("app"):               filepath.Join(appDir, device.App),
		vendor("deviceName"):        device.DeviceName,
		"platformName":              device.PlatformName,
		vendor("platformVersion"):   device.PlatformVersion,
		vendor("newCommandTimeout"): newCommandTimeout,
	}

	platform := strings.ToLower(device.PlatformName)
	switch platform {
	case "ios":
		return nil, core.ErrUnsupportedPlatform.WithMessage("iOS tests are not available for this project")
	case "android":
		if err := requireAndroidKeys(device); err != nil {
			return nil, err
		}
		caps[vendor("adbExecTimeout")] = adbExecTimeout
		caps[vendor("appPackage")] = device.AppPackage
		caps[vendor("appActivity")] = device.AppActivity
		caps[vendor("unicodeKeyboard")] = *device.UnicodeKeyboard
		caps[vendor("resetKeyboard")] = *device.ResetKeyboard
		caps[vendor("automationName")] = "UiAutomator2"
		if device.PlatformVersion == legacyBrowserVersion {
			if device.BrowserName == "" {
				return nil, missingAndroidKey("browserName")
			}
			caps["browserName"] = device.BrowserName
		}
	default:
		return nil, core.ErrUnsupportedPlatform.WithMessagef(
			"unknown test platform %s, please use ios or android", platform)
	}
	return caps, nil
}

func requireAndroidKeys(device config.Device) error {
	switch {
	case device.AppPackage == "":
		return missingAndroidKey("appPackage")
	case device.AppActivity == "":
		return missingAndroidKey("appActivity")
	case device.UnicodeKeyboard == nil:
		return missingAndroidKey("unicodeKeyboard")
	case device.ResetKeyboard == nil:
		return missingAndroidKey("resetKeyboard")
	}
	return nil
}

func missingAndroidKey(key string) error {
	return core.ErrMissingKey.WithMessagef("missing required key %q in %s", key, config.AndroidFile)
}

// Open builds capabilities from cfg and creates a session on the server named
// by the device document's remote key.
func Open(ctx context.Context, cfg *config.Config, appDir string) (*Client, error) {
	caps, err := BuildCapabilities(cfg.Device, appDir)
	if err != nil {
		return nil, err
	}

	log := logger.Named(nil, "appium")
	log.Info("starting appium driver", zap.String("remote", cfg.Device.Remote), zap.Any("caps", caps))

	client := NewClient(cfg.Device.Remote)
	if err := client.Connect(ctx, caps); err != nil {
		return nil, err
	}
	return client, nil
}
