package cli

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/mobile-qa/pkg/config"
	"github.com/devicelab-dev/mobile-qa/pkg/driver/appium"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var capsCommand = &cli.Command{
	Name:  "caps",
	Usage: "Print the capabilities a test run would send, without opening a session",
	Action: func(c *cli.Context) error {
		configDir, appDir, err := dirs(c)
		if err != nil {
			return err
		}
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}
		caps, err := appium.BuildCapabilities(cfg.Device, appDir)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(map[string]interface{}{
			"remote":       cfg.Device.Remote,
			"capabilities": caps,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode capabilities: %w", err)
		}
		fmt.Fprintln(c.App.Writer, string(data))
		return nil
	},
}
