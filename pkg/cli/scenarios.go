package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/mobile-qa/pkg/scenario"
)

var scenariosCommand = &cli.Command{
	Name:  "scenarios",
	Usage: "List the scenarios and their cases",
	Action: func(c *cli.Context) error {
		for _, name := range scenario.Names() {
			sc, _ := scenario.Lookup(name)
			fmt.Fprintf(c.App.Writer, "%s%s%s (%s)\n", color(colorBold), name, color(colorReset), sc.Name)
			for _, tc := range sc.Cases {
				fmt.Fprintf(c.App.Writer, "  %-42s %s%s%s\n", tc.Name, color(colorGray), tc.Title, color(colorReset))
			}
		}
		return nil
	},
}
