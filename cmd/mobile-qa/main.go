// Command mobile-qa runs the end-to-end UI tests of the mobile app.
package main

import "github.com/devicelab-dev/mobile-qa/pkg/cli"

func main() {
	cli.Execute()
}
