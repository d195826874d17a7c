// Package main provides the entry point for tenantgate-cli.
//
// tenantgate-cli manages API keys and memberships in a stopped server's
// data directory, and probes a running server:
//
//	tenantgate-cli -d /var/lib/tenantgate/data apikey create --tenant <uuid> --name ci
//	tenantgate-cli -d /var/lib/tenantgate/data membership add --tenant <uuid> alice
//	tenantgate-cli --token $JWT whoami --tenant <uuid>
//	tenantgate-cli health --ready
package main

import (
	"os"

	"github.com/yndnr/tenantgate/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
