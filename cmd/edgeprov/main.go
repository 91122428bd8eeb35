// Package main is the entry point for the edgeprov CLI.
//
// edgeprov provisions the WindGuard edge demo: it builds the bootc and
// QCOW2 images for the edge devices, deploys the Flight Control fleet and
// edge VMs to OpenShift, and waits for the Argo CD applications before
// enabling the Flight Control console plugin.
//
// Commands: wait, build-image, deploy-fleet, init, doctor, journal.
//
// For detailed usage information, run:
//
//	edgeprov --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/windguard/edgeprov/cmd/edgeprov/commands"
	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(handlers.ExitCode(err))
}
