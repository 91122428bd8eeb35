package commands

import (
	"github.com/spf13/cobra"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
)

// Doctor returns the command for checking the build host.
//
// Optional flags:
//
//	--json: Output in JSON format
func Doctor(opts *handlers.Options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check required tools and the configuration file",
		Long: `Check that oc, flightctl and podman are installed, report the optional
subscription-manager and dnf, and validate the configuration file for
each command.

Examples:
  # Check the build host
  edgeprov doctor

  # Get the report in JSON format
  edgeprov doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), *opts, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
