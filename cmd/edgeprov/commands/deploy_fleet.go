package commands

import (
	"github.com/spf13/cobra"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
)

// DeployFleet returns the command that deploys the fleet and edge VMs.
func DeployFleet(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy-fleet [CONFIG]",
		Short: "Deploy the Flight Control fleet and edge VMs",
		Long: `Apply the Flight Control repository and fleet, then deploy the edge
VMs to OpenShift Virtualization using the images built by build-image.

Run from the directory containing ` + handlers.ManifestDir + `.
The config file needs the private_registry and ocp_cluster sections.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DeployFleet(cmd.Context(), configArg(opts, args))
		},
	}
}
