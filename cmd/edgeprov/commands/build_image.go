package commands

import (
	"github.com/spf13/cobra"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
)

// BuildImage returns the command that builds the edge device images.
func BuildImage(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "build-image [CONFIG]",
		Short: "Build and push the bootc and QCOW2 edge images",
		Long: `Build the bootable container image and the QCOW2 disk image for the
WindGuard edge devices and push both to the private registry.

Run from the directory containing ` + handlers.BuildDir + `.
The config file needs the redhat_registry, private_registry and
ocp_cluster sections.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.BuildImage(cmd.Context(), configArg(opts, args))
		},
	}
}
