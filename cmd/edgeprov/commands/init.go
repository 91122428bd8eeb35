package commands

import (
	"github.com/spf13/cobra"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
	"github.com/windguard/edgeprov/internal/config"
)

// Init returns the command for interactively creating the demo configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "demo-config.yaml")
//	--force, -f: Overwrite an existing file without asking
func Init() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create the demo configuration",
		Long: `Interactively create the demo configuration file.

The wizard asks for:

  - OpenShift cluster domain and credentials
  - Private registry and registry.redhat.io credentials
  - An optional token for 'edgeprov wait'
  - An optional S3 bucket for run journals

The file holds credentials and is written with mode 0600.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", config.DefaultConfigFilename, "Output file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file without asking")

	return cmd
}
