package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// runWizard runs the interactive wizard.
	runWizard = wizard.RunWizard

	// writeConfig writes the config to a file.
	writeConfig = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to outputPath.
func Init(ctx context.Context, outputPath string, force bool) error {
	if outputPath == "" {
		outputPath = config.DefaultConfigFilename
	}

	printWelcome()

	answers, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := answers.Build()
	if err := writeConfig(cfg, outputPath, force); err != nil {
		if errors.Is(err, wizard.ErrAborted) {
			fmt.Fprintln(stdout, "Aborted, existing configuration kept.")
			return nil
		}
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "edgeprov - WindGuard edge demo provisioning")
	fmt.Fprintln(stdout, "===========================================")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "This wizard creates demo-config.yaml with the cluster, registry and")
	fmt.Fprintln(stdout, "journal settings used by build-image, deploy-fleet and wait.")
	fmt.Fprintln(stdout)
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Demo) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Configuration saved!")
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  File: %s\n", outputPath)
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Summary")
	fmt.Fprintln(stdout, "-------")
	fmt.Fprintf(stdout, "  Cluster API:    %s\n", cfg.OCPCluster.APIURL())
	fmt.Fprintf(stdout, "  Bootc Image:    %s\n", cfg.PrivateRegistry.BootcImage())
	fmt.Fprintf(stdout, "  QCOW2 Image:    %s\n", cfg.PrivateRegistry.QCOW2Image())
	if cfg.HasLogin() {
		fmt.Fprintf(stdout, "  Wait login:     %s\n", cfg.Server)
	}
	if cfg.Journal != nil {
		fmt.Fprintf(stdout, "  Journal bucket: %s\n", cfg.Journal.Bucket)
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintln(stdout, "  1. Check the build host: edgeprov doctor")
	fmt.Fprintln(stdout, "  2. Build the images:     edgeprov build-image")
	fmt.Fprintln(stdout, "  3. Deploy the fleet:     edgeprov deploy-fleet")
	fmt.Fprintln(stdout)
}
