// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
	"github.com/windguard/edgeprov/internal/config"
)

// Root returns the root command for the edgeprov CLI.
//
// The root command owns the flags shared by every subcommand and installs
// the logger before any of them runs.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "edgeprov",
		Short:         "Provision the WindGuard edge demo on OpenShift",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := zap.New(zap.UseDevMode(opts.Verbose), zap.WriteTo(cmd.ErrOrStderr()))
			log.SetLogger(logger)
			cmd.SetContext(log.IntoContext(cmd.Context(), logger))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", config.DefaultConfigFilename, "Path to configuration file")
	flags.StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: $KUBECONFIG or ~/.kube/config)")
	flags.StringVar(&opts.KubeContext, "context", "", "Kubeconfig context to use")
	flags.StringVar(&opts.JournalPath, "journal", "", "Append a JSON-lines run journal to this file")
	flags.StringVar(&opts.Pushgateway, "pushgateway", "", "Push run metrics to this Prometheus Pushgateway URL")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose logging, including every command line")

	// Core commands
	cmd.AddCommand(Wait(opts))
	cmd.AddCommand(BuildImage(opts))
	cmd.AddCommand(DeployFleet(opts))

	// Utility commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Doctor(opts))
	cmd.AddCommand(Journal(opts))
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// configArg lets build-image and deploy-fleet take the config file as an
// optional positional argument.
func configArg(opts *handlers.Options, args []string) handlers.Options {
	o := *opts
	if len(args) == 1 {
		o.ConfigPath = args[0]
	}
	return o
}
