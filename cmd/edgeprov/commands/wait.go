package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/windguard/edgeprov/cmd/edgeprov/handlers"
	"github.com/windguard/edgeprov/internal/config"
)

// Wait returns the command that waits for Argo CD applications and enables
// the console plugin.
//
// NAMESPACE, INTERVAL and TIMEOUT are read from the environment; flags
// override them.
func Wait(opts *handlers.Options) *cobra.Command {
	var (
		wo       handlers.WaitOptions
		interval string
		timeout  string
	)

	cmd := &cobra.Command{
		Use:   "wait APP...",
		Short: "Wait for Argo CD applications to be Synced and Healthy",
		Long: `Wait until every named Argo CD application is Synced and Healthy, then
add the Flight Control plugin to the OpenShift console.

If the config file has 'server' and 'token', the cluster is reached with
that token; otherwise the current kubeconfig or oc session is used.

Environment:
  NAMESPACE  Namespace of the applications (default: openshift-gitops)
  INTERVAL   Time between polls, seconds or a duration (default: 10)
  TIMEOUT    Time allowed per application, seconds or a duration (default: 600)

Exit codes:
  0    every application is ready and the plugin is enabled
  1    an application did not become ready in time
  2    an application does not exist
  3    the console could not be patched
  4    another step failed
  130  interrupted

Examples:
  # Wait for two applications
  edgeprov wait frontend backend

  # Apply manifests first, poll every 5 seconds for up to 15 minutes
  edgeprov wait --manifest apps.yaml -i 5 -t 15m frontend backend

  # Poll up to four applications at a time
  edgeprov wait --max-parallel 4 frontend backend payments inventory`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.LoadWaitSettings()
			wo.Apps = args
			if !cmd.Flags().Changed("namespace") {
				wo.Namespace = env.Namespace
			}

			wo.Interval = env.Interval
			if cmd.Flags().Changed("interval") {
				d, err := parseDurationFlag("interval", interval)
				if err != nil {
					return err
				}
				wo.Interval = d
			}

			if wo.MaxParallel < 0 {
				return fmt.Errorf("--max-parallel must not be negative, got %d", wo.MaxParallel)
			}
			if cmd.Flags().Changed("max-parallel") {
				wo.Parallel = true
			}

			wo.Timeout = env.Timeout
			if cmd.Flags().Changed("timeout") {
				d, err := parseDurationFlag("timeout", timeout)
				if err != nil {
					return err
				}
				wo.Timeout = d
			}

			return handlers.Wait(cmd.Context(), *opts, wo)
		},
	}

	cmd.Flags().StringVarP(&wo.Namespace, "namespace", "n", config.DefaultNamespace, "Namespace of the applications")
	cmd.Flags().StringVarP(&interval, "interval", "i", "10", "Time between polls (seconds or duration)")
	cmd.Flags().StringVarP(&timeout, "timeout", "t", "600", "Time allowed per application (seconds or duration)")
	cmd.Flags().BoolVar(&wo.SkipLogin, "skip-login", false, "Ignore server and token from the config file")
	cmd.Flags().StringSliceVar(&wo.Manifests, "manifest", nil, "Manifest file to apply before waiting (repeatable)")
	cmd.Flags().StringVar(&wo.Plugin, "plugin", config.DefaultPlugin, "Console plugin to enable (empty to skip)")
	cmd.Flags().StringVar(&wo.Backend, "backend", handlers.BackendAPI, "How to reach the cluster: api or oc")
	cmd.Flags().BoolVar(&wo.Parallel, "parallel", false, "Poll all applications at the same time")
	cmd.Flags().IntVar(&wo.MaxParallel, "max-parallel", 0, "Poll at most this many applications at once (implies --parallel, 0 for no cap)")
	cmd.Flags().BoolVar(&wo.TUI, "tui", false, "Show a live progress view")
	cmd.Flags().BoolVar(&wo.InsecureSkipTLSVerify, "insecure-skip-tls-verify", true, "Skip TLS verification when logging in with a token")

	return cmd
}
