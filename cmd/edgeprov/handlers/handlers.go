// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"k8s.io/client-go/rest"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/executil"
	"github.com/windguard/edgeprov/internal/k8sclient"
	"github.com/windguard/edgeprov/internal/ui/tui"
	"github.com/windguard/edgeprov/internal/util/prerequisites"
)

// Options are the flags shared by every command.
type Options struct {
	// ConfigPath is the demo configuration file.
	ConfigPath string

	Kubeconfig  string
	KubeContext string

	// JournalPath, if set, receives the JSON-lines run journal.
	JournalPath string

	// Pushgateway, if set, receives the run metrics when the command ends.
	Pushgateway string

	Verbose bool
}

func (o Options) configPath() string {
	if o.ConfigPath == "" {
		return config.DefaultConfigFilename
	}
	return o.ConfigPath
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newExecutor creates the executor that runs external tools.
	newExecutor = func(stream bool) executil.Executor {
		return &executil.OSExecutor{Stream: stream}
	}

	// newK8sClient creates a Kubernetes client.
	newK8sClient = func(cfg *rest.Config) (*k8sclient.Client, error) {
		return k8sclient.New(cfg)
	}

	// runTUI runs the live view.
	runTUI = tui.Run

	// checkTools runs the prerequisite tool check.
	checkTools = prerequisites.CheckAll

	// readFile reads manifest files (for testing injection).
	readFile = os.ReadFile

	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// stdout receives human-facing output.
	stdout io.Writer = os.Stdout

	// isInteractiveTTY reports whether stdout is a terminal.
	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)
