// Package prerequisites provides utilities for checking required client tools.
package prerequisites

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string

	// VersionArgs are passed to the tool to print its version.
	VersionArgs []string
}

// DefaultTools returns the tools every command needs.
// oc is always required to talk to the hub cluster.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "oc",
			Required:    true,
			Description: "Required for OpenShift login, manifests and console patching",
			InstallURL:  "https://docs.openshift.com/container-platform/latest/cli_reference/openshift_cli/getting-started-cli.html",
			VersionArgs: []string{"version", "--client"},
		},
		{
			Name:        "flightctl",
			Required:    true,
			Description: "Required for Flight Control login, enrollment and fleet apply",
			InstallURL:  "https://github.com/flightctl/flightctl/blob/main/docs/user/cli/installing-cli.md",
			VersionArgs: []string{"version"},
		},
		{
			Name:        "podman",
			Required:    true,
			Description: "Required for building and pushing bootc images",
			InstallURL:  "https://podman.io/docs/installation",
			VersionArgs: []string{"--version"},
		},
	}
}

// OptionalTools returns tools that are useful but not required.
func OptionalTools() []Tool {
	return []Tool{
		{
			Name:        "subscription-manager",
			Required:    false,
			Description: "Enables RHEL repositories on the build host",
			InstallURL:  "https://access.redhat.com/documentation/en-us/subscription_central",
			VersionArgs: []string{"version"},
		},
		{
			Name:        "dnf",
			Required:    false,
			Description: "Installs build host packages",
			InstallURL:  "https://dnf.readthedocs.io/",
			VersionArgs: []string{"--version"},
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// LookPath finds a binary. It is a variable so tests can stub PATH lookups.
var LookPath = exec.LookPath

// Check verifies that the specified tools are available.
func Check(ctx context.Context, tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			// Best effort; a tool that cannot report its version still counts.
			result.Version = toolVersion(ctx, path, tool.VersionArgs)
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckAll checks all tools (default + optional).
func CheckAll(ctx context.Context) *CheckResults {
	defaults := DefaultTools()
	optional := OptionalTools()
	all := make([]Tool, 0, len(defaults)+len(optional))
	all = append(all, defaults...)
	all = append(all, optional...)
	return Check(ctx, all)
}

// toolVersion returns the first line of the tool's version output, or an
// empty string.
func toolVersion(ctx context.Context, path string, args []string) string {
	if len(args) == 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// #nosec G204 - path and args come from trusted Tool definitions, not user input
	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
