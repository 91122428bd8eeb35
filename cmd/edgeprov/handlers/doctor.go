package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/ui/tui"
)

// DoctorStatus is the machine-readable doctor report.
type DoctorStatus struct {
	Tools  []ToolStatus  `json:"tools"`
	Config *ConfigStatus `json:"config,omitempty"`
}

// ToolStatus represents one checked tool.
type ToolStatus struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
}

// ConfigStatus reports which commands the config file is complete for.
type ConfigStatus struct {
	Path        string   `json:"path"`
	BuildImage  []string `json:"buildImage,omitempty"`
	DeployFleet []string `json:"deployFleet,omitempty"`
	WaitLogin   bool     `json:"waitLogin"`
}

// Doctor checks the tools every command needs and the config file.
func Doctor(ctx context.Context, opts Options, jsonOutput bool) error {
	results := checkTools(ctx)

	status := &DoctorStatus{}
	for _, r := range results.Results {
		status.Tools = append(status.Tools, ToolStatus{
			Name:     r.Tool.Name,
			Required: r.Tool.Required,
			Found:    r.Found,
			Path:     r.Path,
			Version:  r.Version,
		})
	}

	cfg, cfgErr := config.LoadOptional(opts.configPath())
	if cfg != nil {
		status.Config = &ConfigStatus{
			Path:        opts.configPath(),
			BuildImage:  problems(cfg.Require(config.BuildSections...)),
			DeployFleet: problems(cfg.Require(config.DeploySections...)),
			WaitLogin:   cfg.HasLogin(),
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprint(stdout, tui.RenderDoctor(results))
		printConfigStatus(status.Config, cfgErr, opts.configPath())
	}

	if cfgErr != nil {
		return fmt.Errorf("failed to load config: %w", cfgErr)
	}
	return results.Error()
}

// problems flattens a joined validation error.
func problems(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func printConfigStatus(status *ConfigStatus, loadErr error, path string) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "  Config")
	switch {
	case loadErr != nil:
		fmt.Fprintf(stdout, "    %s: %v\n", path, loadErr)
		return
	case status == nil:
		fmt.Fprintf(stdout, "    %s not found (run 'edgeprov init')\n", path)
		return
	}

	line := func(name string, missing []string) {
		if len(missing) == 0 {
			fmt.Fprintf(stdout, "    %-14s ready\n", name)
			return
		}
		fmt.Fprintf(stdout, "    %-14s %d problem(s)\n", name, len(missing))
		for _, m := range missing {
			fmt.Fprintf(stdout, "      - %s\n", m)
		}
	}
	line("build-image", status.BuildImage)
	line("deploy-fleet", status.DeployFleet)
	if status.WaitLogin {
		fmt.Fprintf(stdout, "    %-14s logs in with the configured token\n", "wait")
	} else {
		fmt.Fprintf(stdout, "    %-14s uses the current session\n", "wait")
	}
}
