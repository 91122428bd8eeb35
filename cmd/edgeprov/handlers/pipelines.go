package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/executil"
	"github.com/windguard/edgeprov/internal/occli"
	"github.com/windguard/edgeprov/internal/pipeline"
)

const (
	flightctlBinary = "flightctl"
	podmanBinary    = "podman"

	flightctlRouteNamespace = "open-cluster-management"
	flightctlRouteName      = "flightctl-api-route"
)

// toolbox builds pipeline steps that run external tools with the demo
// environment and with every credential masked in logs.
type toolbox struct {
	exec    executil.Executor
	env     []string
	secrets []string
}

func newToolbox(exec executil.Executor, cfg *config.Demo) toolbox {
	env := []string{
		"OCP_CLUSTER_DOMAIN=" + cfg.OCPCluster.Domain,
		"REGISTRY_URL=" + cfg.PrivateRegistry.URL,
		"REGISTRY_USER=" + cfg.PrivateRegistry.Username,
		"BOOTC_IMAGE=" + cfg.PrivateRegistry.BootcImage(),
		"QCOW_IMAGE=" + cfg.PrivateRegistry.QCOW2Image(),
	}
	return toolbox{exec: exec, env: env, secrets: cfg.Secrets()}
}

func (t toolbox) command(dir, name string, args ...string) executil.Command {
	return executil.Command{Name: name, Args: args, Env: t.env, Dir: dir, Sensitive: t.secrets}
}

func (t toolbox) step(name string, cmd executil.Command) pipeline.Step {
	return pipeline.CommandStep(t.exec, name, cmd)
}

// redirectStep runs cmd with its stdout written to path. Output goes to a
// temporary file next to path, created with mode 0600 because it holds
// secrets, and replaces path only when cmd succeeds. A failed run leaves any
// previous file untouched.
func (t toolbox) redirectStep(name, path string, cmd executil.Command) pipeline.Step {
	return pipeline.Step{
		Name: name,
		Run: func(ctx context.Context) error {
			f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			tmp := f.Name()
			committed := false
			defer func() {
				if !committed {
					_ = f.Close()
					_ = os.Remove(tmp)
				}
			}()

			cmd.Stdout = f
			if err := t.step(name, cmd).Run(ctx); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			if err := os.Rename(tmp, path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			committed = true
			return nil
		},
	}
}

// substituteStep feeds the file at path to cmd on stdin, with every
// occurrence of placeholder replaced by value.
func (t toolbox) substituteStep(name, path, placeholder, value string, cmd executil.Command) pipeline.Step {
	return pipeline.Step{
		Name: name,
		Run: func(ctx context.Context) error {
			data, err := readFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			cmd.Stdin = strings.NewReader(strings.ReplaceAll(string(data), placeholder, value))
			return t.step(name, cmd).Run(ctx)
		},
	}
}

func (t toolbox) openshiftLogin(cluster *config.Cluster) pipeline.Step {
	return t.step("login-openshift", t.command("", occli.Binary,
		"login", "-u", cluster.Username, "-p", cluster.Password, cluster.APIURL(),
		"--insecure-skip-tls-verify=true"))
}

// flightctlRoute looks up the Flight Control API host and stores it in host
// for the steps that follow.
func (t toolbox) flightctlRoute(host *string) pipeline.Step {
	cmd := t.command("", occli.Binary, "get", "route", "-n", flightctlRouteNamespace, flightctlRouteName,
		"-o", "jsonpath={.spec.host}")
	return pipeline.Step{
		Name: "lookup-flightctl-route",
		Run: func(ctx context.Context) error {
			out, err := executil.Output(ctx, t.exec, cmd)
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("route %s/%s has no host", flightctlRouteNamespace, flightctlRouteName)
			}
			*host = out
			log.FromContext(ctx).Info("Found Flight Control API", "host", out)
			return nil
		},
	}
}

func (t toolbox) flightctlLogin(cluster *config.Cluster, host *string) pipeline.Step {
	return pipeline.Step{
		Name: "login-flightctl",
		Run: func(ctx context.Context) error {
			cmd := t.command("", flightctlBinary, "login",
				"--username="+cluster.Username, "--password="+cluster.Password,
				"https://"+*host, "--insecure-skip-tls-verify")
			cmd.Env = append(slices.Clone(cmd.Env), "RHEM_API_SERVER_URL="+*host)
			return t.step("login-flightctl", cmd).Run(ctx)
		},
	}
}

// runPipeline runs steps under the session's observers and prints the
// summary.
func runPipeline(ctx context.Context, s *session, steps []pipeline.Step) error {
	result, err := pipeline.NewRunner(s.command, s.stepObservers()...).Run(ctx, steps)
	s.finish(ctx, err)
	printSummary(s, result, err)
	return err
}
