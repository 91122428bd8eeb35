package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/windguard/edgeprov/internal/config"
	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/executil"
	"github.com/windguard/edgeprov/internal/k8sclient"
	"github.com/windguard/edgeprov/internal/occli"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/resource"
	"github.com/windguard/edgeprov/internal/ui/tui"
)

// Backends for reading application status and patching the console.
const (
	BackendAPI = "api"
	BackendOC  = "oc"
)

// consolePluginsPath is where the console operator config lists plugins.
const consolePluginsPath = "spec.plugins"

// WaitOptions configures the wait command.
type WaitOptions struct {
	Apps      []string
	Namespace string
	Interval  time.Duration
	Timeout   time.Duration

	// SkipLogin ignores server and token from the config file.
	SkipLogin bool

	// Manifests are applied before waiting.
	Manifests []string

	// Plugin is added to the console plugin list once every app is ready.
	// Empty skips the patch.
	Plugin string

	Backend  string
	Parallel bool
	// MaxParallel caps how many applications are polled at once when
	// Parallel is set. Zero means no cap.
	MaxParallel int
	TUI         bool

	InsecureSkipTLSVerify bool
}

// clusterAccess bundles what the wait flow needs from the cluster.
type clusterAccess struct {
	// login is nil when the current session is used as is.
	login *pipeline.Step
	// checkNamespace is nil when the backend cannot look up namespaces.
	checkNamespace func(ctx context.Context, namespace string) error
	apply          func(ctx context.Context, manifests []string) error
	provider       convergence.StatusProvider
	applier        patcher.Applier
}

// Wait logs into the cluster, applies manifests, waits for the Argo CD
// applications and enables the console plugin.
func Wait(ctx context.Context, opts Options, wo WaitOptions) error {
	logger := log.FromContext(ctx)

	if len(wo.Apps) == 0 {
		return errors.New("at least one application name is required")
	}
	if wo.MaxParallel < 0 {
		return fmt.Errorf("max-parallel must not be negative, got %d", wo.MaxParallel)
	}

	cfg, err := config.LoadOptional(opts.configPath())
	if err != nil {
		logger.Info("Warning: could not load config file, continuing without it", "path", opts.configPath(), "error", err.Error())
		cfg = nil
	}
	if wo.SkipLogin {
		cfg = nil
	}
	if !cfg.HasLogin() {
		logger.Info("No server and token configured, using the current session")
	}

	exec := newExecutor(opts.Verbose)
	access, err := newClusterAccess(opts, wo, cfg, exec)
	if err != nil {
		return err
	}

	s, err := startSession("wait", opts, cfg)
	if err != nil {
		return err
	}

	targets := resource.Refs(wo.Namespace, wo.Apps...)
	var report *convergence.Report
	var patched bool
	var change patcher.Change
	var patchErr error

	run := func(ctx context.Context) (pipeline.Result, error) {
		var steps []pipeline.Step
		if access.login != nil {
			steps = append(steps, *access.login)
		}
		if len(wo.Manifests) > 0 {
			steps = append(steps, pipeline.Step{
				Name: "apply-manifests",
				Run: func(ctx context.Context) error {
					return access.apply(ctx, wo.Manifests)
				},
			})
		}
		if access.checkNamespace != nil {
			steps = append(steps, pipeline.Step{
				Name: "check-namespace",
				Run: func(ctx context.Context) error {
					return access.checkNamespace(ctx, wo.Namespace)
				},
			})
		}
		steps = append(steps, pipeline.Step{
			Name: "wait-applications",
			Run: func(ctx context.Context) error {
				waiter := convergence.NewWaiter(access.provider, convergence.Options{
					Interval:       wo.Interval,
					Timeout:        wo.Timeout,
					Concurrent:     wo.Parallel,
					MaxConcurrency: wo.MaxParallel,
					Observers:      s.pollObservers(),
				})
				var err error
				report, err = waiter.WaitForAll(ctx, targets)
				s.metrics.RecordWait(report)
				return err
			},
		})
		if wo.Plugin != "" {
			steps = append(steps, pipeline.Step{
				Name: "enable-console-plugin",
				Run: func(ctx context.Context) error {
					console := resource.Ref{Name: config.ConsoleRef}
					patched = true
					change, patchErr = patcher.New(access.applier).EnsureElementPresent(ctx, patcher.Target{
						Resource:       console,
						CollectionPath: consolePluginsPath,
						Element:        wo.Plugin,
					})
					s.recordPatch(console, change, patchErr)
					return patchErr
				},
			})
		}
		return pipeline.NewRunner("wait", s.stepObservers()...).Run(ctx, steps)
	}

	var result pipeline.Result
	if wo.TUI && isInteractiveTTY() {
		err = runTUI(ctx, "wait", targets, func(ctx context.Context, b *tui.Bridge) error {
			s.bridge = b
			var err error
			result, err = run(ctx)
			return err
		})
	} else {
		result, err = run(ctx)
	}
	s.finish(ctx, err)

	fmt.Fprint(stdout, tui.RenderSummary(tui.Summary{
		Title:    "wait",
		Started:  s.started,
		Steps:    result.Records,
		Report:   report,
		Patched:  patched,
		Change:   change,
		PatchErr: patchErr,
		Err:      err,
	}))
	return err
}

// newClusterAccess selects the status provider and console applier for the
// backend, and the login step if the config file has credentials.
func newClusterAccess(opts Options, wo WaitOptions, cfg *config.Demo, exec executil.Executor) (*clusterAccess, error) {
	switch wo.Backend {
	case BackendOC:
		access := &clusterAccess{
			provider: occli.NewApplicationStatus(exec),
			applier:  occli.NewDocuments(exec, occli.ConsoleResource),
			apply: func(ctx context.Context, manifests []string) error {
				args := []string{"apply"}
				for _, m := range manifests {
					args = append(args, "-f", m)
				}
				cmd := executil.Command{Name: occli.Binary, Args: args}
				res, err := exec.Execute(ctx, cmd)
				if err != nil {
					return err
				}
				return res.Err(cmd)
			},
		}
		if cfg.HasLogin() {
			login := pipeline.CommandStep(exec, "login", occli.LoginCommand(cfg.Server, cfg.Token, wo.InsecureSkipTLSVerify))
			access.login = &login
		}
		return access, nil

	case BackendAPI, "":
		conn := k8sclient.ConnectionOptions{
			Kubeconfig:            opts.Kubeconfig,
			Context:               opts.KubeContext,
			InsecureSkipTLSVerify: wo.InsecureSkipTLSVerify,
		}
		if cfg.HasLogin() {
			conn.Server = cfg.Server
			conn.Token = cfg.Token
		}
		restConfig, err := k8sclient.RESTConfig(conn)
		if err != nil {
			return nil, err
		}
		client, err := newK8sClient(restConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}

		access := &clusterAccess{
			provider: client.Applications(),
			applier:  client.Consoles(),
			checkNamespace: func(ctx context.Context, namespace string) error {
				ok, err := client.NamespaceExists(ctx, namespace)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("namespace %q not found; is OpenShift GitOps installed?", namespace)
				}
				return nil
			},
			apply: func(ctx context.Context, manifests []string) error {
				for _, path := range manifests {
					data, err := readFile(path)
					if err != nil {
						return fmt.Errorf("failed to read manifest: %w", err)
					}
					if err := client.ApplyManifests(ctx, data, k8sclient.FieldManager); err != nil {
						return fmt.Errorf("failed to apply %s: %w", path, err)
					}
				}
				return nil
			},
		}
		if cfg.HasLogin() {
			access.login = &pipeline.Step{
				Name: "login",
				Run: func(ctx context.Context) error {
					version, err := client.ServerVersion()
					if err != nil {
						return fmt.Errorf("failed to reach %s: %w", cfg.Server, err)
					}
					log.FromContext(ctx).Info("Connected to cluster", "server", cfg.Server, "version", version)
					return nil
				},
			}
		}
		return access, nil

	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", wo.Backend, BackendAPI, BackendOC)
	}
}
