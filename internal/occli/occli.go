package occli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/executil"
	"github.com/windguard/edgeprov/internal/resource"
)

const (
	// Binary is the OpenShift client.
	Binary = "oc"

	// ApplicationResource is the fully qualified Argo CD Application type.
	ApplicationResource = "applications.argoproj.io"

	// ConsoleResource is the fully qualified console operator config type.
	ConsoleResource = "console.operator.openshift.io"
)

// LoginCommand builds an oc login with a bearer token. The token is marked
// sensitive so it never reaches the logs.
func LoginCommand(server, token string, insecureSkipTLSVerify bool) executil.Command {
	args := []string{"login", server, "--token", token}
	if insecureSkipTLSVerify {
		args = append(args, "--insecure-skip-tls-verify=true")
	}
	return executil.Command{Name: Binary, Args: args, Sensitive: []string{token}}
}

// getArgs returns "get TYPE NAME [-n NS] -o json".
func getArgs(kind string, ref resource.Ref) []string {
	args := []string{"get", kind, ref.Name}
	if ref.Namespace != "" {
		args = append(args, "-n", ref.Namespace)
	}
	return append(args, "-o", "json")
}

// isNotFound recognises oc's not-found message for this object only, e.g.
// `Error from server (NotFound): applications.argoproj.io "x" not found`.
// Other "not found" errors (kubeconfig context, server, binary) are not a
// missing object.
func isNotFound(stderr []byte, kind string, ref resource.Ref) bool {
	return strings.Contains(string(stderr), fmt.Sprintf("%s %q not found", kind, ref.Name))
}

// ApplicationStatus reads Argo CD Application status with oc.
type ApplicationStatus struct {
	exec executil.Executor
}

// NewApplicationStatus creates a status provider running oc through exec.
func NewApplicationStatus(exec executil.Executor) *ApplicationStatus {
	return &ApplicationStatus{exec: exec}
}

type applicationStatus struct {
	Status struct {
		Sync struct {
			Status string `json:"status"`
		} `json:"sync"`
		Health struct {
			Status string `json:"status"`
		} `json:"health"`
	} `json:"status"`
}

// Status implements convergence.StatusProvider.
func (a *ApplicationStatus) Status(ctx context.Context, ref resource.Ref) (convergence.Snapshot, error) {
	cmd := executil.Command{Name: Binary, Args: getArgs(ApplicationResource, ref)}
	res, err := a.exec.Execute(ctx, cmd)
	if err != nil {
		return convergence.Snapshot{}, err
	}
	if res.ExitCode != 0 {
		if isNotFound(res.Stderr, ApplicationResource, ref) {
			return convergence.Snapshot{}, fmt.Errorf("application %s: %w", ref, convergence.ErrNotFound)
		}
		return convergence.Snapshot{}, fmt.Errorf("failed to get application %s: %w", ref, res.Err(cmd))
	}

	var app applicationStatus
	if err := json.Unmarshal(res.Stdout, &app); err != nil {
		return convergence.Snapshot{}, fmt.Errorf("failed to decode application %s: %w", ref, err)
	}
	return convergence.Snapshot{
		Sync:   convergence.ParseSyncState(app.Status.Sync.Status),
		Health: convergence.ParseHealthState(app.Status.Health.Status),
	}, nil
}

// Documents reads and merge-patches objects of one type with oc.
type Documents struct {
	exec executil.Executor
	kind string
}

// NewDocuments creates an applier for objects of kind, e.g. ConsoleResource.
func NewDocuments(exec executil.Executor, kind string) *Documents {
	return &Documents{exec: exec, kind: kind}
}

// ReadDocument implements patcher.Applier.
func (d *Documents) ReadDocument(ctx context.Context, ref resource.Ref) (map[string]any, error) {
	out, err := executil.Output(ctx, d.exec, executil.Command{Name: Binary, Args: getArgs(d.kind, ref)})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", d.kind, ref, err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", d.kind, ref, err)
	}
	return doc, nil
}

// WritePatch implements patcher.Applier with oc patch --type=merge.
func (d *Documents) WritePatch(ctx context.Context, ref resource.Ref, patch []byte) error {
	args := []string{"patch", d.kind, ref.Name}
	if ref.Namespace != "" {
		args = append(args, "-n", ref.Namespace)
	}
	args = append(args, "--type=merge", "-p", string(patch))

	if _, err := executil.Output(ctx, d.exec, executil.Command{Name: Binary, Args: args}); err != nil {
		return fmt.Errorf("failed to patch %s %s: %w", d.kind, ref, err)
	}
	return nil
}
