package occli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/executil"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/resource"
	edgetesting "github.com/windguard/edgeprov/internal/testing"
)

func subcommand(verb string) any {
	return mock.MatchedBy(func(cmd executil.Command) bool {
		return cmd.Name == Binary && len(cmd.Args) > 0 && cmd.Args[0] == verb
	})
}

func TestApplicationStatus(t *testing.T) {
	t.Parallel()

	ref := resource.Ref{Name: "frontend", Namespace: "openshift-gitops"}

	tests := []struct {
		name     string
		result   executil.Result
		execErr  error
		want     convergence.Snapshot
		notFound bool
		wantErr  string
	}{
		{
			name:   "synced and healthy",
			result: executil.Result{Stdout: []byte(`{"status":{"sync":{"status":"Synced"},"health":{"status":"Healthy"}}}`)},
			want:   convergence.Snapshot{Sync: convergence.Synced, Health: convergence.Healthy},
		},
		{
			name:   "no status yet",
			result: executil.Result{Stdout: []byte(`{"metadata":{"name":"frontend"}}`)},
			want:   convergence.Snapshot{Sync: convergence.SyncUnknown, Health: convergence.HealthUnknown},
		},
		{
			name: "not found",
			result: executil.Result{ExitCode: 1,
				Stderr: []byte(`Error from server (NotFound): applications.argoproj.io "frontend" not found`)},
			notFound: true,
		},
		{
			name: "other application not found",
			result: executil.Result{ExitCode: 1,
				Stderr: []byte(`Error from server (NotFound): applications.argoproj.io "frontend-v2" not found`)},
			wantErr: "oc exited with code 1",
		},
		{
			name:    "kubeconfig context not found",
			result:  executil.Result{ExitCode: 1, Stderr: []byte(`error: context "edge" not found in kubeconfig`)},
			wantErr: "oc exited with code 1",
		},
		{
			name:    "not logged in",
			result:  executil.Result{ExitCode: 1, Stderr: []byte(`error: You must be logged in to the server (Unauthorized)`)},
			wantErr: "oc exited with code 1",
		},
		{
			name:    "server not found",
			result:  executil.Result{ExitCode: 1, Stderr: []byte(`Unable to connect to the server: dial tcp: lookup api.edge.example.com: no such host`)},
			wantErr: "oc exited with code 1",
		},
		{
			name:    "forbidden",
			result:  executil.Result{ExitCode: 1, Stderr: []byte(`Error from server (Forbidden): forbidden`)},
			wantErr: "oc exited with code 1",
		},
		{
			name:    "garbage output",
			result:  executil.Result{Stdout: []byte(`not json`)},
			wantErr: "failed to decode application",
		},
		{
			name:    "oc missing",
			execErr: errors.New(`exec: "oc": executable file not found in $PATH`),
			wantErr: "executable file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exec := &edgetesting.MockExecutor{}
			exec.On("Execute", mock.Anything, mock.MatchedBy(func(cmd executil.Command) bool {
				return assert.ObjectsAreEqual([]string{
					"get", ApplicationResource, "frontend", "-n", "openshift-gitops", "-o", "json",
				}, cmd.Args)
			})).Return(tt.result, tt.execErr)

			snap, err := NewApplicationStatus(exec).Status(edgetesting.TestContext(t), ref)
			exec.AssertExpectations(t)

			switch {
			case tt.notFound:
				assert.ErrorIs(t, err, convergence.ErrNotFound)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.NotErrorIs(t, err, convergence.ErrNotFound)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, snap)
			}
		})
	}
}

func TestDocuments_EnsurePluginThroughOC(t *testing.T) {
	t.Parallel()

	ref := resource.Ref{Name: "cluster"}
	exec := &edgetesting.MockExecutor{}
	exec.On("Execute", mock.Anything, subcommand("get")).
		Return(executil.Result{Stdout: []byte(`{"spec":{"plugins":["monitoring-plugin"]}}`)}, nil).Once()
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(cmd executil.Command) bool {
		return assert.ObjectsAreEqual([]string{
			"patch", ConsoleResource, "cluster", "--type=merge",
			"-p", `{"spec":{"plugins":["monitoring-plugin","flightctl-plugin"]}}`,
		}, cmd.Args)
	})).Return(executil.Result{}, nil).Once()

	change, err := patcher.New(NewDocuments(exec, ConsoleResource)).EnsureElementPresent(edgetesting.TestContext(t),
		patcher.Target{Resource: ref, CollectionPath: "spec.plugins", Element: "flightctl-plugin"})
	require.NoError(t, err)
	assert.Equal(t, patcher.Applied, change)
	exec.AssertExpectations(t)
}

func TestDocuments_AlreadyPresentDoesNotPatch(t *testing.T) {
	t.Parallel()

	exec := &edgetesting.MockExecutor{}
	exec.On("Execute", mock.Anything, subcommand("get")).
		Return(executil.Result{Stdout: []byte(`{"spec":{"plugins":["flightctl-plugin"]}}`)}, nil).Once()

	change, err := patcher.New(NewDocuments(exec, ConsoleResource)).EnsureElementPresent(edgetesting.TestContext(t),
		patcher.Target{Resource: resource.Ref{Name: "cluster"}, CollectionPath: "spec.plugins", Element: "flightctl-plugin"})
	require.NoError(t, err)
	assert.Equal(t, patcher.Unchanged, change)
	exec.AssertNotCalled(t, "Execute", mock.Anything, subcommand("patch"))
}

func TestDocuments_PatchRejected(t *testing.T) {
	t.Parallel()

	exec := &edgetesting.MockExecutor{}
	exec.On("Execute", mock.Anything, subcommand("get")).
		Return(executil.Result{Stdout: []byte(`{"spec":{}}`)}, nil)
	exec.On("Execute", mock.Anything, subcommand("patch")).
		Return(executil.Result{ExitCode: 1, Stderr: []byte("admission webhook denied")}, nil)

	_, err := patcher.New(NewDocuments(exec, ConsoleResource)).EnsureElementPresent(edgetesting.TestContext(t),
		patcher.Target{Resource: resource.Ref{Name: "cluster"}, CollectionPath: "spec.plugins", Element: "flightctl-plugin"})
	require.Error(t, err)

	var pf *patcher.PatchFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "patch rejected", pf.Reason)
	assert.Contains(t, err.Error(), "admission webhook denied")
}

func TestLoginCommand_MasksToken(t *testing.T) {
	t.Parallel()

	cmd := LoginCommand("https://api.demo.example.com:6443", "sha256~abc", true)
	assert.Equal(t, []string{"login", "https://api.demo.example.com:6443", "--token", "sha256~abc",
		"--insecure-skip-tls-verify=true"}, cmd.Args)
	assert.Equal(t, "oc login https://api.demo.example.com:6443 --token **** --insecure-skip-tls-verify=true", cmd.String())
}
