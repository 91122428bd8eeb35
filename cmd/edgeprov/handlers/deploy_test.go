package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	edgetesting "github.com/windguard/edgeprov/internal/testing"
)

func deployWorkspace(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(ManifestDir, 0o755))

	manifests := map[string]string{
		repositoryManifest: "kind: Repository\n",
		fleetManifest:      "kind: Fleet\nimage: BOOTC_IMAGE\n",
		namespaceManifest:  "kind: Namespace\n",
		serviceManifest:    "kind: Service\n",
		routesManifest:     "kind: Route\n",
		vmManifest:         "kind: VirtualMachine\nimage: QCOW_IMAGE\nbackup: QCOW_IMAGE\n",
	}
	for name, content := range manifests {
		require.NoError(t, os.WriteFile(manifestPath(name), []byte(content), 0o644))
	}
	return Options{ConfigPath: writeTestConfig(t, dir, testConfig)}
}

func TestDeployFleet(t *testing.T) {
	opts := deployWorkspace(t)
	exec := edgetesting.NewRecordingExecutor().Respond("oc", flightctlHost)
	useExecutor(t, exec)

	var err error
	output := captureOutput(func() {
		err = DeployFleet(edgetesting.TestContext(t), opts)
	})
	require.NoError(t, err)

	args := commandArgs(exec.Commands())
	require.Len(t, args, 7)
	assert.Equal(t, []string{"oc", "get", "route", "-n", "open-cluster-management", "flightctl-api-route", "-o", "jsonpath={.spec.host}"}, args[1])
	assert.Equal(t, []string{"flightctl", "apply", "-f", filepath.Join(ManifestDir, repositoryManifest)}, args[3])
	assert.Equal(t, []string{"flightctl", "apply", "-f", "-"}, args[4])
	assert.Equal(t, []string{"oc", "apply",
		"-f", filepath.Join(ManifestDir, namespaceManifest),
		"-f", filepath.Join(ManifestDir, serviceManifest),
		"-f", filepath.Join(ManifestDir, routesManifest)}, args[5])
	assert.Equal(t, []string{"oc", "apply", "-f", "-"}, args[6])

	assert.Equal(t, "kind: Fleet\nimage: quay.io/windguard/windguard-microshift:demo\n", exec.Stdin(4))
	assert.Equal(t, "kind: VirtualMachine\nimage: quay.io/windguard/windguard-microshift:demo-qcow2\nbackup: quay.io/windguard/windguard-microshift:demo-qcow2\n", exec.Stdin(6))

	assert.Contains(t, output, "WindGuard Fleet Deployment")
	assert.Contains(t, output, "deploy-vm")
	assert.Contains(t, output, "Next steps")
}

func TestDeployFleet_EmptyRoute(t *testing.T) {
	opts := deployWorkspace(t)
	exec := edgetesting.NewRecordingExecutor()
	useExecutor(t, exec)

	var err error
	captureOutput(func() {
		err = DeployFleet(edgetesting.TestContext(t), opts)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no host")
	assert.Equal(t, []string{"oc", "oc"}, exec.Names())
}

func TestVerifyManifests(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(ManifestDir, 0o755))
	require.NoError(t, os.WriteFile(manifestPath(repositoryManifest), nil, 0o644))

	err := verifyManifests()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required manifest files")
	assert.NotContains(t, err.Error(), repositoryManifest)
	for _, name := range []string{fleetManifest, namespaceManifest, serviceManifest, routesManifest, vmManifest} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestDeployFleet_MissingManifests(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	exec := edgetesting.NewRecordingExecutor()
	useExecutor(t, exec)

	err := DeployFleet(edgetesting.TestContext(t), Options{ConfigPath: writeTestConfig(t, dir, testConfig)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required manifest files")
	assert.Empty(t, exec.Commands())
}
