package handlers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windguard/edgeprov/internal/executil"
)

const testConfig = `server: https://api.demo.example.com:6443
token: sha256~secret-token
redhat_registry:
  username: rh-user
  password: rh-pass
private_registry:
  url: quay.io
  username: windguard
  password: quay-pass
ocp_cluster:
  domain: demo.example.com
  username: kubeadmin
  password: cluster-pass
`

// captureOutput redirects handler output and returns what f printed.
func captureOutput(f func()) string {
	old := stdout
	var buf bytes.Buffer
	stdout = &buf
	defer func() { stdout = old }()

	f()
	return buf.String()
}

// useExecutor makes handlers run external tools through exec.
func useExecutor(t *testing.T, exec executil.Executor) {
	t.Helper()
	orig := newExecutor
	newExecutor = func(bool) executil.Executor { return exec }
	t.Cleanup(func() { newExecutor = orig })
}

func writeTestConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "demo-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func commandArgs(cmds []executil.Command) [][]string {
	out := make([][]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, append([]string{c.Name}, c.Args...))
	}
	return out
}
