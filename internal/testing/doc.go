// Package testing provides shared test doubles for the collaborator
// interfaces the core packages depend on.
//
// This package centralizes fakes that several packages need:
//   - MockExecutor: testify mock of executil.Executor
//   - RecordingExecutor: scripted executor that records every command
//
// Usage:
//
//	exec := testing.NewRecordingExecutor().
//	    FailOn("podman", 125)
//	runner.Run(ctx, steps)
//	assert.Equal(t, []string{"oc", "podman"}, exec.Names())
package testing
