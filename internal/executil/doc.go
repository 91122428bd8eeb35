// Package executil runs external command-line tools (oc, flightctl, podman)
// and reports their exit status and captured output.
//
// The [Executor] interface is the seam the pipeline runner and the CLI-backed
// status providers depend on; [OSExecutor] is the process-spawning
// implementation and tests substitute recording fakes.
package executil
