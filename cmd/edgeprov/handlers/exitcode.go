package handlers

import (
	"context"
	"errors"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNotFound    = 2
	ExitPatchFailed = 3
	ExitStepFailed  = 4
	ExitCancelled   = 130
)

// ExitCode maps an error returned by a handler to the process exit code.
// An interrupt wins over everything else, even when an earlier target
// already failed. Wait and patch failures take precedence over the step that
// wrapped them.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitCancelled
	}

	var waitErr *convergence.WaitError
	if errors.As(err, &waitErr) {
		if waitErr.Report != nil && waitErr.Report.Count(convergence.Cancelled) > 0 {
			return ExitCancelled
		}
		switch waitErr.Primary.State {
		case convergence.NotFound:
			return ExitNotFound
		case convergence.Cancelled:
			return ExitCancelled
		default:
			return ExitFailure
		}
	}

	if patcher.IsPatchFailed(err) {
		return ExitPatchFailed
	}

	if _, ok := pipeline.IsStepFailed(err); ok {
		return ExitStepFailed
	}

	return ExitFailure
}
