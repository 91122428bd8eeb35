package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/resource"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	ref := resource.Ref{Name: "frontend", Namespace: "openshift-gitops"}
	waitErr := func(state convergence.OutcomeState) error {
		return &convergence.WaitError{Primary: convergence.Outcome{Ref: ref, State: state}}
	}
	patchErr := &patcher.PatchFailedError{Resource: resource.Ref{Name: "cluster"}, Reason: "write", Err: errors.New("forbidden")}
	reportErr := func(states ...convergence.OutcomeState) error {
		report := &convergence.Report{}
		for i, state := range states {
			report.Outcomes = append(report.Outcomes, convergence.Outcome{
				Ref:   resource.Ref{Name: fmt.Sprintf("app-%d", i), Namespace: ref.Namespace},
				State: state,
			})
		}
		return report.Err()
	}
	stepErr := func(err error) error {
		return &pipeline.StepFailedError{Step: "wait-applications", Err: err}
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"timed out", waitErr(convergence.TimedOut), ExitFailure},
		{"not found", waitErr(convergence.NotFound), ExitNotFound},
		{"wait cancelled", waitErr(convergence.Cancelled), ExitCancelled},
		{"patch failed", patchErr, ExitPatchFailed},
		{"context cancelled", fmt.Errorf("login: %w", context.Canceled), ExitCancelled},
		{"step failed", stepErr(errors.New("exit status 125")), ExitStepFailed},
		{"not found inside step", stepErr(waitErr(convergence.NotFound)), ExitNotFound},
		{"patch inside step", stepErr(patchErr), ExitPatchFailed},
		{"cancelled inside step", stepErr(context.Canceled), ExitCancelled},
		{"interrupted after a timeout", stepErr(reportErr(convergence.TimedOut, convergence.Cancelled)), ExitCancelled},
		{"interrupted after not found", stepErr(reportErr(convergence.Ready, convergence.NotFound, convergence.Cancelled)), ExitCancelled},
		{"timeout then ready", stepErr(reportErr(convergence.TimedOut, convergence.Ready)), ExitFailure},
		{"patch failed after interrupt", fmt.Errorf("%w: %w", patchErr, context.Canceled), ExitCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
