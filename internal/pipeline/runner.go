package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Observer receives step lifecycle events. Implementations must not block.
type Observer interface {
	StepStarted(pipeline, step string, at time.Time)
	StepFinished(pipeline string, rec StepRecord)
}

// Result describes a finished run. It is not modified after Run returns.
type Result struct {
	// Completed lists the steps that succeeded, in execution order.
	Completed []string

	// Failed names the required step that aborted the run, if any.
	Failed string

	// OptionalFailures lists optional steps that failed without aborting.
	OptionalFailures []string

	// Cancelled is set when the run stopped because ctx was done.
	Cancelled bool

	Records []StepRecord
	Err     error
}

// Runner executes step lists.
type Runner struct {
	name      string
	observers []Observer
	clock     clock.PassiveClock
}

// NewRunner creates a runner whose log lines and observer events carry name.
func NewRunner(name string, observers ...Observer) *Runner {
	return &Runner{
		name:      name,
		observers: observers,
		clock:     clock.RealClock{},
	}
}

// WithClock replaces the clock used to timestamp step records.
func (r *Runner) WithClock(c clock.PassiveClock) *Runner {
	r.clock = c
	return r
}

// Run executes steps in order and stops at the first required failure,
// returning a *StepFailedError. No step is started once ctx is done; a step
// that is already running is not interrupted by the runner.
func (r *Runner) Run(ctx context.Context, steps []Step) (Result, error) {
	if err := validate(steps); err != nil {
		return Result{}, fmt.Errorf("invalid pipeline %s: %w", r.name, err)
	}

	logger := log.FromContext(ctx).WithValues("pipeline", r.name)
	var res Result

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			logger.Info("Pipeline cancelled", "nextStep", step.Name)
			res.Cancelled = true
			res.Err = fmt.Errorf("pipeline %s cancelled before step %q: %w", r.name, step.Name, err)
			return res, res.Err
		}

		started := r.clock.Now()
		logger.Info("Step started", "step", step.Name, "index", i+1, "total", len(steps))
		for _, o := range r.observers {
			o.StepStarted(r.name, step.Name, started)
		}

		err := step.Run(ctx)

		rec := StepRecord{
			Step:     step.Name,
			Started:  started,
			Duration: r.clock.Since(started),
			Optional: step.Optional,
			Status:   StepSucceeded,
			Err:      err,
		}
		if err != nil {
			rec.Status = StepFailed
		}
		res.Records = append(res.Records, rec)
		for _, o := range r.observers {
			o.StepFinished(r.name, rec)
		}

		switch {
		case err == nil:
			logger.Info("Step succeeded", "step", step.Name, "duration", rec.Duration.String())
			res.Completed = append(res.Completed, step.Name)
		case step.Optional:
			logger.Info("Optional step failed, continuing", "step", step.Name, "error", err.Error())
			res.OptionalFailures = append(res.OptionalFailures, step.Name)
		default:
			logger.Error(err, "Step failed", "step", step.Name, "duration", rec.Duration.String())
			res.Failed = step.Name
			res.Cancelled = ctx.Err() != nil
			res.Err = &StepFailedError{Step: step.Name, Err: err}
			return res, res.Err
		}
	}

	return res, nil
}

func validate(steps []Step) error {
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("step %d has no name", i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate step name %q", s.Name)
		}
		if s.Run == nil {
			return fmt.Errorf("step %q has no operation", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// IsStepFailed reports whether err was caused by a failed pipeline step and
// returns the step name.
func IsStepFailed(err error) (string, bool) {
	var stepErr *StepFailedError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}
