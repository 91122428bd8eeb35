package pipeline

import (
	"context"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/windguard/edgeprov/internal/executil"
)

// StepFunc performs the work of a single step.
type StepFunc func(ctx context.Context) error

// Step is a named unit of work. Steps are required unless Optional is set;
// an optional step may fail without aborting the run.
type Step struct {
	Name     string
	Run      StepFunc
	Optional bool
}

// StepStatus is the terminal status of an executed step.
type StepStatus string

const (
	StepSucceeded StepStatus = "Succeeded"
	StepFailed    StepStatus = "Failed"
)

// StepRecord describes one executed step.
type StepRecord struct {
	Step     string
	Started  time.Time
	Duration time.Duration
	Status   StepStatus
	Optional bool
	Err      error
}

// CommandStep builds a step that runs cmd through exec. Any non-zero exit
// code fails the step with an *executil.ExitError.
func CommandStep(exec executil.Executor, name string, cmd executil.Command) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) error {
			log.FromContext(ctx).V(1).Info("Running command", "step", name, "command", cmd.String())
			res, err := exec.Execute(ctx, cmd)
			if err != nil {
				return err
			}
			return res.Err(cmd)
		},
	}
}

// Optional marks a step as allowed to fail.
func Optional(s Step) Step {
	s.Optional = true
	return s
}
