package pipeline

import "fmt"

// StepFailedError reports the required step that aborted a run.
type StepFailedError struct {
	Step string
	Err  error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepFailedError) Unwrap() error {
	return e.Err
}
