// Package tui provides a Bubble Tea-based terminal UI for edgeprov runs.
package tui

import (
	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// StepStartedMsg reports that a pipeline step began.
type StepStartedMsg struct {
	Step string
}

// StepFinishedMsg reports the record of a finished pipeline step.
type StepFinishedMsg struct {
	Record pipeline.StepRecord
}

// ObservationMsg carries one poll of a waited-for resource.
type ObservationMsg struct {
	Observation convergence.Observation
}

// PatchMsg reports the result of the ensure-present patch.
type PatchMsg struct {
	Change patcher.Change
	Err    error
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries the error that ended the run.
type ErrMsg struct{ Err error }

// DoneMsg signals that the run completed successfully.
type DoneMsg struct{}
