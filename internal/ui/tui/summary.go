package tui

import (
	"time"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// Summary is the final state of a run, rendered once when no interactive
// terminal is attached.
type Summary struct {
	Title   string
	Started time.Time
	Steps   []pipeline.StepRecord
	Report  *convergence.Report

	Patched  bool
	Change   patcher.Change
	PatchErr error

	Err error
}

// RenderSummary renders s with the same layout as the live view.
func RenderSummary(s Summary) string {
	m := Model{
		Title:     s.Title,
		StartTime: s.Started,
		Patched:   s.Patched,
		Change:    s.Change,
		PatchErr:  s.PatchErr,
		Err:       s.Err,
		Done:      s.Err == nil,
	}
	for _, rec := range s.Steps {
		m.finishStep(rec)
	}
	if s.Report != nil {
		for _, o := range s.Report.Outcomes {
			m.Resources = append(m.Resources, ResourceRow{
				Ref: o.Ref, State: o.State, Snapshot: o.Last, Polls: o.Polls, Err: o.LastErr,
			})
		}
	}
	return renderView(m)
}
