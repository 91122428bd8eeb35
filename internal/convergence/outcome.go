package convergence

import (
	"context"
	"fmt"
	"time"

	"github.com/windguard/edgeprov/internal/resource"
)

// OutcomeState is the state of a single target. Polling is the only
// non-terminal state.
type OutcomeState string

const (
	Polling   OutcomeState = "Polling"
	Ready     OutcomeState = "Ready"
	NotFound  OutcomeState = "NotFound"
	TimedOut  OutcomeState = "TimedOut"
	Cancelled OutcomeState = "Cancelled"
)

// Terminal reports whether no further polls happen in this state.
func (s OutcomeState) Terminal() bool {
	return s != Polling
}

// Outcome is the terminal result of waiting for one target.
type Outcome struct {
	Ref     resource.Ref
	State   OutcomeState
	Elapsed time.Duration
	Polls   int

	// Last is the most recent successful status read.
	Last Snapshot

	// LastErr is the error of the most recent poll, if it failed.
	LastErr error
}

// Report holds the outcome of every target in the order the targets were
// given.
type Report struct {
	Outcomes []Outcome
}

// Get returns the outcome for ref.
func (r *Report) Get(ref resource.Ref) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Ref == ref {
			return o, true
		}
	}
	return Outcome{}, false
}

// AllReady reports whether every target reached Ready.
func (r *Report) AllReady() bool {
	for _, o := range r.Outcomes {
		if o.State != Ready {
			return false
		}
	}
	return true
}

// Count returns how many targets ended in state.
func (r *Report) Count(state OutcomeState) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Err returns a *WaitError for the first non-ready target, or nil.
func (r *Report) Err() error {
	for _, o := range r.Outcomes {
		if o.State != Ready {
			return &WaitError{Primary: o, Report: r}
		}
	}
	return nil
}

// WaitError reports that at least one target did not become ready. Primary
// is the first non-ready target in input order; Report has all outcomes.
type WaitError struct {
	Primary Outcome
	Report  *Report
}

func (e *WaitError) Error() string {
	notReady := len(e.Report.Outcomes) - e.Report.Count(Ready)
	suffix := fmt.Sprintf("%d of %d resources not ready", notReady, len(e.Report.Outcomes))

	o := e.Primary
	switch o.State {
	case NotFound:
		return fmt.Sprintf("%s not found (%s)", o.Ref, suffix)
	case TimedOut:
		return fmt.Sprintf("%s not ready after %s: sync=%s health=%s (%s)",
			o.Ref, o.Elapsed.Round(time.Millisecond), o.Last.Sync, o.Last.Health, suffix)
	case Cancelled:
		return fmt.Sprintf("waiting for %s cancelled (%s)", o.Ref, suffix)
	default:
		return fmt.Sprintf("%s ended in state %s (%s)", o.Ref, o.State, suffix)
	}
}

// Unwrap lets errors.Is match ErrNotFound, ErrTimedOut or context.Canceled
// against the primary outcome.
func (e *WaitError) Unwrap() error {
	switch e.Primary.State {
	case NotFound:
		return ErrNotFound
	case TimedOut:
		return ErrTimedOut
	case Cancelled:
		return context.Canceled
	default:
		return nil
	}
}
