package convergence

import (
	"errors"
	"time"

	"github.com/windguard/edgeprov/internal/resource"
)

// tracker is the per-target state machine. It holds no clock of its own;
// every transition is given the current time.
type tracker struct {
	ref      resource.Ref
	start    time.Time
	end      time.Time
	deadline time.Time
	state    OutcomeState
	polls    int
	last     Snapshot
	lastErr  error
}

func newTracker(ref resource.Ref, now time.Time, timeout time.Duration) *tracker {
	return &tracker{
		ref:      ref,
		start:    now,
		end:      now,
		deadline: now.Add(timeout),
		state:    Polling,
		last:     Snapshot{}.orUnknown(),
	}
}

// observe records one poll and returns the resulting state. Once a terminal
// state is reached later observations are ignored.
func (t *tracker) observe(snap Snapshot, err error, now time.Time) OutcomeState {
	if t.state.Terminal() {
		return t.state
	}

	t.polls++
	t.end = now
	t.lastErr = err

	switch {
	case errors.Is(err, ErrNotFound):
		t.state = NotFound
		return t.state
	case err == nil:
		t.last = snap.orUnknown()
		if t.last.Ready() {
			t.state = Ready
			return t.state
		}
	}

	if !now.Before(t.deadline) {
		t.state = TimedOut
	}
	return t.state
}

// cancel moves a polling target to Cancelled.
func (t *tracker) cancel(now time.Time) {
	if t.state.Terminal() {
		return
	}
	t.state = Cancelled
	t.end = now
}

// nextDelay is the sleep before the next poll: the interval, cut short so
// the final poll lands on the deadline.
func (t *tracker) nextDelay(now time.Time, interval time.Duration) time.Duration {
	remaining := t.deadline.Sub(now)
	if remaining < interval {
		return max(remaining, 0)
	}
	return interval
}

func (t *tracker) outcome() Outcome {
	return Outcome{
		Ref:     t.ref,
		State:   t.state,
		Elapsed: t.end.Sub(t.start),
		Polls:   t.polls,
		Last:    t.last,
		LastErr: t.lastErr,
	}
}
