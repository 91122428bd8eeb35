package convergence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/windguard/edgeprov/internal/resource"
)

const (
	// DefaultInterval is the default time between polls of one target.
	DefaultInterval = 10 * time.Second

	// DefaultTimeout is the default per-target wait budget.
	DefaultTimeout = 600 * time.Second
)

// Clock is the subset of k8s.io/utils/clock.Clock the waiter needs.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Observation is emitted after every poll.
type Observation struct {
	Ref      resource.Ref
	Poll     int
	At       time.Time
	Snapshot Snapshot
	Err      error
	State    OutcomeState
}

// Observer receives observations. It is called from the polling goroutine
// of the target and must be safe for concurrent use when targets are polled
// concurrently.
type Observer func(Observation)

// Options configures a Waiter.
type Options struct {
	// Interval between polls of one target.
	Interval time.Duration

	// Timeout is the per-target budget, measured from the first poll of
	// that target.
	Timeout time.Duration

	// Concurrent polls all targets at once instead of one after another.
	Concurrent bool

	// MaxConcurrency caps concurrent targets. Zero means no cap.
	MaxConcurrency int

	Clock     Clock
	Observers []Observer
}

// Waiter waits for targets to converge.
type Waiter struct {
	provider StatusProvider
	opts     Options
}

// NewWaiter creates a waiter reading status from provider. Zero Interval and
// Timeout take the defaults; a nil Clock uses the real clock.
func NewWaiter(provider StatusProvider, opts Options) *Waiter {
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Waiter{provider: provider, opts: opts}
}

// WaitForAll waits for every target and returns the outcome of each, in
// input order. Duplicate targets are waited for once.
//
// The error is nil only if every target is Ready; otherwise it is a
// *WaitError naming the first non-ready target. The report is returned in
// both cases.
func (w *Waiter) WaitForAll(ctx context.Context, targets []resource.Ref) (*Report, error) {
	if len(targets) == 0 {
		return nil, errors.New("no resources to wait for")
	}
	if w.opts.Interval < 0 || w.opts.Timeout < 0 {
		return nil, fmt.Errorf("interval and timeout must not be negative (interval=%s, timeout=%s)",
			w.opts.Interval, w.opts.Timeout)
	}

	targets = dedupe(targets)
	outcomes := make([]Outcome, len(targets))

	if w.opts.Concurrent {
		var g errgroup.Group
		if w.opts.MaxConcurrency > 0 {
			g.SetLimit(w.opts.MaxConcurrency)
		}
		for i, ref := range targets {
			g.Go(func() error {
				outcomes[i] = w.waitOne(ctx, ref)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, ref := range targets {
			outcomes[i] = w.waitOne(ctx, ref)
		}
	}

	report := &Report{Outcomes: outcomes}
	if err := report.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// waitOne polls a single target until it reaches a terminal state.
func (w *Waiter) waitOne(ctx context.Context, ref resource.Ref) Outcome {
	logger := log.FromContext(ctx).WithValues("resource", ref.String())
	clk := w.opts.Clock
	t := newTracker(ref, clk.Now(), w.opts.Timeout)

	for {
		if ctx.Err() != nil {
			t.cancel(clk.Now())
			break
		}

		snap, err := w.provider.Status(ctx, ref)
		if ctx.Err() != nil {
			// The read was cut short by cancellation; it says nothing about the resource.
			t.cancel(clk.Now())
			break
		}

		now := clk.Now()
		state := t.observe(snap, err, now)
		w.notify(Observation{Ref: ref, Poll: t.polls, At: now, Snapshot: t.last, Err: err, State: state})

		if state.Terminal() {
			break
		}

		if err != nil {
			logger.Info("Status read failed, will retry", "poll", t.polls, "error", err.Error())
		} else {
			logger.Info("Waiting", "sync", t.last.Sync, "health", t.last.Health, "poll", t.polls)
		}

		select {
		case <-ctx.Done():
			t.cancel(clk.Now())
		case <-clk.After(t.nextDelay(now, w.opts.Interval)):
		}
		if t.state.Terminal() {
			break
		}
	}

	o := t.outcome()
	switch o.State {
	case Ready:
		logger.Info("Resource is Synced and Healthy", "polls", o.Polls, "elapsed", o.Elapsed.String())
	case NotFound:
		logger.Error(o.LastErr, "Resource not found", "polls", o.Polls)
	case TimedOut:
		logger.Error(ErrTimedOut, "Timeout reached", "timeout", w.opts.Timeout.String(),
			"sync", o.Last.Sync, "health", o.Last.Health, "polls", o.Polls)
	case Cancelled:
		logger.Info("Wait cancelled", "polls", o.Polls)
		w.notify(Observation{Ref: ref, Poll: o.Polls, At: t.end, Snapshot: o.Last, State: Cancelled})
	}
	return o
}

func (w *Waiter) notify(obs Observation) {
	for _, o := range w.opts.Observers {
		o(obs)
	}
}

func dedupe(refs []resource.Ref) []resource.Ref {
	seen := make(map[resource.Ref]bool, len(refs))
	out := make([]resource.Ref, 0, len(refs))
	for _, r := range refs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
