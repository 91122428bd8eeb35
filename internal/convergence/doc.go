// Package convergence waits for external resources to report a ready
// status.
//
// A [Waiter] polls a [StatusProvider] for every target until the target is
// Ready, is reported NotFound, runs past its deadline (TimedOut) or the
// caller's context is cancelled (Cancelled). Targets are independent: a
// failure on one never stops polling of the others, and the [Report] keeps
// every outcome so the caller can tell "one resource never appeared" from
// "everything failed".
//
// Each target is driven by a small state machine (Polling → Ready |
// NotFound | TimedOut | Cancelled). Time is read through [Clock], so tests
// drive the loop with a fake clock instead of sleeping.
package convergence
