package convergence

import (
	"context"
	"errors"

	"github.com/windguard/edgeprov/internal/resource"
)

// ErrNotFound is returned (possibly wrapped) by a StatusProvider when the
// resource does not exist. It is terminal: a missing resource never
// converges on its own.
var ErrNotFound = errors.New("resource not found")

// ErrTimedOut is matched by a WaitError whose primary outcome timed out.
var ErrTimedOut = errors.New("timed out waiting for resource")

// StatusProvider reads the current status of a resource. It is called on
// every poll tick and must return a fresh read each time.
type StatusProvider interface {
	Status(ctx context.Context, ref resource.Ref) (Snapshot, error)
}

// StatusProviderFunc adapts a function to StatusProvider.
type StatusProviderFunc func(ctx context.Context, ref resource.Ref) (Snapshot, error)

// Status implements StatusProvider.
func (f StatusProviderFunc) Status(ctx context.Context, ref resource.Ref) (Snapshot, error) {
	return f(ctx, ref)
}

// SyncState is the reported synchronisation state of a resource.
type SyncState string

const (
	SyncUnknown SyncState = "Unknown"
	OutOfSync   SyncState = "OutOfSync"
	Synced      SyncState = "Synced"
)

// ParseSyncState maps a reported value to a SyncState. Unrecognised values
// map to SyncUnknown.
func ParseSyncState(s string) SyncState {
	switch SyncState(s) {
	case OutOfSync, Synced:
		return SyncState(s)
	default:
		return SyncUnknown
	}
}

// HealthState is the reported health of a resource.
type HealthState string

const (
	HealthUnknown HealthState = "Unknown"
	Progressing   HealthState = "Progressing"
	Healthy       HealthState = "Healthy"
	Degraded      HealthState = "Degraded"
	Missing       HealthState = "Missing"
)

// ParseHealthState maps a reported value to a HealthState. Unrecognised
// values map to HealthUnknown.
func ParseHealthState(s string) HealthState {
	switch HealthState(s) {
	case Progressing, Healthy, Degraded, Missing:
		return HealthState(s)
	default:
		return HealthUnknown
	}
}

// Snapshot is one status read.
type Snapshot struct {
	Sync   SyncState
	Health HealthState
}

// Ready reports whether the snapshot is Synced and Healthy. This
// conjunction is the only readiness rule; there is no partial credit.
func (s Snapshot) Ready() bool {
	return s.Sync == Synced && s.Health == Healthy
}

func (s Snapshot) orUnknown() Snapshot {
	if s.Sync == "" {
		s.Sync = SyncUnknown
	}
	if s.Health == "" {
		s.Health = HealthUnknown
	}
	return s
}
