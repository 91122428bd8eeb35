package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/resource"
)

// Event names the kind of an entry.
type Event string

const (
	EventRunStarted   Event = "run_started"
	EventStepStarted  Event = "step_started"
	EventStepFinished Event = "step_finished"
	EventPoll         Event = "poll"
	EventPatch        Event = "patch"
	EventRunFinished  Event = "run_finished"
)

// Entry is one journal line.
type Entry struct {
	Time    time.Time `json:"time"`
	RunID   string    `json:"run_id"`
	Command string    `json:"command"`
	Event   Event     `json:"event"`

	Pipeline string `json:"pipeline,omitempty"`
	Step     string `json:"step,omitempty"`
	Optional bool   `json:"optional,omitempty"`

	Resource string `json:"resource,omitempty"`
	Poll     int    `json:"poll,omitempty"`
	Sync     string `json:"sync,omitempty"`
	Health   string `json:"health,omitempty"`

	// Status is the step status, outcome state, patch change or run result.
	Status     string `json:"status,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Journal appends entries to a writer. It implements pipeline.Observer and
// is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	enc     *json.Encoder
	closer  io.Closer
	clock   clock.PassiveClock
	runID   string
	command string
	started time.Time
	err     error
}

// New creates a journal for a run of command writing to w, and records the
// run start.
func New(w io.Writer, command string) *Journal {
	return NewWithClock(w, command, clock.RealClock{})
}

// NewWithClock is New with an explicit clock.
func NewWithClock(w io.Writer, command string, clk clock.PassiveClock) *Journal {
	j := &Journal{
		enc:     json.NewEncoder(w),
		clock:   clk,
		runID:   uuid.NewString(),
		command: command,
	}
	if c, ok := w.(io.Closer); ok {
		j.closer = c
	}
	j.started = clk.Now()
	j.write(Entry{Event: EventRunStarted})
	return j
}

// RunID identifies this run in every entry.
func (j *Journal) RunID() string {
	return j.runID
}

func (j *Journal) write(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = j.clock.Now()
	}
	e.RunID = j.runID
	e.Command = j.command
	// Entries are flushed line by line so a crash loses at most the entry
	// being written.
	j.err = j.enc.Encode(e)
}

// StepStarted implements pipeline.Observer.
func (j *Journal) StepStarted(pipelineName, step string, at time.Time) {
	j.write(Entry{Time: at, Event: EventStepStarted, Pipeline: pipelineName, Step: step})
}

// StepFinished implements pipeline.Observer.
func (j *Journal) StepFinished(pipelineName string, rec pipeline.StepRecord) {
	e := Entry{
		Time:       rec.Started.Add(rec.Duration),
		Event:      EventStepFinished,
		Pipeline:   pipelineName,
		Step:       rec.Step,
		Optional:   rec.Optional,
		Status:     string(rec.Status),
		DurationMS: rec.Duration.Milliseconds(),
	}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
	}
	j.write(e)
}

// ObservePoll is a convergence.Observer.
func (j *Journal) ObservePoll(o convergence.Observation) {
	e := Entry{
		Time:     o.At,
		Event:    EventPoll,
		Resource: o.Ref.String(),
		Poll:     o.Poll,
		Sync:     string(o.Snapshot.Sync),
		Health:   string(o.Snapshot.Health),
		Status:   string(o.State),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	j.write(e)
}

// RecordPatch records an ensure-present patch of ref.
func (j *Journal) RecordPatch(ref resource.Ref, change patcher.Change, err error) {
	e := Entry{Event: EventPatch, Resource: ref.String(), Status: string(change)}
	if err != nil {
		e.Status = "Failed"
		e.Error = err.Error()
	}
	j.write(e)
}

// Finish records the end of the run and closes the underlying writer if it
// is a Closer. It returns the first write error, if any.
func (j *Journal) Finish(runErr error) error {
	now := j.clock.Now()
	e := Entry{Time: now, Event: EventRunFinished, Status: "Succeeded", DurationMS: now.Sub(j.started).Milliseconds()}
	if runErr != nil {
		e.Status = "Failed"
		e.Error = runErr.Error()
	}
	j.write(e)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closer != nil {
		if err := j.closer.Close(); err != nil && j.err == nil {
			j.err = err
		}
		j.closer = nil
	}
	if j.err != nil {
		return fmt.Errorf("failed to write journal: %w", j.err)
	}
	return nil
}
