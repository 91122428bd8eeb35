package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Read decodes every entry in r. A truncated last line, as left by a crash
// mid-write, is ignored.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var pendingErr error
	line := 0
	for scanner.Scan() {
		line++
		if pendingErr != nil {
			return nil, pendingErr
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			pendingErr = fmt.Errorf("invalid journal entry on line %d: %w", line, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// Run is the reconstruction of one run from its entries.
type Run struct {
	ID      string
	Command string
	Started time.Time

	// Finished is false if the process ended without recording the end of
	// the run.
	Finished bool
	Result   string
	Error    string

	Completed        []string
	Failed           string
	OptionalFailures []string

	// Running is the step that started but never finished, if any.
	Running string

	// Outcomes maps each waited-for resource to its last observed state.
	Outcomes map[string]string

	Patches []Entry
}

// Runs groups entries by run ID, in order of first appearance.
func Runs(entries []Entry) []*Run {
	var runs []*Run
	byID := map[string]*Run{}

	for _, e := range entries {
		run, ok := byID[e.RunID]
		if !ok {
			run = &Run{ID: e.RunID, Command: e.Command, Started: e.Time, Outcomes: map[string]string{}}
			byID[e.RunID] = run
			runs = append(runs, run)
		}

		switch e.Event {
		case EventStepStarted:
			run.Running = e.Step
		case EventStepFinished:
			run.Running = ""
			switch {
			case e.Status == "Succeeded":
				run.Completed = append(run.Completed, e.Step)
			case e.Optional:
				run.OptionalFailures = append(run.OptionalFailures, e.Step)
			default:
				run.Failed = e.Step
			}
		case EventPoll:
			run.Outcomes[e.Resource] = e.Status
		case EventPatch:
			run.Patches = append(run.Patches, e)
		case EventRunFinished:
			run.Finished = true
			run.Result = e.Status
			run.Error = e.Error
		}
	}
	return runs
}
