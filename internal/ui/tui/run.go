package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/resource"
)

// Bridge forwards run events to the program. It implements
// pipeline.Observer; ObservePoll is a convergence.Observer.
type Bridge struct {
	send func(tea.Msg)
}

// NewBridge returns a bridge that delivers messages with send.
func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

// StepStarted implements pipeline.Observer.
func (b *Bridge) StepStarted(_, step string, _ time.Time) {
	b.send(StepStartedMsg{Step: step})
}

// StepFinished implements pipeline.Observer.
func (b *Bridge) StepFinished(_ string, rec pipeline.StepRecord) {
	b.send(StepFinishedMsg{Record: rec})
}

// ObservePoll forwards a poll observation.
func (b *Bridge) ObservePoll(o convergence.Observation) {
	b.send(ObservationMsg{Observation: o})
}

// RecordPatch forwards the ensure-present result.
func (b *Bridge) RecordPatch(_ resource.Ref, change patcher.Change, err error) {
	b.send(PatchMsg{Change: change, Err: err})
}

// Run shows the live view while work runs in the background. Quitting the
// view cancels the context passed to work. The returned error is the error
// of work.
func Run(ctx context.Context, title string, targets []resource.Ref, work func(ctx context.Context, b *Bridge) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, targets), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge := NewBridge(p.Send)

	workErr := make(chan error, 1)
	go func() {
		err := work(ctx, bridge)
		if err != nil {
			p.Send(ErrMsg{Err: err})
		} else {
			p.Send(DoneMsg{})
		}
		workErr <- err
	}()

	finalModel, err := p.Run()
	interrupted := ctx.Err() != nil
	// The view is gone; stop the work if the user quit early.
	cancel()
	runErr := <-workErr

	if err != nil && !interrupted {
		return fmt.Errorf("TUI error: %w", err)
	}
	if fm, ok := finalModel.(Model); ok && runErr == nil && fm.Err != nil {
		return fm.Err
	}
	return runErr
}
