package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/resource"
)

// StepRow is a pipeline step as displayed.
type StepRow struct {
	Name     string
	Active   bool
	Status   pipeline.StepStatus
	Optional bool
	Duration time.Duration
	Err      error
}

// ResourceRow is a waited-for resource as displayed.
type ResourceRow struct {
	Ref      resource.Ref
	State    convergence.OutcomeState
	Snapshot convergence.Snapshot
	Polls    int
	Err      error
}

// Model is the Bubble Tea model for a run.
type Model struct {
	Title string

	Steps     []StepRow
	Resources []ResourceRow

	Patched  bool
	Change   patcher.Change
	PatchErr error

	StartTime time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewModel creates a model for a run named title. Steps announced later are
// appended in the order they start; resources are listed in target order.
func NewModel(title string, targets []resource.Ref) Model {
	m := Model{
		Title:     title,
		StartTime: time.Now(),
	}
	for _, ref := range targets {
		m.Resources = append(m.Resources, ResourceRow{Ref: ref, State: convergence.Polling})
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StepStartedMsg:
		m.startStep(msg.Step)

	case StepFinishedMsg:
		m.finishStep(msg.Record)

	case ObservationMsg:
		m.observe(msg.Observation)

	case PatchMsg:
		m.Patched = true
		m.Change = msg.Change
		m.PatchErr = msg.Err

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) step(name string) *StepRow {
	for i := range m.Steps {
		if m.Steps[i].Name == name {
			return &m.Steps[i]
		}
	}
	m.Steps = append(m.Steps, StepRow{Name: name})
	return &m.Steps[len(m.Steps)-1]
}

func (m *Model) startStep(name string) {
	m.step(name).Active = true
}

func (m *Model) finishStep(rec pipeline.StepRecord) {
	row := m.step(rec.Step)
	row.Active = false
	row.Status = rec.Status
	row.Optional = rec.Optional
	row.Duration = rec.Duration
	row.Err = rec.Err
}

func (m *Model) observe(o convergence.Observation) {
	for i := range m.Resources {
		row := &m.Resources[i]
		if row.Ref != o.Ref {
			continue
		}
		row.State = o.State
		row.Polls = o.Poll
		row.Err = o.Err
		if o.Err == nil {
			row.Snapshot = o.Snapshot
		}
		return
	}
	m.Resources = append(m.Resources, ResourceRow{
		Ref: o.Ref, State: o.State, Snapshot: o.Snapshot, Polls: o.Poll, Err: o.Err,
	})
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
