package testing

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/windguard/edgeprov/internal/executil"
)

// MockExecutor is a testify mock of executil.Executor.
type MockExecutor struct {
	mock.Mock
}

// Execute records the call and returns the configured result.
func (m *MockExecutor) Execute(ctx context.Context, cmd executil.Command) (executil.Result, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(executil.Result), args.Error(1)
}

// RecordingExecutor records every command it receives and answers from a
// script keyed by binary name. Unscripted commands succeed with no output.
type RecordingExecutor struct {
	mu       sync.Mutex
	commands []executil.Command
	stdin    []string
	results  map[string]executil.Result
	errs     map[string]error
}

// NewRecordingExecutor creates an executor where every command succeeds.
func NewRecordingExecutor() *RecordingExecutor {
	return &RecordingExecutor{
		results: make(map[string]executil.Result),
		errs:    make(map[string]error),
	}
}

// FailOn makes every invocation of the named binary exit with code.
func (r *RecordingExecutor) FailOn(name string, code int) *RecordingExecutor {
	r.results[name] = executil.Result{ExitCode: code, Stderr: []byte(name + " failed")}
	return r
}

// ErrorOn makes every invocation of the named binary fail to start.
func (r *RecordingExecutor) ErrorOn(name string, err error) *RecordingExecutor {
	r.errs[name] = err
	return r
}

// Respond makes every invocation of the named binary print stdout.
func (r *RecordingExecutor) Respond(name, stdout string) *RecordingExecutor {
	r.results[name] = executil.Result{Stdout: []byte(stdout)}
	return r
}

// Execute implements executil.Executor.
func (r *RecordingExecutor) Execute(_ context.Context, cmd executil.Command) (executil.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	input := ""
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		input = string(data)
	}
	r.commands = append(r.commands, cmd)
	r.stdin = append(r.stdin, input)

	if err, ok := r.errs[cmd.Name]; ok {
		return executil.Result{}, err
	}
	res := r.results[cmd.Name]
	if cmd.Stdout != nil && len(res.Stdout) > 0 {
		_, _ = cmd.Stdout.Write(res.Stdout)
	}
	return res, nil
}

// Commands returns every command received, in order.
func (r *RecordingExecutor) Commands() []executil.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]executil.Command(nil), r.commands...)
}

// Names returns the binary names of every command received, in order.
func (r *RecordingExecutor) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		names = append(names, c.Name)
	}
	return names
}

// Stdin returns what the i-th command received on stdin.
func (r *RecordingExecutor) Stdin(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stdin[i]
}
