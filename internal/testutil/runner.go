package testutil

import (
	"context"
	"sync"

	"github.com/lockss/turtles/internal/execx"
)

// FakeRunner is an execx.Runner that records invocations instead of
// spawning processes.
type FakeRunner struct {
	mu sync.Mutex

	// Handler services each invocation. nil means every command succeeds
	// with empty output.
	Handler func(cmd execx.Cmd) (*execx.Result, error)

	// Paths controls LookPath answers. Missing names report false.
	Paths map[string]bool

	calls []execx.Cmd
}

// Run implements execx.Runner.
func (r *FakeRunner) Run(_ context.Context, cmd execx.Cmd) (*execx.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if r.Handler != nil {
		return r.Handler(cmd)
	}
	return &execx.Result{}, nil
}

// LookPath implements execx.Runner.
func (r *FakeRunner) LookPath(name string) bool {
	return r.Paths[name]
}

// Calls returns the recorded invocations in order.
func (r *FakeRunner) Calls() []execx.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]execx.Cmd(nil), r.calls...)
}

// CallsNamed returns the recorded invocations of one program.
func (r *FakeRunner) CallsNamed(name string) []execx.Cmd {
	var out []execx.Cmd
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
