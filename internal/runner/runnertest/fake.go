// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/pranshuparmar/killport/internal/runner"
)

// Response is what the fake returns for one command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Fake answers commands by name, or by "name arg1 arg2..." when a more
// specific entry exists. Unknown commands fail with runner.ErrNotFound.
type Fake struct {
	mu        sync.Mutex
	Responses map[string][]Response
	Calls     []runner.Command
}

func New() *Fake {
	return &Fake{Responses: make(map[string][]Response)}
}

// On queues a response. Repeated calls for the same key are answered in
// order; the last response repeats once the queue is drained.
func (f *Fake) On(key string, r Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[key] = append(f.Responses[key], r)
	return f
}

func (f *Fake) Run(_ context.Context, c runner.Command) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)

	full := strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
	for _, key := range []string{full, c.Name} {
		queue, ok := f.Responses[key]
		if !ok || len(queue) == 0 {
			continue
		}
		r := queue[0]
		if len(queue) > 1 {
			f.Responses[key] = queue[1:]
		}
		return runner.Result{
			Stdout:   []byte(r.Stdout),
			Stderr:   []byte(r.Stderr),
			ExitCode: r.ExitCode,
		}, r.Err
	}
	return runner.Result{}, runner.ErrNotFound
}

// Called reports how many times a command with this name ran.
func (f *Fake) Called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}
