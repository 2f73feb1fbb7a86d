// Package runner runs external tools with a bounded timeout and classifies
// the ways that can go wrong.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound means the executable does not exist on this system.
	ErrNotFound = errors.New("command not found")
	// ErrTimeout means the command was killed after exceeding its timeout.
	ErrTimeout = errors.New("command timed out")
)

// DefaultTimeout applies when a Command carries no timeout of its own.
const DefaultTimeout = 5 * time.Second

type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // appended to the inherited environment
	Timeout time.Duration
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Name, c.Args)
}

// Result is what a command that started and exited left behind. A non-zero
// exit code is not an error: many tools use it to mean "nothing found".
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Signal   string
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() []byte {
	out := make([]byte, 0, len(r.Stdout)+len(r.Stderr)+1)
	out = append(out, r.Stdout...)
	if len(r.Stdout) > 0 && len(r.Stderr) > 0 && r.Stdout[len(r.Stdout)-1] != '\n' {
		out = append(out, '\n')
	}
	return append(out, r.Stderr...)
}

type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Exec runs commands through os/exec.
type Exec struct{}

func (Exec) Run(ctx context.Context, c Command) (Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- command names are fixed by the callers, arguments are validated ints
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.WaitDelay = 500 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	logger := log.Debug().Str("cmd", c.Name).Strs("args", c.Args).Dur("took", time.Since(start))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Msg("command timed out")
		return res, fmt.Errorf("%s: %w after %s", c.Name, ErrTimeout, timeout)
	}
	if err == nil {
		logger.Int("exit", 0).Msg("command finished")
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Signal = ws.Signal().String()
		}
		logger.Int("exit", res.ExitCode).Msg("command finished")
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		logger.Msg("command not found")
		return res, fmt.Errorf("%s: %w", c.Name, ErrNotFound)
	}
	return res, fmt.Errorf("run %s: %w", c.Name, err)
}

// Unavailable reports whether err means the tool could not contribute at all,
// either because it is missing or because it hung.
func Unavailable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTimeout)
}
