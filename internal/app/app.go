// Package app wires the command line to discovery, safety checks, the
// killer and the interactive picker.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pranshuparmar/killport/internal/kill"
	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/internal/proc"
	"github.com/pranshuparmar/killport/internal/runner"
	"github.com/pranshuparmar/killport/internal/tui"
	"github.com/pranshuparmar/killport/pkg/model"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

var versionString = "dev"

// SetVersionBuildCommitString sets the string printed by --version.
func SetVersionBuildCommitString(version, commit, buildDate string) {
	if version == "" {
		version = "dev"
	}
	s := version
	if commit != "" {
		s += " (" + commit
		if buildDate != "" {
			s += ", " + buildDate
		}
		s += ")"
	}
	versionString = s
}

// ExitError carries a non-zero exit code out of a command without an
// error message of its own.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Deps are the collaborators a run needs. Tests substitute fakes.
type Deps struct {
	Platform    platform.Platform
	Finder      proc.Finder
	Killer      kill.Killer
	Select      func(ctx context.Context, listeners []model.Listener) (tui.Result, error)
	Interactive func() bool
	Stdout      io.Writer
	Stderr      io.Writer
}

// DefaultDeps returns the real collaborators for the running host.
func DefaultDeps() Deps {
	p := platform.Detect()
	r := runner.Exec{}
	return Deps{
		Platform:    p,
		Finder:      proc.NewFinder(p, r),
		Killer:      kill.New(p, r),
		Select:      tui.SelectListeners,
		Interactive: tui.Interactive,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Run executes one command line and returns the process exit code.
func Run(ctx context.Context, args []string, deps Deps) int {
	cmd := NewRootCommand(deps)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case ctx.Err() != nil:
		return ExitInterrupted
	}
	fmt.Fprintln(deps.Stderr, "error:", err)
	return ExitFailure
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], DefaultDeps())
	stop()
	os.Exit(code)
}
