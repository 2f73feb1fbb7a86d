package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/pranshuparmar/killport/pkg/model"
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Interactive reports whether both stdin and stdout are terminals.
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

// SelectListeners runs one full-screen selection session. Without a
// terminal on stdin and stdout it returns a cancelled Result immediately.
// The alternate screen and raw mode are restored on every exit path.
func SelectListeners(ctx context.Context, listeners []model.Listener) (Result, error) {
	if !Interactive() {
		return Result{Cancelled: true}, nil
	}

	p := tea.NewProgram(NewModel(listeners), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	switch {
	case errors.Is(err, tea.ErrInterrupted):
		return Result{Cancelled: true, Interrupted: true}, nil
	case err != nil && ctx.Err() != nil:
		return Result{Cancelled: true, Interrupted: true}, nil
	case err != nil:
		return Result{Cancelled: true}, fmt.Errorf("error running tui: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return Result{Cancelled: true}, nil
	}
	res, done := m.Result()
	if !done {
		return Result{Cancelled: true}, nil
	}
	return res, nil
}
