// Package kill terminates processes with a graceful-then-forceful protocol.
package kill

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pranshuparmar/killport/internal/console"
	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/internal/proc"
	"github.com/pranshuparmar/killport/internal/runner"
	"github.com/pranshuparmar/killport/pkg/model"
)

const (
	// PollInterval is how often liveness is probed while waiting.
	PollInterval = 25 * time.Millisecond
	// ConfirmWindow bounds the wait for a forceful kill to take effect.
	ConfirmWindow = time.Second
)

// Options controls a single Kill call.
type Options struct {
	// Force skips the graceful phase.
	Force   bool
	Timeout time.Duration
	// Tree kills descendants before the target.
	Tree bool
}

type Killer interface {
	Kill(ctx context.Context, pid int, opts Options) model.KillOutcome
	IsAlive(pid int) bool
}

// New returns the Killer for p. Windows uses taskkill; everything else
// uses POSIX signals.
func New(p platform.Platform, r runner.Runner) Killer {
	if p == platform.Windows {
		return &taskkillKiller{
			run:    r,
			alive:  processAlive,
			poll:   PollInterval,
			decode: console.OEM(),
		}
	}
	return &posixKiller{
		sig:     sysSignaler{},
		snap:    proc.NewSnapshotter(p, r),
		poll:    PollInterval,
		confirm: ConfirmWindow,
	}
}

var errStillAlive = errors.New("process still alive")

// waitGone polls alive every interval until it reports false, the window
// elapses or ctx is done. It always probes at least once.
func waitGone(ctx context.Context, alive func() bool, interval, window time.Duration) bool {
	if interval <= 0 {
		interval = PollInterval
	}
	retries := uint64(0)
	if window > 0 {
		retries = uint64(window / interval)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), retries), ctx)

	err := backoff.Retry(func() error {
		if alive() {
			return errStillAlive
		}
		return nil
	}, b)
	return err == nil
}

func succeeded(pid int, method, message string) model.KillOutcome {
	return model.KillOutcome{PID: pid, OK: true, Method: method, Message: message}
}

func failed(pid int, method, code, message string) model.KillOutcome {
	return model.KillOutcome{PID: pid, Method: method, ErrorCode: code, Message: message}
}
