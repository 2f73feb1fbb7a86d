package kill

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/proc"
	"github.com/pranshuparmar/killport/pkg/model"
)

// Signal is a platform-neutral termination signal.
type Signal int

const (
	SigTerm Signal = iota
	SigKill
)

func (s Signal) String() string {
	if s == SigKill {
		return model.MethodSIGKILL
	}
	return model.MethodSIGTERM
}

// signaler delivers signals and probes liveness. A signal to a process
// that no longer exists returns os.ErrProcessDone; a permission failure
// satisfies errors.Is(err, fs.ErrPermission).
type signaler interface {
	signal(pid int, sig Signal) error
	alive(pid int) bool
}

type snapshotter interface {
	Snapshot(ctx context.Context) ([]proc.ProcEntry, error)
}

type posixKiller struct {
	sig     signaler
	snap    snapshotter
	poll    time.Duration
	confirm time.Duration
}

func (k *posixKiller) IsAlive(pid int) bool {
	return k.sig.alive(pid)
}

func (k *posixKiller) Kill(ctx context.Context, pid int, opts Options) model.KillOutcome {
	if !opts.Tree {
		return k.killOne(ctx, pid, opts)
	}
	return killTree(ctx, k.snap, pid, func(p int) model.KillOutcome {
		return k.killOne(ctx, p, opts)
	})
}

// killOne runs ALIVE_CHECK → SIGTERM → grace wait → SIGKILL → confirm.
func (k *posixKiller) killOne(ctx context.Context, pid int, opts Options) model.KillOutcome {
	if !k.sig.alive(pid) {
		return succeeded(pid, model.MethodAlreadyExited, "process already exited")
	}
	alive := func() bool { return k.sig.alive(pid) }

	if !opts.Force {
		if err := k.sig.signal(pid, SigTerm); err != nil {
			if errors.Is(err, os.ErrProcessDone) {
				return succeeded(pid, model.MethodSIGTERM, "terminated")
			}
			return signalFailure(pid, SigTerm, err)
		}
		if opts.Timeout > 0 && waitGone(ctx, alive, k.poll, opts.Timeout) {
			return succeeded(pid, model.MethodSIGTERM, "terminated")
		}
		log.Debug().Int("pid", pid).Dur("grace", opts.Timeout).Msg("process survived SIGTERM, escalating")
	}

	if err := k.sig.signal(pid, SigKill); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			if opts.Force {
				return succeeded(pid, model.MethodAlreadyExited, "process already exited")
			}
			return succeeded(pid, model.MethodSIGTERM, "terminated")
		}
		return signalFailure(pid, SigKill, err)
	}

	if waitGone(ctx, alive, k.poll, k.confirm) {
		return succeeded(pid, model.MethodSIGKILL, "killed")
	}
	return failed(pid, model.MethodSIGKILL, model.ErrCodeStillAlive, errStillAlive.Error())
}

func signalFailure(pid int, sig Signal, err error) model.KillOutcome {
	if errors.Is(err, fs.ErrPermission) {
		return failed(pid, sig.String(), model.ErrCodePermission, "permission denied")
	}
	return failed(pid, sig.String(), errnoName(err), err.Error())
}
