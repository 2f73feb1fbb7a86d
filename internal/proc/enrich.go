package proc

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pranshuparmar/killport/pkg/model"
)

// procInfo is what an enrichment source knows about one PID. Empty fields
// mean "unknown".
type procInfo struct {
	Name    string
	Command string
	User    string
}

// mergeInfo fills only the listener fields that are still empty.
func mergeInfo(l *model.Listener, info procInfo) {
	if l.ProcessName == "" {
		l.ProcessName = info.Name
	}
	if l.Command == "" {
		l.Command = info.Command
	}
	if l.User == "" {
		l.User = info.User
	}
}

func overlay(listeners []model.Listener, info map[int]procInfo) {
	if len(info) == 0 {
		return
	}
	for i := range listeners {
		if pi, ok := info[listeners[i].PID]; ok {
			mergeInfo(&listeners[i], pi)
		}
	}
}

// enrichConcurrently runs one lookup per unique PID at the same time. Each
// lookup is independent and allowed to fail.
func enrichConcurrently(ctx context.Context, listeners []model.Listener, lookup func(pid int) (procInfo, bool)) {
	pids := model.UniquePIDs(listeners)
	if len(pids) == 0 {
		return
	}

	infos := make([]procInfo, len(pids))
	found := make([]bool, len(pids))

	g, ctx := errgroup.WithContext(ctx)
	for i, pid := range pids {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			infos[i], found[i] = lookup(pid)
			return nil
		})
	}
	_ = g.Wait()

	byPID := make(map[int]procInfo, len(pids))
	for i, pid := range pids {
		if found[i] {
			byPID[pid] = infos[i]
		}
	}
	overlay(listeners, byPID)
}
