package kill

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/proc"
	"github.com/pranshuparmar/killport/pkg/model"
)

// Descendants walks the parent→child links in entries breadth-first from
// root and returns every descendant in discovery order. Cycles and
// self-parented entries are ignored.
func Descendants(entries []proc.ProcEntry, root int) []int {
	children := make(map[int][]int)
	for _, e := range entries {
		if e.PID <= 0 || e.PID == e.PPID {
			continue
		}
		children[e.PPID] = append(children[e.PPID], e.PID)
	}

	visited := map[int]bool{root: true}
	queue := []int{root}
	var out []int
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// killTree kills root's descendants, most recently discovered first, then
// root itself. A failed snapshot degrades to killing root alone.
func killTree(ctx context.Context, snap snapshotter, root int, killOne func(pid int) model.KillOutcome) model.KillOutcome {
	var descendants []int
	if entries, err := snap.Snapshot(ctx); err != nil {
		log.Debug().Err(err).Int("pid", root).Msg("descendant enumeration failed")
	} else {
		descendants = Descendants(entries, root)
	}

	outcomes := make([]model.KillOutcome, 0, len(descendants))
	for i := len(descendants) - 1; i >= 0; i-- {
		outcomes = append(outcomes, killOne(descendants[i]))
	}

	out := killOne(root)
	if len(outcomes) > 0 {
		out.Descendants = outcomes
	}
	return out
}
