package proc

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/runner"
)

// psCommands fetches full command lines for pids with a single ps call.
func psCommands(ctx context.Context, r runner.Runner, pids []int) map[int]procInfo {
	if len(pids) == 0 {
		return nil
	}
	list := make([]string, len(pids))
	for i, pid := range pids {
		list[i] = strconv.Itoa(pid)
	}

	out, err := runTool(ctx, r, psTimeout, "ps", "-o", "pid=,command=", "-p", strings.Join(list, ","))
	if err != nil {
		log.Debug().Err(err).Msg("ps command lookup failed")
		return nil
	}
	return parsePSCommands(out)
}

func parsePSCommands(out string) map[int]procInfo {
	info := make(map[int]procInfo)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		pidStr, command, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		pid, ok := parsePID(pidStr)
		if !ok {
			continue
		}
		info[pid] = procInfo{Command: strings.TrimSpace(command)}
	}
	return info
}
