package proc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/internal/runner"
)

// ProcEntry is one row of a process table snapshot.
type ProcEntry struct {
	PID  int
	PPID int
}

// Snapshotter collects a lightweight pid/ppid table for descendant
// discovery.
type Snapshotter struct {
	Platform platform.Platform
	Run      runner.Runner
	ReadDir  func(name string) ([]fs.DirEntry, error)
	ReadFile ReadFileFunc
}

func NewSnapshotter(p platform.Platform, r runner.Runner) Snapshotter {
	return Snapshotter{Platform: p, Run: r, ReadDir: os.ReadDir, ReadFile: os.ReadFile}
}

// Snapshot lists every visible process. On Linux a missing ps falls back to
// walking /proc.
func (s Snapshotter) Snapshot(ctx context.Context) ([]ProcEntry, error) {
	out, err := runTool(ctx, s.Run, psTimeout, "ps", "-A", "-o", "pid=,ppid=")
	if err == nil {
		return parsePSTable(out), nil
	}
	if s.Platform != platform.Linux || !runner.Unavailable(err) {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}
	log.Debug().Err(err).Msg("ps unavailable, reading /proc")
	return s.procSnapshot()
}

func parsePSTable(out string) []ProcEntry {
	var entries []ProcEntry
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, ok := parsePID(fields[0])
		if !ok {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		entries = append(entries, ProcEntry{PID: pid, PPID: ppid})
	}
	return entries
}

func (s Snapshotter) procSnapshot() ([]ProcEntry, error) {
	dirents, err := s.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	entries := make([]ProcEntry, 0, len(dirents))
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		pid, ok := parsePID(d.Name())
		if !ok {
			continue
		}
		stat, err := s.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
		if err != nil {
			continue
		}
		ppid, err := statPPID(stat)
		if err != nil {
			continue
		}
		entries = append(entries, ProcEntry{PID: pid, PPID: ppid})
	}
	return entries, nil
}

var errStatFormat = errors.New("invalid stat format")

// statPPID reads the parent pid from /proc/<pid>/stat. The comm field may
// itself contain spaces and parentheses, so parsing starts after the last ')'.
func statPPID(stat []byte) (int, error) {
	raw := string(stat)
	open := strings.Index(raw, "(")
	end := strings.LastIndex(raw, ")")
	if open == -1 || end == -1 || end <= open || end+2 > len(raw) {
		return 0, errStatFormat
	}
	fields := strings.Fields(raw[end+2:])
	if len(fields) < 2 {
		return 0, errStatFormat
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid ppid: %w", err)
	}
	return ppid, nil
}
