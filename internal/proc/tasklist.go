package proc

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/pranshuparmar/killport/internal/console"
	"github.com/pranshuparmar/killport/internal/runner"
)

// tasklist /V /FO CSV /NH column positions. Headers are localized, so
// columns are read by position.
const (
	tasklistName = 0
	tasklistPID  = 1
	tasklistUser = 6
)

func tasklistLookup(ctx context.Context, r runner.Runner, dec console.Decoder, pids []int) (map[int]procInfo, error) {
	res, err := r.Run(ctx, runner.Command{
		Name:    "tasklist",
		Args:    []string{"/V", "/FO", "CSV", "/NH"},
		Timeout: tasklistTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("tasklist: %w", err)
	}

	all, err := parseTasklist(dec.Decode(res.Stdout))
	if err != nil {
		return nil, err
	}
	info := make(map[int]procInfo, len(pids))
	for _, pid := range pids {
		if pi, ok := all[pid]; ok {
			info[pid] = pi
		}
	}
	return info, nil
}

func parseTasklist(out string) (map[int]procInfo, error) {
	rd := csv.NewReader(strings.NewReader(out))
	rd.FieldsPerRecord = -1
	rd.LazyQuotes = true
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse tasklist output: %w", err)
	}

	info := make(map[int]procInfo, len(records))
	for _, rec := range records {
		if len(rec) <= tasklistPID {
			continue
		}
		pid, ok := parsePID(strings.TrimSpace(rec[tasklistPID]))
		if !ok {
			continue
		}
		pi := procInfo{Name: console.Scrub(rec[tasklistName])}
		if len(rec) > tasklistUser {
			pi.User = tasklistUserName(rec[tasklistUser])
		}
		info[pid] = pi
	}
	return info, nil
}

// tasklistUserName drops placeholder and undecodable account names.
func tasklistUserName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") || console.Garbled(s) {
		return ""
	}
	return console.Scrub(s)
}
