package proc

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/pranshuparmar/killport/internal/console"
	"github.com/pranshuparmar/killport/internal/runner"
)

// cimScript queries Win32_Process for the given PIDs and resolves each
// owner through GetOwner. Output is forced to UTF-8 CSV.
const cimScript = `[Console]::OutputEncoding = [System.Text.Encoding]::UTF8
$ids = @(%s)
Get-CimInstance -ClassName Win32_Process | Where-Object { $ids -contains $_.ProcessId } | ForEach-Object {
  $o = Invoke-CimMethod -InputObject $_ -MethodName GetOwner -ErrorAction SilentlyContinue
  $u = if ($o -and $o.User) { if ($o.Domain) { "$($o.Domain)\$($o.User)" } else { $o.User } } else { "" }
  [PSCustomObject]@{ ProcessId = $_.ProcessId; Name = $_.Name; CommandLine = $_.CommandLine; Owner = $u }
} | ConvertTo-Csv -NoTypeInformation`

func cimLookup(ctx context.Context, r runner.Runner, pids []int) (map[int]procInfo, error) {
	ids := make([]string, len(pids))
	for i, pid := range pids {
		ids[i] = strconv.Itoa(pid)
	}
	script := fmt.Sprintf(cimScript, strings.Join(ids, ","))

	res, err := r.Run(ctx, runner.Command{
		Name:    "powershell",
		Args:    []string{"-NoProfile", "-NonInteractive", "-Command", script},
		Timeout: cimTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("powershell process query: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("powershell process query: exit code %d", res.ExitCode)
	}
	return parseCIM(console.Decode(res.Stdout))
}

// parseCIM reads the CSV written by cimScript, locating columns by header.
func parseCIM(out string) (map[int]procInfo, error) {
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse powershell output: %w", err)
	}
	if len(records) == 0 {
		return map[int]procInfo{}, nil
	}

	idx := map[string]int{"ProcessId": -1, "Name": -1, "CommandLine": -1, "Owner": -1}
	for i, h := range records[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	if idx["ProcessId"] == -1 || idx["Name"] == -1 {
		return nil, fmt.Errorf("invalid powershell output headers: %v", records[0])
	}

	field := func(rec []string, name string) string {
		i := idx[name]
		if i < 0 || i >= len(rec) {
			return ""
		}
		return console.Scrub(rec[i])
	}

	info := make(map[int]procInfo, len(records)-1)
	for _, rec := range records[1:] {
		pid, ok := parsePID(field(rec, "ProcessId"))
		if !ok {
			continue
		}
		info[pid] = procInfo{
			Name:    field(rec, "Name"),
			Command: field(rec, "CommandLine"),
			User:    field(rec, "Owner"),
		}
	}
	return info, nil
}
