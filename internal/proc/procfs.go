package proc

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// systemUsers is the UID → name table from /etc/passwd, built on first use
// and shared read-only for the rest of the process.
var systemUsers = sync.OnceValue(func() map[int]string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return map[int]string{}
	}
	return parsePasswd(data)
})

func parsePasswd(data []byte) map[int]string {
	users := make(map[int]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		if _, dup := users[uid]; !dup {
			users[uid] = fields[0]
		}
	}
	return users
}

// procfs reads process details from /proc/<pid>.
type procfs struct {
	readFile ReadFileFunc
	users    func() map[int]string
}

func (p procfs) read(pid int, name string) string {
	data, err := p.readFile(fmt.Sprintf("/proc/%d/%s", pid, name))
	if err != nil {
		return ""
	}
	return string(data)
}

func (p procfs) lookup(pid int) (procInfo, bool) {
	var info procInfo

	info.Name = strings.TrimSpace(p.read(pid, "comm"))

	cmdline := strings.ReplaceAll(p.read(pid, "cmdline"), "\x00", " ")
	info.Command = strings.TrimSpace(cmdline)

	if uid, ok := statusUID(p.read(pid, "status")); ok {
		if name, ok := p.users()[uid]; ok {
			info.User = name
		} else {
			info.User = strconv.Itoa(uid)
		}
	}

	return info, info != procInfo{}
}

// statusUID returns the real UID from the "Uid:" line of /proc/<pid>/status.
func statusUID(status string) (int, bool) {
	for _, line := range strings.Split(status, "\n") {
		rest, ok := strings.CutPrefix(line, "Uid:")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return 0, false
		}
		uid, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, false
		}
		return uid, true
	}
	return 0, false
}
