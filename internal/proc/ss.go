package proc

import (
	"regexp"
	"strings"

	"github.com/pranshuparmar/killport/pkg/model"
)

var (
	// users:(("nginx",pid=812,fd=6),("nginx",pid=813,fd=6))
	ssUserRe = regexp.MustCompile(`\("((?:[^"\\]|\\.)*)",pid=(\d+)`)
	ssPIDRe  = regexp.MustCompile(`pid=(\d+)`)
)

func ssCommand(proto model.Protocol) []string {
	flag := "-t"
	if proto == model.UDP {
		flag = "-u"
	}
	return []string{"-l", "-n", "-p", flag}
}

// ParseSS parses `ss -lnp -t|-u` output. Rows without a pid= token are
// dropped: ss only reports owners it is allowed to see.
func ParseSS(out string, proto model.Protocol) []model.Listener {
	var listeners []model.Listener
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && (fields[0] == "tcp" || fields[0] == "udp") {
			fields = fields[1:]
		}
		if len(fields) < 5 {
			continue
		}
		if fields[0] == "State" || fields[0] == "Netid" {
			continue
		}

		addr, port, ok := SplitHostPort(fields[3])
		if !ok {
			continue
		}

		for _, o := range ssOwners(strings.Join(fields[5:], " ")) {
			listeners = append(listeners, model.Listener{
				Protocol:     proto,
				Port:         port,
				PID:          o.pid,
				LocalAddress: addr,
				ProcessName:  o.name,
				Raw:          strings.TrimSpace(line),
				Source:       model.SourceSS,
			})
		}
	}
	return listeners
}

type ssOwner struct {
	name string
	pid  int
}

func ssOwners(process string) []ssOwner {
	var owners []ssOwner
	for _, m := range ssUserRe.FindAllStringSubmatch(process, -1) {
		if pid, ok := parsePID(m[2]); ok {
			owners = append(owners, ssOwner{name: m[1], pid: pid})
		}
	}
	if len(owners) > 0 {
		return owners
	}
	for _, m := range ssPIDRe.FindAllStringSubmatch(process, -1) {
		if pid, ok := parsePID(m[1]); ok {
			owners = append(owners, ssOwner{pid: pid})
		}
	}
	return owners
}
