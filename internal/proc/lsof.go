package proc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pranshuparmar/killport/pkg/model"
)

var (
	lsofPortRe   = regexp.MustCompile(`:(\d+)\b`)
	lsofEscapeRe = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
)

func lsofCommand(proto model.Protocol) []string {
	if proto == model.UDP {
		return []string{"-nP", "-iUDP"}
	}
	return []string{"-nP", "-iTCP", "-sTCP:LISTEN"}
}

// ParseLsof parses `lsof -nP -i` output:
//
//	COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME
//	node    123 dev  22u IPv4 0x1234 0t0     TCP  *:3000 (LISTEN)
//
// The NAME region starts at the TCP/UDP node column.
func ParseLsof(out string, proto model.Protocol) []model.Listener {
	want := strings.ToUpper(string(proto))

	var listeners []model.Listener
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 8 {
			continue
		}

		node := -1
		for i := 5; i < len(fields); i++ {
			if fields[i] == "TCP" || fields[i] == "UDP" {
				node = i
				break
			}
		}
		if node == -1 || fields[node] != want || node+1 >= len(fields) {
			continue
		}

		pid, ok := parsePID(fields[1])
		if !ok {
			continue
		}

		addr, port, ok := lsofAddress(strings.Join(fields[node+1:], " "))
		if !ok {
			continue
		}

		listeners = append(listeners, model.Listener{
			Protocol:     proto,
			Port:         port,
			PID:          pid,
			LocalAddress: addr,
			ProcessName:  unescapeLsof(fields[0]),
			User:         fields[2],
			Raw:          strings.TrimSpace(line),
			Source:       model.SourceLsof,
		})
	}
	return listeners
}

// lsofAddress extracts the local address from the NAME region, e.g.
// "*:3000 (LISTEN)", "[::1]:7679 (LISTEN)" or "127.0.0.1:5353->10.0.0.1:53".
// Bracketed IPv6 addresses are split directly; anything else uses the
// first ":<digits>" match.
func lsofAddress(name string) (string, int, bool) {
	if strings.HasPrefix(name, "[") {
		local, _, _ := strings.Cut(strings.Fields(name)[0], "->")
		return SplitHostPort(local)
	}
	loc := lsofPortRe.FindStringSubmatchIndex(name)
	if loc == nil {
		return "", 0, false
	}
	port, ok := parsePort(name[loc[2]:loc[3]])
	if !ok {
		return "", 0, false
	}
	return name[:loc[0]], port, true
}

// lsof prints unprintable bytes in COMMAND as \xNN, notably spaces and
// the bytes of multi-byte UTF-8 characters.
func unescapeLsof(s string) string {
	out := lsofEscapeRe.ReplaceAllFunc([]byte(s), func(m []byte) []byte {
		b, err := strconv.ParseUint(string(m[2:]), 16, 8)
		if err != nil {
			return m
		}
		return []byte{byte(b)}
	})
	return strings.ToValidUTF8(string(out), "")
}
