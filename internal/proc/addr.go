package proc

import (
	"strconv"
	"strings"
)

// SplitHostPort splits a socket address as printed by ss, lsof and netstat:
// "[::]:22", "[fe80::1%eth0]:546", "*:5353", "0.0.0.0:80",
// "127.0.0.53%lo:53". Zone suffixes are dropped and brackets removed.
func SplitHostPort(s string) (string, int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", 0, false
	}

	var host, portStr string
	if strings.HasPrefix(s, "[") {
		end := strings.LastIndex(s, "]")
		if end == -1 || end+1 >= len(s) || s[end+1] != ':' {
			return "", 0, false
		}
		host = s[1:end]
		portStr = s[end+2:]
	} else {
		idx := strings.LastIndex(s, ":")
		if idx == -1 {
			return "", 0, false
		}
		host = s[:idx]
		portStr = s[idx+1:]
	}

	if i := strings.IndexByte(host, '%'); i != -1 {
		host = host[:i]
	}

	port, ok := parsePort(portStr)
	if !ok {
		return "", 0, false
	}
	return host, port, true
}

func parsePort(s string) (int, bool) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

func parsePID(s string) (int, bool) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
