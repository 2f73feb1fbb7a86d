package model

import (
	"fmt"
	"strings"
)

type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// ParseProtocol accepts "tcp" or "udp" in any case.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	}
	return "", fmt.Errorf("unknown protocol %q (want tcp or udp)", s)
}

// Listener is a socket bound in listening state together with its owning process.
type Listener struct {
	Protocol     Protocol `json:"protocol"`
	Port         int      `json:"port"`
	PID          int      `json:"pid"`
	LocalAddress string   `json:"localAddress,omitempty"`
	ProcessName  string   `json:"processName,omitempty"`
	Command      string   `json:"command,omitempty"`
	User         string   `json:"user,omitempty"`
	Raw          string   `json:"raw,omitempty"`
	Source       Source   `json:"source,omitempty"`
}

// ListenerKey identifies one logical listener. IPv4/IPv6 dual binds and
// overlapping tool runs collapse onto the same key.
type ListenerKey struct {
	Protocol     Protocol
	Port         int
	PID          int
	LocalAddress string
}

func (l Listener) Key() ListenerKey {
	return ListenerKey{
		Protocol:     l.Protocol,
		Port:         l.Port,
		PID:          l.PID,
		LocalAddress: l.LocalAddress,
	}
}

// Name returns the best short label for the owning process.
func (l Listener) Name() string {
	if l.ProcessName != "" {
		return l.ProcessName
	}
	if l.Command != "" {
		fields := strings.Fields(l.Command)
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// Dedup drops listeners whose key was already seen, keeping the first
// occurrence and the original order.
func Dedup(in []Listener) []Listener {
	seen := make(map[ListenerKey]bool, len(in))
	out := make([]Listener, 0, len(in))
	for _, l := range in {
		k := l.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}

// UniquePIDs returns the PIDs of the given listeners in first-seen order.
func UniquePIDs(in []Listener) []int {
	seen := make(map[int]bool, len(in))
	var pids []int
	for _, l := range in {
		if seen[l.PID] {
			continue
		}
		seen[l.PID] = true
		pids = append(pids, l.PID)
	}
	return pids
}
