package proc

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/pranshuparmar/killport/internal/runner"
	"github.com/pranshuparmar/killport/pkg/model"
)

const tcpListen = "0A"

// procNet reads the kernel socket tables under /proc/net and maps socket
// inodes back to PIDs through /proc/<pid>/fd. Only processes whose fd
// directory is readable are attributed.
type procNet struct {
	readFile ReadFileFunc
	readDir  func(name string) ([]fs.DirEntry, error)
	readlink func(name string) (string, error)
}

type procSocket struct {
	inode   string
	port    int
	address string
	raw     string
}

// listeners returns the listening sockets of proto. A missing socket table
// is reported as runner.ErrNotFound so the caller treats it like a missing
// tool.
func (p procNet) listeners(proto model.Protocol) ([]model.Listener, error) {
	if p.readFile == nil || p.readDir == nil || p.readlink == nil {
		return nil, fmt.Errorf("/proc/net: %w", runner.ErrNotFound)
	}

	var sockets []procSocket
	readable := 0
	for _, table := range []struct {
		name string
		ipv6 bool
	}{{string(proto), false}, {string(proto) + "6", true}} {
		data, err := p.readFile("/proc/net/" + table.name)
		if err != nil {
			continue
		}
		readable++
		sockets = append(sockets, parseSocketTable(string(data), proto, table.ipv6)...)
	}
	if readable == 0 {
		return nil, fmt.Errorf("/proc/net/%s: %w", proto, runner.ErrNotFound)
	}
	if len(sockets) == 0 {
		return nil, nil
	}

	owners := p.socketOwners()
	var out []model.Listener
	for _, s := range sockets {
		for _, pid := range owners[s.inode] {
			out = append(out, model.Listener{
				Protocol:     proto,
				Port:         s.port,
				PID:          pid,
				LocalAddress: s.address,
				Raw:          s.raw,
				Source:       model.SourceProcNet,
			})
		}
	}
	return out, nil
}

// parseSocketTable keeps TCP sockets in LISTEN state and UDP sockets with
// no remote peer.
func parseSocketTable(table string, proto model.Protocol, ipv6 bool) []procSocket {
	var out []procSocket
	scanner := bufio.NewScanner(strings.NewReader(table))
	scanner.Scan() // header
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		switch proto {
		case model.TCP:
			if fields[3] != tcpListen {
				continue
			}
		case model.UDP:
			if _, rport := parseAddr(fields[2], ipv6); rport != 0 {
				continue
			}
		}
		addr, port := parseAddr(fields[1], ipv6)
		if port < 1 || fields[9] == "0" {
			continue
		}
		out = append(out, procSocket{inode: fields[9], port: port, address: addr, raw: line})
	}
	return out
}

// parseAddr decodes a kernel "HEXIP:HEXPORT" pair. Addresses are stored as
// host-order 32-bit words, so each 4-byte group is reversed.
func parseAddr(raw string, ipv6 bool) (string, int) {
	ipHex, portHex, ok := strings.Cut(raw, ":")
	if !ok {
		return "", 0
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return "", 0
	}
	b, err := hex.DecodeString(ipHex)
	if err != nil {
		return "", int(port)
	}

	size := net.IPv4len
	if ipv6 {
		size = net.IPv6len
	}
	if len(b) != size {
		return "", int(port)
	}
	ip := make(net.IP, size)
	for i := 0; i < size; i += 4 {
		ip[i], ip[i+1], ip[i+2], ip[i+3] = b[i+3], b[i+2], b[i+1], b[i]
	}
	return ip.String(), int(port)
}

// socketOwners maps socket inode to the PIDs holding an fd on it.
func (p procNet) socketOwners() map[string][]int {
	owners := make(map[string][]int)
	dirents, err := p.readDir("/proc")
	if err != nil {
		return owners
	}
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		pid, ok := parsePID(d.Name())
		if !ok {
			continue
		}
		fdDir := fmt.Sprintf("/proc/%d/fd", pid)
		fds, err := p.readDir(fdDir)
		if err != nil {
			continue
		}
		seen := make(map[string]bool)
		for _, fd := range fds {
			link, err := p.readlink(fdDir + "/" + fd.Name())
			if err != nil {
				continue
			}
			inode, ok := strings.CutPrefix(link, "socket:[")
			if !ok {
				continue
			}
			inode = strings.TrimSuffix(inode, "]")
			if seen[inode] {
				continue
			}
			seen[inode] = true
			owners[inode] = append(owners[inode], pid)
		}
	}
	return owners
}
