package proc

import (
	"strconv"
	"strings"

	"github.com/pranshuparmar/killport/pkg/model"
)

// ParseNetstat parses Windows `netstat -ano` output for one protocol.
//
//	TCP    0.0.0.0:135     0.0.0.0:0     LISTENING    888
//	UDP    0.0.0.0:123     *:*                        999
//
// TCP rows are kept only in LISTENING state; UDP rows have no state column
// and are always kept. PID 0 and 4 are valid here (idle and System).
func ParseNetstat(out string, proto model.Protocol) []model.Listener {
	var listeners []model.Listener
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		var pidStr string
		switch strings.ToUpper(fields[0]) {
		case "TCP", "TCPV6":
			if proto != model.TCP || len(fields) < 5 {
				continue
			}
			if !strings.EqualFold(fields[3], "LISTENING") {
				continue
			}
			pidStr = fields[4]
		case "UDP", "UDPV6":
			if proto != model.UDP {
				continue
			}
			pidStr = fields[3]
		default:
			continue
		}

		pid, err := strconv.Atoi(pidStr)
		if err != nil || pid < 0 {
			continue
		}
		addr, port, ok := SplitHostPort(fields[1])
		if !ok {
			continue
		}

		listeners = append(listeners, model.Listener{
			Protocol:     proto,
			Port:         port,
			PID:          pid,
			LocalAddress: addr,
			Raw:          strings.TrimSpace(line),
			Source:       model.SourceNetstat,
		})
	}
	return listeners
}
