// Package proc discovers listening sockets and the processes that own them.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/console"
	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/internal/runner"
	"github.com/pranshuparmar/killport/pkg/model"
)

var (
	// ErrToolNotFound is returned when no discovery tool for the platform
	// could run at all.
	ErrToolNotFound = errors.New("no usable port discovery tool found (tried ss, lsof, /proc/net, netstat)")
	ErrInvalidPort  = errors.New("port must be between 1 and 65535")
)

// Per-tool timeouts. A timed-out tool counts as missing for that sub-query.
const (
	ssTimeout       = 2 * time.Second
	lsofTimeout     = 5 * time.Second
	netstatTimeout  = 5 * time.Second
	psTimeout       = 2 * time.Second
	cimTimeout      = 5 * time.Second
	tasklistTimeout = 3 * time.Second
)

// AllProtocols is the fixed query order: tcp first, then udp.
var AllProtocols = []model.Protocol{model.TCP, model.UDP}

type Finder interface {
	ListAll(ctx context.Context) ([]model.Listener, error)
	FindByPort(ctx context.Context, port int, protocols []model.Protocol) ([]model.Listener, error)
}

// ReadFileFunc reads a small file. Errors are treated as "no data".
type ReadFileFunc func(path string) ([]byte, error)

// strategy is one platform's way of producing listeners.
type strategy interface {
	discover(ctx context.Context, protos []model.Protocol) ([]model.Listener, error)
	enrich(ctx context.Context, listeners []model.Listener)
}

type finder struct {
	strategy
}

// NewFinder returns the discovery strategy for p.
func NewFinder(p platform.Platform, r runner.Runner) Finder {
	switch p {
	case platform.Linux:
		return finder{&linuxStrategy{
			run: r,
			fs:  procfs{readFile: os.ReadFile, users: systemUsers},
			net: procNet{readFile: os.ReadFile, readDir: os.ReadDir, readlink: os.Readlink},
		}}
	case platform.Windows:
		return finder{&windowsStrategy{run: r, decode: console.OEM()}}
	default:
		return finder{&lsofStrategy{run: r}}
	}
}

func (f finder) ListAll(ctx context.Context) ([]model.Listener, error) {
	listeners, err := f.discover(ctx, AllProtocols)
	if err != nil {
		return nil, err
	}
	f.enrich(ctx, listeners)
	return listeners, nil
}

func (f finder) FindByPort(ctx context.Context, port int, protocols []model.Protocol) ([]model.Listener, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	if len(protocols) == 0 {
		protocols = []model.Protocol{model.TCP}
	}

	all, err := f.discover(ctx, orderProtocols(protocols))
	if err != nil {
		return nil, err
	}
	var matched []model.Listener
	for _, l := range all {
		if l.Port == port {
			matched = append(matched, l)
		}
	}
	f.enrich(ctx, matched)
	return matched, nil
}

// orderProtocols dedupes the requested protocols into tcp, udp order.
func orderProtocols(in []model.Protocol) []model.Protocol {
	want := make(map[model.Protocol]bool, len(in))
	for _, p := range in {
		want[p] = true
	}
	var out []model.Protocol
	for _, p := range AllProtocols {
		if want[p] {
			out = append(out, p)
		}
	}
	return out
}

// attempts tracks whether any tool managed to run. Missing and timed-out
// tools are absorbed; other failures propagate.
type attempts struct {
	ran, unavailable int
}

func (a *attempts) record(err error) error {
	a.ran++
	if err == nil {
		return nil
	}
	if runner.Unavailable(err) {
		a.unavailable++
		log.Debug().Err(err).Msg("discovery tool unavailable")
		return nil
	}
	return err
}

func (a attempts) none() bool {
	return a.ran > 0 && a.ran == a.unavailable
}

// runTool runs name and returns stdout. Unavailable tools return "" with the
// classifying error so callers can record it.
func runTool(ctx context.Context, r runner.Runner, timeout time.Duration, name string, args ...string) (string, error) {
	res, err := r.Run(ctx, runner.Command{Name: name, Args: args, Timeout: timeout})
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

type linuxStrategy struct {
	run runner.Runner
	fs  procfs
	net procNet
}

// discover prefers ss and falls back to lsof per protocol when ss could not
// attribute any socket to a PID (typically when not running as root). When
// neither yields a row the kernel socket tables are read directly.
func (s *linuxStrategy) discover(ctx context.Context, protos []model.Protocol) ([]model.Listener, error) {
	var a attempts
	var all []model.Listener
	for _, p := range protos {
		out, err := runTool(ctx, s.run, ssTimeout, "ss", ssCommand(p)...)
		if err := a.record(err); err != nil {
			return nil, err
		}
		listeners := ParseSS(out, p)

		if len(listeners) == 0 {
			log.Debug().Str("proto", string(p)).Msg("ss reported no owned sockets, trying lsof")
			out, err := runTool(ctx, s.run, lsofTimeout, "lsof", lsofCommand(p)...)
			if err := a.record(err); err != nil {
				return nil, err
			}
			listeners = ParseLsof(out, p)
		}

		if len(listeners) == 0 {
			found, err := s.net.listeners(p)
			if err := a.record(err); err != nil {
				return nil, err
			}
			listeners = found
		}
		all = append(all, listeners...)
	}
	if a.none() {
		return nil, ErrToolNotFound
	}
	return model.Dedup(all), nil
}

func (s *linuxStrategy) enrich(ctx context.Context, listeners []model.Listener) {
	enrichConcurrently(ctx, listeners, s.fs.lookup)
}

// lsofStrategy serves macOS and any other POSIX-like system.
type lsofStrategy struct {
	run runner.Runner
}

func (s *lsofStrategy) discover(ctx context.Context, protos []model.Protocol) ([]model.Listener, error) {
	var a attempts
	var all []model.Listener
	for _, p := range protos {
		out, err := runTool(ctx, s.run, lsofTimeout, "lsof", lsofCommand(p)...)
		if err := a.record(err); err != nil {
			return nil, err
		}
		all = append(all, ParseLsof(out, p)...)
	}
	if a.none() {
		return nil, ErrToolNotFound
	}
	return model.Dedup(all), nil
}

func (s *lsofStrategy) enrich(ctx context.Context, listeners []model.Listener) {
	overlay(listeners, psCommands(ctx, s.run, model.UniquePIDs(listeners)))
}

// windowsStrategy decodes netstat and tasklist output with the console's
// OEM code page.
type windowsStrategy struct {
	run    runner.Runner
	decode console.Decoder
}

// discover runs netstat once and parses it per protocol, tcp then udp.
func (s *windowsStrategy) discover(ctx context.Context, protos []model.Protocol) ([]model.Listener, error) {
	res, err := s.run.Run(ctx, runner.Command{Name: "netstat", Args: []string{"-ano"}, Timeout: netstatTimeout})
	if err != nil {
		if runner.Unavailable(err) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	out := s.decode.Decode(res.Stdout)

	var all []model.Listener
	for _, p := range protos {
		all = append(all, ParseNetstat(out, p)...)
	}
	return model.Dedup(all), nil
}

func (s *windowsStrategy) enrich(ctx context.Context, listeners []model.Listener) {
	pids := model.UniquePIDs(listeners)
	if len(pids) == 0 {
		return
	}
	info, err := cimLookup(ctx, s.run, pids)
	if err != nil {
		log.Debug().Err(err).Msg("CIM process query failed, falling back to tasklist")
		info, err = tasklistLookup(ctx, s.run, s.decode, pids)
		if err != nil {
			log.Debug().Err(err).Msg("tasklist enrichment failed")
			return
		}
	}
	overlay(listeners, info)
}
