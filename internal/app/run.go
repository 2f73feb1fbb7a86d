package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/kill"
	"github.com/pranshuparmar/killport/internal/output"
	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/internal/safety"
	"github.com/pranshuparmar/killport/pkg/model"
)

const (
	hintForce       = "hint: pass --force to kill protected processes anyway"
	hintSudo        = "hint: permission denied, try again with sudo"
	hintAdmin       = "hint: access denied, run the terminal as Administrator and try again"
	msgNothingChose = "nothing selected"
)

func run(ctx context.Context, opts options, deps Deps) error {
	if opts.list {
		return runList(ctx, opts, deps)
	}
	return runKill(ctx, opts, deps)
}

// discover collects listeners for the requested ports. Ports with no
// listener are returned separately.
func discover(ctx context.Context, opts options, deps Deps) ([]model.Listener, []int, error) {
	if len(opts.ports) == 0 {
		all, err := deps.Finder.ListAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		if opts.protoSet {
			all = slices.DeleteFunc(all, func(l model.Listener) bool {
				return !slices.Contains(opts.protocols, l.Protocol)
			})
		}
		return all, nil, nil
	}

	var listeners []model.Listener
	var missing []int
	for _, port := range opts.ports {
		found, err := deps.Finder.FindByPort(ctx, port, opts.protocols)
		if err != nil {
			return nil, nil, err
		}
		if len(found) == 0 {
			missing = append(missing, port)
			continue
		}
		listeners = append(listeners, found...)
	}
	return model.Dedup(listeners), missing, nil
}

func reportMissing(deps Deps, missing []int) {
	for _, port := range missing {
		fmt.Fprintf(deps.Stderr, "nothing is listening on port %d\n", port)
	}
}

func runList(ctx context.Context, opts options, deps Deps) error {
	listeners, missing, err := discover(ctx, opts, deps)
	if err != nil {
		return err
	}

	if opts.json {
		out, err := output.ToJSON(listeners)
		if err != nil {
			return err
		}
		fmt.Fprintln(deps.Stdout, out)
	} else {
		output.RenderList(deps.Stdout, listeners, opts.color)
	}

	if len(missing) > 0 {
		reportMissing(deps, missing)
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

func runKill(ctx context.Context, opts options, deps Deps) error {
	listeners, missing, err := discover(ctx, opts, deps)
	if err != nil {
		return err
	}
	reportMissing(deps, missing)
	failed := len(missing) > 0

	if opts.interactive {
		if !deps.Interactive() {
			return errors.New("--interactive needs a terminal on stdin and stdout")
		}
		if len(listeners) == 0 {
			fmt.Fprintln(deps.Stdout, "no listening ports found")
			return exitFor(failed)
		}
		res, err := deps.Select(ctx, listeners)
		if err != nil {
			return err
		}
		if res.Interrupted {
			return &ExitError{Code: ExitInterrupted}
		}
		if res.Cancelled || len(res.Selected) == 0 {
			fmt.Fprintln(deps.Stdout, msgNothingChose)
			return exitFor(failed)
		}
		listeners = res.Selected
	}

	if killAll(ctx, opts, deps, listeners) {
		failed = true
	}
	if ctx.Err() != nil {
		return &ExitError{Code: ExitInterrupted}
	}
	return exitFor(failed)
}

// killAll handles each PID once, in first-seen order. It reports whether
// any PID failed or was refused.
func killAll(ctx context.Context, opts options, deps Deps, listeners []model.Listener) bool {
	classifier := safety.Classifier{Platform: deps.Platform, Extra: opts.protected}
	killOpts := kill.Options{Force: opts.kill9, Timeout: opts.timeout, Tree: opts.tree}

	var failed, refused, denied bool
	for _, pid := range model.UniquePIDs(listeners) {
		if ctx.Err() != nil {
			break
		}

		owned := listenersOf(listeners, pid)
		report := output.Report{Name: owned[0].Name(), Ports: portsOf(owned)}

		if v := verdictFor(classifier, owned); v.Protected && !opts.force {
			report.Outcome = model.KillOutcome{PID: pid, Method: model.MethodRefused, Message: v.Reason}
			fmt.Fprintln(deps.Stdout, output.OutcomeLine(report, opts.color))
			failed, refused = true, true
			continue
		}

		if opts.dryRun {
			report.Outcome = model.KillOutcome{PID: pid}
			fmt.Fprintln(deps.Stdout, output.DryRunLine(report, opts.color))
			continue
		}

		log.Debug().Int("pid", pid).Ints("ports", report.Ports).Msg("killing")
		report.Outcome = deps.Killer.Kill(ctx, pid, killOpts)
		output.RenderOutcome(deps.Stdout, report, opts.color)

		if !treeOK(report.Outcome) {
			failed = true
		}
		if anyPermissionDenied(report.Outcome) {
			denied = true
		}
	}

	if refused {
		fmt.Fprintln(deps.Stderr, hintForce)
	}
	if denied {
		if deps.Platform == platform.Windows {
			fmt.Fprintln(deps.Stderr, hintAdmin)
		} else {
			fmt.Fprintln(deps.Stderr, hintSudo)
		}
	}
	return failed
}

// verdictFor protects a PID if any of its listeners is protected.
func verdictFor(c safety.Classifier, owned []model.Listener) model.Verdict {
	for _, l := range owned {
		if v := c.ProtectionFor(l); v.Protected {
			return v
		}
	}
	return model.Verdict{}
}

func listenersOf(listeners []model.Listener, pid int) []model.Listener {
	var out []model.Listener
	for _, l := range listeners {
		if l.PID == pid {
			out = append(out, l)
		}
	}
	return out
}

func portsOf(listeners []model.Listener) []int {
	var ports []int
	for _, l := range listeners {
		if !slices.Contains(ports, l.Port) {
			ports = append(ports, l.Port)
		}
	}
	return ports
}

func treeOK(o model.KillOutcome) bool {
	if !o.OK {
		return false
	}
	for _, d := range o.Descendants {
		if !treeOK(d) {
			return false
		}
	}
	return true
}

func anyPermissionDenied(o model.KillOutcome) bool {
	if o.PermissionDenied() {
		return true
	}
	return slices.ContainsFunc(o.Descendants, anyPermissionDenied)
}

func exitFor(failed bool) error {
	if failed {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}
