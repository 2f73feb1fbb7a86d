package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pranshuparmar/killport/pkg/model"
)

var (
	colorResetShort  = "\033[0m"
	colorGreenShort  = "\033[32m"
	colorRedShort    = "\033[31m"
	colorYellowShort = "\033[33m"
	colorDimShort    = "\033[2m"
)

// Report is one PID's kill result together with what it was listening on.
type Report struct {
	Outcome model.KillOutcome
	Name    string
	Ports   []int
}

type palette struct {
	reset, green, red, yellow, dim string
}

func colors(colorEnabled bool) palette {
	if !colorEnabled {
		return palette{}
	}
	return palette{colorResetShort, colorGreenShort, colorRedShort, colorYellowShort, colorDimShort}
}

func (r Report) target() string {
	s := fmt.Sprintf("pid %d", r.Outcome.PID)
	if r.Name != "" {
		s += " (" + r.Name + ")"
	}
	if len(r.Ports) > 0 {
		ports := make([]string, len(r.Ports))
		for i, p := range r.Ports {
			ports[i] = strconv.Itoa(p)
		}
		s += " on port " + strings.Join(ports, ", ")
	}
	return s
}

// OutcomeLine formats a single outcome without a trailing newline.
func OutcomeLine(r Report, colorEnabled bool) string {
	c := colors(colorEnabled)
	o := r.Outcome

	switch {
	case o.Method == model.MethodRefused:
		return fmt.Sprintf("%srefused%s %s: %s", c.yellow, c.reset, r.target(), o.Message)
	case o.OK && o.Method == model.MethodAlreadyExited:
		return fmt.Sprintf("%sgone%s    %s %s(already exited)%s", c.green, c.reset, r.target(), c.dim, c.reset)
	case o.OK:
		return fmt.Sprintf("%skilled%s  %s %s(%s)%s", c.green, c.reset, r.target(), c.dim, o.Method, c.reset)
	}

	msg := o.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%sfailed%s  %s: %s %s(%s)%s", c.red, c.reset, r.target(), msg, c.dim, o.Method, c.reset)
}

// DryRunLine describes what would be killed.
func DryRunLine(r Report, colorEnabled bool) string {
	c := colors(colorEnabled)
	return fmt.Sprintf("%swould kill%s %s", c.yellow, c.reset, r.target())
}

// RenderOutcome prints r and, in tree mode, its descendants below it.
func RenderOutcome(w io.Writer, r Report, colorEnabled bool) {
	fmt.Fprintln(w, OutcomeLine(r, colorEnabled))
	if len(r.Outcome.Descendants) > 0 {
		PrintTree(w, r.Outcome.Descendants, colorEnabled)
	}
}
