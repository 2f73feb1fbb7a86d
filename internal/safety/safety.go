// Package safety decides whether a listener's owning process must not be
// killed without an explicit override.
package safety

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/pkg/model"
)

var windowsProtected = []string{
	"system",
	"smss.exe",
	"csrss.exe",
	"wininit.exe",
	"winlogon.exe",
	"services.exe",
	"lsass.exe",
	"svchost.exe",
	"dwm.exe",
	"fontdrvhost.exe",
	"registry",
}

var posixProtected = []string{
	"init",
	"systemd",
	"launchd",
	"kthreadd",
	"kernel_task",
	"systemd-journald",
	"systemd-logind",
	"systemd-resolved",
	// Linux comm is cut to 15 bytes.
	"systemd-journal",
	"systemd-resolve",
	"dbus-daemon",
	"loginwindow",
	"windowserver",
	"login",
	"gdm",
	"sddm",
	"lightdm",
}

// Classifier applies the protection rules for one platform. Extra names
// are matched the same way as the built-in list.
type Classifier struct {
	Platform platform.Platform
	Extra    []string
}

// ProtectionFor returns the first matching rule's verdict. It does no I/O.
func (c Classifier) ProtectionFor(l model.Listener) model.Verdict {
	windows := c.Platform == platform.Windows

	if !windows && l.PID <= 1 {
		return protected(fmt.Sprintf("pid %d (system init)", l.PID))
	}
	if windows && (l.PID == 0 || l.PID == 4) {
		return protected(fmt.Sprintf("pid %d (system process)", l.PID))
	}

	name := strings.ToLower(strings.TrimSpace(l.ProcessName))
	command := strings.ToLower(strings.TrimSpace(l.Command))

	if entry, ok := c.denylisted(name, command); ok {
		return protected(fmt.Sprintf("protected system process (%s)", entry))
	}

	if l.Port == 22 && (strings.Contains(name, "sshd") || strings.Contains(command, "sshd")) {
		return protected("sshd on port 22 (avoid locking yourself out)")
	}

	return model.Verdict{}
}

func (c Classifier) denylisted(name, command string) (string, bool) {
	if c.Platform == platform.Windows {
		entries := c.entries(windowsProtected)
		for _, s := range []string{name, command} {
			if s == "" {
				continue
			}
			for _, entry := range entries {
				if strings.Contains(s, entry) {
					return entry, true
				}
			}
		}
		return "", false
	}

	var base string
	if fields := strings.Fields(command); len(fields) > 0 {
		base = filepath.Base(fields[0])
	}
	for _, entry := range c.entries(posixProtected) {
		if name == entry || base == entry {
			return entry, true
		}
	}
	return "", false
}

func (c Classifier) entries(builtin []string) []string {
	if len(c.Extra) == 0 {
		return builtin
	}
	out := make([]string, 0, len(builtin)+len(c.Extra))
	out = append(out, builtin...)
	for _, e := range c.Extra {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func protected(reason string) model.Verdict {
	return model.Verdict{Protected: true, Reason: reason}
}
