//go:build windows

package kill

import (
	"errors"

	"golang.org/x/sys/windows"

	"github.com/pranshuparmar/killport/pkg/model"
)

// GetExitCodeProcess reports STILL_ACTIVE for a running process.
const stillActive = 259

type sysSignaler struct{}

func (sysSignaler) signal(int, Signal) error {
	return errors.ErrUnsupported
}

func (sysSignaler) alive(pid int) bool {
	return processAlive(pid)
}

// processAlive opens the process for a limited query. Access denied means
// the process exists.
func processAlive(pid int) bool {
	if pid < 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return errors.Is(err, windows.ERROR_ACCESS_DENIED)
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return true
	}
	return code == stillActive
}

func errnoName(error) string {
	return model.ErrCodeExec
}
