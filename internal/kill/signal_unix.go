//go:build unix

package kill

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/pranshuparmar/killport/pkg/model"
)

type sysSignaler struct{}

func (sysSignaler) signal(pid int, sig Signal) error {
	s := unix.SIGTERM
	if sig == SigKill {
		s = unix.SIGKILL
	}
	err := unix.Kill(pid, s)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// alive probes with signal 0. EPERM means the process exists but belongs
// to someone else.
func (sysSignaler) alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func processAlive(pid int) bool {
	return sysSignaler{}.alive(pid)
}

func errnoName(err error) string {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return unix.ErrnoName(errno)
	}
	return model.ErrCodeExec
}
