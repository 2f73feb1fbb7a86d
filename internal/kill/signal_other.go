//go:build !unix && !windows

package kill

import (
	"errors"

	"github.com/pranshuparmar/killport/pkg/model"
)

type sysSignaler struct{}

func (sysSignaler) signal(int, Signal) error { return errors.ErrUnsupported }

func (sysSignaler) alive(int) bool { return false }

func processAlive(int) bool { return false }

func errnoName(error) string { return model.ErrCodeExec }
