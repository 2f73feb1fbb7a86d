package kill

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pranshuparmar/killport/internal/console"
	"github.com/pranshuparmar/killport/internal/runner"
	"github.com/pranshuparmar/killport/pkg/model"
)

const taskkillTimeout = 10 * time.Second

// taskkill exit code for "process not found".
const taskkillNotFound = 128

// Locale tokens matched against upper-cased taskkill output.
var (
	taskkillDenied = []string{
		"ACCESS IS DENIED", "ACCESS DENIED", "ZUGRIFF VERWEIGERT", "REFUS",
		"ACCESO DENEGADO", "ACCESSO NEGATO", "ACESSO NEGADO", "ДОСТУП", "ОТКАЗАНО",
		"拒绝访问", "アクセスが拒否", "액세스가 거부",
	}
	taskkillMissing = []string{
		"NOT FOUND", "NICHT GEFUNDEN", "INTROUVABLE", "TROUV", "NO SE ENCONTR",
		"NON TROVAT", "ENCONTRADO", "НЕ НАЙДЕН", "找不到", "見つかりません", "찾을 수 없",
	}
	taskkillSuccess = []string{
		"SUCC", "ERFOLG", "CORRECT", "XITO", "RIUSCIT", "POWODZ", "GELUKT",
		"УСПЕХ", "УСПЕШ", "成功", "성공",
	}
)

type taskkillStatus int

const (
	taskkillFailed taskkillStatus = iota
	taskkillOK
	taskkillAccessDenied
	taskkillGone
)

// classifyTaskkill checks denial first, then "not found", then success.
// Anything unrecognised with exit code 0 is treated as success.
func classifyTaskkill(output string, exitCode int) taskkillStatus {
	upper := strings.ToUpper(output)
	switch {
	case containsAny(upper, taskkillDenied):
		return taskkillAccessDenied
	case exitCode == taskkillNotFound || containsAny(upper, taskkillMissing):
		return taskkillGone
	case containsAny(upper, taskkillSuccess) || exitCode == 0:
		return taskkillOK
	}
	return taskkillFailed
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// taskkillKiller always passes /T, so children go with the target.
type taskkillKiller struct {
	run    runner.Runner
	alive  func(pid int) bool
	poll   time.Duration
	decode console.Decoder
}

func (k *taskkillKiller) IsAlive(pid int) bool {
	return k.alive(pid)
}

func (k *taskkillKiller) Kill(ctx context.Context, pid int, opts Options) model.KillOutcome {
	if !k.alive(pid) {
		return succeeded(pid, model.MethodAlreadyExited, "process already exited")
	}

	if !opts.Force {
		status, msg, err := k.taskkill(ctx, pid, false)
		if err != nil {
			return failed(pid, model.MethodTaskkill, model.ErrCodeExec, err.Error())
		}
		switch status {
		case taskkillGone:
			return succeeded(pid, model.MethodAlreadyExited, "process already exited")
		case taskkillOK:
			if waitGone(ctx, func() bool { return k.alive(pid) }, k.poll, opts.Timeout) {
				return succeeded(pid, model.MethodTaskkill, "terminated")
			}
			log.Debug().Int("pid", pid).Msg("process survived taskkill, forcing")
		default:
			log.Debug().Int("pid", pid).Str("output", msg).Msg("graceful taskkill did not succeed, forcing")
		}
	}

	status, msg, err := k.taskkill(ctx, pid, true)
	if err != nil {
		return failed(pid, model.MethodTaskkillForce, model.ErrCodeExec, err.Error())
	}
	switch status {
	case taskkillOK:
		return succeeded(pid, model.MethodTaskkillForce, "killed")
	case taskkillGone:
		if opts.Force {
			return succeeded(pid, model.MethodAlreadyExited, "process already exited")
		}
		return succeeded(pid, model.MethodTaskkill, "terminated")
	case taskkillAccessDenied:
		return failed(pid, model.MethodTaskkillForce, model.ErrCodePermission, "access denied")
	}
	return failed(pid, model.MethodTaskkillForce, "", msg)
}

// taskkill runs one attempt and returns its classification along with a
// printable message.
func (k *taskkillKiller) taskkill(ctx context.Context, pid int, force bool) (taskkillStatus, string, error) {
	args := []string{"/PID", strconv.Itoa(pid), "/T"}
	if force {
		args = append(args, "/F")
	}
	res, err := k.run.Run(ctx, runner.Command{Name: "taskkill", Args: args, Timeout: taskkillTimeout})
	if err != nil {
		return taskkillFailed, "", fmt.Errorf("taskkill: %w", err)
	}

	output := strings.TrimSpace(k.decode.Decode(res.Stdout) + "\n" + k.decode.Decode(res.Stderr))
	return classifyTaskkill(output, res.ExitCode), taskkillMessage(output, res.ExitCode), nil
}

// taskkillMessage makes output safe to print. Undecodable text is replaced
// with the exit code.
func taskkillMessage(output string, exitCode int) string {
	msg := console.Scrub(output)
	if msg == "" || console.Garbled(msg) {
		return fmt.Sprintf("taskkill failed (exit code %d)", exitCode)
	}
	return msg
}
