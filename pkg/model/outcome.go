package model

// Kill methods reported in KillOutcome.Method.
const (
	MethodSIGTERM       = "SIGTERM"
	MethodSIGKILL       = "SIGKILL"
	MethodTaskkill      = "taskkill"
	MethodTaskkillForce = "taskkill /F"
	MethodAlreadyExited = "already-exited"
	MethodRefused       = "refused"
)

// Error codes reported in KillOutcome.ErrorCode.
const (
	ErrCodePermission = "EPERM"
	ErrCodeStillAlive = "ESTILLALIVE"
	ErrCodeExec       = "EEXEC"
)

// KillOutcome is the result of one kill attempt against a single PID.
type KillOutcome struct {
	PID       int    `json:"pid"`
	OK        bool   `json:"ok"`
	Method    string `json:"method"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	// Descendants holds tree-mode outcomes in the order they were killed.
	Descendants []KillOutcome `json:"descendants,omitempty"`
}

func (o KillOutcome) PermissionDenied() bool {
	return o.ErrorCode == ErrCodePermission
}

// Verdict is the Safety Classifier's answer for one listener.
type Verdict struct {
	Protected bool   `json:"protected"`
	Reason    string `json:"reason,omitempty"`
}
