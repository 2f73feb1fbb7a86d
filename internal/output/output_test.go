package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/killport/pkg/model"
)

func TestToJSONEmptyIsArray(t *testing.T) {
	out, err := ToJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestToJSONFields(t *testing.T) {
	out, err := ToJSON([]model.Listener{{
		Protocol: model.TCP, Port: 3000, PID: 4242, ProcessName: "node", Source: model.SourceSS,
	}})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "tcp", decoded[0]["protocol"])
	assert.EqualValues(t, 3000, decoded[0]["port"])
	assert.Equal(t, "node", decoded[0]["processName"])
	assert.NotContains(t, decoded[0], "user")
}

func TestRenderList(t *testing.T) {
	var buf bytes.Buffer
	RenderList(&buf, []model.Listener{
		{Protocol: model.TCP, Port: 3000, PID: 4242, ProcessName: "node", User: "dev", LocalAddress: "0.0.0.0", Command: "node server.js"},
		{Protocol: model.UDP, Port: 5353, PID: 300},
	}, false)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PROTO")
	assert.Contains(t, lines[0], "COMMAND")
	assert.Contains(t, lines[1], "3000")
	assert.Contains(t, lines[1], "node server.js")
	assert.Contains(t, lines[2], "5353")
	assert.Contains(t, lines[2], "-")
	assert.NotContains(t, buf.String(), "\033[")

	// Columns line up.
	assert.Equal(t, strings.Index(lines[0], "PID"), strings.Index(lines[1], "4242"))
}

func TestRenderListEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderList(&buf, nil, false)
	assert.Equal(t, "no listening ports found\n", buf.String())
}

func TestOutcomeLines(t *testing.T) {
	tests := []struct {
		name string
		r    Report
		want string
	}{
		{
			"killed",
			Report{Outcome: model.KillOutcome{PID: 4242, OK: true, Method: model.MethodSIGTERM}, Name: "node", Ports: []int{3000}},
			"killed  pid 4242 (node) on port 3000 (SIGTERM)",
		},
		{
			"already exited",
			Report{Outcome: model.KillOutcome{PID: 7, OK: true, Method: model.MethodAlreadyExited}},
			"gone    pid 7 (already exited)",
		},
		{
			"refused",
			Report{Outcome: model.KillOutcome{PID: 1, Method: model.MethodRefused, Message: "pid 1 (system init)"}, Name: "systemd", Ports: []int{80, 443}},
			"refused pid 1 (systemd) on port 80, 443: pid 1 (system init)",
		},
		{
			"failed",
			Report{Outcome: model.KillOutcome{PID: 9, Method: model.MethodSIGTERM, ErrorCode: model.ErrCodePermission, Message: "permission denied"}},
			"failed  pid 9: permission denied (SIGTERM)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeLine(tt.r, false))
		})
	}
}

func TestOutcomeLineColor(t *testing.T) {
	line := OutcomeLine(Report{Outcome: model.KillOutcome{PID: 1, OK: true, Method: model.MethodSIGKILL}}, true)
	assert.True(t, strings.HasPrefix(line, colorGreenShort+"killed"+colorResetShort))
}

func TestDryRunLine(t *testing.T) {
	assert.Equal(t, "would kill pid 4242 (node) on port 3000",
		DryRunLine(Report{Outcome: model.KillOutcome{PID: 4242}, Name: "node", Ports: []int{3000}}, false))
}

func TestRenderOutcomeWithTree(t *testing.T) {
	var buf bytes.Buffer
	RenderOutcome(&buf, Report{Outcome: model.KillOutcome{
		PID: 100, OK: true, Method: model.MethodSIGTERM,
		Descendants: []model.KillOutcome{
			{PID: 102, OK: true, Method: model.MethodSIGTERM},
			{PID: 101, Method: model.MethodSIGKILL, Message: "process still alive"},
		},
	}}, false)

	assert.Equal(t, "killed  pid 100 (SIGTERM)\n"+
		"  ├─ pid 102 ok (SIGTERM)\n"+
		"  └─ pid 101 failed (process still alive)\n", buf.String())
}

func TestPrintTreeLimit(t *testing.T) {
	var d []model.KillOutcome
	for i := range 13 {
		d = append(d, model.KillOutcome{PID: 1000 + i, OK: true, Method: model.MethodSIGTERM})
	}
	var buf bytes.Buffer
	PrintTree(&buf, d, false)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "  └─ ... and 3 more", lines[10])
	assert.Contains(t, lines[9], "├─ pid 1009")
}
