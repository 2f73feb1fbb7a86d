package proc

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/pranshuparmar/killport/internal/console"
	"github.com/pranshuparmar/killport/internal/platform"
	"github.com/pranshuparmar/killport/internal/runner"
	"github.com/pranshuparmar/killport/internal/runner/runnertest"
	"github.com/pranshuparmar/killport/pkg/model"
)

func fakeProcfs(files map[string]string) procfs {
	return procfs{
		readFile: func(path string) ([]byte, error) {
			if s, ok := files[path]; ok {
				return []byte(s), nil
			}
			return nil, os.ErrNotExist
		},
		users: func() map[int]string { return map[int]string{1000: "dev"} },
	}
}

func TestLinuxFindByPortUsesSS(t *testing.T) {
	fake := runnertest.New().
		On("ss -l -n -p -t", runnertest.Response{Stdout: ssTCPOutput})
	f := finder{&linuxStrategy{run: fake, fs: fakeProcfs(map[string]string{
		"/proc/4242/comm":    "node\n",
		"/proc/4242/cmdline": "node\x00server.js\x00",
		"/proc/4242/status":  "Name:\tnode\nUid:\t1000\t1000\t1000\t1000\n",
	})}}

	got, err := f.FindByPort(context.Background(), 3000, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4242, got[0].PID)
	assert.Equal(t, "node", got[0].ProcessName)
	assert.Equal(t, "node server.js", got[0].Command)
	assert.Equal(t, "dev", got[0].User)
	assert.Zero(t, fake.Called("lsof"))
}

func TestLinuxFallsBackToLsof(t *testing.T) {
	fake := runnertest.New().
		On("ss", runnertest.Response{Stdout: "LISTEN 0 511 0.0.0.0:3000 0.0.0.0:*\n"}).
		On("lsof -nP -iTCP -sTCP:LISTEN", runnertest.Response{Stdout: lsofOutput})
	f := finder{&linuxStrategy{run: fake, fs: fakeProcfs(nil)}}

	got, err := f.FindByPort(context.Background(), 3000, []model.Protocol{model.TCP})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SourceLsof, got[0].Source)
	assert.Equal(t, "dev", got[0].User)
	assert.Equal(t, 1, fake.Called("lsof"))
}

func TestLinuxMissingToolsIsToolNotFound(t *testing.T) {
	f := finder{&linuxStrategy{run: runnertest.New(), fs: fakeProcfs(nil)}}
	_, err := f.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestLinuxTimeoutCountsAsMissing(t *testing.T) {
	fake := runnertest.New().
		On("ss", runnertest.Response{Err: runner.ErrTimeout}).
		On("lsof -nP -iTCP -sTCP:LISTEN", runnertest.Response{Stdout: lsofOutput})
	f := finder{&linuxStrategy{run: fake, fs: fakeProcfs(nil)}}

	got, err := f.FindByPort(context.Background(), 5432, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 611, got[0].PID)
}

func TestHardRunnerErrorPropagates(t *testing.T) {
	boom := errors.New("fork failed")
	fake := runnertest.New().On("lsof", runnertest.Response{Err: boom})
	f := finder{&lsofStrategy{run: fake}}

	_, err := f.ListAll(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFindByPortRejectsInvalidPort(t *testing.T) {
	f := NewFinder(platform.Darwin, runnertest.New())
	for _, port := range []int{0, -1, 65536} {
		_, err := f.FindByPort(context.Background(), port, nil)
		assert.ErrorIs(t, err, ErrInvalidPort)
	}
}

func TestFindByPortNoMatchIsEmpty(t *testing.T) {
	fake := runnertest.New().On("lsof", runnertest.Response{Stdout: lsofOutput})
	got, err := NewFinder(platform.Darwin, fake).FindByPort(context.Background(), 9999, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDarwinListAllEnrichesWithPS(t *testing.T) {
	fake := runnertest.New().
		On("lsof", runnertest.Response{Stdout: lsofOutput}).
		On("ps", runnertest.Response{Stdout: " 4242 node /srv/app/server.js --port 3000\n  611 /usr/lib/postgresql/bin/postgres -D /var/lib/pg\n"})

	got, err := NewFinder(platform.Darwin, fake).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "node /srv/app/server.js --port 3000", got[0].Command)
	assert.Equal(t, "node", got[0].ProcessName)
	assert.Empty(t, got[1].Command)
	assert.Equal(t, model.UDP, got[3].Protocol)

	var psCall runner.Command
	for _, c := range fake.Calls {
		if c.Name == "ps" {
			psCall = c
		}
	}
	assert.Equal(t, []string{"-o", "pid=,command=", "-p", "4242,9001,611,300"}, psCall.Args)
}

func TestListAllDeduplicates(t *testing.T) {
	line := "node 4242 dev 22u IPv4 0x1 0t0 TCP *:3000 (LISTEN)\n"
	fake := runnertest.New().
		On("lsof -nP -iTCP -sTCP:LISTEN", runnertest.Response{Stdout: line + line}).
		On("lsof -nP -iUDP", runnertest.Response{})
	got, err := NewFinder(platform.Other, fake).ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWindowsFinderEnrichesViaCIM(t *testing.T) {
	cim := "\"ProcessId\",\"Name\",\"CommandLine\",\"Owner\"\r\n" +
		"\"5120\",\"node.exe\",\"node.exe server.js\",\"DESKTOP\\dev\"\r\n"
	fake := runnertest.New().
		On("netstat -ano", runnertest.Response{Stdout: netstatOutput}).
		On("powershell", runnertest.Response{Stdout: cim})

	got, err := NewFinder(platform.Windows, fake).FindByPort(context.Background(), 3000, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "node.exe", got[0].ProcessName)
	assert.Equal(t, "node.exe server.js", got[0].Command)
	assert.Equal(t, `DESKTOP\dev`, got[0].User)
	assert.Zero(t, fake.Called("tasklist"))
}

func TestWindowsFinderFallsBackToTasklist(t *testing.T) {
	tasklist := "\"node.exe\",\"5120\",\"Console\",\"1\",\"40,000 K\",\"Running\",\"DESKTOP\\dev\",\"0:00:01\",\"N/A\"\r\n" +
		"\"svchost.exe\",\"888\",\"Services\",\"0\",\"9,000 K\",\"Unknown\",\"N/A\",\"0:00:00\",\"N/A\"\r\n"
	fake := runnertest.New().
		On("netstat -ano", runnertest.Response{Stdout: netstatOutput}).
		On("powershell", runnertest.Response{ExitCode: 1, Stderr: "Access denied"}).
		On("tasklist", runnertest.Response{Stdout: tasklist})

	got, err := NewFinder(platform.Windows, fake).FindByPort(context.Background(), 135, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "svchost.exe", got[0].ProcessName)
	assert.Empty(t, got[0].User)
	assert.Equal(t, 1, fake.Called("tasklist"))
}

func TestWindowsFinderDecodesOEMTasklist(t *testing.T) {
	tasklist, err := charmap.CodePage866.NewEncoder().String(
		"\"node.exe\",\"5120\",\"Console\",\"1\",\"40 000 КБ\",\"Работает\",\"ПК\\Пользователь\",\"0:00:01\",\"Н/Д\"\r\n")
	require.NoError(t, err)
	fake := runnertest.New().
		On("netstat -ano", runnertest.Response{Stdout: netstatOutput}).
		On("powershell", runnertest.Response{ExitCode: 1}).
		On("tasklist", runnertest.Response{Stdout: tasklist})
	f := finder{&windowsStrategy{run: fake, decode: console.ForCodePage(866)}}

	got, err := f.FindByPort(context.Background(), 3000, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "node.exe", got[0].ProcessName)
	assert.Equal(t, `ПК\Пользователь`, got[0].User)
}

func TestWindowsFinderSurvivesEnrichmentFailure(t *testing.T) {
	fake := runnertest.New().On("netstat -ano", runnertest.Response{Stdout: netstatOutput})
	got, err := NewFinder(platform.Windows, fake).FindByPort(context.Background(), 123, []model.Protocol{model.UDP})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 999, got[0].PID)
	assert.Empty(t, got[0].ProcessName)
}

func TestWindowsFinderWithoutNetstat(t *testing.T) {
	_, err := NewFinder(platform.Windows, runnertest.New()).ListAll(context.Background())
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestOrderProtocols(t *testing.T) {
	assert.Equal(t, []model.Protocol{model.TCP, model.UDP},
		orderProtocols([]model.Protocol{model.UDP, model.TCP, model.UDP}))
	assert.Equal(t, []model.Protocol{model.UDP}, orderProtocols([]model.Protocol{model.UDP}))
}
