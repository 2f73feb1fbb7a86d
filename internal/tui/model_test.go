package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/killport/pkg/model"
)

func listeners(n int) []model.Listener {
	out := make([]model.Listener, n)
	for i := range out {
		out[i] = model.Listener{Protocol: model.TCP, Port: 3000 + i, PID: 100 + i, ProcessName: fmt.Sprintf("svc%d", i)}
	}
	return out
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

var (
	up       = tea.KeyMsg{Type: tea.KeyUp}
	down     = tea.KeyMsg{Type: tea.KeyDown}
	space    = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	enter    = tea.KeyMsg{Type: tea.KeyEnter}
	esc      = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlC    = tea.KeyMsg{Type: tea.KeyCtrlC}
	pageDown = tea.KeyMsg{Type: tea.KeyPgDown}
	pageUp   = tea.KeyMsg{Type: tea.KeyPgUp}
	end      = tea.KeyMsg{Type: tea.KeyEnd}
	home     = tea.KeyMsg{Type: tea.KeyHome}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRandomNavigationStaysInBounds(t *testing.T) {
	navigation := []tea.Msg{up, down, pageUp, pageDown, home, end, runes("k"), runes("j"), runes("g"), runes("G")}

	for _, n := range []int{0, 1, 2, 5, 21, 22, 23, 100} {
		for _, height := range []int{1, 3, 4, 10, 24, 25, 60} {
			t.Run(fmt.Sprintf("n=%d/height=%d", n, height), func(t *testing.T) {
				rng := rand.New(rand.NewPCG(uint64(n), uint64(height)))
				m := press(NewModel(listeners(n)), tea.WindowSizeMsg{Width: 80, Height: height})

				for step := 0; step < 500; step++ {
					var msg tea.Msg = navigation[rng.IntN(len(navigation))]
					if rng.IntN(50) == 0 {
						msg = tea.WindowSizeMsg{Width: 80, Height: 1 + rng.IntN(40)}
					}
					m = press(m, msg)

					vh := m.viewHeight()
					if n == 0 {
						require.Zero(t, m.cursor, "step %d", step)
					} else {
						require.GreaterOrEqual(t, m.cursor, 0, "step %d", step)
						require.LessOrEqual(t, m.cursor, n-1, "step %d", step)
						require.Less(t, m.cursor, m.top+vh, "cursor below viewport at step %d", step)
					}
					require.GreaterOrEqual(t, m.top, 0, "step %d", step)
					require.LessOrEqual(t, m.top, max(0, n-vh), "step %d", step)
					require.LessOrEqual(t, m.top, m.cursor, "cursor above viewport at step %d", step)
				}
			})
		}
	}
}

func TestNewModelSortsAndDedupes(t *testing.T) {
	m := NewModel([]model.Listener{
		{Protocol: model.UDP, Port: 53, PID: 9},
		{Protocol: model.TCP, Port: 8080, PID: 2},
		{Protocol: model.TCP, Port: 53, PID: 9},
		{Protocol: model.TCP, Port: 8080, PID: 1},
		{Protocol: model.TCP, Port: 8080, PID: 1, LocalAddress: "::"},
	})

	var got []string
	for _, l := range m.items {
		got = append(got, fmt.Sprintf("%d/%s/%d", l.Port, l.Protocol, l.PID))
	}
	assert.Equal(t, []string{"53/tcp/9", "53/udp/9", "8080/tcp/1", "8080/tcp/2"}, got)
}

func TestNavigationIsClamped(t *testing.T) {
	m := NewModel(listeners(3))

	m = press(m, up)
	assert.Equal(t, 0, m.cursor)

	m = press(m, down, runes("j"), down, down)
	assert.Equal(t, 2, m.cursor)

	m = press(m, runes("k"))
	assert.Equal(t, 1, m.cursor)

	m = press(m, runes("G"))
	assert.Equal(t, 2, m.cursor)
	m = press(m, runes("g"))
	assert.Equal(t, 0, m.cursor)
}

func TestPagingScrollsViewport(t *testing.T) {
	m := press(NewModel(listeners(50)), tea.WindowSizeMsg{Width: 80, Height: 13})
	require.Equal(t, 10, m.viewHeight())

	m = press(m, pageDown)
	assert.Equal(t, 10, m.cursor)
	assert.Equal(t, 1, m.top)

	m = press(m, end)
	assert.Equal(t, 49, m.cursor)
	assert.Equal(t, 40, m.top)

	m = press(m, pageUp)
	assert.Equal(t, 39, m.cursor)
	assert.Equal(t, 39, m.top)

	m = press(m, home)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 0, m.top)
}

func TestResizeKeepsInvariants(t *testing.T) {
	m := press(NewModel(listeners(30)), tea.WindowSizeMsg{Width: 80, Height: 8}, end)
	assert.Equal(t, 25, m.top)

	m = press(m, tea.WindowSizeMsg{Width: 80, Height: 100})
	assert.Equal(t, 29, m.cursor)
	assert.Equal(t, 0, m.top)
}

func TestSpaceTogglesAndEnterResolves(t *testing.T) {
	m := NewModel(listeners(4))
	m = press(m, space, down, down, space, down, space, space)
	assert.Equal(t, 3, m.cursor)

	next, cmd := m.Update(enter)
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	res, done := m.Result()
	require.True(t, done)
	assert.False(t, res.Cancelled)
	require.Len(t, res.Selected, 2)
	assert.Equal(t, 3000, res.Selected[0].Port)
	assert.Equal(t, 3002, res.Selected[1].Port)
}

func TestEnterWithoutSelectionIsEmptyNotCancelled(t *testing.T) {
	m := press(NewModel(listeners(2)), down, enter)
	res, done := m.Result()
	require.True(t, done)
	assert.False(t, res.Cancelled)
	assert.NotNil(t, res.Selected)
	assert.Empty(t, res.Selected)
}

func TestEscCancels(t *testing.T) {
	m := press(NewModel(listeners(2)), space, esc)
	res, done := m.Result()
	require.True(t, done)
	assert.True(t, res.Cancelled)
	assert.False(t, res.Interrupted)
	assert.Empty(t, res.Selected)
}

func TestCtrlCInterrupts(t *testing.T) {
	m := press(NewModel(listeners(2)), space, ctrlC)
	res, done := m.Result()
	require.True(t, done)
	assert.True(t, res.Cancelled)
	assert.True(t, res.Interrupted)
	assert.Empty(t, res.Selected)
}

func TestInputAfterResolutionIsIgnored(t *testing.T) {
	m := press(NewModel(listeners(3)), esc, down, space, enter)
	res, _ := m.Result()
	assert.True(t, res.Cancelled)
	assert.Equal(t, 0, m.cursor)
	assert.Empty(t, m.View())
}

func TestOtherKeysAreIgnored(t *testing.T) {
	m := NewModel(listeners(3))
	m = press(m, runes("x"), runes("q"), tea.KeyMsg{Type: tea.KeyTab})
	_, done := m.Result()
	assert.False(t, done)
	assert.Equal(t, 0, m.cursor)
	assert.Empty(t, m.selected)
}

func TestEmptyList(t *testing.T) {
	m := press(NewModel(nil), down, up, end, space, pageDown)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 0, m.top)
	assert.Contains(t, m.View(), "no listeners found")

	res, _ := press(m, enter).Result()
	assert.False(t, res.Cancelled)
	assert.Empty(t, res.Selected)
}

func TestViewRendersAlignedTruncatedRows(t *testing.T) {
	items := []model.Listener{
		{Protocol: model.TCP, Port: 80, PID: 7, ProcessName: "nginx"},
		{Protocol: model.UDP, Port: 5353, PID: 123456, Command: "/usr/sbin/avahi-daemon --no-drop-root --a-very-long-flag"},
	}
	m := press(NewModel(items), tea.WindowSizeMsg{Width: 40, Height: 10}, down, space)
	view := m.View()

	assert.Contains(t, view, "1 selected")
	assert.Contains(t, view, "  80  tcp       7  nginx")
	assert.Contains(t, view, "› [x] 5353  udp  123456")
	assert.Contains(t, view, "…")

	for _, line := range strings.Split(view, "\n") {
		assert.LessOrEqual(t, lipglossWidth(line), 40)
	}
}

func lipglossWidth(s string) int {
	return lipgloss.Width(s)
}
