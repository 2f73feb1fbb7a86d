// Package tui is the full-screen listener picker used by interactive mode.
package tui

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/killport/pkg/model"
)

const (
	// defaultHeight is used until the first WindowSizeMsg arrives.
	defaultHeight = 24
	// chromeLines is the title line, the blank line below it and the footer.
	chromeLines = 3
)

// Result is how a selection session ended.
type Result struct {
	Cancelled   bool
	Interrupted bool
	Selected    []model.Listener
}

// Model is the selection state machine. It is driven entirely by Update.
type Model struct {
	items    []model.Listener
	cursor   int
	top      int
	selected map[int]bool
	width    int
	height   int
	help     help.Model
	done     bool
	result   Result
}

// NewModel sorts listeners by port, protocol and PID and drops rows that
// would render identically.
func NewModel(listeners []model.Listener) Model {
	items := slices.Clone(listeners)
	slices.SortStableFunc(items, func(a, b model.Listener) int {
		return cmp.Or(
			cmp.Compare(a.Port, b.Port),
			cmp.Compare(a.Protocol, b.Protocol),
			cmp.Compare(a.PID, b.PID),
		)
	})
	items = slices.CompactFunc(items, func(a, b model.Listener) bool {
		return a.Port == b.Port && a.Protocol == b.Protocol && a.PID == b.PID
	})

	h := help.New()
	h.Styles.ShortKey = footerStyle
	h.Styles.ShortDesc = footerStyle
	h.Styles.ShortSeparator = footerStyle

	return Model{
		items:    items,
		selected: make(map[int]bool),
		help:     h,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Result returns the outcome once the session has ended.
func (m Model) Result() (Result, bool) {
	return m.result, m.done
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()

	case tea.KeyMsg:
		last := len(m.items) - 1
		switch {
		case key.Matches(msg, keys.Interrupt):
			return m.finish(Result{Cancelled: true, Interrupted: true})
		case key.Matches(msg, keys.Cancel):
			return m.finish(Result{Cancelled: true})
		case key.Matches(msg, keys.Confirm):
			return m.finish(Result{Selected: m.chosen()})

		case key.Matches(msg, keys.Up):
			m.cursor = max(m.cursor-1, 0)
		case key.Matches(msg, keys.Down):
			m.cursor = max(min(m.cursor+1, last), 0)
		case key.Matches(msg, keys.PageUp):
			m.cursor = max(m.cursor-m.viewHeight(), 0)
		case key.Matches(msg, keys.PageDown):
			m.cursor = max(min(m.cursor+m.viewHeight(), last), 0)
		case key.Matches(msg, keys.Home):
			m.cursor = 0
		case key.Matches(msg, keys.End):
			m.cursor = max(last, 0)
		case key.Matches(msg, keys.Toggle):
			if len(m.items) > 0 {
				if m.selected[m.cursor] {
					delete(m.selected, m.cursor)
				} else {
					m.selected[m.cursor] = true
				}
			}
		default:
			return m, nil
		}
		m.scroll()
	}
	return m, nil
}

func (m Model) finish(r Result) (tea.Model, tea.Cmd) {
	m.done = true
	m.result = r
	return m, tea.Quit
}

// chosen returns the selected items in list order.
func (m Model) chosen() []model.Listener {
	out := []model.Listener{}
	for i, l := range m.items {
		if m.selected[i] {
			out = append(out, l)
		}
	}
	return out
}

func (m Model) viewHeight() int {
	h := m.height
	if h <= 0 {
		h = defaultHeight
	}
	return max(h-chromeLines, 1)
}

// scroll keeps the cursor inside the visible window and the window inside
// the list.
func (m *Model) scroll() {
	vh := m.viewHeight()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+vh {
		m.top = m.cursor - vh + 1
	}
	m.top = max(min(m.top, len(m.items)-vh), 0)
}
