package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/pranshuparmar/killport/pkg/model"
)

// Column caps keep one long name from pushing the rest off screen.
const (
	maxPortWidth  = 5
	maxProtoWidth = 3
	maxPIDWidth   = 10
	maxNameWidth  = 32
	ellipsis      = "…"
)

type columns struct {
	port, proto, pid, name int
}

// measure sizes every column from the whole list, not just the visible
// window, so alignment holds while scrolling.
func measure(items []model.Listener) columns {
	var c columns
	for _, l := range items {
		c.port = max(c.port, len(strconv.Itoa(l.Port)))
		c.proto = max(c.proto, len(l.Protocol))
		c.pid = max(c.pid, len(strconv.Itoa(l.PID)))
		c.name = max(c.name, len([]rune(displayName(l))))
	}
	c.port = min(c.port, maxPortWidth)
	c.proto = min(c.proto, maxProtoWidth)
	c.pid = min(c.pid, maxPIDWidth)
	c.name = min(c.name, maxNameWidth)
	return c
}

func displayName(l model.Listener) string {
	if name := l.Name(); name != "" {
		return name
	}
	return "?"
}

func (c columns) row(l model.Listener) string {
	name := truncate.StringWithTail(displayName(l), uint(c.name), ellipsis)
	return fmt.Sprintf("%*d  %-*s  %*d  %s", c.port, l.Port, c.proto, l.Protocol, c.pid, l.PID, name)
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	title := titleStyle.Render("killport: select listeners")
	if n := len(m.selected); n > 0 {
		title += " " + countStyle.Render(fmt.Sprintf("%d selected", n))
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(emptyStyle.Render("no listeners found"))
		b.WriteString("\n")
	}

	cols := measure(m.items)
	end := min(m.top+m.viewHeight(), len(m.items))
	for i := m.top; i < end; i++ {
		b.WriteString(m.renderRow(i, cols))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) renderRow(i int, cols columns) string {
	pointer := "  "
	if i == m.cursor {
		pointer = "› "
	}
	box := "[ ] "
	if m.selected[i] {
		box = "[x] "
	}

	line := pointer + box + cols.row(m.items[i])
	if m.width > 0 {
		line = truncate.StringWithTail(line, uint(m.width), ellipsis)
	}

	switch {
	case i == m.cursor:
		return cursorStyle.Render(line)
	case m.selected[i]:
		return checkedStyle.Render(line)
	}
	return rowStyle.Render(line)
}
