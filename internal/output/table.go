package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"

	"github.com/pranshuparmar/killport/pkg/model"
)

const maxCommandWidth = 60

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true).
			PaddingRight(2)

	cellStyle = lipgloss.NewStyle().PaddingRight(2)

	portCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22aa22")). // Green
			PaddingRight(2)

	dimCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			PaddingRight(2)

	plainStyle = lipgloss.NewStyle().PaddingRight(2)
)

const (
	colPort    = 1
	colCommand = 6
)

// RenderList prints listeners as an aligned table.
func RenderList(w io.Writer, listeners []model.Listener, colorEnabled bool) {
	if len(listeners) == 0 {
		fmt.Fprintln(w, "no listening ports found")
		return
	}

	rows := make([][]string, 0, len(listeners))
	for _, l := range listeners {
		rows = append(rows, []string{
			string(l.Protocol),
			strconv.Itoa(l.Port),
			strconv.Itoa(l.PID),
			orDash(l.User),
			orDash(l.Name()),
			orDash(l.LocalAddress),
			truncate.StringWithTail(orDash(l.Command), maxCommandWidth, "…"),
		})
	}

	t := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers("PROTO", "PORT", "PID", "USER", "PROCESS", "ADDRESS", "COMMAND").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if !colorEnabled {
				return plainStyle
			}
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colPort:
				return portCellStyle
			case col == colCommand:
				return dimCellStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, t.Render())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
