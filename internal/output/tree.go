package output

import (
	"fmt"
	"io"

	"github.com/pranshuparmar/killport/pkg/model"
)

var colorMagentaTree = "\033[35m"

// treeLimit caps how many descendants are listed before summarising.
const treeLimit = 10

// PrintTree lists descendant outcomes under their root, in kill order.
func PrintTree(w io.Writer, descendants []model.KillOutcome, colorEnabled bool) {
	c := colors(colorEnabled)
	magenta := ""
	if colorEnabled {
		magenta = colorMagentaTree
	}

	count := len(descendants)
	for i, d := range descendants {
		if i >= treeLimit {
			fmt.Fprintf(w, "  %s└─ %s... and %d more\n", magenta, c.reset, count-treeLimit)
			break
		}

		connector := "├─ "
		if i == count-1 {
			connector = "└─ "
		}

		status := c.green + "ok" + c.reset
		if !d.OK {
			status = c.red + "failed" + c.reset
		}
		detail := d.Method
		if !d.OK && d.Message != "" {
			detail = d.Message
		}
		fmt.Fprintf(w, "  %s%s%spid %d %s %s(%s)%s\n", magenta, connector, c.reset, d.PID, status, c.dim, detail, c.reset)
	}
}
