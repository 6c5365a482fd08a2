// Package report prints a summary table of a compiled program.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/specialistvlad/eqasmc/internal/compiler"
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	total  lipgloss.Style
	border lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff9e64")),
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dcfff")).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		total:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0af68")).Padding(0, 1),
		border: r.NewStyle().Foreground(lipgloss.Color("#565f89")),
	}
}

// Write prints one row per kernel plus a total row. Colors follow the
// capabilities of w.
func Write(w io.Writer, res *compiler.Result) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var instrs, bundles, cycles int
	rows := make([][]string, 0, len(res.Kernels)+1)
	for _, k := range res.Kernels {
		rows = append(rows, []string{k.Name, strconv.Itoa(k.Instructions), strconv.Itoa(len(k.Bundles)), strconv.Itoa(k.Cycles())})
		instrs += k.Instructions
		bundles += len(k.Bundles)
		cycles += k.Cycles()
	}
	rows = append(rows, []string{"total", strconv.Itoa(instrs), strconv.Itoa(bundles), strconv.Itoa(cycles)})
	last := len(rows) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers("KERNEL", "INSTRUCTIONS", "BUNDLES", "CYCLES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header
			case row == last:
				return st.total
			case col > 0:
				return st.cell.Align(lipgloss.Right)
			}
			return st.cell
		})

	title := st.title.Render(fmt.Sprintf("%s: %s, %s scheduler", res.Program, res.Target, res.Policy))
	_, err := fmt.Fprintf(w, "%s\n%s\n", title, t.Render())
	return err
}
