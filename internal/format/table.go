package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func renderTable(g grid) string {
	rows := make([][]string, len(g.rows))
	for i, r := range g.rows {
		rows[i] = make([]string, len(r))
		for j, c := range r {
			rows[i][j] = flatten(c)
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(g.header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := cellStyle
			if row == table.HeaderRow {
				s = headerStyle
			}
			if col < len(g.numeric) && g.numeric[col] {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n\n")

	width := 0
	for _, f := range g.footer {
		if len(f.label) > width {
			width = len(f.label)
		}
	}
	for _, f := range g.footer {
		b.WriteString(footerStyle.Render(fmt.Sprintf("%-*s %s", width, f.label, f.value)))
		b.WriteString("\n")
	}
	return b.String()
}
