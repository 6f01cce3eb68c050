package format

import (
	"strings"
)

var markdownEscaper = strings.NewReplacer("|", `\|`)

func renderMarkdown(g grid) string {
	var b strings.Builder

	b.WriteString("|")
	for _, h := range g.header {
		b.WriteString(" " + h + " |")
	}
	b.WriteString("\n|")
	for _, numeric := range g.numeric {
		if numeric {
			b.WriteString("---:|")
		} else {
			b.WriteString("---|")
		}
	}
	b.WriteString("\n")

	for _, row := range g.rows {
		b.WriteString("|")
		for _, c := range row {
			b.WriteString(" " + markdownEscaper.Replace(flatten(c)) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}
