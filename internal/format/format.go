// Package format renders report rows as table, Markdown, CSV, JSON or YAML.
//
// Every syntax is built from the same Record slice, so the formats differ
// only in encoding. Absent values never render as zero: text formats use a
// placeholder and structured formats use null.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/timvw/tmux-mem/internal/model"
)

// Format is an output syntax.
type Format string

const (
	Table    Format = "table"
	JSON     Format = "json"
	CSV      Format = "csv"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
)

// Placeholders used by text formats.
const (
	UnknownPane = "?"
	Absent      = "-"
)

// Parse accepts a format name or one of its aliases (yml, md).
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "table":
		return Table, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: table, json, csv, yaml, markdown)", name)
	}
}

// FromPath infers the format from a file extension. Unknown or missing
// extensions fall back to JSON.
func FromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV
	case ".yaml", ".yml":
		return YAML
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return Table
	default:
		return JSON
	}
}

// Render encodes process rows in f.
func Render(f Format, rows []model.ReportRow) (string, error) {
	records := NewRecords(rows)
	switch f {
	case Table:
		return renderTable(processGrid(records, rows)), nil
	case Markdown:
		return renderMarkdown(processGrid(records, rows)), nil
	case CSV:
		return renderCSV(processCSV(records))
	case JSON:
		return renderJSON(records)
	case YAML:
		return renderYAML(records)
	default:
		return "", fmt.Errorf("unsupported format %q", f)
	}
}

// RenderPanes encodes pane summaries in f.
func RenderPanes(f Format, panes []model.PaneSummary) (string, error) {
	records := NewPaneRecords(panes)
	switch f {
	case Table:
		return renderTable(paneGrid(records, panes)), nil
	case Markdown:
		return renderMarkdown(paneGrid(records, panes)), nil
	case CSV:
		return renderCSV(paneCSV(records))
	case JSON:
		return renderJSON(records)
	case YAML:
		return renderYAML(records)
	default:
		return "", fmt.Errorf("unsupported format %q", f)
	}
}
