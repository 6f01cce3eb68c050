package format

import (
	"github.com/dustin/go-humanize"

	"github.com/timvw/tmux-mem/internal/model"
)

// Record is one process row as encoded by every format. Nil pointers are
// absent values.
type Record struct {
	PID           int     `json:"pid" yaml:"pid"`
	Target        *string `json:"tmux_target" yaml:"tmux_target"`
	Window        *string `json:"tmux_window" yaml:"tmux_window"`
	SwapBytes     *uint64 `json:"swap_bytes" yaml:"swap_bytes"`
	SwapHuman     *string `json:"swap_human" yaml:"swap_human"`
	PhysicalBytes *uint64 `json:"physical_bytes" yaml:"physical_bytes"`
	PhysicalHuman *string `json:"physical_human" yaml:"physical_human"`
	RSSBytes      *uint64 `json:"rss_bytes" yaml:"rss_bytes"`
	RSSHuman      *string `json:"rss_human" yaml:"rss_human"`
	HistoryBytes  *uint64 `json:"pane_history_bytes" yaml:"pane_history_bytes"`
	HistoryHuman  *string `json:"pane_history_human" yaml:"pane_history_human"`
	HistoryLines  *string `json:"pane_history_lines" yaml:"pane_history_lines"`
	Command       string  `json:"command" yaml:"command"`
}

// PaneRecord is one pane summary as encoded by every format.
type PaneRecord struct {
	Target        *string `json:"tmux_target" yaml:"tmux_target"`
	Window        *string `json:"tmux_window" yaml:"tmux_window"`
	ProcessCount  int     `json:"process_count" yaml:"process_count"`
	PIDs          []int   `json:"pids" yaml:"pids"`
	SwapBytes     *uint64 `json:"swap_bytes" yaml:"swap_bytes"`
	SwapHuman     *string `json:"swap_human" yaml:"swap_human"`
	PhysicalBytes *uint64 `json:"physical_bytes" yaml:"physical_bytes"`
	PhysicalHuman *string `json:"physical_human" yaml:"physical_human"`
	RSSBytes      *uint64 `json:"rss_bytes" yaml:"rss_bytes"`
	RSSHuman      *string `json:"rss_human" yaml:"rss_human"`
	HistoryBytes  *uint64 `json:"pane_history_bytes" yaml:"pane_history_bytes"`
	HistoryHuman  *string `json:"pane_history_human" yaml:"pane_history_human"`
	HistoryLines  *string `json:"pane_history_lines" yaml:"pane_history_lines"`
}

// NewRecords converts report rows, keeping their order.
func NewRecords(rows []model.ReportRow) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{
			PID:           r.Process.PID,
			SwapBytes:     r.Process.Swap.Ptr(),
			SwapHuman:     humanPtr(r.Process.Swap),
			PhysicalBytes: r.Process.Physical.Ptr(),
			PhysicalHuman: humanPtr(r.Process.Physical),
			RSSBytes:      r.Process.RSS.Ptr(),
			RSSHuman:      humanPtr(r.Process.RSS),
			Command:       r.Process.Command,
		}
		if r.Pane != nil {
			rec.Target = strPtr(r.Pane.Target())
			rec.Window = strPtr(r.Pane.WindowName)
			rec.HistoryLines = strPtr(r.Pane.HistoryLines())
		}
		if r.History != nil {
			b := model.KnownBytes(r.History.Bytes)
			rec.HistoryBytes = b.Ptr()
			rec.HistoryHuman = humanPtr(b)
		}
		out = append(out, rec)
	}
	return out
}

// NewPaneRecords converts pane summaries, keeping their order.
func NewPaneRecords(panes []model.PaneSummary) []PaneRecord {
	out := make([]PaneRecord, 0, len(panes))
	for _, p := range panes {
		rec := PaneRecord{
			ProcessCount:  len(p.PIDs),
			PIDs:          append([]int{}, p.PIDs...),
			SwapBytes:     p.Swap.Ptr(),
			SwapHuman:     humanPtr(p.Swap),
			PhysicalBytes: p.Physical.Ptr(),
			PhysicalHuman: humanPtr(p.Physical),
			RSSBytes:      p.RSS.Ptr(),
			RSSHuman:      humanPtr(p.RSS),
		}
		if p.Pane != nil {
			rec.Target = strPtr(p.Pane.Target())
			rec.Window = strPtr(p.Pane.WindowName)
			rec.HistoryLines = strPtr(p.Pane.HistoryLines())
		}
		if p.History != nil {
			b := model.KnownBytes(p.History.Bytes)
			rec.HistoryBytes = b.Ptr()
			rec.HistoryHuman = humanPtr(b)
		}
		out = append(out, rec)
	}
	return out
}

// Human renders a byte count with IEC units, or the absent placeholder.
func Human(b model.Bytes) string {
	if !b.Known {
		return Absent
	}
	return humanize.IBytes(b.N)
}

func humanPtr(b model.Bytes) *string {
	if !b.Known {
		return nil
	}
	return strPtr(humanize.IBytes(b.N))
}

func strPtr(s string) *string {
	return &s
}

// orText dereferences s, or returns placeholder when s is nil.
func orText(s *string, placeholder string) string {
	if s == nil {
		return placeholder
	}
	return *s
}
