package format

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

var processCSVHeader = []string{
	"pid", "tmux_target", "tmux_window",
	"swap_bytes", "swap_human", "physical_bytes", "physical_human", "rss_bytes", "rss_human",
	"pane_history_bytes", "pane_history_human", "pane_history_lines", "command",
}

var paneCSVHeader = []string{
	"tmux_target", "tmux_window", "process_count", "pids",
	"swap_bytes", "swap_human", "physical_bytes", "physical_human", "rss_bytes", "rss_human",
	"pane_history_bytes", "pane_history_human", "pane_history_lines",
}

func processCSV(records []Record) [][]string {
	out := [][]string{processCSVHeader}
	for _, r := range records {
		out = append(out, []string{
			strconv.Itoa(r.PID),
			orText(r.Target, UnknownPane),
			orText(r.Window, UnknownPane),
			rawBytes(r.SwapBytes),
			orText(r.SwapHuman, Absent),
			rawBytes(r.PhysicalBytes),
			orText(r.PhysicalHuman, Absent),
			rawBytes(r.RSSBytes),
			orText(r.RSSHuman, Absent),
			rawBytes(r.HistoryBytes),
			orText(r.HistoryHuman, Absent),
			orText(r.HistoryLines, UnknownPane),
			r.Command,
		})
	}
	return out
}

func paneCSV(records []PaneRecord) [][]string {
	out := [][]string{paneCSVHeader}
	for _, r := range records {
		out = append(out, []string{
			orText(r.Target, UnknownPane),
			orText(r.Window, UnknownPane),
			strconv.Itoa(r.ProcessCount),
			joinPIDs(r.PIDs, ";"),
			rawBytes(r.SwapBytes),
			orText(r.SwapHuman, Absent),
			rawBytes(r.PhysicalBytes),
			orText(r.PhysicalHuman, Absent),
			rawBytes(r.RSSBytes),
			orText(r.RSSHuman, Absent),
			rawBytes(r.HistoryBytes),
			orText(r.HistoryHuman, Absent),
			orText(r.HistoryLines, UnknownPane),
		})
	}
	return out
}

func renderCSV(records [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func rawBytes(n *uint64) string {
	if n == nil {
		return Absent
	}
	return strconv.FormatUint(*n, 10)
}
