package format

import (
	"strconv"
	"strings"

	"github.com/timvw/tmux-mem/internal/model"
	"github.com/timvw/tmux-mem/internal/report"
)

// grid is the human-readable view shared by the table and Markdown formats.
type grid struct {
	header  []string
	numeric []bool
	rows    [][]string
	footer  []total
}

type total struct {
	label string
	value string
}

var processColumns = []struct {
	name    string
	numeric bool
}{
	{"PID", true},
	{"Tmux window.pane", false},
	{"Window", false},
	{"Swap", true},
	{"Physical", true},
	{"RSS", true},
	{"PaneHistory", true},
	{"History lines", true},
	{"Command", false},
}

var paneColumns = []struct {
	name    string
	numeric bool
}{
	{"Tmux window.pane", false},
	{"Window", false},
	{"Processes", true},
	{"PIDs", false},
	{"Swap", true},
	{"Physical", true},
	{"RSS", true},
	{"PaneHistory", true},
	{"History lines", true},
}

func processGrid(records []Record, rows []model.ReportRow) grid {
	g := grid{}
	for _, c := range processColumns {
		g.header = append(g.header, c.name)
		g.numeric = append(g.numeric, c.numeric)
	}
	for _, r := range records {
		g.rows = append(g.rows, []string{
			strconv.Itoa(r.PID),
			orText(r.Target, UnknownPane),
			orText(r.Window, UnknownPane),
			orText(r.SwapHuman, Absent),
			orText(r.PhysicalHuman, Absent),
			orText(r.RSSHuman, Absent),
			orText(r.HistoryHuman, Absent),
			orText(r.HistoryLines, UnknownPane),
			r.Command,
		})
	}

	t := report.Sum(rows)
	g.footer = []total{
		{"Processes:", strconv.Itoa(t.Processes)},
		{"Total swap:", Human(t.Swap)},
		{"Total physical:", Human(t.Physical)},
		{"Total RSS:", Human(t.RSS)},
		{"Total pane history bytes:", Human(t.History)},
	}
	return g
}

func paneGrid(records []PaneRecord, panes []model.PaneSummary) grid {
	g := grid{}
	for _, c := range paneColumns {
		g.header = append(g.header, c.name)
		g.numeric = append(g.numeric, c.numeric)
	}
	for _, r := range records {
		g.rows = append(g.rows, []string{
			orText(r.Target, UnknownPane),
			orText(r.Window, UnknownPane),
			strconv.Itoa(r.ProcessCount),
			joinPIDs(r.PIDs, " "),
			orText(r.SwapHuman, Absent),
			orText(r.PhysicalHuman, Absent),
			orText(r.RSSHuman, Absent),
			orText(r.HistoryHuman, Absent),
			orText(r.HistoryLines, UnknownPane),
		})
	}

	var swap, physical, rss, history model.Bytes
	processes := 0
	for _, p := range panes {
		processes += len(p.PIDs)
		swap = swap.Add(p.Swap)
		physical = physical.Add(p.Physical)
		rss = rss.Add(p.RSS)
		if p.History != nil {
			history = history.Add(model.KnownBytes(p.History.Bytes))
		}
	}
	g.footer = []total{
		{"Panes:", strconv.Itoa(len(panes))},
		{"Processes:", strconv.Itoa(processes)},
		{"Total swap:", Human(swap)},
		{"Total physical:", Human(physical)},
		{"Total RSS:", Human(rss)},
		{"Total pane history bytes:", Human(history)},
	}
	return g
}

func joinPIDs(pids []int, sep string) string {
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.Itoa(pid)
	}
	return strings.Join(parts, sep)
}

// flatten keeps a cell on one line.
func flatten(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
}
