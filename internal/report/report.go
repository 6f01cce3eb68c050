// Package report joins process records with pane ownership and history
// estimates and orders the result.
package report

import (
	"sort"

	"github.com/timvw/tmux-mem/internal/model"
)

// OwnerLookup resolves the pane that owns a pid. pane.Ownership implements it.
type OwnerLookup interface {
	OwnerOf(pid int) (model.Pane, bool)
}

// HistoryLookup returns the history estimate for a pane. A nil
// HistoryLookup means estimation is disabled.
type HistoryLookup func(model.Pane) (model.HistoryEstimate, bool)

// Aggregate produces one row per process, ordered by swap descending and
// then pid ascending. Absent swap orders as zero. owners may be nil.
func Aggregate(processes []model.ProcessRecord, owners OwnerLookup, history HistoryLookup) []model.ReportRow {
	rows := make([]model.ReportRow, 0, len(processes))
	for _, p := range processes {
		row := model.ReportRow{Process: p}
		if owners != nil {
			if pane, ok := owners.OwnerOf(p.PID); ok {
				row.Pane = &pane
				if history != nil {
					if est, ok := history(pane); ok {
						row.History = &est
					}
				}
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := rows[i].Process.Swap.OrZero(), rows[j].Process.Swap.OrZero()
		if si != sj {
			return si > sj
		}
		return rows[i].Process.PID < rows[j].Process.PID
	})
	return rows
}

// MapHistory adapts a target-keyed estimate map into a HistoryLookup.
func MapHistory(m map[string]model.HistoryEstimate) HistoryLookup {
	return func(p model.Pane) (model.HistoryEstimate, bool) {
		est, ok := m[p.Target()]
		return est, ok
	}
}

// Owners is a fixed pid to pane assignment.
type Owners map[int]model.Pane

// OwnerOf implements OwnerLookup.
func (o Owners) OwnerOf(pid int) (model.Pane, bool) {
	p, ok := o[pid]
	return p, ok
}

// Panes returns the distinct owning panes ordered by target.
func (o Owners) Panes() []model.Pane {
	seen := map[string]struct{}{}
	var panes []model.Pane
	for _, p := range o {
		if _, dup := seen[p.Target()]; dup {
			continue
		}
		seen[p.Target()] = struct{}{}
		panes = append(panes, p)
	}
	sort.Slice(panes, func(i, j int) bool { return panes[i].Target() < panes[j].Target() })
	return panes
}

// ResolveOwners looks each process up once. Processes without an owner
// are left out.
func ResolveOwners(processes []model.ProcessRecord, owners OwnerLookup) Owners {
	out := Owners{}
	if owners == nil {
		return out
	}
	for _, p := range processes {
		if pane, ok := owners.OwnerOf(p.PID); ok {
			out[p.PID] = pane
		}
	}
	return out
}

// Totals sums report rows. History is counted once per pane.
type Totals struct {
	Processes int
	Swap      model.Bytes
	Physical  model.Bytes
	RSS       model.Bytes
	History   model.Bytes
}

// Sum computes Totals over rows.
func Sum(rows []model.ReportRow) Totals {
	t := Totals{Processes: len(rows)}
	counted := map[string]struct{}{}
	for _, r := range rows {
		t.Swap = t.Swap.Add(r.Process.Swap)
		t.Physical = t.Physical.Add(r.Process.Physical)
		t.RSS = t.RSS.Add(r.Process.RSS)
		if r.History == nil {
			continue
		}
		target := r.History.Pane.Target()
		if _, dup := counted[target]; dup {
			continue
		}
		counted[target] = struct{}{}
		t.History = t.History.Add(model.KnownBytes(r.History.Bytes))
	}
	return t
}

// ByPane groups rows by owning pane. Rows without an owner share one
// summary with a nil Pane, which is always last. Other summaries are
// ordered by summed swap descending, then target ascending.
func ByPane(rows []model.ReportRow) []model.PaneSummary {
	index := map[string]int{}
	var out []model.PaneSummary
	unknown := -1

	for _, r := range rows {
		var i int
		switch {
		case r.Pane == nil && unknown >= 0:
			i = unknown
		case r.Pane == nil:
			out = append(out, model.PaneSummary{})
			i = len(out) - 1
			unknown = i
		default:
			var ok bool
			i, ok = index[r.Pane.Target()]
			if !ok {
				pane := *r.Pane
				out = append(out, model.PaneSummary{Pane: &pane})
				i = len(out) - 1
				index[pane.Target()] = i
			}
		}

		s := &out[i]
		s.PIDs = append(s.PIDs, r.Process.PID)
		s.Swap = s.Swap.Add(r.Process.Swap)
		s.Physical = s.Physical.Add(r.Process.Physical)
		s.RSS = s.RSS.Add(r.Process.RSS)
		if s.History == nil && r.History != nil {
			est := *r.History
			s.History = &est
		}
	}

	for i := range out {
		sort.Ints(out[i].PIDs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Pane == nil) != (b.Pane == nil) {
			return b.Pane == nil
		}
		if a.Swap.OrZero() != b.Swap.OrZero() {
			return a.Swap.OrZero() > b.Swap.OrZero()
		}
		if a.Pane == nil {
			return false
		}
		return a.Pane.Target() < b.Pane.Target()
	})
	return out
}
