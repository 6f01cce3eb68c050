// Package model holds the values handed from one report stage to the next.
// Everything here is created per invocation and never persisted.
package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Bytes is a byte count that may be absent. A zero N with Known set is a
// real measurement; an unknown value must never be shown as zero.
type Bytes struct {
	N     uint64
	Known bool
}

// KnownBytes returns a measured byte count.
func KnownBytes(n uint64) Bytes {
	return Bytes{N: n, Known: true}
}

// OrZero returns the count, treating absent as zero. Only for ordering and sums.
func (b Bytes) OrZero() uint64 {
	if !b.Known {
		return 0
	}
	return b.N
}

// Ptr returns nil when the value is absent.
func (b Bytes) Ptr() *uint64 {
	if !b.Known {
		return nil
	}
	n := b.N
	return &n
}

// Add sums two optional counts. The result is known if either side is.
func (b Bytes) Add(o Bytes) Bytes {
	if !b.Known {
		return o
	}
	if !o.Known {
		return b
	}
	return KnownBytes(b.N + o.N)
}

// MatchMode selects how a process is compared against the search pattern.
type MatchMode string

const (
	// MatchExact compares the basename of the process name.
	MatchExact MatchMode = "exact"
	// MatchFull looks for the pattern anywhere in the full command line.
	MatchFull MatchMode = "full"
)

// ParseMatchMode parses "exact" or "full" (case-insensitive).
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case MatchExact:
		return MatchExact, nil
	case MatchFull:
		return MatchFull, nil
	default:
		return "", fmt.Errorf("unsupported match mode %q (supported: exact, full)", s)
	}
}

// Matches reports whether a process with the given name and command line
// matches pattern under mode.
func (m MatchMode) Matches(pattern, name, args string) bool {
	switch m {
	case MatchFull:
		return strings.Contains(args, pattern)
	default:
		return filepath.Base(name) == pattern
	}
}

// ProcessRecord is one matched process and its memory metrics.
type ProcessRecord struct {
	// PID is the process ID.
	PID int `json:"pid"`
	// Command is the full command line.
	Command string `json:"command"`
	// Swap is the swapped-out size reported by the footprint tool.
	Swap Bytes `json:"-"`
	// Physical is the physical footprint reported by the footprint tool.
	Physical Bytes `json:"-"`
	// RSS is the resident set size reported by the process lister.
	RSS Bytes `json:"-"`
}

// PaneHandle identifies a tmux pane within one run.
type PaneHandle struct {
	Session string `json:"session"`
	Window  int    `json:"window"`
	Pane    int    `json:"pane"`
}

// Target renders the handle as "session:window.pane".
func (h PaneHandle) Target() string {
	return fmt.Sprintf("%s:%d.%d", h.Session, h.Window, h.Pane)
}

// Pane represents a terminal multiplexer pane.
type Pane struct {
	Handle PaneHandle `json:"handle"`
	// WindowName is the tmux window name.
	WindowName string `json:"window_name"`
	// PID is the pane's foreground (shell) process ID.
	PID int `json:"pid"`
	// Command is the current command running in the pane (e.g., "node", "zsh").
	Command string `json:"command"`
	// HistorySize is the number of scrollback lines currently retained.
	HistorySize int `json:"history_size"`
	// HistoryLimit is the configured scrollback limit in lines.
	HistoryLimit int `json:"history_limit"`
}

// Target is a shorthand for p.Handle.Target().
func (p Pane) Target() string {
	return p.Handle.Target()
}

// HistoryLines renders "size/limit".
func (p Pane) HistoryLines() string {
	return fmt.Sprintf("%d/%d", p.HistorySize, p.HistoryLimit)
}

// HistoryEstimate is the byte length of a pane's captured scrollback.
// It is a lower bound: tmux's own buffer representation may be larger.
type HistoryEstimate struct {
	Pane  PaneHandle `json:"pane"`
	Bytes uint64     `json:"bytes"`
}

// ReportRow is one process in the final report.
type ReportRow struct {
	Process ProcessRecord
	// Pane is nil when the owning pane is unknown.
	Pane *Pane
	// History is nil when estimation was disabled, no pane was resolved,
	// or the capture did not finish within its bounds.
	History *HistoryEstimate
}

// PaneSummary aggregates the report rows that share one pane.
type PaneSummary struct {
	// Pane is nil for the bucket of processes with no known owner.
	Pane     *Pane
	PIDs     []int
	Swap     Bytes
	Physical Bytes
	RSS      Bytes
	History  *HistoryEstimate
}
