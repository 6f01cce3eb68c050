// Package proc enumerates processes and collects their memory footprint.
//
// Two independent sources feed a scan: a Lister (ps or gopsutil) that
// snapshots the whole process table, and a Footprinter (vmmap or procfs)
// queried per matched pid. Their raw size tokens are normalized with
// memstat so both sources share one unit convention.
package proc

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrToolUnavailable means the process lister could not be invoked.
// No report can be produced without it.
var ErrToolUnavailable = errors.New("process enumeration tool unavailable")

// ScanError is returned by Scan when the process table cannot be read.
type ScanError struct {
	Tool string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Tool, ErrToolUnavailable, e.Err)
}

func (e *ScanError) Unwrap() []error {
	return []error{ErrToolUnavailable, e.Err}
}

// Entry is one row of the process table.
type Entry struct {
	PID  int
	PPID int
	// Name is the executable name or path (ps comm).
	Name string
	// Args is the full command line.
	Args string
	// RSS is the raw resident-size token, e.g. "10240K". Empty when unknown.
	RSS string
}

// Table is a snapshot of every process keyed by pid.
type Table map[int]Entry

// Parent returns the parent pid of pid.
func (t Table) Parent(pid int) (int, bool) {
	e, ok := t[pid]
	if !ok {
		return 0, false
	}
	return e.PPID, true
}

// PIDs returns all pids in ascending order.
func (t Table) PIDs() []int {
	pids := make([]int, 0, len(t))
	for pid := range t {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Lister snapshots the process table.
type Lister interface {
	// Name identifies the source in logs and errors.
	Name() string
	List(ctx context.Context) (Table, error)
}

// Sample holds the raw footprint tokens for one pid. Empty fields are absent.
type Sample struct {
	Swap     string
	Physical string
}

// Footprinter reports per-process footprint figures.
type Footprinter interface {
	Name() string
	Footprint(ctx context.Context, pid int) (Sample, error)
}
