package proc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
)

// Gopsutil lists processes through gopsutil instead of shelling out to ps.
// Processes that exit mid-snapshot are skipped.
type Gopsutil struct{}

// NewGopsutil creates a gopsutil-backed lister.
func NewGopsutil() *Gopsutil {
	return &Gopsutil{}
}

// Name returns "gopsutil".
func (g *Gopsutil) Name() string {
	return "gopsutil"
}

// List snapshots the process table.
func (g *Gopsutil) List(ctx context.Context) (Table, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("gopsutil processes: %w", err)
	}

	table := make(Table, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		e := Entry{PID: int(p.Pid), Name: name}
		if ppid, err := p.PpidWithContext(ctx); err == nil {
			e.PPID = int(ppid)
		}
		if args, err := p.CmdlineWithContext(ctx); err == nil {
			e.Args = args
		}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			e.RSS = strconv.FormatUint(mem.RSS, 10)
		}
		table[e.PID] = e
	}
	return table, nil
}
