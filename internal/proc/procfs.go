package proc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/procfs"
)

// Procfs reads footprint figures from /proc on Linux: VmSwap from
// /proc/<pid>/status as swap and Pss from smaps_rollup as physical.
type Procfs struct {
	fs procfs.FS
}

// NewProcfs opens the proc filesystem at mountPoint ("" means /proc).
func NewProcfs(mountPoint string) (*Procfs, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", mountPoint, err)
	}
	return &Procfs{fs: fs}, nil
}

// Name returns "procfs".
func (p *Procfs) Name() string {
	return "procfs"
}

// Footprint reads the status and smaps_rollup files for pid. A missing
// smaps_rollup (older kernels, permissions) only drops the physical figure.
func (p *Procfs) Footprint(_ context.Context, pid int) (Sample, error) {
	pr, err := p.fs.Proc(pid)
	if err != nil {
		return Sample{}, fmt.Errorf("procfs pid %d: %w", pid, err)
	}
	status, err := pr.NewStatus()
	if err != nil {
		return Sample{}, fmt.Errorf("procfs status %d: %w", pid, err)
	}

	s := Sample{Swap: strconv.FormatUint(status.VmSwap, 10)}
	if rollup, err := pr.ProcSMapsRollup(); err == nil {
		s.Physical = strconv.FormatUint(rollup.Pss, 10)
	}
	return s, nil
}
