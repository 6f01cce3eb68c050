package proc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Vmmap reads footprint figures from macOS `vmmap -summary`.
type Vmmap struct{}

// NewVmmap creates a vmmap-backed footprinter.
func NewVmmap() *Vmmap {
	return &Vmmap{}
}

// Name returns "vmmap".
func (v *Vmmap) Name() string {
	return "vmmap"
}

// Footprint runs vmmap for one pid.
func (v *Vmmap) Footprint(ctx context.Context, pid int) (Sample, error) {
	out, err := runCommand(ctx, "vmmap", "-summary", strconv.Itoa(pid))
	if err != nil {
		return Sample{}, fmt.Errorf("vmmap -summary %d: %w", pid, err)
	}
	return parseVmmapSummary(out), nil
}

// parseVmmapSummary extracts the "Physical footprint:" value and the
// SWAPPED SIZE column of the TOTAL row:
//
//	REGION TYPE    VIRTUAL SIZE  RESIDENT SIZE  DIRTY SIZE  SWAPPED SIZE ...
//	TOTAL                  1.2G          300M        200M         50.0M ...
//
// The "TOTAL, minus reserved VM space" row is skipped.
func parseVmmapSummary(out string) Sample {
	var s Sample
	for _, line := range strings.Split(out, "\n") {
		t := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(t, "Physical footprint:"); ok {
			if fields := strings.Fields(rest); len(fields) > 0 {
				s.Physical = fields[0]
			}
			continue
		}
		if strings.HasPrefix(t, "TOTAL") && !strings.Contains(t, "minus reserved") {
			cols := strings.Fields(t)
			if len(cols) >= 5 {
				s.Swap = cols[4]
			}
			break
		}
	}
	return s
}
