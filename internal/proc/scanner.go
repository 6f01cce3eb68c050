package proc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timvw/tmux-mem/internal/memstat"
	"github.com/timvw/tmux-mem/internal/model"
	ppotel "github.com/timvw/tmux-mem/internal/otel"
)

// DefaultTimeout bounds each external tool invocation.
const DefaultTimeout = 10 * time.Second

// Scanner finds the processes matching a pattern and merges their metrics.
type Scanner struct {
	Lister Lister
	// Footprint may be nil; swap and physical are then absent on every row.
	Footprint Footprinter
	Timeout   time.Duration
	// SelfPID is excluded from matches. Zero means os.Getpid().
	SelfPID int
	Log     logrus.FieldLogger
	Metrics *ppotel.Metrics // nil-safe
}

// Snapshot is the result of one scan.
type Snapshot struct {
	// Records holds one entry per matched pid, ascending by pid.
	Records []model.ProcessRecord
	// Table is the full process table, used for ancestry lookups.
	Table Table
}

// Scan lists all processes, keeps those matching pattern under mode and
// attaches their footprint. Only a failing Lister is fatal.
func (s *Scanner) Scan(ctx context.Context, mode model.MatchMode, pattern string) (*Snapshot, error) {
	log := s.logger()

	listCtx, cancel := context.WithTimeout(ctx, s.timeout())
	table, err := s.Lister.List(listCtx)
	cancel()
	if err != nil {
		return nil, &ScanError{Tool: s.Lister.Name(), Err: err}
	}

	self := s.SelfPID
	if self == 0 {
		self = os.Getpid()
	}

	footprint := s.Footprint
	if footprint == nil {
		log.Debug("no footprint source for this platform; swap and physical will be absent")
	}

	snap := &Snapshot{Table: table}
	for _, pid := range table.PIDs() {
		e := table[pid]
		// Children of this process are the ps/vmmap helpers it spawned.
		if pid == self || e.PPID == self || !mode.Matches(pattern, e.Name, e.Args) {
			continue
		}

		rec := model.ProcessRecord{
			PID:     pid,
			Command: e.Args,
			RSS:     s.parseField(log, pid, "rss", e.RSS),
		}
		if rec.Command == "" {
			rec.Command = e.Name
		}

		if footprint != nil {
			sample, err := s.sample(ctx, footprint, pid)
			switch {
			case errors.Is(err, exec.ErrNotFound):
				log.WithError(err).WithField("tool", footprint.Name()).Warn("footprint tool unavailable; swap and physical will be absent")
				footprint = nil
			case err != nil:
				log.WithError(err).WithField("pid", pid).Debug("footprint unavailable for process")
			default:
				rec.Swap = s.parseField(log, pid, "swap", sample.Swap)
				rec.Physical = s.parseField(log, pid, "physical", sample.Physical)
			}
		}

		if !rec.RSS.Known {
			s.Metrics.RecordDegraded(ctx, "rss")
		}
		if !rec.Swap.Known {
			s.Metrics.RecordDegraded(ctx, "swap")
		}
		if !rec.Physical.Known {
			s.Metrics.RecordDegraded(ctx, "physical")
		}
		snap.Records = append(snap.Records, rec)
	}

	s.Metrics.RecordScanned(ctx, len(snap.Records))
	return snap, nil
}

func (s *Scanner) sample(ctx context.Context, f Footprinter, pid int) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	return f.Footprint(ctx, pid)
}

// parseField converts a raw token. An empty token is simply absent; a
// malformed one is absent and logged, and never aborts the scan.
func (s *Scanner) parseField(log logrus.FieldLogger, pid int, field, token string) model.Bytes {
	if token == "" {
		return model.Bytes{}
	}
	n, err := memstat.Parse(token)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{"pid": pid, "field": field}).Warn("ignoring unparsable metric")
		return model.Bytes{}
	}
	return model.KnownBytes(n)
}

func (s *Scanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

func (s *Scanner) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
