// Package pane maps processes to the tmux pane that owns them.
//
// tmux only reports each pane's foreground pid, usually a shell. The
// processes of interest run below it, so ownership is found by walking the
// parent chain upward until a pane pid is hit. The walk is iterative and
// capped at MaxDepth hops; stale entries or pid reuse in the process table
// can otherwise produce cycles.
package pane

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timvw/tmux-mem/internal/model"
	"github.com/timvw/tmux-mem/internal/mux"
	ppotel "github.com/timvw/tmux-mem/internal/otel"
)

// DefaultMaxDepth bounds the ancestry walk.
const DefaultMaxDepth = 64

var (
	// ErrNoOwner means the chain ended (init, unknown pid, or a cycle) without a pane.
	ErrNoOwner = errors.New("no owning pane")
	// ErrAncestryBoundExceeded means MaxDepth hops were taken without a match.
	ErrAncestryBoundExceeded = errors.New("ancestry walk exceeded maximum depth")
)

// Ancestry returns the parent of a pid. proc.Table implements it.
type Ancestry interface {
	Parent(pid int) (int, bool)
}

// Resolver builds pane ownership for one run.
type Resolver struct {
	// Mux may be nil when no multiplexer was detected.
	Mux      mux.Multiplexer
	MaxDepth int
	Timeout  time.Duration
	Log      logrus.FieldLogger
	Metrics  *ppotel.Metrics // nil-safe
}

// Resolve lists the panes once and returns the ownership index. When the
// multiplexer is unreachable the index is empty and every lookup is unknown.
func (r *Resolver) Resolve(ctx context.Context, ancestry Ancestry) *Ownership {
	o := &Ownership{
		base:     map[int]model.Pane{},
		parents:  ancestry,
		maxDepth: r.MaxDepth,
		metrics:  r.Metrics,
	}
	if o.maxDepth <= 0 {
		o.maxDepth = DefaultMaxDepth
	}

	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if r.Mux == nil {
		log.Warn("tmux panes unavailable: no multiplexer detected; pane owners will be unknown")
		return o
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	panes, err := r.Mux.ListPanes(ctx, "")
	if err != nil {
		log.WithError(err).Warn("tmux panes unavailable; pane owners will be unknown")
		return o
	}
	for _, p := range panes {
		o.base[p.PID] = p
	}
	log.WithField("panes", len(o.base)).Debug("resolved tmux panes")
	return o
}

// NewOwnership builds an index from an explicit pane list.
func NewOwnership(panes []model.Pane, ancestry Ancestry, maxDepth int) *Ownership {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	o := &Ownership{base: make(map[int]model.Pane, len(panes)), parents: ancestry, maxDepth: maxDepth}
	for _, p := range panes {
		o.base[p.PID] = p
	}
	return o
}

// Ownership maps pane foreground pids to panes and resolves descendants.
type Ownership struct {
	base     map[int]model.Pane
	parents  Ancestry
	maxDepth int
	metrics  *ppotel.Metrics
}

// Panes returns the number of panes in the index.
func (o *Ownership) Panes() int {
	return len(o.base)
}

// OwnerOf returns the pane owning pid, directly or through an ancestor.
func (o *Ownership) OwnerOf(pid int) (model.Pane, bool) {
	p, hops, err := o.Walk(pid)
	switch {
	case err == nil && hops == 0:
		o.metrics.RecordOwnership(context.Background(), "direct")
	case err == nil:
		o.metrics.RecordOwnership(context.Background(), "ancestor")
	case errors.Is(err, ErrAncestryBoundExceeded):
		o.metrics.RecordOwnership(context.Background(), "depth_exceeded")
	default:
		o.metrics.RecordOwnership(context.Background(), "unknown")
	}
	return p, err == nil
}

// Walk is OwnerOf with the reason for a miss and the number of parent hops taken.
func (o *Ownership) Walk(pid int) (model.Pane, int, error) {
	seen := make(map[int]struct{}, 8)
	cur := pid
	for hops := 0; hops <= o.maxDepth; hops++ {
		if p, ok := o.base[cur]; ok {
			return p, hops, nil
		}
		if _, dup := seen[cur]; dup {
			return model.Pane{}, hops, ErrNoOwner
		}
		seen[cur] = struct{}{}

		if o.parents == nil {
			return model.Pane{}, hops, ErrNoOwner
		}
		parent, ok := o.parents.Parent(cur)
		if !ok || parent <= 0 {
			return model.Pane{}, hops, ErrNoOwner
		}
		cur = parent
	}
	return model.Pane{}, o.maxDepth, ErrAncestryBoundExceeded
}
