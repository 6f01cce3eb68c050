// Package pipeline runs one report: scan processes, resolve their panes,
// estimate pane history and aggregate.
package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/tmux-mem/internal/history"
	"github.com/timvw/tmux-mem/internal/model"
	"github.com/timvw/tmux-mem/internal/pane"
	"github.com/timvw/tmux-mem/internal/proc"
	"github.com/timvw/tmux-mem/internal/report"
)

var tracer = otel.Tracer("tmux-mem")

// Pipeline wires the report stages together.
type Pipeline struct {
	Scanner  *proc.Scanner
	Resolver *pane.Resolver
	// Estimator is nil when history estimation is disabled; no capture is
	// attempted then.
	Estimator *history.Estimator
	Log       logrus.FieldLogger
}

// Options selects the processes to report.
type Options struct {
	Mode    model.MatchMode
	Pattern string
}

// Run produces the ordered report rows. Only a failure to enumerate
// processes is returned as an error; every other failure degrades rows.
func (p *Pipeline) Run(ctx context.Context, opts Options) ([]model.ReportRow, error) {
	ctx, span := tracer.Start(ctx, "report",
		trace.WithAttributes(
			attribute.String("match.mode", string(opts.Mode)),
			attribute.String("match.pattern", opts.Pattern),
			attribute.Bool("history.enabled", p.Estimator != nil),
		))
	defer span.End()

	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	snap, err := p.scan(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(snap.Records) == 0 {
		log.WithField("pattern", opts.Pattern).Debug("no matching processes")
		return []model.ReportRow{}, nil
	}

	owners := p.resolve(ctx, snap)

	var lookup report.HistoryLookup
	if p.Estimator != nil {
		estimates := p.Estimator.EstimateAll(ctx, owners.Panes())
		lookup = report.MapHistory(estimates)
	}

	rows := report.Aggregate(snap.Records, owners, lookup)
	span.SetAttributes(
		attribute.Int("rows.total", len(rows)),
		attribute.Int("rows.with_pane", len(owners)),
	)
	return rows, nil
}

func (p *Pipeline) scan(ctx context.Context, opts Options) (*proc.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "scan")
	defer span.End()

	snap, err := p.Scanner.Scan(ctx, opts.Mode, opts.Pattern)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("processes.total", len(snap.Table)),
		attribute.Int("processes.matched", len(snap.Records)),
	)
	return snap, nil
}

func (p *Pipeline) resolve(ctx context.Context, snap *proc.Snapshot) report.Owners {
	ctx, span := tracer.Start(ctx, "resolve_panes")
	defer span.End()

	resolver := p.Resolver
	if resolver == nil {
		resolver = &pane.Resolver{Log: p.Log}
	}
	ownership := resolver.Resolve(ctx, snap.Table)
	owners := report.ResolveOwners(snap.Records, ownership)
	span.SetAttributes(
		attribute.Int("panes.total", ownership.Panes()),
		attribute.Int("processes.owned", len(owners)),
	)
	return owners
}
