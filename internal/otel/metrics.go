package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tmux-mem"

// Metrics holds the OTEL counters for one report run.
// All counters are cumulative and safe for concurrent use.
type Metrics struct {
	ProcessesScanned metric.Int64Counter

	// Metric fields that could not be read or parsed, by field (rss, swap, physical).
	DegradedMetrics metric.Int64Counter

	// Pane ownership lookups, by outcome (direct, ancestor, unknown, depth_exceeded).
	Ownership metric.Int64Counter

	// History captures, by outcome (ok, cached, timeout, overflow, error).
	HistoryCaptures metric.Int64Counter
	HistoryBytes    metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ProcessesScanned, err = meter.Int64Counter("processes.scanned",
		metric.WithDescription("Number of matching processes reported"),
		metric.WithUnit("{process}"))
	if err != nil {
		return nil, err
	}

	m.DegradedMetrics, err = meter.Int64Counter("metrics.degraded",
		metric.WithDescription("Per-process metric values reported as absent"))
	if err != nil {
		return nil, err
	}

	m.Ownership, err = meter.Int64Counter("panes.ownership",
		metric.WithDescription("Pane ownership lookups partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	m.HistoryCaptures, err = meter.Int64Counter("history.captures",
		metric.WithDescription("Pane history captures partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	m.HistoryBytes, err = meter.Int64Counter("history.bytes",
		metric.WithDescription("Bytes of pane history captured"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordScanned records the number of processes in a snapshot.
func (m *Metrics) RecordScanned(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.ProcessesScanned.Add(ctx, int64(n))
}

// RecordDegraded records one absent metric value.
func (m *Metrics) RecordDegraded(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.DegradedMetrics.Add(ctx, 1, metric.WithAttributes(
		attribute.String("metric.field", field),
	))
}

// RecordOwnership records one pane ownership lookup.
func (m *Metrics) RecordOwnership(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Ownership.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ownership.outcome", outcome),
	))
}

// RecordCapture records one history capture and, on success, its size.
func (m *Metrics) RecordCapture(ctx context.Context, outcome string, bytes int64) {
	if m == nil {
		return
	}
	m.HistoryCaptures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capture.outcome", outcome),
	))
	if bytes > 0 {
		m.HistoryBytes.Add(ctx, bytes)
	}
}
