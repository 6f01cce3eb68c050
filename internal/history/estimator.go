// Package history estimates how many bytes of scrollback each tmux pane
// holds by streaming a full capture and counting it.
//
// The figure is a lower bound on what tmux keeps in memory for the pane.
// Captures are bounded in time and size; a capture that overruns either
// bound yields no estimate rather than a partial one.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/tmux-mem/internal/model"
	"github.com/timvw/tmux-mem/internal/mux"
	ppotel "github.com/timvw/tmux-mem/internal/otel"
)

var tracer = otel.Tracer("tmux-mem")

const (
	DefaultTimeout  = 5 * time.Second
	DefaultMaxBytes = 64 << 20
	DefaultParallel = 4
)

var (
	// ErrCaptureTimeout means the capture did not finish within Timeout.
	ErrCaptureTimeout = errors.New("history capture timed out")
	// ErrCaptureOverflow means the capture produced more than MaxBytes.
	ErrCaptureOverflow = errors.New("history capture exceeded size limit")
)

// Estimator captures pane history and caches the result per target.
type Estimator struct {
	Mux      mux.Multiplexer
	Timeout  time.Duration
	MaxBytes int64
	Parallel int
	Log      logrus.FieldLogger
	Metrics  *ppotel.Metrics // nil-safe

	once  sync.Once
	cache *Cache
}

// Capture returns the history byte count for target. Results, including
// failures, are cached for the lifetime of the Estimator.
func (e *Estimator) Capture(ctx context.Context, target string) (uint64, error) {
	c := e.getCache()
	if r, ok := c.Lookup(target); ok {
		e.Metrics.RecordCapture(ctx, "cached", 0)
		return r.Bytes, r.Err
	}

	n, err := e.capture(ctx, target)
	c.Store(target, n, err)
	return n, err
}

// Estimate returns the history estimate for p, or false when none could be made.
func (e *Estimator) Estimate(ctx context.Context, p model.Pane) (model.HistoryEstimate, bool) {
	n, err := e.Capture(ctx, p.Target())
	if err != nil {
		return model.HistoryEstimate{}, false
	}
	return model.HistoryEstimate{Pane: p.Handle, Bytes: n}, true
}

// EstimateAll captures every distinct pane with bounded parallelism and
// returns the successful estimates keyed by target.
func (e *Estimator) EstimateAll(ctx context.Context, panes []model.Pane) map[string]model.HistoryEstimate {
	ctx, span := tracer.Start(ctx, "estimate_history")
	defer span.End()

	unique := make([]model.Pane, 0, len(panes))
	seen := make(map[string]struct{}, len(panes))
	for _, p := range panes {
		if _, dup := seen[p.Target()]; dup {
			continue
		}
		seen[p.Target()] = struct{}{}
		unique = append(unique, p)
	}

	results := make(map[string]model.HistoryEstimate, len(unique))
	if len(unique) == 0 {
		return results
	}

	parallel := e.Parallel
	if parallel < 1 {
		parallel = DefaultParallel
	}
	if parallel > len(unique) {
		parallel = len(unique)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, parallel)
	)
	for _, pane := range unique {
		wg.Add(1)
		go func(p model.Pane) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			est, ok := e.Estimate(ctx, p)
			if !ok {
				return
			}
			mu.Lock()
			results[p.Target()] = est
			mu.Unlock()
		}(pane)
	}
	wg.Wait()

	span.SetAttributes(
		attribute.Int("panes.total", len(unique)),
		attribute.Int("panes.estimated", len(results)),
	)
	return results
}

func (e *Estimator) capture(ctx context.Context, target string) (uint64, error) {
	ctx, span := tracer.Start(ctx, "capture_pane",
		trace.WithAttributes(attribute.String("pane.target", target)))
	defer span.End()

	log := e.logger().WithField("target", target)
	if e.Mux == nil {
		e.Metrics.RecordCapture(ctx, "error", 0)
		return 0, fmt.Errorf("capture %s: no multiplexer", target)
	}

	capCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	n, err := e.Mux.HistoryBytes(capCtx, target, e.maxBytes())
	switch {
	case err == nil:
		e.Metrics.RecordCapture(ctx, "ok", n)
		span.SetAttributes(attribute.Int64("history.bytes", n))
		return uint64(n), nil
	case errors.Is(err, mux.ErrLimitExceeded):
		log.WithField("max_bytes", e.maxBytes()).Warn("pane history larger than capture limit; history will be absent")
		e.Metrics.RecordCapture(ctx, "overflow", 0)
		return 0, fmt.Errorf("capture %s: %w", target, ErrCaptureOverflow)
	case errors.Is(capCtx.Err(), context.DeadlineExceeded):
		log.WithField("timeout", e.timeout()).Warn("pane history capture timed out; history will be absent")
		e.Metrics.RecordCapture(ctx, "timeout", 0)
		return 0, fmt.Errorf("capture %s: %w", target, ErrCaptureTimeout)
	default:
		log.WithError(err).Warn("pane history capture failed; history will be absent")
		e.Metrics.RecordCapture(ctx, "error", 0)
		return 0, fmt.Errorf("capture %s: %w", target, err)
	}
}

func (e *Estimator) getCache() *Cache {
	e.once.Do(func() {
		if e.cache == nil {
			e.cache = NewCache()
		}
	})
	return e.cache
}

func (e *Estimator) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

func (e *Estimator) maxBytes() int64 {
	if e.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return e.MaxBytes
}

func (e *Estimator) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
