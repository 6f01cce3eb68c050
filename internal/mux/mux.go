// Package mux provides the transport to the terminal multiplexer.
//
// It reports observable pane topology (targets, foreground pids, history
// counters) and measures scrollback size. Interpreting any of it, such as
// deciding which pane owns a process, happens in the pane and history packages.
package mux

import (
	"context"
	"errors"

	"github.com/timvw/tmux-mem/internal/model"
)

// ErrLimitExceeded is returned by HistoryBytes when the capture grew past its limit.
var ErrLimitExceeded = errors.New("capture exceeded size limit")

// Multiplexer abstracts terminal multiplexer operations.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux").
	Name() string

	// ListPanes returns all panes, optionally filtered by a session name regex pattern.
	// An empty filter returns all panes.
	ListPanes(ctx context.Context, filter string) ([]model.Pane, error)

	// HistoryBytes captures the full scrollback of target and returns its
	// length in bytes without retaining the text. A limit > 0 aborts the
	// capture with ErrLimitExceeded once more than limit bytes were read.
	HistoryBytes(ctx context.Context, target string, limit int64) (int64, error)
}
