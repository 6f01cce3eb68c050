package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrNotDetected means no reachable multiplexer was found.
var ErrNotDetected = errors.New("no terminal multiplexer detected")

// Test seams.
var (
	lookupEnv   = os.LookupEnv
	lookPath    = exec.LookPath
	serverAlive = func(ctx context.Context, binary string) bool {
		return exec.CommandContext(ctx, binary, "list-sessions").Run() == nil
	}
)

// Detect finds the multiplexer to query. Running inside tmux ($TMUX set)
// is enough; otherwise a tmux binary on $PATH must answer list-sessions,
// since tmux-mem is often invoked from a terminal outside any pane.
// A timeout > 0 bounds that liveness check.
func Detect(ctx context.Context, timeout time.Duration) (Multiplexer, error) {
	if v, ok := lookupEnv("TMUX"); ok && v != "" {
		return NewTmux(), nil
	}
	if v, ok := lookupEnv("ZELLIJ"); ok && v != "" {
		return nil, fmt.Errorf("%w: zellij is not supported", ErrNotDetected)
	}

	path, err := lookPath("tmux")
	if err != nil {
		return nil, fmt.Errorf("%w: tmux not on $PATH", ErrNotDetected)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if !serverAlive(ctx, path) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: tmux server did not answer: %v", ErrNotDetected, ctx.Err())
		}
		return nil, fmt.Errorf("%w: no tmux server running", ErrNotDetected)
	}
	return &Tmux{Binary: path}, nil
}

// FromName creates a Multiplexer by name.
func FromName(name string) (Multiplexer, error) {
	switch name {
	case "tmux":
		return NewTmux(), nil
	case "zellij":
		return nil, fmt.Errorf("zellij support is not implemented")
	default:
		return nil, fmt.Errorf("unknown multiplexer: %q (supported: tmux)", name)
	}
}
