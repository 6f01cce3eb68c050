package mux

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/timvw/tmux-mem/internal/model"
)

// paneFormat lists one pane per line. The window name is last because it is
// free text; everything before it is tab-free.
const paneFormat = "#{session_name}\t#{window_index}\t#{pane_index}\t#{pane_pid}\t#{pane_current_command}\t#{history_size}\t#{history_limit}\t#{window_name}"

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct {
	// Binary is the tmux executable; empty means "tmux" on $PATH.
	Binary string
}

// NewTmux creates a new tmux multiplexer.
func NewTmux() *Tmux {
	return &Tmux{}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// ListPanes returns all tmux panes, optionally filtered by session name pattern.
func (t *Tmux) ListPanes(ctx context.Context, filter string) ([]model.Pane, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		re, err = regexp.Compile(filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	out, err := t.run(ctx, "list-panes", "-a", "-F", paneFormat)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes: %w", err)
	}

	var panes []model.Pane
	for _, line := range strings.Split(out, "\n") {
		pane, ok := parsePaneLine(line)
		if !ok {
			continue
		}
		if re != nil && !re.MatchString(pane.Handle.Session) {
			continue
		}
		panes = append(panes, pane)
	}
	return panes, nil
}

// parsePaneLine parses one line of paneFormat output. Lines without a
// positive pane pid are dropped.
func parsePaneLine(line string) (model.Pane, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return model.Pane{}, false
	}
	parts := strings.SplitN(line, "\t", 8)
	if len(parts) != 8 {
		return model.Pane{}, false
	}

	window, err1 := strconv.Atoi(parts[1])
	index, err2 := strconv.Atoi(parts[2])
	pid, err3 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil || err3 != nil || pid <= 0 || parts[0] == "" {
		return model.Pane{}, false
	}
	size, _ := strconv.Atoi(parts[5])
	limit, _ := strconv.Atoi(parts[6])

	return model.Pane{
		Handle:       model.PaneHandle{Session: parts[0], Window: window, Pane: index},
		PID:          pid,
		Command:      parts[4],
		HistorySize:  size,
		HistoryLimit: limit,
		WindowName:   parts[7],
	}, true
}

// HistoryBytes streams `capture-pane -p -S - -E -` (entire scrollback plus
// the visible screen) and counts the bytes.
func (t *Tmux) HistoryBytes(ctx context.Context, target string, limit int64) (int64, error) {
	cmd := exec.CommandContext(ctx, t.binary(), "capture-pane", "-p", "-S", "-", "-E", "-", "-t", target)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("tmux capture-pane -t %s: %w", target, err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("tmux capture-pane -t %s: %w", target, err)
	}

	var src io.Reader = stdout
	if limit > 0 {
		src = io.LimitReader(stdout, limit+1)
	}
	n, copyErr := io.Copy(io.Discard, src)
	if limit > 0 && n > limit {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return n, fmt.Errorf("tmux capture-pane -t %s: %w (%d bytes)", target, ErrLimitExceeded, limit)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return n, fmt.Errorf("tmux capture-pane -t %s: %w", target, ctx.Err())
		}
		return n, fmt.Errorf("tmux capture-pane -t %s: %w: %s", target, err, strings.TrimSpace(stderr.String()))
	}
	if copyErr != nil {
		return n, fmt.Errorf("tmux capture-pane -t %s: %w", target, copyErr)
	}
	return n, nil
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, t.binary(), args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%w: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}

func (t *Tmux) binary() string {
	if t.Binary == "" {
		return "tmux"
	}
	return t.Binary
}

// ParseTarget parses a tmux target string "session:window.pane" into a PaneHandle.
func ParseTarget(target string) (model.PaneHandle, error) {
	colonIdx := strings.LastIndex(target, ":")
	if colonIdx < 0 {
		return model.PaneHandle{}, fmt.Errorf("invalid target %q: missing ':'", target)
	}

	session := target[:colonIdx]
	rest := target[colonIdx+1:]

	dotIdx := strings.LastIndex(rest, ".")
	if dotIdx < 0 {
		return model.PaneHandle{}, fmt.Errorf("invalid target %q: missing '.'", target)
	}

	window, err := strconv.Atoi(rest[:dotIdx])
	if err != nil {
		return model.PaneHandle{}, fmt.Errorf("invalid window index in %q: %w", target, err)
	}

	pane, err := strconv.Atoi(rest[dotIdx+1:])
	if err != nil {
		return model.PaneHandle{}, fmt.Errorf("invalid pane index in %q: %w", target, err)
	}

	return model.PaneHandle{Session: session, Window: window, Pane: pane}, nil
}
