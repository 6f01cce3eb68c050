package mux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/timvw/tmux-mem/internal/model"
)

// fakeTmux writes a shell script standing in for the tmux binary.
func fakeTmux(t *testing.T, script string) *Tmux {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tmux")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake tmux: %v", err)
	}
	return &Tmux{Binary: path}
}

func TestParsePaneLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want model.Pane
		ok   bool
	}{
		{
			name: "regular pane",
			line: "ai\t6\t0\t4242\tzsh\t1500\t50000\topencode",
			want: model.Pane{
				Handle:       model.PaneHandle{Session: "ai", Window: 6, Pane: 0},
				PID:          4242,
				Command:      "zsh",
				HistorySize:  1500,
				HistoryLimit: 50000,
				WindowName:   "opencode",
			},
			ok: true,
		},
		{
			name: "session with colon and window name with tab",
			line: "my:proj\t1\t2\t77\tnode\t0\t2000\tname\twith tab",
			want: model.Pane{
				Handle:       model.PaneHandle{Session: "my:proj", Window: 1, Pane: 2},
				PID:          77,
				Command:      "node",
				HistoryLimit: 2000,
				WindowName:   "name\twith tab",
			},
			ok: true,
		},
		{name: "empty line", line: "", ok: false},
		{name: "too few fields", line: "ai\t6\t0\t4242", ok: false},
		{name: "zero pid", line: "ai\t6\t0\t0\tzsh\t0\t0\tw", ok: false},
		{name: "bad window", line: "ai\tx\t0\t1\tzsh\t0\t0\tw", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePaneLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		target  string
		want    model.PaneHandle
		wantErr bool
	}{
		{target: "ai:6.0", want: model.PaneHandle{Session: "ai", Window: 6, Pane: 0}},
		{target: "my.session:10.3", want: model.PaneHandle{Session: "my.session", Window: 10, Pane: 3}},
		{target: "ai", wantErr: true},
		{target: "ai:6", wantErr: true},
		{target: "ai:x.0", wantErr: true},
		{target: "ai:6.y", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := ParseTarget(tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTarget(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTarget(%q) = %+v, want %+v", tt.target, got, tt.want)
			}
		})
	}
}

func TestTmux_ListPanes(t *testing.T) {
	tm := fakeTmux(t, `printf 'ai\t6\t0\t100\tzsh\t10\t2000\topencode\nwork\t0\t1\t200\tbash\t0\t2000\tshell\n'`)

	panes, err := tm.ListPanes(context.Background(), "")
	if err != nil {
		t.Fatalf("ListPanes() error: %v", err)
	}
	if len(panes) != 2 {
		t.Fatalf("got %d panes, want 2", len(panes))
	}
	if panes[0].Target() != "ai:6.0" || panes[0].PID != 100 {
		t.Errorf("first pane: got %+v", panes[0])
	}

	filtered, err := tm.ListPanes(context.Background(), "^work$")
	if err != nil {
		t.Fatalf("ListPanes(filter) error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Handle.Session != "work" {
		t.Errorf("filtered panes: got %+v", filtered)
	}

	if _, err := tm.ListPanes(context.Background(), "("); err == nil {
		t.Error("expected error for invalid filter pattern")
	}
}

func TestTmux_ListPanesServerDown(t *testing.T) {
	tm := fakeTmux(t, `echo "no server running on /tmp/tmux-501/default" >&2; exit 1`)

	if _, err := tm.ListPanes(context.Background(), ""); err == nil {
		t.Fatal("expected error when the tmux server is down")
	}
}

func TestTmux_HistoryBytes(t *testing.T) {
	tm := fakeTmux(t, `printf 'hello\nworld\n'`)

	n, err := tm.HistoryBytes(context.Background(), "ai:6.0", 0)
	if err != nil {
		t.Fatalf("HistoryBytes() error: %v", err)
	}
	if n != 12 {
		t.Errorf("got %d bytes, want 12", n)
	}

	n, err = tm.HistoryBytes(context.Background(), "ai:6.0", 1024)
	if err != nil {
		t.Fatalf("HistoryBytes(limit) error: %v", err)
	}
	if n != 12 {
		t.Errorf("got %d bytes under limit, want 12", n)
	}
}

func TestTmux_HistoryBytesLimit(t *testing.T) {
	tm := fakeTmux(t, `i=0; while [ $i -lt 200 ]; do echo "0123456789012345678901234567890123456789"; i=$((i+1)); done`)

	_, err := tm.HistoryBytes(context.Background(), "ai:6.0", 1000)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestTmux_HistoryBytesFailure(t *testing.T) {
	tm := fakeTmux(t, `echo "can't find pane: ai:9.9" >&2; exit 1`)

	if _, err := tm.HistoryBytes(context.Background(), "ai:9.9", 0); err == nil {
		t.Fatal("expected error for missing pane")
	}
}

func TestFromName(t *testing.T) {
	if m, err := FromName("tmux"); err != nil || m.Name() != "tmux" {
		t.Errorf("FromName(tmux) = %v, %v", m, err)
	}
	if _, err := FromName("zellij"); err == nil {
		t.Error("expected error for zellij")
	}
	if _, err := FromName("screen"); err == nil {
		t.Error("expected error for unknown multiplexer")
	}
}
