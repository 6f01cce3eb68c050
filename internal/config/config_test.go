package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the config search at empty directories.
func isolate(t *testing.T) (cwd, home string) {
	t.Helper()
	cwd = t.TempDir()
	home = t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
	t.Setenv("HOME", home)
	for _, k := range []string{
		"TMUX_MEM_PROCESS", "TMUX_MEM_MATCH_MODE", "TMUX_MEM_FORMAT", "TMUX_MEM_VIEW",
		"TMUX_MEM_SOURCE", "TMUX_MEM_MUX", "TMUX_MEM_COMMAND_TIMEOUT", "TMUX_MEM_HISTORY_TIMEOUT",
		"TMUX_MEM_HISTORY_MAX_BYTES", "TMUX_MEM_OTEL_ENDPOINT", "TMUX_MEM_MAX_DEPTH",
		"TMUX_MEM_HISTORY_PARALLEL", "TMUX_MEM_HISTORY_BYTES",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_HEADERS",
	} {
		t.Setenv(k, "")
	}
	return cwd, home
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Process != "opencode" {
		t.Errorf("Process: got %q, want %q", cfg.Process, "opencode")
	}
	if cfg.MatchMode != "exact" {
		t.Errorf("MatchMode: got %q, want %q", cfg.MatchMode, "exact")
	}
	if cfg.Format != "table" {
		t.Errorf("Format: got %q, want %q", cfg.Format, "table")
	}
	if !cfg.HistoryEnabled() {
		t.Error("history estimation should be enabled by default")
	}
	if cfg.MaxDepth != 64 {
		t.Errorf("MaxDepth: got %d, want 64", cfg.MaxDepth)
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile: got %q, want empty", cfg.ConfigFile)
	}
	if cfg.HistoryTimeoutDuration != 5*time.Second {
		t.Errorf("HistoryTimeoutDuration: got %v", cfg.HistoryTimeoutDuration)
	}
	if cfg.HistoryMaxBytesValue != 64<<20 {
		t.Errorf("HistoryMaxBytesValue: got %d", cfg.HistoryMaxBytesValue)
	}
	if cfg.CommandTimeoutDuration != 10*time.Second {
		t.Errorf("CommandTimeoutDuration: got %v", cfg.CommandTimeoutDuration)
	}
}

func TestLoad_HomeFile(t *testing.T) {
	_, home := isolate(t)
	dir := filepath.Join(home, ".config", "tmux-mem")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "process: claude\nmatch_mode: full\nhistory_bytes: false\nhistory_max_bytes: 8M\nmax_depth: 16\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Process != "claude" || cfg.MatchMode != "full" {
		t.Errorf("got process=%q match_mode=%q", cfg.Process, cfg.MatchMode)
	}
	if cfg.HistoryEnabled() {
		t.Error("history_bytes: false should disable estimation")
	}
	if cfg.HistoryMaxBytesValue != 8<<20 {
		t.Errorf("HistoryMaxBytesValue: got %d, want %d", cfg.HistoryMaxBytesValue, 8<<20)
	}
	if cfg.MaxDepth != 16 {
		t.Errorf("MaxDepth: got %d, want 16", cfg.MaxDepth)
	}
	if cfg.Format != "table" {
		t.Errorf("unset keys keep defaults; Format got %q", cfg.Format)
	}
}

func TestLoad_WorkingDirectoryFileWins(t *testing.T) {
	cwd, home := isolate(t)
	dir := filepath.Join(home, ".config", "tmux-mem")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("process: from-home\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cwd, ".tmux-mem.yaml"), []byte("process: from-cwd\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Process != "from-cwd" {
		t.Errorf("Process: got %q, want %q", cfg.Process, "from-cwd")
	}
	if cfg.ConfigFile != ".tmux-mem.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cwd, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(cwd, ".tmux-mem.yaml"), []byte("process: claude\nformat: csv\nhistory_parallel: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TMUX_MEM_PROCESS", "codex")
	t.Setenv("TMUX_MEM_HISTORY_PARALLEL", "8")
	t.Setenv("TMUX_MEM_HISTORY_BYTES", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Process != "codex" {
		t.Errorf("Process: got %q, want %q", cfg.Process, "codex")
	}
	if cfg.Format != "csv" {
		t.Errorf("Format: got %q, want %q", cfg.Format, "csv")
	}
	if cfg.HistoryParallel != 8 {
		t.Errorf("HistoryParallel: got %d, want 8", cfg.HistoryParallel)
	}
	if cfg.HistoryEnabled() {
		t.Error("TMUX_MEM_HISTORY_BYTES=false should disable estimation")
	}
	if cfg.OTELEndpoint != "http://localhost:4318" {
		t.Errorf("OTELEndpoint: got %q", cfg.OTELEndpoint)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "process: [unterminated\n"},
		{name: "bad history timeout", file: "history_timeout: soon\n"},
		{name: "negative command timeout", file: "command_timeout: -1s\n"},
		{name: "bad max bytes", file: "history_max_bytes: lots\n"},
		{name: "bad env int", env: map[string]string{"TMUX_MEM_MAX_DEPTH": "deep"}},
		{name: "bad env bool", env: map[string]string{"TMUX_MEM_HISTORY_BYTES": "maybe"}},
		{name: "zero depth from env", env: map[string]string{"TMUX_MEM_MAX_DEPTH": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd, _ := isolate(t)
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(cwd, ".tmux-mem.yaml"), []byte(tt.file), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
