// Package config loads tmux-mem configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Command-line flags (applied by cmd)
//  2. Environment variables (TMUX_MEM_*)
//  3. Config file
//  4. Built-in defaults
//
// Config file search order:
//  1. .tmux-mem.yaml in current directory
//  2. ~/.config/tmux-mem/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timvw/tmux-mem/internal/memstat"
)

// Config holds all tmux-mem configuration.
type Config struct {
	// Selection
	Process   string `yaml:"process"`
	MatchMode string `yaml:"match_mode"` // exact or full

	// Output
	Format string `yaml:"format"`
	View   string `yaml:"view"` // process or pane

	// Sources
	Source         string `yaml:"source"` // ps or gopsutil
	Mux            string `yaml:"mux"`    // empty means auto-detect
	CommandTimeout string `yaml:"command_timeout"`
	MaxDepth       int    `yaml:"max_depth"`

	// Pane history
	HistoryBytes    *bool  `yaml:"history_bytes"`
	HistoryTimeout  string `yaml:"history_timeout"`
	HistoryMaxBytes string `yaml:"history_max_bytes"` // size token, e.g. "64M"
	HistoryParallel int    `yaml:"history_parallel"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed values (not from YAML, set after loading)
	CommandTimeoutDuration time.Duration `yaml:"-"`
	HistoryTimeoutDuration time.Duration `yaml:"-"`
	HistoryMaxBytesValue   int64         `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	enabled := true
	return &Config{
		Process:         "opencode",
		MatchMode:       "exact",
		Format:          "table",
		View:            "process",
		Source:          "ps",
		CommandTimeout:  "10s",
		MaxDepth:        64,
		HistoryBytes:    &enabled,
		HistoryTimeout:  "5s",
		HistoryMaxBytes: "64M",
		HistoryParallel: 4,
	}
}

// HistoryEnabled reports whether pane history estimation is on.
func (c *Config) HistoryEnabled() bool {
	return c.HistoryBytes == nil || *c.HistoryBytes
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve parses the string-typed settings. cmd calls it again after
// applying flags.
func (c *Config) Resolve() error {
	var err error
	c.CommandTimeoutDuration, err = parseDuration(c.CommandTimeout, 10*time.Second)
	if err != nil {
		return fmt.Errorf("invalid command timeout %q: %w", c.CommandTimeout, err)
	}
	c.HistoryTimeoutDuration, err = parseDuration(c.HistoryTimeout, 5*time.Second)
	if err != nil {
		return fmt.Errorf("invalid history timeout %q: %w", c.HistoryTimeout, err)
	}
	if c.HistoryMaxBytes == "" {
		c.HistoryMaxBytesValue = 64 << 20
	} else {
		n, err := memstat.Parse(c.HistoryMaxBytes)
		if err != nil {
			return fmt.Errorf("invalid history max bytes: %w", err)
		}
		if n == 0 || n > 1<<62 {
			return fmt.Errorf("invalid history max bytes %q: out of range", c.HistoryMaxBytes)
		}
		c.HistoryMaxBytesValue = int64(n)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("invalid max depth %d: must be at least 1", c.MaxDepth)
	}
	if c.HistoryParallel < 1 {
		return fmt.Errorf("invalid history parallelism %d: must be at least 1", c.HistoryParallel)
	}
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".tmux-mem.yaml"); err == nil {
		return ".tmux-mem.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "tmux-mem", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Process != "" {
		cfg.Process = file.Process
	}
	if file.MatchMode != "" {
		cfg.MatchMode = file.MatchMode
	}
	if file.Format != "" {
		cfg.Format = file.Format
	}
	if file.View != "" {
		cfg.View = file.View
	}
	if file.Source != "" {
		cfg.Source = file.Source
	}
	if file.Mux != "" {
		cfg.Mux = file.Mux
	}
	if file.CommandTimeout != "" {
		cfg.CommandTimeout = file.CommandTimeout
	}
	if file.MaxDepth > 0 {
		cfg.MaxDepth = file.MaxDepth
	}
	if file.HistoryBytes != nil {
		v := *file.HistoryBytes
		cfg.HistoryBytes = &v
	}
	if file.HistoryTimeout != "" {
		cfg.HistoryTimeout = file.HistoryTimeout
	}
	if file.HistoryMaxBytes != "" {
		cfg.HistoryMaxBytes = file.HistoryMaxBytes
	}
	if file.HistoryParallel > 0 {
		cfg.HistoryParallel = file.HistoryParallel
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins over the file.
func mergeEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"TMUX_MEM_PROCESS", &cfg.Process},
		{"TMUX_MEM_MATCH_MODE", &cfg.MatchMode},
		{"TMUX_MEM_FORMAT", &cfg.Format},
		{"TMUX_MEM_VIEW", &cfg.View},
		{"TMUX_MEM_SOURCE", &cfg.Source},
		{"TMUX_MEM_MUX", &cfg.Mux},
		{"TMUX_MEM_COMMAND_TIMEOUT", &cfg.CommandTimeout},
		{"TMUX_MEM_HISTORY_TIMEOUT", &cfg.HistoryTimeout},
		{"TMUX_MEM_HISTORY_MAX_BYTES", &cfg.HistoryMaxBytes},
		{"OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTELEndpoint},
		{"TMUX_MEM_OTEL_ENDPOINT", &cfg.OTELEndpoint},
		{"OTEL_EXPORTER_OTLP_HEADERS", &cfg.OTELHeaders},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TMUX_MEM_MAX_DEPTH", &cfg.MaxDepth},
		{"TMUX_MEM_HISTORY_PARALLEL", &cfg.HistoryParallel},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
		}
		*i.dst = n
	}

	if v := os.Getenv("TMUX_MEM_HISTORY_BYTES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TMUX_MEM_HISTORY_BYTES %q: %w", v, err)
		}
		cfg.HistoryBytes = &b
	}
	return nil
}

// parseDuration parses a Go duration string. Empty returns the fallback.
func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}
