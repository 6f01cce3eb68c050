package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/timvw/tmux-mem/internal/config"
	"github.com/timvw/tmux-mem/internal/format"
	"github.com/timvw/tmux-mem/internal/history"
	"github.com/timvw/tmux-mem/internal/model"
	"github.com/timvw/tmux-mem/internal/mux"
	telem "github.com/timvw/tmux-mem/internal/otel"
	"github.com/timvw/tmux-mem/internal/pane"
	"github.com/timvw/tmux-mem/internal/pipeline"
	"github.com/timvw/tmux-mem/internal/proc"
	"github.com/timvw/tmux-mem/internal/report"
)

var (
	// Global flags.
	flagMux             string
	flagSource          string
	flagMaxDepth        int
	flagCommandTimeout  time.Duration
	flagHistoryTimeout  time.Duration
	flagHistoryMaxBytes string
	flagVerbose         bool

	// Report flags.
	flagProcess         string
	flagMatchMode       string
	flagFormat          string
	flagView            string
	flagExport          string
	flagExportFormat    string
	flagNoHistoryBytes  bool
	flagHistoryParallel int
)

var logger = newLogger()

var rootCmd = &cobra.Command{
	Use:   "tmux-mem",
	Short: "Report memory use of matching processes and the tmux panes that own them",
	Long: `tmux-mem finds processes by name, reports their swap, physical footprint
and resident size, and maps each one to the tmux pane it runs in.

For every owning pane it also estimates how many bytes of scrollback tmux
holds, by capturing the full history and counting it. Use
--no-history-bytes to skip the capture.

Metrics that cannot be read are shown as "-" (null in JSON and YAML),
never as zero. Processes outside tmux are shown with pane "?".

Configuration is loaded from .tmux-mem.yaml, ~/.config/tmux-mem/config.yaml
and TMUX_MEM_* environment variables; flags override both.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReport,
}

// Execute runs the root command. Interrupts cancel in-flight tool calls.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagMux, "mux", "", "terminal multiplexer: tmux (default: auto-detect)")
	pf.StringVar(&flagSource, "source", "ps", "process source: ps, gopsutil")
	pf.IntVar(&flagMaxDepth, "max-depth", pane.DefaultMaxDepth, "maximum parent hops when resolving a pane owner")
	pf.DurationVar(&flagCommandTimeout, "command-timeout", proc.DefaultTimeout, "timeout for each external tool invocation")
	pf.DurationVar(&flagHistoryTimeout, "history-timeout", history.DefaultTimeout, "timeout for each pane history capture")
	pf.StringVar(&flagHistoryMaxBytes, "history-max-bytes", "64M", "abort a pane history capture past this size")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log debug details to stderr")

	f := rootCmd.Flags()
	f.StringVar(&flagProcess, "process", "opencode", "process name (exact) or command-line substring (full) to match")
	f.StringVar(&flagMatchMode, "match-mode", "exact", "match mode: exact, full")
	f.StringVar(&flagFormat, "format", "table", "output format: table, json, csv, yaml, markdown")
	f.StringVar(&flagView, "view", "process", "report view: process, pane")
	f.StringVar(&flagExport, "export", "", "also write the report to this file")
	f.StringVar(&flagExportFormat, "export-format", "", "format of the --export file (default: inferred from its extension, else json)")
	f.BoolVar(&flagNoHistoryBytes, "no-history-bytes", false, "skip tmux capture-pane history estimation")
	f.IntVar(&flagHistoryParallel, "history-parallel", history.DefaultParallel, "number of concurrent history captures")
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// loadConfig merges defaults, config file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if flagVerbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.ConfigFile != "" {
		logger.WithField("path", cfg.ConfigFile).Debug("loaded config file")
	}
	applyFlags(cmd, cfg)
	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("mux") {
		cfg.Mux = flagMux
	}
	if changed("source") {
		cfg.Source = flagSource
	}
	if changed("max-depth") {
		cfg.MaxDepth = flagMaxDepth
	}
	if changed("command-timeout") {
		cfg.CommandTimeout = flagCommandTimeout.String()
	}
	if changed("history-timeout") {
		cfg.HistoryTimeout = flagHistoryTimeout.String()
	}
	if changed("history-max-bytes") {
		cfg.HistoryMaxBytes = flagHistoryMaxBytes
	}
	if changed("process") {
		cfg.Process = flagProcess
	}
	if changed("match-mode") {
		cfg.MatchMode = flagMatchMode
	}
	if changed("format") {
		cfg.Format = flagFormat
	}
	if changed("view") {
		cfg.View = flagView
	}
	if changed("no-history-bytes") {
		enabled := !flagNoHistoryBytes
		cfg.HistoryBytes = &enabled
	}
	if changed("history-parallel") {
		cfg.HistoryParallel = flagHistoryParallel
	}
}

// reportSettings are the validated output choices of one report run.
type reportSettings struct {
	mode         model.MatchMode
	format       format.Format
	view         string
	exportPath   string
	exportFormat format.Format
}

func parseReportSettings(cfg *config.Config, exportPath, exportFormat string) (reportSettings, error) {
	var s reportSettings
	var err error
	if s.mode, err = model.ParseMatchMode(cfg.MatchMode); err != nil {
		return s, err
	}
	if s.format, err = format.Parse(cfg.Format); err != nil {
		return s, err
	}
	switch v := strings.ToLower(strings.TrimSpace(cfg.View)); v {
	case "", "process":
		s.view = "process"
	case "pane":
		s.view = "pane"
	default:
		return s, fmt.Errorf("unsupported view %q (supported: process, pane)", cfg.View)
	}
	if strings.TrimSpace(cfg.Process) == "" {
		return s, fmt.Errorf("process pattern must not be empty")
	}

	s.exportPath = exportPath
	switch {
	case exportFormat != "":
		if s.exportFormat, err = format.Parse(exportFormat); err != nil {
			return s, fmt.Errorf("export format: %w", err)
		}
	case exportPath != "":
		s.exportFormat = format.FromPath(exportPath)
	}
	return s, nil
}

func renderReport(f format.Format, view string, rows []model.ReportRow) (string, error) {
	if view == "pane" {
		return format.RenderPanes(f, report.ByPane(rows))
	}
	return format.Render(f, rows)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	settings, err := parseReportSettings(cfg, flagExport, flagExportFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	tel := initTelemetry(ctx, cfg)
	defer tel.Shutdown(context.Background())
	var metrics *telem.Metrics
	if tel != nil {
		metrics = tel.Metrics
	}

	p, err := newPipeline(ctx, cfg, metrics)
	if err != nil {
		return err
	}

	var rows []model.ReportRow
	err = collect(ctx, "Collecting process memory...", func(ctx context.Context) error {
		var runErr error
		rows, runErr = p.Run(ctx, pipeline.Options{Mode: settings.mode, Pattern: cfg.Process})
		return runErr
	})
	if err != nil {
		return err
	}

	out, err := renderReport(settings.format, settings.view, rows)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	if settings.exportPath != "" {
		exported, err := renderReport(settings.exportFormat, settings.view, rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(settings.exportPath, []byte(exported), 0o644); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		logger.WithFields(logrus.Fields{"path": settings.exportPath, "format": settings.exportFormat}).Debug("exported report")
	}
	return nil
}

func initTelemetry(ctx context.Context, cfg *config.Config) *telem.Telemetry {
	telem.Version = Version
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		logger.WithError(err).Warn("otel init failed; telemetry disabled")
		return nil
	}
	if tel.Exporting() {
		logger.WithField("endpoint", cfg.OTELEndpoint).Debug("exporting telemetry")
	}
	return tel
}

// newPipeline builds the report stages from cfg. metrics may be nil.
func newPipeline(ctx context.Context, cfg *config.Config, metrics *telem.Metrics) (*pipeline.Pipeline, error) {
	lister, err := proc.ListerFromName(cfg.Source)
	if err != nil {
		return nil, err
	}
	footprint, err := proc.DefaultFootprinter()
	if err != nil {
		logger.WithError(err).Warn("footprint source unavailable; swap and physical will be absent")
		footprint = nil
	}

	m, err := getMultiplexer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Scanner: &proc.Scanner{
			Lister:    lister,
			Footprint: footprint,
			Timeout:   cfg.CommandTimeoutDuration,
			Log:       logger,
			Metrics:   metrics,
		},
		Resolver: &pane.Resolver{
			Mux:      m,
			MaxDepth: cfg.MaxDepth,
			Timeout:  cfg.CommandTimeoutDuration,
			Log:      logger,
			Metrics:  metrics,
		},
		Log: logger,
	}
	if cfg.HistoryEnabled() {
		p.Estimator = newEstimator(cfg, m, metrics)
	}
	return p, nil
}

func newEstimator(cfg *config.Config, m mux.Multiplexer, metrics *telem.Metrics) *history.Estimator {
	return &history.Estimator{
		Mux:      m,
		Timeout:  cfg.HistoryTimeoutDuration,
		MaxBytes: cfg.HistoryMaxBytesValue,
		Parallel: cfg.HistoryParallel,
		Log:      logger,
		Metrics:  metrics,
	}
}

// getMultiplexer returns the configured multiplexer, or the detected one.
// An unknown configured name is an error; failed detection is not, and
// yields a nil Multiplexer so pane owners report as unknown.
func getMultiplexer(ctx context.Context, cfg *config.Config) (mux.Multiplexer, error) {
	if cfg.Mux != "" {
		return mux.FromName(cfg.Mux)
	}
	m, err := mux.Detect(ctx, cfg.CommandTimeoutDuration)
	if err != nil {
		logger.WithError(err).Debug("multiplexer detection failed")
		return nil, nil
	}
	return m, nil
}
