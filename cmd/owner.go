package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/timvw/tmux-mem/internal/pane"
	"github.com/timvw/tmux-mem/internal/proc"
)

var ownerCmd = &cobra.Command{
	Use:   "owner <pid>",
	Short: "Show which tmux pane owns a process",
	Long: `Walk the parent chain of a pid until a tmux pane pid is found and print
the pane target, or the reason no pane owns it (chain ended, cycle, or
--max-depth reached).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil || pid <= 0 {
			return fmt.Errorf("invalid pid %q", args[0])
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lister, err := proc.ListerFromName(cfg.Source)
		if err != nil {
			return err
		}
		listCtx, cancel := context.WithTimeout(cmd.Context(), cfg.CommandTimeoutDuration)
		table, err := lister.List(listCtx)
		cancel()
		if err != nil {
			return &proc.ScanError{Tool: lister.Name(), Err: err}
		}

		m, err := getMultiplexer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		r := &pane.Resolver{Mux: m, MaxDepth: cfg.MaxDepth, Timeout: cfg.CommandTimeoutDuration, Log: logger}
		ownership := r.Resolve(cmd.Context(), table)

		out := cmd.OutOrStdout()
		p, hops, err := ownership.Walk(pid)
		switch {
		case err == nil:
			fmt.Fprintf(out, "%d\t%s\t%s\t(%d hops)\n", pid, p.Target(), p.WindowName, hops)
		case errors.Is(err, pane.ErrAncestryBoundExceeded):
			fmt.Fprintf(out, "%d\t?\tunknown: no pane within %d parent hops\n", pid, cfg.MaxDepth)
		default:
			fmt.Fprintf(out, "%d\t?\tunknown: %v\n", pid, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ownerCmd)
}
