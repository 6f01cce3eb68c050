package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagFilter string

var panesCmd = &cobra.Command{
	Use:   "panes",
	Short: "List tmux panes with their foreground pid",
	Long: `List all tmux panes with the pid tmux reports for each one.

Each line holds the pane target, pane pid, window name, current command and
history lines (size/limit). Pane ownership in the report is resolved by
walking from a process up to one of these pids.
Optionally filter by session name using a regex pattern.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		m, err := getMultiplexer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("no supported terminal multiplexer detected (set $TMUX or start a tmux server)")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.CommandTimeoutDuration)
		defer cancel()
		panes, err := m.ListPanes(ctx, flagFilter)
		if err != nil {
			return fmt.Errorf("failed to list panes: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TARGET\tPID\tWINDOW\tCOMMAND\tHISTORY")
		for _, p := range panes {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", p.Target(), p.PID, p.WindowName, p.Command, p.HistoryLines())
		}
		return w.Flush()
	},
}

func init() {
	panesCmd.Flags().StringVar(&flagFilter, "filter", "", "regex pattern to filter by session name")
	rootCmd.AddCommand(panesCmd)
}
