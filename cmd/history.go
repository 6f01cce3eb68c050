package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/timvw/tmux-mem/internal/mux"
)

var historyCmd = &cobra.Command{
	Use:   "history <target>",
	Short: "Estimate the scrollback size of one pane",
	Long: `Capture the full history of a tmux pane and print its size in bytes.

The target format is session:window.pane (e.g., "ai:6.0"). The capture is
bounded by --history-timeout and --history-max-bytes, like in the report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if _, err := mux.ParseTarget(target); err != nil {
			return err
		}

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

		n, err := newEstimator(cfg, m, nil).Capture(cmd.Context(), target)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", target, n, humanize.IBytes(n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
