package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/dqcheck-cli/internal/history"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [file]",
	Short: "List recorded quality runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		dataset := ""
		if len(args) == 1 {
			dataset = args[0]
		}
		store, err := history.Open(cmd.Context(), c.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		runs, err := store.List(cmd.Context(), dataset, historyLimit)
		if err != nil {
			return err
		}
		o := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(o, "(no runs)")
			return nil
		}
		tw := tabwriter.NewWriter(o, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tDATASET\tROWS\tOVERALL\tCOMPLETE\tUNIQUE\tCONSISTENT\tISSUES\tRUN")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Dataset, r.Rows,
				r.OverallScore, r.Completeness, r.Uniqueness, r.Consistency, r.Issues, r.RunID)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to show (0 = all)")
}
