package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	qrFailUnder float64
	qrPrint     bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile every column of a dataset and write the profile report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, c, err := runDataset(cmd, args[0], false)
		if err != nil {
			return err
		}
		w, err := artifactWriter(c)
		if err != nil {
			return err
		}
		out, err := w.WriteProfile(res)
		if err != nil {
			return err
		}
		o := cmd.OutOrStdout()
		fmt.Fprintf(o, "✓ Profiled %d columns × %d rows\n", res.Cols, res.Rows)
		for _, p := range res.Profiles {
			fmt.Fprintf(o, "  - %s: %s (missing %.1f%%, unique %d)\n", p.Name, p.Kind, p.NullPercentage, p.UniqueCount)
		}
		fmt.Fprintf(o, "✓ Wrote profile to %s\n", out)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Score completeness, uniqueness and consistency and list issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, c, err := runDataset(cmd, args[0], false)
		if err != nil {
			return err
		}
		w, err := artifactWriter(c)
		if err != nil {
			return err
		}
		out, err := w.WriteValidation(res)
		if err != nil {
			return err
		}
		o := cmd.OutOrStdout()
		m := res.Validation.Metrics
		fmt.Fprintf(o, "Completeness: %.2f%%\nUniqueness: %.2f%%\nConsistency: %.2f%%\nOverall score: %.2f%%\n",
			m.Completeness, m.Uniqueness, m.Consistency, m.OverallScore)
		if len(res.Validation.Issues) == 0 {
			fmt.Fprintln(o, "✓ No issues found")
		}
		for _, is := range res.Validation.Issues {
			fmt.Fprintf(o, "⚠ %s\n", is.Message)
		}
		fmt.Fprintf(o, "✓ Wrote validation report to %s\n", out)
		return nil
	},
}

var qualityReportCmd = &cobra.Command{
	Use:   "quality-report <file>",
	Short: "Run profiling and validation and write the merged quality report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, c, err := runDataset(cmd, args[0], false)
		if err != nil {
			return err
		}
		w, err := artifactWriter(c)
		if err != nil {
			return err
		}
		paths := make([]string, 0, 3)
		for _, write := range []func() (string, error){
			func() (string, error) { return w.WriteValidation(res) },
			func() (string, error) { return w.WriteProfile(res) },
			func() (string, error) { return w.WriteQuality(res) },
		} {
			p, err := write()
			if err != nil {
				return err
			}
			paths = append(paths, p)
		}
		o := cmd.OutOrStdout()
		if qrPrint {
			fmt.Fprintln(o, res.Report.Summary())
		}
		for _, p := range paths {
			fmt.Fprintf(o, "✓ Wrote %s\n", p)
		}
		if res.Dataset != nil && res.Dataset.Checksum != "" && !res.Dataset.ChecksumVerified {
			fmt.Fprintf(o, "⚠ Checksum mismatch against %s\n", res.Dataset.Name)
		}
		if cmd.Flags().Changed("fail-under") && res.Validation.Metrics.OverallScore < qrFailUnder {
			return fmt.Errorf("overall score %.2f is below %.2f", res.Validation.Metrics.OverallScore, qrFailUnder)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(qualityReportCmd)
	addReadFlags(profileCmd)
	addReadFlags(validateCmd)
	addReadFlags(qualityReportCmd)
	qualityReportCmd.Flags().Float64Var(&qrFailUnder, "fail-under", 0, "exit with an error when the overall score is below this value")
	qualityReportCmd.Flags().BoolVar(&qrPrint, "print", true, "print the human-readable summary")
}
