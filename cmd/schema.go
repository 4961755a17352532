package cmd

import (
	"fmt"

	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
	"github.com/KaramelBytes/dqcheck-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	schemaOutput   string
	schemaFile     string
	schemaMaxShown int
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Infer a dataset schema or check a dataset against one",
}

var schemaInferCmd = &cobra.Command{
	Use:   "infer <file>",
	Short: "Infer column kinds, bounds and rules from a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, c, err := runDataset(cmd, args[0], true)
		if err != nil {
			return err
		}
		var out string
		if schemaOutput != "" {
			b, err := res.Schema.Encode()
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(schemaOutput, b); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			out = schemaOutput
		} else {
			w, err := artifactWriter(c)
			if err != nil {
				return err
			}
			if out, err = w.WriteSchema(res.Path, res.Schema); err != nil {
				return err
			}
		}
		o := cmd.OutOrStdout()
		for _, cs := range res.Schema.Columns {
			line := fmt.Sprintf("  - %s: %s", cs.Name, cs.Kind)
			if cs.Nullable {
				line += " (nullable)"
			}
			if len(cs.Rules) > 0 {
				line += fmt.Sprintf(" rules=%v", cs.Rules)
			}
			fmt.Fprintln(o, line)
		}
		fmt.Fprintf(o, "✓ Wrote schema to %s\n", out)
		return nil
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check <file> --schema <schema.yaml>",
	Short: "Check a dataset against a schema; exits non-zero on violations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaFile == "" {
			return fmt.Errorf("--schema is required")
		}
		s, err := schema.Load(schemaFile)
		if err != nil {
			return err
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		opt, err := loadOptions(c)
		if err != nil {
			return err
		}
		t, err := table.Load(args[0], opt)
		if err != nil {
			return err
		}
		violations, err := s.Check(t)
		if err != nil {
			return err
		}
		o := cmd.OutOrStdout()
		if len(violations) == 0 {
			fmt.Fprintf(o, "✓ %s conforms to %s (%d rows)\n", args[0], schemaFile, t.NumRows())
			return nil
		}
		for i, v := range violations {
			if schemaMaxShown > 0 && i >= schemaMaxShown {
				fmt.Fprintf(o, "  ... and %d more\n", len(violations)-i)
				break
			}
			fmt.Fprintf(o, "✗ %s\n", v)
		}
		return fmt.Errorf("%d schema violations in %s", len(violations), args[0])
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaInferCmd)
	schemaCmd.AddCommand(schemaCheckCmd)
	addReadFlags(schemaInferCmd)
	addReadFlags(schemaCheckCmd)
	schemaInferCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "write the schema to this path instead of the schema directory")
	schemaCheckCmd.Flags().StringVar(&schemaFile, "schema", "", "schema file (YAML or JSON)")
	schemaCheckCmd.Flags().IntVar(&schemaMaxShown, "max-violations", 50, "maximum violations to print (0 = all)")
}
