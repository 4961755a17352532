package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/dqcheck-cli/internal/artifact"
	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	abWorkers int
	abQuiet   bool
	abSchema  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <files or globs...>",
	Short: "Write quality reports for many datasets concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		opt, err := pipelineOptions(c, abSchema)
		if err != nil {
			return err
		}
		w, err := artifactWriter(c)
		if err != nil {
			return err
		}
		workers := c.Workers
		if abWorkers > 0 {
			workers = abWorkers
		}
		ctx := cmd.Context()
		obs, flush := newObserver(ctx, c)
		defer flush()

		items := pipeline.RunBatch(ctx, files, workers, opt, obs)

		o := cmd.OutOrStdout()
		total := len(items)
		var done []*pipeline.Result
		failed := 0
		for i, it := range items {
			if it.Err == nil {
				it.Err = writeBatchArtifacts(w, it.Result)
			}
			if it.Err != nil {
				failed++
				fmt.Fprintf(o, "[%d/%d] ✗ %s: %v\n", i+1, total, filepath.Base(it.Path), it.Err)
				continue
			}
			done = append(done, it.Result)
			if !abQuiet {
				fmt.Fprintf(o, "[%d/%d] ✓ %s: overall %.2f%%, %d issues\n", i+1, total,
					filepath.Base(it.Path), it.Result.Validation.Metrics.OverallScore, len(it.Result.Validation.Issues))
			}
		}
		recordHistory(ctx, c, done...)
		if failed > 0 {
			return fmt.Errorf("%d of %d datasets failed", failed, total)
		}
		if !abQuiet {
			fmt.Fprintf(o, "✓ Wrote reports for %d datasets under %s\n", total, w.Layout.ReportDir)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths, drops directories and
// duplicates and sorts.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 && !strings.ContainsAny(arg, "*?[") {
			// literal path; a missing file fails as its own dataset
			matches = []string{arg}
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func writeBatchArtifacts(w *artifact.Writer, res *pipeline.Result) error {
	if _, err := w.WriteValidation(res); err != nil {
		return err
	}
	if _, err := w.WriteProfile(res); err != nil {
		return err
	}
	if res.Schema != nil {
		if _, err := w.WriteSchema(res.Path, res.Schema); err != nil {
			return err
		}
	}
	_, err := w.WriteQuality(res)
	return err
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addReadFlags(batchCmd)
	batchCmd.Flags().IntVarP(&abWorkers, "workers", "j", 0, "concurrent datasets (overrides config workers)")
	batchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	batchCmd.Flags().BoolVar(&abSchema, "infer-schema", false, "also infer and write a schema per dataset")
}
