package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/dqcheck-cli/internal/artifact"
	cfgpkg "github.com/KaramelBytes/dqcheck-cli/internal/config"
	"github.com/KaramelBytes/dqcheck-cli/internal/history"
	ddmetrics "github.com/KaramelBytes/dqcheck-cli/internal/metrics/datadog"
	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
	"github.com/KaramelBytes/dqcheck-cli/internal/report"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
	"github.com/spf13/cobra"
)

// Reading flags shared by every command that loads a dataset.
var (
	readDelimiter  string
	readEncoding   string
	readDecimal    string
	readThousands  string
	readSheetName  string
	readSheetIndex int
)

func addReadFlags(c *cobra.Command) {
	c.Flags().StringVar(&readDelimiter, "delimiter", "", "CSV delimiter override: ',' | ';' | '|' | 'tab'")
	c.Flags().StringVar(&readEncoding, "encoding", "", "input character set (e.g. utf-8, latin1, windows-1252)")
	c.Flags().StringVar(&readDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	c.Flags().StringVar(&readThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	c.Flags().StringVar(&readSheetName, "sheet-name", "", "XLSX: sheet name to analyze (defaults to first sheet)")
	c.Flags().IntVar(&readSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (ignored if --sheet-name is provided)")
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
	}
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadOptions merges config and reading flags.
func loadOptions(c *cfgpkg.Global) (table.LoadOptions, error) {
	opt := table.DefaultLoadOptions()
	var err error
	if opt.Delimiter, err = parseDelimiter(firstNonEmpty(readDelimiter, c.Delimiter)); err != nil {
		return opt, err
	}
	if opt.Parse.DecimalSeparator, err = parseDecimal(firstNonEmpty(readDecimal, c.Decimal)); err != nil {
		return opt, err
	}
	if opt.Parse.ThousandsSeparator, err = parseThousands(firstNonEmpty(readThousands, c.Thousands)); err != nil {
		return opt, err
	}
	if opt.Parse.ThousandsSeparator != 0 && opt.Parse.DecimalSeparator == 0 {
		opt.Parse.DecimalSeparator = '.'
	}
	if opt.Parse.DecimalSeparator != 0 && opt.Parse.DecimalSeparator == opt.Parse.ThousandsSeparator {
		return opt, fmt.Errorf("decimal and thousands separators must differ")
	}
	opt.Encoding = firstNonEmpty(readEncoding, c.Encoding)
	opt.SheetName = readSheetName
	opt.SheetIndex = readSheetIndex
	return opt, nil
}

// pipelineOptions builds run options from the configuration.
func pipelineOptions(c *cfgpkg.Global, inferSchema bool) (pipeline.Options, error) {
	load, err := loadOptions(c)
	if err != nil {
		return pipeline.Options{}, err
	}
	opt := pipeline.DefaultOptions()
	opt.Load = load
	opt.Profile = profile.Options{
		TopN:                 c.TopValues,
		CategoricalMaxUnique: c.CategoricalMaxUnique,
		CategoricalMaxRatio:  c.CategoricalMaxRatio,
	}
	opt.Quality = quality.Options{IQRMultiplier: c.IQRMultiplier}
	opt.Thresholds = report.Thresholds{
		Overall:      c.ThresholdOverall,
		Completeness: c.ThresholdCompleteness,
		Uniqueness:   c.ThresholdUniqueness,
	}
	opt.InferSchema = inferSchema
	opt.Rules = c.Rules()
	return opt, nil
}

// artifactWriter returns a writer for the configured layout and format.
func artifactWriter(c *cfgpkg.Global) (*artifact.Writer, error) {
	format, err := artifact.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	layout := artifact.DefaultLayout(outputRoot(c))
	if c.ValidationDir != "" {
		layout.ValidationDir = c.ValidationDir
	}
	if c.ProfileDir != "" {
		layout.ProfileDir = c.ProfileDir
	}
	if c.ReportDir != "" {
		layout.ReportDir = c.ReportDir
	}
	if c.SchemaDir != "" {
		layout.SchemaDir = c.SchemaDir
	}
	return artifact.NewWriter(layout, format), nil
}

// newObserver wires pipeline events to the logger and, when enabled, to
// Datadog. The returned func flushes pending metrics.
func newObserver(ctx context.Context, c *cfgpkg.Global) (pipeline.Observer, func()) {
	obs := pipeline.Observers{pipeline.NewLoggingObserver(logger)}
	if !c.DatadogEnabled {
		return obs, func() {}
	}
	pub := ddmetrics.NewPublisher(ctx, ddmetrics.Options{Tags: c.DatadogTags})
	obs = append(obs, pub)
	return obs, func() {
		if err := pub.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: datadog: %v\n", err)
		}
	}
}

// recordHistory stores completed runs. Failures only warn: history is a
// convenience and must not fail an otherwise good run.
func recordHistory(ctx context.Context, c *cfgpkg.Global, results ...*pipeline.Result) {
	if noHistory || c.HistoryDB == "" || len(results) == 0 {
		return
	}
	store, err := history.Open(ctx, c.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		return
	}
	defer store.Close()
	for _, res := range results {
		if res == nil {
			continue
		}
		if err := store.Record(ctx, history.FromResult(res)); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		}
	}
}

// runDataset executes the pipeline for one file with config, observer and
// history wired in.
func runDataset(cmd *cobra.Command, path string, inferSchema bool) (*pipeline.Result, *cfgpkg.Global, error) {
	c, err := loadedConfig()
	if err != nil {
		return nil, nil, err
	}
	opt, err := pipelineOptions(c, inferSchema)
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	obs, flush := newObserver(ctx, c)
	defer flush()
	res, err := pipeline.Run(ctx, path, opt, obs)
	if err != nil {
		return nil, nil, err
	}
	recordHistory(ctx, c, res)
	return res, c, nil
}
