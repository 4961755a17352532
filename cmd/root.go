package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/dqcheck-cli/internal/config"
	"github.com/KaramelBytes/dqcheck-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	flagFormat string
	flagOutDir string
	noHistory  bool

	// Loaded configuration
	cfg *cfgpkg.Global

	logger      *slog.Logger
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "dqcheck",
	Short: "dqcheck: profile and validate tabular datasets",
	Long: `dqcheck profiles CSV/TSV/XLSX datasets, scores their completeness,
uniqueness and consistency, infers schemas and writes reproducible YAML or
JSON quality reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogger()
		closeLogger = func() {}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		closeLogger()
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dqcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "artifact format: yaml|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagOutDir, "out-dir", "", "artifact root directory (overrides config output_dir)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "do not record runs in the history database")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = applyFlagOverrides(c)
}

// applyFlagOverrides applies CLI overrides if provided.
func applyFlagOverrides(c *cfgpkg.Global) *cfgpkg.Global {
	f := rootCmd.PersistentFlags()
	if f.Changed("format") && flagFormat != "" {
		c.Format = flagFormat
	}
	if f.Changed("out-dir") && flagOutDir != "" {
		c.OutputDir = flagOutDir
	}
	return c
}

// loadedConfig returns the loaded configuration, loading it on first use.
func loadedConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = applyFlagOverrides(c)
	return cfg, nil
}

func setupLogging() {
	level, seqURL := "warn", ""
	if cfg != nil {
		level, seqURL = cfg.LogLevel, cfg.SeqURL
	}
	if debug {
		level = "debug"
	}
	logger, closeLogger = logging.SetupLogger(logging.Options{Level: level, SeqURL: seqURL})
	logger.Debug("config loaded", "config", cfgFile, "level", level)
}
