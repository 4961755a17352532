package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"github.com/KaramelBytes/dqcheck-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user config directory under $HOME.
const DirName = ".dqcheck"

// Global configuration structure.
type Global struct {
	// Artifact layout; empty dirs derive from OutputDir.
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	ValidationDir string `mapstructure:"validation_dir" yaml:"validation_dir,omitempty"`
	ProfileDir    string `mapstructure:"profile_dir" yaml:"profile_dir,omitempty"`
	ReportDir     string `mapstructure:"report_dir" yaml:"report_dir,omitempty"`
	SchemaDir     string `mapstructure:"schema_dir" yaml:"schema_dir,omitempty"`
	Format        string `mapstructure:"format" yaml:"format"`

	// Reading
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter,omitempty"`
	Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	Decimal   string `mapstructure:"decimal" yaml:"decimal,omitempty"`
	Thousands string `mapstructure:"thousands" yaml:"thousands,omitempty"`

	// Profiling and validation
	TopValues            int     `mapstructure:"top_values" yaml:"top_values"`
	CategoricalMaxUnique int     `mapstructure:"categorical_max_unique" yaml:"categorical_max_unique"`
	CategoricalMaxRatio  float64 `mapstructure:"categorical_max_ratio" yaml:"categorical_max_ratio"`
	IQRMultiplier        float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`

	// Recommendation thresholds (percent)
	ThresholdOverall      float64 `mapstructure:"threshold_overall" yaml:"threshold_overall"`
	ThresholdCompleteness float64 `mapstructure:"threshold_completeness" yaml:"threshold_completeness"`
	ThresholdUniqueness   float64 `mapstructure:"threshold_uniqueness" yaml:"threshold_uniqueness"`

	Workers   int    `mapstructure:"workers" yaml:"workers"`
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`

	// Logging and metrics
	SeqURL         string   `mapstructure:"seq_url" yaml:"seq_url,omitempty"`
	LogLevel       string   `mapstructure:"log_level" yaml:"log_level"`
	DatadogEnabled bool     `mapstructure:"datadog_enabled" yaml:"datadog_enabled"`
	DatadogTags    []string `mapstructure:"datadog_tags" yaml:"datadog_tags,omitempty"`

	// SchemaRules replaces the built-in keyword rules when non-empty.
	SchemaRules []schema.Rule `mapstructure:"schema_rules" yaml:"schema_rules,omitempty"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dqcheck/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DQCHECK")
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("validation_dir", "")
	v.SetDefault("profile_dir", "")
	v.SetDefault("report_dir", "")
	v.SetDefault("schema_dir", "")
	v.SetDefault("format", "yaml")
	v.SetDefault("delimiter", "")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("decimal", "")
	v.SetDefault("thousands", "")
	v.SetDefault("top_values", 10)
	v.SetDefault("categorical_max_unique", 50)
	v.SetDefault("categorical_max_ratio", 0.5)
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("threshold_overall", 70.0)
	v.SetDefault("threshold_completeness", 90.0)
	v.SetDefault("threshold_uniqueness", 95.0)
	v.SetDefault("workers", 4)
	v.SetDefault("history_db", "")
	v.SetDefault("seq_url", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("datadog_enabled", false)
	v.SetDefault("datadog_tags", []string{})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// the file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := schema.ValidateRules(c.SchemaRules); err != nil {
		return nil, fmt.Errorf("schema_rules: %w", err)
	}
	if c.HistoryDB == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.HistoryDB = filepath.Join(dir, "history.db")
	}
	return &c, nil
}

// Rules returns the configured schema rules or the built-in table.
func (c *Global) Rules() []schema.Rule {
	if len(c.SchemaRules) > 0 {
		return c.SchemaRules
	}
	return schema.DefaultRules
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, val string) error{
	"output_dir":     func(c *Global, v string) error { c.OutputDir = v; return nil },
	"validation_dir": func(c *Global, v string) error { c.ValidationDir = v; return nil },
	"profile_dir":    func(c *Global, v string) error { c.ProfileDir = v; return nil },
	"report_dir":     func(c *Global, v string) error { c.ReportDir = v; return nil },
	"schema_dir":     func(c *Global, v string) error { c.SchemaDir = v; return nil },
	"format": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "yaml", "yml":
			c.Format = "yaml"
		case "json":
			c.Format = "json"
		default:
			return fmt.Errorf("invalid format: %s (use yaml or json)", v)
		}
		return nil
	},
	"delimiter": func(c *Global, v string) error { c.Delimiter = v; return nil },
	"encoding":  func(c *Global, v string) error { c.Encoding = v; return nil },
	"decimal":   func(c *Global, v string) error { c.Decimal = v; return nil },
	"thousands": func(c *Global, v string) error { c.Thousands = v; return nil },
	"top_values": func(c *Global, v string) error {
		return setInt(&c.TopValues, "top_values", v, 1)
	},
	"categorical_max_unique": func(c *Global, v string) error {
		return setInt(&c.CategoricalMaxUnique, "categorical_max_unique", v, 1)
	},
	"categorical_max_ratio": func(c *Global, v string) error {
		return setFloat(&c.CategoricalMaxRatio, "categorical_max_ratio", v, 0, 1)
	},
	"iqr_multiplier": func(c *Global, v string) error {
		return setFloat(&c.IQRMultiplier, "iqr_multiplier", v, 0, 100)
	},
	"threshold_overall": func(c *Global, v string) error {
		return setFloat(&c.ThresholdOverall, "threshold_overall", v, 0, 100)
	},
	"threshold_completeness": func(c *Global, v string) error {
		return setFloat(&c.ThresholdCompleteness, "threshold_completeness", v, 0, 100)
	},
	"threshold_uniqueness": func(c *Global, v string) error {
		return setFloat(&c.ThresholdUniqueness, "threshold_uniqueness", v, 0, 100)
	},
	"workers": func(c *Global, v string) error {
		return setInt(&c.Workers, "workers", v, 1)
	},
	"history_db": func(c *Global, v string) error { c.HistoryDB = v; return nil },
	"seq_url":    func(c *Global, v string) error { c.SeqURL = v; return nil },
	"log_level": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", v)
	},
	"datadog_enabled": func(c *Global, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid bool for datadog_enabled: %v", v)
		}
		c.DatadogEnabled = b
		return nil
	},
	"datadog_tags": func(c *Global, v string) error { c.DatadogTags = splitCSV(v); return nil },
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	if key == "schema_rules" {
		return fmt.Errorf("schema_rules is a list; edit the config file instead")
	}
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	return set(c, val)
}

func setInt(dst *int, key, val string, lo int) error {
	i, err := strconv.Atoi(val)
	if err != nil || i < lo {
		return fmt.Errorf("invalid int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

func setFloat(dst *float64, key, val string, lo, hi float64) error {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < lo || f > hi {
		return fmt.Errorf("invalid float for %s: %v", key, val)
	}
	*dst = f
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
