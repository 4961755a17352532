package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
)

// Thresholds drive the recommendation rules.
type Thresholds struct {
	Overall      float64 `yaml:"overall" json:"overall" mapstructure:"overall"`
	Completeness float64 `yaml:"completeness" json:"completeness" mapstructure:"completeness"`
	Uniqueness   float64 `yaml:"uniqueness" json:"uniqueness" mapstructure:"uniqueness"`
}

// DefaultThresholds returns the standard acceptance levels.
func DefaultThresholds() Thresholds {
	return Thresholds{Overall: 70, Completeness: 90, Uniqueness: 95}
}

// Rule turns metrics into at most one recommendation.
type Rule struct {
	Name    string
	Applies func(m quality.Metrics, issues int, th Thresholds) bool
	Message func(th Thresholds) string
}

// Rules are evaluated in order.
var Rules = []Rule{
	{
		Name:    "cleaning",
		Applies: func(m quality.Metrics, _ int, th Thresholds) bool { return m.OverallScore < th.Overall },
		Message: func(th Thresholds) string {
			return fmt.Sprintf("Dataset quality is below acceptable threshold (%g%%). Consider data cleaning.", th.Overall)
		},
	},
	{
		Name:    "imputation",
		Applies: func(m quality.Metrics, _ int, th Thresholds) bool { return m.Completeness < th.Completeness },
		Message: func(Thresholds) string { return "High missing data detected. Consider imputation strategies." },
	},
	{
		Name:    "deduplication",
		Applies: func(m quality.Metrics, _ int, th Thresholds) bool { return m.Uniqueness < th.Uniqueness },
		Message: func(Thresholds) string { return "Duplicate records detected. Consider deduplication." },
	},
	{
		Name:    "resolve-issues",
		Applies: func(_ quality.Metrics, issues int, _ Thresholds) bool { return issues > 0 },
		Message: func(Thresholds) string { return "Address data quality issues before proceeding to analysis." },
	},
}

// Recommend applies Rules in order.
func Recommend(m quality.Metrics, issues []quality.Issue, th Thresholds) []string {
	var out []string
	for _, r := range Rules {
		if r.Applies(m, len(issues), th) {
			out = append(out, r.Message(th))
		}
	}
	return out
}

// QualityReport is the immutable aggregate for one dataset. Accessors return
// copies.
type QualityReport struct {
	source          string
	profiles        profile.Profiles
	metrics         quality.Metrics
	issues          []quality.Issue
	recommendations []string
}

// Aggregate builds a report. It is pure: identical inputs yield identical
// reports, and the inputs are copied.
func Aggregate(source string, profiles profile.Profiles, metrics quality.Metrics, issues []quality.Issue, th Thresholds) *QualityReport {
	return &QualityReport{
		source:          source,
		profiles:        profiles.Clone(),
		metrics:         metrics,
		issues:          append([]quality.Issue(nil), issues...),
		recommendations: Recommend(metrics, issues, th),
	}
}

// Source identifies the dataset the report describes.
func (r *QualityReport) Source() string { return r.source }

// Profiles returns a copy of the column profiles.
func (r *QualityReport) Profiles() profile.Profiles { return r.profiles.Clone() }

// Metrics returns the dataset-level scores.
func (r *QualityReport) Metrics() quality.Metrics { return r.metrics }

// Issues returns a copy of the detected issues.
func (r *QualityReport) Issues() []quality.Issue { return append([]quality.Issue(nil), r.issues...) }

// Recommendations returns the triggered recommendations in rule order.
func (r *QualityReport) Recommendations() []string { return append([]string(nil), r.recommendations...) }

// Cols is the number of profiled columns.
func (r *QualityReport) Cols() int { return len(r.profiles) }

// Rows is derived from the first column's counts; 0 without columns.
func (r *QualityReport) Rows() int {
	if len(r.profiles) == 0 {
		return 0
	}
	return r.profiles[0].NonNullCount + r.profiles[0].NullCount
}

// Summary renders the human-readable text report.
func (r *QualityReport) Summary() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows()))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", r.Cols()))

	m := r.metrics
	b.WriteString("[QUALITY METRICS]\n")
	b.WriteString(fmt.Sprintf("Completeness: %.2f%%\n", m.Completeness))
	b.WriteString(fmt.Sprintf("Uniqueness: %.2f%%\n", m.Uniqueness))
	b.WriteString(fmt.Sprintf("Consistency: %.2f%%\n", m.Consistency))
	b.WriteString(fmt.Sprintf("Overall score: %.2f%%\n\n", m.OverallScore))

	if len(r.profiles) > 0 {
		b.WriteString("[SCHEMA]\n")
		for _, c := range r.profiles {
			b.WriteString(columnLine(c))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("[ISSUES]\n")
	if len(r.issues) == 0 {
		b.WriteString("- none\n")
	}
	for _, is := range r.issues {
		b.WriteString(fmt.Sprintf("- %s\n", is.Message))
	}

	if len(r.recommendations) > 0 {
		b.WriteString("\n[RECOMMENDATIONS]\n")
		for _, rec := range r.recommendations {
			b.WriteString(fmt.Sprintf("- %s\n", rec))
		}
	}
	return b.String()
}

func columnLine(c profile.ColumnProfile) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)",
		safeName(c.Name), c.Kind, c.NonNullCount, c.NullPercentage, c.UniqueCount))
	switch {
	case c.Numeric != nil && c.Numeric.Min != nil:
		ns := c.Numeric
		b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, median %.4g", *ns.Min, *ns.Max, *ns.Mean, *ns.Median))
		if ns.Std != nil {
			b.WriteString(fmt.Sprintf(", std %.4g", *ns.Std))
		}
	case c.Text != nil && len(c.Text.TopValues) > 0:
		b.WriteString("; top: ")
		for i, kv := range c.Text.TopValues {
			if i >= 5 {
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
		}
	case c.Temporal != nil:
		b.WriteString(fmt.Sprintf("; %s to %s", c.Temporal.Min.Format("2006-01-02"), c.Temporal.Max.Format("2006-01-02")))
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
