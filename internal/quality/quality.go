package quality

import (
	"fmt"

	"github.com/KaramelBytes/dqcheck-cli/internal/stats"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
)

// Category tags an Issue.
type Category string

const (
	MissingValues Category = "missing_values"
	Duplicates    Category = "duplicates"
	MixedTypes    Category = "mixed_types"
	Outliers      Category = "outliers"
)

// Issue is one human-readable finding.
type Issue struct {
	Category Category `yaml:"category" json:"category"`
	Column   string   `yaml:"column,omitempty" json:"column,omitempty"`
	Count    int      `yaml:"count" json:"count"`
	Message  string   `yaml:"message" json:"message"`
}

// Metrics are percentages in [0,100] rounded to two decimals.
type Metrics struct {
	Completeness float64 `yaml:"completeness" json:"completeness"`
	Uniqueness   float64 `yaml:"uniqueness" json:"uniqueness"`
	Consistency  float64 `yaml:"consistency" json:"consistency"`
	OverallScore float64 `yaml:"overall_score" json:"overall_score"`
}

// NewMetrics rounds the three component metrics and derives the overall
// score as their mean.
func NewMetrics(completeness, uniqueness, consistency float64) Metrics {
	m := Metrics{
		Completeness: stats.Round2(completeness),
		Uniqueness:   stats.Round2(uniqueness),
		Consistency:  stats.Round2(consistency),
	}
	m.OverallScore = stats.Round2((m.Completeness + m.Uniqueness + m.Consistency) / 3)
	return m
}

// Stats are the raw counts behind the metrics.
type Stats struct {
	TotalCells          int            `yaml:"total_cells" json:"total_cells"`
	MissingCells        int            `yaml:"missing_cells" json:"missing_cells"`
	DuplicateRows       int            `yaml:"duplicate_rows" json:"duplicate_rows"`
	InconsistentColumns []string       `yaml:"inconsistent_columns" json:"inconsistent_columns"`
	Outliers            map[string]int `yaml:"outliers" json:"outliers"`
}

// Result is the validator output for one table.
type Result struct {
	Metrics Metrics
	Issues  []Issue
	Stats   Stats
}

// Options controls validation.
type Options struct {
	// IQRMultiplier is k in [Q1 - k*IQR, Q3 + k*IQR].
	IQRMultiplier float64
}

// DefaultOptions returns validator defaults.
func DefaultOptions() Options {
	return Options{IQRMultiplier: 1.5}
}

// Validate computes completeness, uniqueness and consistency of t and the
// ordered issue list: missing values, duplicates, mixed types in column
// order, then outliers in column order. It never fails.
func Validate(t *table.Table, opt Options) Result {
	if opt.IQRMultiplier <= 0 {
		opt.IQRMultiplier = DefaultOptions().IQRMultiplier
	}
	rows, cols := t.NumRows(), t.NumCols()
	st := Stats{TotalCells: rows * cols, Outliers: map[string]int{}}
	names := t.Columns()

	var mixed, outliers []Issue
	for j, name := range names {
		var nums []float64
		kinds := map[table.Kind]bool{}
		for _, v := range t.Column(j) {
			if v.IsMissing() {
				st.MissingCells++
				continue
			}
			kinds[v.Kind] = true
			if v.Kind == table.Number {
				nums = append(nums, v.Num)
			}
		}
		if len(kinds) > 1 {
			st.InconsistentColumns = append(st.InconsistentColumns, name)
			mixed = append(mixed, Issue{
				Category: MixedTypes,
				Column:   name,
				Count:    len(kinds),
				Message:  fmt.Sprintf("Mixed data types in column '%s'", name),
			})
			continue
		}
		if len(nums) == 0 {
			continue
		}
		sorted := stats.Sorted(nums)
		lo, hi := stats.IQRFences(sorted, opt.IQRMultiplier)
		if n := stats.CountOutside(sorted, lo, hi); n > 0 {
			st.Outliers[name] = n
			outliers = append(outliers, Issue{
				Category: Outliers,
				Column:   name,
				Count:    n,
				Message:  fmt.Sprintf("Outliers in '%s': %d values", name, n),
			})
		}
	}

	seen := make(map[string]struct{}, rows)
	for i := 0; i < rows; i++ {
		k := table.RowKey(t.RowValues(i))
		if _, dup := seen[k]; dup {
			st.DuplicateRows++
			continue
		}
		seen[k] = struct{}{}
	}

	completeness, uniqueness, consistency := 100.0, 100.0, 100.0
	if st.TotalCells > 0 {
		completeness = stats.Percent(st.TotalCells-st.MissingCells, st.TotalCells)
	}
	if rows > 0 {
		uniqueness = stats.Percent(rows-st.DuplicateRows, rows)
	}
	if cols > 0 {
		consistency = stats.Percent(cols-len(st.InconsistentColumns), cols)
	}

	var issues []Issue
	if st.MissingCells > 0 {
		issues = append(issues, Issue{
			Category: MissingValues,
			Count:    st.MissingCells,
			Message: fmt.Sprintf("Missing values: %d cells (%.1f%%)",
				st.MissingCells, stats.Percent(st.MissingCells, st.TotalCells)),
		})
	}
	if st.DuplicateRows > 0 {
		issues = append(issues, Issue{
			Category: Duplicates,
			Count:    st.DuplicateRows,
			Message:  fmt.Sprintf("Duplicate rows: %d", st.DuplicateRows),
		})
	}
	issues = append(issues, mixed...)
	issues = append(issues, outliers...)

	return Result{
		Metrics: NewMetrics(completeness, uniqueness, consistency),
		Issues:  issues,
		Stats:   st,
	}
}
