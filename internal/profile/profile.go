package profile

import (
	"time"
	"unicode/utf8"

	"github.com/KaramelBytes/dqcheck-cli/internal/stats"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	Numeric     Kind = "numeric"
	Text        Kind = "text"
	Temporal    Kind = "temporal"
	Categorical Kind = "categorical"
)

// Options controls profiling behavior. Zero fields take the defaults.
type Options struct {
	// TopN caps the frequency table for text and categorical columns.
	TopN int
	// A column that is neither numeric nor temporal is categorical when it has
	// at most CategoricalMaxUnique distinct values and the distinct/non-null
	// ratio is at most CategoricalMaxRatio; otherwise it is text.
	CategoricalMaxUnique int
	CategoricalMaxRatio  float64
}

// withDefaults fills zero or negative fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.CategoricalMaxUnique <= 0 {
		o.CategoricalMaxUnique = d.CategoricalMaxUnique
	}
	if o.CategoricalMaxRatio <= 0 {
		o.CategoricalMaxRatio = d.CategoricalMaxRatio
	}
	return o
}

// DefaultOptions returns profiler defaults.
func DefaultOptions() Options {
	return Options{TopN: 10, CategoricalMaxUnique: 50, CategoricalMaxRatio: 0.5}
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `yaml:"value" json:"value"`
	Count int    `yaml:"count" json:"count"`
}

// Quantiles holds the lower and upper quartile.
type Quantiles struct {
	Q25 *float64 `yaml:"q25" json:"q25"`
	Q75 *float64 `yaml:"q75" json:"q75"`
}

// NumericStats are nil when undefined (no data, or too few values for the
// estimator) so callers can tell them apart from a computed zero.
type NumericStats struct {
	Min       *float64  `yaml:"min" json:"min"`
	Max       *float64  `yaml:"max" json:"max"`
	Mean      *float64  `yaml:"mean" json:"mean"`
	Median    *float64  `yaml:"median" json:"median"`
	Std       *float64  `yaml:"std" json:"std"`
	Quantiles Quantiles `yaml:"quantiles" json:"quantiles"`
	Skewness  *float64  `yaml:"skewness" json:"skewness"`
	Kurtosis  *float64  `yaml:"kurtosis" json:"kurtosis"`
	MAD       *float64  `yaml:"mad" json:"mad"`
}

// TextStats describe text and categorical columns.
type TextStats struct {
	TopValues []ValueCount `yaml:"top_values" json:"top_values"`
	AvgLength float64      `yaml:"avg_length" json:"avg_length"`
}

// TemporalStats hold the observed time range.
type TemporalStats struct {
	Min time.Time `yaml:"min" json:"min"`
	Max time.Time `yaml:"max" json:"max"`
}

// ColumnProfile captures the inferred kind and statistics of one column.
type ColumnProfile struct {
	Name             string         `yaml:"-" json:"-"`
	Kind             Kind           `yaml:"kind" json:"kind"`
	NonNullCount     int            `yaml:"non_null_count" json:"non_null_count"`
	NullCount        int            `yaml:"null_count" json:"null_count"`
	NullPercentage   float64        `yaml:"null_percentage" json:"null_percentage"`
	UniqueCount      int            `yaml:"unique_count" json:"unique_count"`
	UniquePercentage float64        `yaml:"unique_percentage" json:"unique_percentage"`
	Numeric          *NumericStats  `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	Text             *TextStats     `yaml:"text,omitempty" json:"text,omitempty"`
	Temporal         *TemporalStats `yaml:"temporal,omitempty" json:"temporal,omitempty"`
}

// Profile computes a ColumnProfile for every column of t, in column order.
// It never fails: degenerate columns resolve to zero or undefined values.
func Profile(t *table.Table, opt Options) Profiles {
	out := make(Profiles, t.NumCols())
	for i, name := range t.Columns() {
		out[i] = Column(name, t.Column(i), opt)
	}
	return out
}

// Column profiles a single column's cells.
func Column(name string, cells []table.Value, opt Options) ColumnProfile {
	opt = opt.withDefaults()
	rows := len(cells)
	cp := ColumnProfile{Name: name}

	var (
		nums  []float64
		times []time.Time
		seen  = make(map[string]int)
		order []ValueCount
		runes int
	)
	for _, v := range cells {
		if v.IsMissing() {
			cp.NullCount++
			continue
		}
		cp.NonNullCount++
		runes += utf8.RuneCountInString(v.Raw)
		switch v.Kind {
		case table.Number:
			nums = append(nums, v.Num)
		case table.Time:
			times = append(times, v.Time)
		}
		k := v.Key()
		if i, ok := seen[k]; ok {
			order[i].Count++
			continue
		}
		seen[k] = len(order)
		order = append(order, ValueCount{Value: v.Raw, Count: 1})
	}
	cp.UniqueCount = len(order)
	cp.NullPercentage = stats.Round2(stats.Percent(cp.NullCount, rows))
	cp.UniquePercentage = stats.Round2(stats.Percent(cp.UniqueCount, rows))

	switch {
	case cp.NonNullCount == 0 || len(nums) == cp.NonNullCount:
		cp.Kind = Numeric
		cp.Numeric = numericStats(nums)
	case len(times) == cp.NonNullCount:
		cp.Kind = Temporal
		cp.Temporal = temporalStats(times)
	default:
		cp.Kind = Text
		if cp.UniqueCount <= opt.CategoricalMaxUnique &&
			float64(cp.UniqueCount)/float64(cp.NonNullCount) <= opt.CategoricalMaxRatio {
			cp.Kind = Categorical
		}
		cp.Text = &TextStats{
			TopValues: topValues(order, opt.TopN),
			AvgLength: stats.Round2(float64(runes) / float64(cp.NonNullCount)),
		}
	}
	return cp
}

func ptr(x float64) *float64 { return &x }

func numericStats(vals []float64) *NumericStats {
	ns := &NumericStats{}
	if len(vals) == 0 {
		return ns
	}
	sorted := stats.Sorted(vals)
	median, mad := stats.MedianMAD(sorted)
	ns.Min = ptr(sorted[0])
	ns.Max = ptr(sorted[len(sorted)-1])
	ns.Mean = ptr(stats.Mean(vals))
	ns.Median = ptr(median)
	ns.MAD = ptr(mad)
	ns.Quantiles = Quantiles{
		Q25: ptr(stats.Quantile(sorted, 0.25)),
		Q75: ptr(stats.Quantile(sorted, 0.75)),
	}
	if sd, ok := stats.SampleStd(vals); ok {
		ns.Std = ptr(sd)
	}
	if sk, ok := stats.Skewness(vals); ok {
		ns.Skewness = ptr(sk)
	}
	if ku, ok := stats.Kurtosis(vals); ok {
		ns.Kurtosis = ptr(ku)
	}
	return ns
}

func temporalStats(times []time.Time) *TemporalStats {
	ts := &TemporalStats{Min: times[0], Max: times[0]}
	for _, t := range times[1:] {
		if t.Before(ts.Min) {
			ts.Min = t
		}
		if t.After(ts.Max) {
			ts.Max = t
		}
	}
	return ts
}

// topValues sorts by count descending; the stable sort keeps first-seen order
// among ties.
func topValues(order []ValueCount, n int) []ValueCount {
	cp := append([]ValueCount(nil), order...)
	sortByCount(cp)
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
