// Package synth generates deterministic tables that conform to a schema.
//
// Numeric columns are an evenly spaced grid over the column bounds, shuffled,
// so generated data never trips the IQR outlier check. Rows are distinct.
package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"github.com/KaramelBytes/dqcheck-cli/internal/stats"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
)

// ErrNoDistinctRows is returned when the schema cannot yield enough distinct
// rows.
var ErrNoDistinctRows = errors.New("cannot generate distinct rows")

// Options controls generation.
type Options struct {
	Rows int
	Seed uint64
	// NullRate is the chance of an empty cell in nullable columns.
	NullRate float64
}

// DefaultOptions returns 100 rows, seed 1, no nulls.
func DefaultOptions() Options {
	return Options{Rows: 100, Seed: 1}
}

const maxAttempts = 200

var (
	defaultTimeMin = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	defaultTimeMax = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	parser         = table.NewParser(table.DefaultParseOptions())
)

type column struct {
	cs      schema.ColumnSchema
	re      *regexp.Regexp
	allowed []string
	grid    []string
}

// Records generates the header and rows for s.
func Records(s *schema.Schema, opt Options) ([]string, [][]string, error) {
	if opt.Rows < 0 {
		return nil, nil, fmt.Errorf("rows must be >= 0, got %d", opt.Rows)
	}
	r := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	header := make([]string, len(s.Columns))
	cols := make([]column, len(s.Columns))
	for j, cs := range s.Columns {
		header[j] = cs.Name
		c := column{cs: cs}
		if cs.Pattern != "" {
			re, err := regexp.Compile(cs.Pattern)
			if err != nil {
				return nil, nil, fmt.Errorf("column %q: bad pattern: %w", cs.Name, err)
			}
			c.re = re
		}
		switch cs.Kind {
		case profile.Numeric:
			c.grid = numericGrid(cs.Numeric, opt.Rows, r)
		case profile.Categorical:
			c.allowed = textAllowed(cs.Allowed)
		}
		cols[j] = c
	}

	rows := make([][]string, 0, opt.Rows)
	seen := make(map[string]struct{}, opt.Rows)
	for i := 0; i < opt.Rows; i++ {
		row := make([]string, len(cols))
		for attempt := 0; ; attempt++ {
			if attempt == maxAttempts {
				return nil, nil, fmt.Errorf("%w: row %d after %d attempts", ErrNoDistinctRows, i+1, maxAttempts)
			}
			for j := range cols {
				v, err := cols[j].value(i, opt.NullRate, r)
				if err != nil {
					return nil, nil, err
				}
				row[j] = v
			}
			key := strings.Join(row, "\x1f")
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				break
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// Generate returns a table named after the schema dataset.
func Generate(s *schema.Schema, opt Options) (*table.Table, error) {
	header, rows, err := Records(s, opt)
	if err != nil {
		return nil, err
	}
	name := s.Dataset
	if name == "" {
		name = "synthetic"
	}
	return table.FromStrings(name, header, rows, table.DefaultParseOptions())
}

func (c *column) value(i int, nullRate float64, r *rand.Rand) (string, error) {
	if c.cs.Nullable && nullRate > 0 && r.Float64() < nullRate {
		return "", nil
	}
	switch c.cs.Kind {
	case profile.Numeric:
		return c.grid[i], nil
	case profile.Temporal:
		return timeValue(c.cs.Temporal, r), nil
	case profile.Categorical:
		if len(c.allowed) > 0 {
			return c.allowed[r.IntN(len(c.allowed))], nil
		}
	}
	return c.text(r)
}

// numericGrid spreads n values evenly over the bounds and shuffles them.
func numericGrid(b *schema.NumericBounds, n int, r *rand.Rand) []string {
	lo, hi := 0.0, 1000.0
	switch {
	case b == nil:
	case b.Min != nil && b.Max != nil:
		lo, hi = *b.Min, *b.Max
	case b.Min != nil:
		lo, hi = *b.Min, *b.Min+1000
	case b.Max != nil:
		lo, hi = *b.Max-1000, *b.Max
	}
	out := make([]string, n)
	for i := range out {
		x := lo
		if n > 1 {
			x = lo + float64(i)*(hi-lo)/float64(n-1)
		}
		x = stats.Round2(x)
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		out[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	r.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func timeValue(b *schema.TimeBounds, r *rand.Rand) string {
	lo, hi := defaultTimeMin, defaultTimeMax
	if b != nil {
		lo, hi = b.Min, b.Max
	}
	span := hi.Sub(lo)
	t := lo
	if span > 0 {
		t = lo.Add(time.Duration(r.Int64N(int64(span) + 1)))
	}
	return t.Format(time.RFC3339Nano)
}

// textAllowed keeps allowed values that parse as text, so the column stays
// single-typed; all of them when none do.
func textAllowed(allowed []string) []string {
	var out []string
	for _, a := range allowed {
		if parser.Parse(a).Kind == table.Text {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return allowed
	}
	return out
}

const letters = "abcdefghijklmnopqrstuvwxyz"

func (c *column) text(r *rand.Rand) (string, error) {
	lo, hi := 4, 12
	if b := c.cs.Length; b != nil {
		lo, hi = max(b.Min, 1), b.Max
	}
	if hi < lo {
		return "", fmt.Errorf("column %q: empty length range [%d, %d]", c.cs.Name, lo, hi)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var s string
		if c.re != nil && attempt%2 == 1 {
			s = email(lo, hi, r)
		} else {
			s = word(lo+r.IntN(hi-lo+1), r)
		}
		if s == "" || parser.Parse(s).Kind != table.Text {
			continue
		}
		if c.re == nil || c.re.MatchString(s) {
			return s, nil
		}
	}
	return "", fmt.Errorf("column %q: cannot generate values matching %s", c.cs.Name, c.cs.Pattern)
}

func word(n int, r *rand.Rand) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[r.IntN(len(letters))]
	}
	return string(b)
}

// email returns local@d.io with a total length in [lo, hi], or "" when the
// range cannot hold one.
func email(lo, hi int, r *rand.Rand) string {
	const suffix = 5 // "@" + one letter + ".io"
	lo = max(lo, suffix+1)
	if hi < lo {
		return ""
	}
	n := lo + r.IntN(hi-lo+1)
	return word(n-suffix, r) + "@" + word(1, r) + ".io"
}
