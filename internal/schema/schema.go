package schema

import (
	"time"
	"unicode/utf8"

	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
)

// NumericBounds is an inclusive range; a nil side is unbounded.
type NumericBounds struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// LengthBounds is an inclusive rune-length range for text values.
type LengthBounds struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// TimeBounds is an inclusive timestamp range.
type TimeBounds struct {
	Min time.Time `yaml:"min" json:"min"`
	Max time.Time `yaml:"max" json:"max"`
}

// ColumnSchema is the learned shape of one column.
type ColumnSchema struct {
	Name     string         `yaml:"name" json:"name"`
	Kind     profile.Kind   `yaml:"kind" json:"kind"`
	Nullable bool           `yaml:"nullable" json:"nullable"`
	Numeric  *NumericBounds `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	Length   *LengthBounds  `yaml:"length,omitempty" json:"length,omitempty"`
	Temporal *TimeBounds    `yaml:"temporal,omitempty" json:"temporal,omitempty"`
	Pattern  string         `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Allowed  []string       `yaml:"allowed,omitempty" json:"allowed,omitempty"`
	Rules    []string       `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Schema is advisory metadata learned from one dataset.
type Schema struct {
	Dataset string         `yaml:"dataset" json:"dataset"`
	Columns []ColumnSchema `yaml:"columns" json:"columns"`
}

// Column returns the schema of a named column.
func (s *Schema) Column(name string) (ColumnSchema, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

// Infer derives a schema from t and its profiles. Rules are applied in table
// order after the observed bounds are set. It does not mutate its inputs.
func Infer(name string, t *table.Table, profiles profile.Profiles, rules []Rule) *Schema {
	s := &Schema{Dataset: name, Columns: make([]ColumnSchema, 0, len(profiles))}
	for _, p := range profiles {
		cs := ColumnSchema{Name: p.Name, Kind: p.Kind, Nullable: p.NullCount > 0}
		var cells []table.Value
		if j, ok := t.ColumnIndex(p.Name); ok {
			cells = t.Column(j)
		}
		switch p.Kind {
		case profile.Numeric:
			if p.Numeric != nil && p.Numeric.Min != nil {
				cs.Numeric = &NumericBounds{Min: f64(*p.Numeric.Min), Max: f64(*p.Numeric.Max)}
			}
		case profile.Temporal:
			if p.Temporal != nil {
				cs.Temporal = &TimeBounds{Min: p.Temporal.Min, Max: p.Temporal.Max}
			}
		case profile.Text, profile.Categorical:
			cs.Length = &LengthBounds{Min: 1, Max: maxLength(cells)}
			if p.Kind == profile.Categorical {
				cs.Allowed = distinctRaw(cells)
			}
		}
		for _, r := range MatchingRules(rules, p.Name, p.Kind) {
			applyRule(&cs, r)
			cs.Rules = append(cs.Rules, r.Name)
		}
		s.Columns = append(s.Columns, cs)
	}
	return s
}

func applyRule(cs *ColumnSchema, r Rule) {
	if r.Pattern != "" {
		cs.Pattern = r.Pattern
	}
	if r.Min == nil && r.Max == nil {
		return
	}
	if cs.Numeric == nil {
		cs.Numeric = &NumericBounds{}
	}
	b := cs.Numeric
	switch r.Bounds {
	case BoundClip:
		lo, hi := b.Min, b.Max
		if r.Min != nil && (lo == nil || *lo < *r.Min) {
			lo = r.Min
		}
		if r.Max != nil && (hi == nil || *hi > *r.Max) {
			hi = r.Max
		}
		if lo != nil && hi != nil && *lo > *hi {
			lo, hi = r.Min, r.Max
		}
		b.Min, b.Max = copyPtr(lo), copyPtr(hi)
	default:
		if r.Min != nil {
			b.Min = f64(*r.Min)
		}
		if r.Max != nil {
			b.Max = f64(*r.Max)
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			if r.Min != nil {
				b.Max = copyPtr(r.Max)
			} else {
				b.Min = nil
			}
		}
	}
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return f64(*p)
}

func maxLength(cells []table.Value) int {
	n := 1
	for _, v := range cells {
		if v.IsMissing() {
			continue
		}
		if l := utf8.RuneCountInString(v.Raw); l > n {
			n = l
		}
	}
	return n
}

func distinctRaw(cells []table.Value) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range cells {
		if v.IsMissing() {
			continue
		}
		if _, ok := seen[v.Raw]; ok {
			continue
		}
		seen[v.Raw] = struct{}{}
		out = append(out, v.Raw)
	}
	return out
}
