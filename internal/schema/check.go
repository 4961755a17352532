package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
)

// ViolationKind classifies a conformance failure.
type ViolationKind string

const (
	MissingColumn    ViolationKind = "missing_column"
	UnexpectedColumn ViolationKind = "unexpected_column"
	KindMismatch     ViolationKind = "kind_mismatch"
	UnexpectedNull   ViolationKind = "unexpected_null"
	OutOfRange       ViolationKind = "out_of_range"
	BadLength        ViolationKind = "length"
	PatternMismatch  ViolationKind = "pattern"
	NotAllowed       ViolationKind = "not_allowed"
)

// Violation is one failed constraint. Row is 1-based; 0 marks a column-level
// violation.
type Violation struct {
	Column  string        `yaml:"column" json:"column"`
	Row     int           `yaml:"row,omitempty" json:"row,omitempty"`
	Kind    ViolationKind `yaml:"kind" json:"kind"`
	Message string        `yaml:"message" json:"message"`
}

func (v Violation) String() string {
	if v.Row > 0 {
		return fmt.Sprintf("%s[row %d]: %s", v.Column, v.Row, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Column, v.Message)
}

// Check validates t against s. Violations are ordered by schema column, then
// row; columns present in t but not in s are reported last. Each cell yields
// at most one violation.
func (s *Schema) Check(t *table.Table) ([]Violation, error) {
	var out []Violation
	for _, cs := range s.Columns {
		j, ok := t.ColumnIndex(cs.Name)
		if !ok {
			out = append(out, Violation{Column: cs.Name, Kind: MissingColumn, Message: "column not found"})
			continue
		}
		var re *regexp.Regexp
		if cs.Pattern != "" {
			var err error
			if re, err = regexp.Compile(cs.Pattern); err != nil {
				return nil, fmt.Errorf("column %q: bad pattern: %w", cs.Name, err)
			}
		}
		var allowed map[string]struct{}
		if len(cs.Allowed) > 0 {
			allowed = make(map[string]struct{}, len(cs.Allowed))
			for _, a := range cs.Allowed {
				allowed[a] = struct{}{}
			}
		}
		for i, v := range t.Column(j) {
			kind, msg := checkCell(cs, v, re, allowed)
			if kind != "" {
				out = append(out, Violation{Column: cs.Name, Row: i + 1, Kind: kind, Message: msg})
			}
		}
	}
	for _, c := range t.Columns() {
		if _, ok := s.Column(c); !ok {
			out = append(out, Violation{Column: c, Kind: UnexpectedColumn, Message: "column not in schema"})
		}
	}
	return out, nil
}

func checkCell(cs ColumnSchema, v table.Value, re *regexp.Regexp, allowed map[string]struct{}) (ViolationKind, string) {
	if v.IsMissing() {
		if !cs.Nullable {
			return UnexpectedNull, "null in non-nullable column"
		}
		return "", ""
	}
	switch cs.Kind {
	case profile.Numeric:
		if v.Kind != table.Number {
			return KindMismatch, fmt.Sprintf("expected number, got %s %q", v.Kind, v.Raw)
		}
		if b := cs.Numeric; b != nil {
			if (b.Min != nil && v.Num < *b.Min) || (b.Max != nil && v.Num > *b.Max) {
				return OutOfRange, fmt.Sprintf("%s outside [%s, %s]", v.Raw, bound(b.Min, "-inf"), bound(b.Max, "+inf"))
			}
		}
	case profile.Temporal:
		if v.Kind != table.Time {
			return KindMismatch, fmt.Sprintf("expected timestamp, got %s %q", v.Kind, v.Raw)
		}
		if b := cs.Temporal; b != nil && (v.Time.Before(b.Min) || v.Time.After(b.Max)) {
			return OutOfRange, fmt.Sprintf("%s outside [%s, %s]", v.Raw,
				b.Min.Format("2006-01-02T15:04:05Z07:00"), b.Max.Format("2006-01-02T15:04:05Z07:00"))
		}
	default:
		if b := cs.Length; b != nil {
			if n := utf8.RuneCountInString(v.Raw); n < b.Min || n > b.Max {
				return BadLength, fmt.Sprintf("length %d outside [%d, %d]", n, b.Min, b.Max)
			}
		}
		if allowed != nil {
			if _, ok := allowed[v.Raw]; !ok {
				return NotAllowed, fmt.Sprintf("value %q not in allowed set", v.Raw)
			}
		}
	}
	if re != nil && !re.MatchString(v.Raw) {
		return PatternMismatch, fmt.Sprintf("value %q does not match %s", v.Raw, cs.Pattern)
	}
	return "", ""
}

func bound(p *float64, unbounded string) string {
	if p == nil {
		return unbounded
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}
