package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
)

// MatchMode selects how a rule keyword is compared with a column name.
type MatchMode string

const (
	// MatchExact compares the whole lower-cased name.
	MatchExact MatchMode = "exact"
	// MatchToken compares against name tokens split on separators and
	// camelCase boundaries ("customerAge" -> customer, age).
	MatchToken MatchMode = "token"
	// MatchContains is a plain substring test.
	MatchContains MatchMode = "contains"
)

// BoundMode selects how rule bounds combine with observed bounds.
type BoundMode string

const (
	// BoundClip intersects observed bounds with the rule bounds; an empty
	// intersection falls back to the rule bounds.
	BoundClip BoundMode = "clip"
	// BoundOverride replaces whichever side the rule defines.
	BoundOverride BoundMode = "override"
)

// Rule maps a column-name keyword class to a constraint.
type Rule struct {
	Name     string         `yaml:"name" json:"name" mapstructure:"name"`
	Keywords []string       `yaml:"keywords" json:"keywords" mapstructure:"keywords"`
	Match    MatchMode      `yaml:"match" json:"match" mapstructure:"match"`
	Kinds    []profile.Kind `yaml:"kinds" json:"kinds" mapstructure:"kinds"`
	Bounds   BoundMode      `yaml:"bounds,omitempty" json:"bounds,omitempty" mapstructure:"bounds"`
	Min      *float64       `yaml:"min,omitempty" json:"min,omitempty" mapstructure:"min"`
	Max      *float64       `yaml:"max,omitempty" json:"max,omitempty" mapstructure:"max"`
	Pattern  string         `yaml:"pattern,omitempty" json:"pattern,omitempty" mapstructure:"pattern"`
}

func f64(x float64) *float64 { return &x }

// EmailPattern is the shape required of email-like columns.
const EmailPattern = `^[\w.-]+@[\w.-]+\.\w+$`

// DefaultRules is the built-in keyword table.
var DefaultRules = []Rule{
	{
		Name:     "age",
		Keywords: []string{"age", "years"},
		Match:    MatchToken,
		Kinds:    []profile.Kind{profile.Numeric},
		Bounds:   BoundClip,
		Min:      f64(0),
		Max:      f64(150),
	},
	{
		Name:     "price",
		Keywords: []string{"price", "cost", "amount"},
		Match:    MatchToken,
		Kinds:    []profile.Kind{profile.Numeric},
		Bounds:   BoundOverride,
		Min:      f64(0),
	},
	{
		Name:     "email",
		Keywords: []string{"email"},
		Match:    MatchContains,
		Kinds:    []profile.Kind{profile.Text, profile.Categorical},
		Pattern:  EmailPattern,
	},
}

// Validate reports a malformed rule.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule %q has no keywords", r.Name)
	}
	switch r.Match {
	case MatchExact, MatchToken, MatchContains:
	default:
		return fmt.Errorf("rule %q: unknown match mode %q", r.Name, r.Match)
	}
	switch r.Bounds {
	case "", BoundClip, BoundOverride:
	default:
		return fmt.Errorf("rule %q: unknown bounds mode %q", r.Name, r.Bounds)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("rule %q: min %v > max %v", r.Name, *r.Min, *r.Max)
	}
	if r.Pattern != "" {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("rule %q: bad pattern: %w", r.Name, err)
		}
	}
	return nil
}

// Matches reports whether the rule applies to a column of the given kind.
func (r Rule) Matches(column string, kind profile.Kind) bool {
	if len(r.Kinds) > 0 {
		ok := false
		for _, k := range r.Kinds {
			if k == kind {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	name := strings.ToLower(strings.TrimSpace(column))
	var toks []string
	if r.Match == MatchToken {
		toks = Tokens(column)
	}
	for _, kw := range r.Keywords {
		kw = strings.ToLower(kw)
		switch r.Match {
		case MatchExact:
			if name == kw {
				return true
			}
		case MatchContains:
			if strings.Contains(name, kw) {
				return true
			}
		default:
			for _, t := range toks {
				if t == kw {
					return true
				}
			}
		}
	}
	return false
}

// Tokens splits a column name into lower-case words on non-alphanumeric
// separators and lower-to-upper case transitions.
func Tokens(name string) []string {
	var toks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			toks = append(toks, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return toks
}

// MatchingRules returns the rules of rs that apply, in table order.
func MatchingRules(rs []Rule, column string, kind profile.Kind) []Rule {
	var out []Rule
	for _, r := range rs {
		if r.Matches(column, kind) {
			out = append(out, r)
		}
	}
	return out
}
