package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultMissingTokens mirrors the NA markers recognized by common dataframe
// readers.
var DefaultMissingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

// DefaultTimeLayouts are tried in order when a cell is not numeric.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"02/01/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// ParseOptions controls how raw text becomes typed cells.
type ParseOptions struct {
	// MissingTokens are exact (post-trim) markers treated as missing.
	MissingTokens []string
	// Numeric parsing locale. If DecimalSeparator is 0 values are parsed as
	// plain Go floats; otherwise thousands separators are stripped first.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// TimeLayouts are tried in order; nil uses DefaultTimeLayouts.
	TimeLayouts []string
}

// DefaultParseOptions returns the reader defaults.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MissingTokens: DefaultMissingTokens}
}

// Parser turns raw cell text into typed values. It is read-only after
// construction and safe for concurrent use.
type Parser struct {
	opt     ParseOptions
	missing map[string]struct{}
}

// NewParser compiles opt into a Parser.
func NewParser(opt ParseOptions) *Parser {
	p := &Parser{opt: opt, missing: make(map[string]struct{}, len(opt.MissingTokens))}
	for _, tok := range opt.MissingTokens {
		p.missing[tok] = struct{}{}
	}
	return p
}

func (p *Parser) isMissing(s string) bool {
	if s == "" {
		return true
	}
	_, ok := p.missing[s]
	return ok
}

// Parse classifies a raw cell as missing, number, time or text.
func (p *Parser) Parse(raw string) Value {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if p.isMissing(s) {
		return Value{Kind: Missing}
	}
	if x, ok := parseNumeric(s, p.opt); ok {
		return Value{Kind: Number, Raw: s, Num: x}
	}
	if t, ok := parseTimeMaybe(s, p.opt.TimeLayouts); ok {
		return Value{Kind: Time, Raw: s, Time: t}
	}
	return Value{Kind: Text, Raw: s}
}

// ParseValue parses a single cell with opt.
func ParseValue(raw string, opt ParseOptions) Value {
	return NewParser(opt).Parse(raw)
}

func parseTimeMaybe(s string, layouts []string) (time.Time, bool) {
	if layouts == nil {
		layouts = DefaultTimeLayouts
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumeric(s string, opt ParseOptions) (float64, bool) {
	raw := s
	if opt.DecimalSeparator != 0 {
		dec := opt.DecimalSeparator
		thou := opt.ThousandsSeparator
		if thou != 0 && thou != dec {
			raw = strings.ReplaceAll(raw, string(thou), "")
		}
		if dec != '.' {
			if strings.Contains(raw, ".") {
				return 0, false
			}
			raw = strings.ReplaceAll(raw, string(dec), ".")
		}
	}
	// Reject hex/underscore forms strconv would otherwise accept.
	if strings.ContainsAny(raw, "xX_pP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
