package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind tags the concrete representation of a single cell.
type Kind uint8

const (
	Missing Kind = iota
	Number
	Text
	Time
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Number:
		return "number"
	case Text:
		return "text"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Value is one parsed cell. Raw always holds the trimmed source text; Num and
// Time are set only for the matching Kind.
type Value struct {
	Kind Kind
	Raw  string
	Num  float64
	Time time.Time
}

// IsMissing reports whether the cell carries no value.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// NumberValue builds a numeric cell.
func NumberValue(x float64) Value {
	return Value{Kind: Number, Raw: strconv.FormatFloat(x, 'g', -1, 64), Num: x}
}

// TextValue builds a text cell.
func TextValue(s string) Value {
	return Value{Kind: Text, Raw: s}
}

// TimeValue builds a timestamp cell.
func TimeValue(t time.Time) Value {
	return Value{Kind: Time, Raw: t.Format(time.RFC3339Nano), Time: t}
}

// MissingValue builds an empty cell.
func MissingValue() Value { return Value{Kind: Missing} }

// Key returns a canonical representation used for equality: two cells are
// the same value iff their keys are equal. Numbers compare by value, so "1"
// and "1.0" are equal.
func (v Value) Key() string {
	switch v.Kind {
	case Missing:
		return "m:"
	case Number:
		return "n:" + strconv.FormatFloat(v.Num, 'g', -1, 64)
	case Time:
		return "t:" + v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return "s:" + v.Raw
	}
}

// String renders the cell for display.
func (v Value) String() string {
	if v.Kind == Missing {
		return ""
	}
	return v.Raw
}

// rowKey joins cell keys with length prefixes so no two distinct rows
// collide.
func rowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		k := v.Key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// RowKey returns the canonical key of a full row tuple.
func RowKey(row []Value) string { return rowKey(row) }
