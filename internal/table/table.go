package table

import (
	"fmt"
	"strings"
)

// Table is an immutable, in-memory dataset: an ordered sequence of rows over
// a fixed, ordered set of uniquely named columns.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a Table from positional rows. Every row must have exactly one
// cell per column and column names must be unique. Inputs are copied.
func New(name string, columns []string, rows [][]Value) (*Table, error) {
	t := &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]Value, len(rows)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c)
		}
		t.index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i+1, len(r), len(columns))
		}
		t.rows[i] = append([]Value(nil), r...)
	}
	return t, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(name string, columns []string, rows [][]Value) *Table {
	t, err := New(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// FromStrings parses raw records against a header. Header names are
// normalized (blank names become "Unnamed: i", repeats get ".1", ".2"
// suffixes). Short records are padded with missing cells; long records are
// rejected.
func FromStrings(name string, header []string, records [][]string, opt ParseOptions) (*Table, error) {
	cols := normalizeHeader(header)
	p := NewParser(opt)
	rows := make([][]Value, 0, len(records))
	for i, rec := range records {
		if len(rec) > len(cols) {
			if !trailingBlank(rec[len(cols):]) {
				return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rec), len(cols))
			}
			rec = rec[:len(cols)]
		}
		row := make([]Value, len(cols))
		for j := range cols {
			if j < len(rec) {
				row[j] = p.Parse(rec[j])
			} else {
				row[j] = Value{Kind: Missing}
			}
		}
		rows = append(rows, row)
	}
	t := &Table{name: name, columns: cols, index: make(map[string]int, len(cols)), rows: rows}
	for i, c := range cols {
		t.index[c] = i
	}
	return t, nil
}

func trailingBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for {
			if _, ok := seen[name]; !ok {
				break
			}
			suffix[base]++
			name = fmt.Sprintf("%s.%d", base, suffix[base])
		}
		seen[name] = struct{}{}
		cols[i] = name
	}
	return cols
}

// Name identifies the dataset (usually the source file name).
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// NumRows is the derived row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols is the derived column count.
func (t *Table) NumCols() int { return len(t.columns) }

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the value at (row, col).
func (t *Table) Cell(row, col int) Value { return t.rows[row][col] }

// Column returns a copy of one column's cells.
func (t *Table) Column(col int) []Value {
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[col]
	}
	return out
}

// RowValues returns a copy of one row's cells in column order.
func (t *Table) RowValues(i int) []Value { return append([]Value(nil), t.rows[i]...) }

// Row returns one row as a column-name to value mapping.
func (t *Table) Row(i int) map[string]Value {
	m := make(map[string]Value, len(t.columns))
	for j, c := range t.columns {
		m[c] = t.rows[i][j]
	}
	return m
}
