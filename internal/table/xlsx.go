package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	return hasExt(path, ".xlsx", ".xlsm")
}

// Load reads the selected sheet; the first row is the header. If
// opt.SheetName is empty and opt.SheetIndex <= 0 the first sheet is used.
func (xlsxLoader) Load(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet, err := pickSheet(sheets, opt.SheetName, opt.SheetIndex, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	// Raw values keep numbers unformatted and dates as serials.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
	}
	name := filepath.Base(path)
	if opt.SheetName != "" || opt.SheetIndex > 1 {
		name = fmt.Sprintf("%s (sheet: %s)", name, sheet)
	}
	if len(rows) == 0 {
		return New(name, nil, nil)
	}
	// Stored numbers always use '.' and no grouping.
	parse := opt.Parse
	parse.DecimalSeparator, parse.ThousandsSeparator = 0, 0
	t, err := FromStrings(name, rows[0], rows[1:], parse)
	if err != nil {
		return nil, err
	}
	if err := applyDateStyles(f, sheet, t); err != nil {
		return nil, err
	}
	return t, nil
}

// applyDateStyles turns numeric cells whose number format is a date or time
// into Time values.
func applyDateStyles(f *excelize.File, sheet string, t *Table) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	isDate := map[int]bool{}
	for i, row := range t.rows {
		for j, v := range row {
			if v.Kind != Number {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			idx, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return fmt.Errorf("style of %s: %w", cell, err)
			}
			dated, ok := isDate[idx]
			if !ok {
				dated = styleIsDate(f, idx)
				isDate[idx] = dated
			}
			if !dated {
				continue
			}
			tm, err := excelize.ExcelDateToTime(v.Num, date1904)
			if err != nil {
				continue
			}
			row[j] = TimeValue(tm)
		}
	}
	return nil
}

func styleIsDate(f *excelize.File, idx int) bool {
	if idx == 0 {
		return false
	}
	st, err := f.GetStyle(idx)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return isDateFormatCode(*st.CustomNumFmt)
	}
	return builtinDateFormat(st.NumFmt)
}

// builtinDateFormat reports whether a built-in number format id renders a
// date or time.
func builtinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code has date or time
// tokens outside quoted literals, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	code = strings.ToLower(code)
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			for i++; i < len(code) && code[i] != '"'; i++ {
			}
		case '\\', '_', '*':
			i++
		case '[':
			for i++; i < len(code) && code[i] != ']'; i++ {
			}
		case 'y', 'm', 'd', 'h', 's':
			return true
		}
	}
	return false
}

func pickSheet(sheets []string, name string, index int, book string) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			name, book, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range: workbook '%s' has %d sheet(s)", index, book, len(sheets))
	}
	return sheets[index-1], nil
}
