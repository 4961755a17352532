package table

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrFileNotFound indicates the input path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrUnsupportedFormat indicates no loader handles the file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// LoadError indicates the file exists and is supported but its content could
// not be parsed into a table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load error"
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadOptions controls file decoding and cell parsing.
type LoadOptions struct {
	Parse ParseOptions
	// Delimiter for delimited text. If 0, sniffed from the file name and the
	// header line among ',', ';', '\t', '|'.
	Delimiter rune
	// Encoding is a WHATWG label ("utf-8", "latin1", "windows-1250", ...).
	// Empty means UTF-8 with an optional byte order mark.
	Encoding string
	// SheetName selects an XLSX sheet by name (case-insensitive).
	SheetName string
	// SheetIndex is 1-based and used when SheetName is empty; <= 0 means the
	// first sheet.
	SheetIndex int
}

// DefaultLoadOptions returns loader defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Parse: DefaultParseOptions()}
}

// Loader reads one family of tabular file formats.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt LoadOptions) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Supported reports whether some registered loader handles path.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

// Load selects a loader by file extension and reads the whole table. It never
// returns a partially parsed table.
func Load(path string, opt LoadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errors.New("is a directory")}
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			t, err := l.Load(path, opt)
			if err != nil {
				var le *LoadError
				if errors.As(err, &le) {
					return nil, err
				}
				return nil, &LoadError{Path: path, Err: err}
			}
			return t, nil
		}
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = "(none)"
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.ToLower(ext))
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
