package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"github.com/KaramelBytes/dqcheck-cli/internal/utils"
	"gopkg.in/yaml.v3"
)

// Format selects the artifact encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts yaml, yml or json (case-insensitive); empty means yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want yaml or json)", s)
	}
}

func (f Format) ext() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".yaml"
}

// Layout holds the destination directory of each artifact kind.
type Layout struct {
	ValidationDir string
	ProfileDir    string
	ReportDir     string
	SchemaDir     string
}

// DefaultLayout places artifacts under root using the data project layout.
func DefaultLayout(root string) Layout {
	return Layout{
		ValidationDir: filepath.Join(root, "02_intermediate", "021_validated"),
		ProfileDir:    filepath.Join(root, "02_intermediate", "022_profiled"),
		ReportDir:     filepath.Join(root, "08_reporting"),
		SchemaDir:     filepath.Join(root, "02_intermediate", "023_schemas"),
	}
}

// Writer persists artifacts. It is safe for concurrent use. Within one Writer
// two different sources with the same file stem get distinct stems
// (stem, stem__2, ...); writing the same source again overwrites.
type Writer struct {
	Layout Layout
	Format Format
	// Now stamps documents; nil means time.Now.
	Now func() time.Time

	mu    sync.Mutex
	stems map[string]string
	taken map[string]bool
}

// NewWriter returns a Writer for layout and format.
func NewWriter(layout Layout, format Format) *Writer {
	return &Writer{Layout: layout, Format: format}
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// stem reserves a collision-free stem for source.
func (w *Writer) stem(source string) string {
	key := filepath.Clean(source)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stems == nil {
		w.stems = map[string]string{}
		w.taken = map[string]bool{}
	}
	if s, ok := w.stems[key]; ok {
		return s
	}
	base := utils.Stem(key)
	if base == "" || base == "." {
		base = "dataset"
	}
	cand := base
	for idx := 2; w.taken[cand]; idx++ {
		cand = fmt.Sprintf("%s__%d", base, idx)
	}
	w.taken[cand] = true
	w.stems[key] = cand
	return cand
}

func (w *Writer) encode(v any) ([]byte, error) {
	if w.Format == FormatJSON {
		return utils.PrettyJSON(v)
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

func (w *Writer) write(dir, source, suffix string, v any) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("no output directory for %s artifact", strings.TrimPrefix(suffix, "_"))
	}
	b, err := w.encode(v)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, w.stem(source)+suffix+w.Format.ext())
	if err := utils.SafeWriteFile(out, b); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

// WriteValidation writes <stem>_validation_report.<ext>.
func (w *Writer) WriteValidation(res *pipeline.Result) (string, error) {
	return w.write(w.Layout.ValidationDir, res.Path, "_validation_report", NewValidationDocument(res, w.now()))
}

// WriteProfile writes <stem>_profile.<ext>.
func (w *Writer) WriteProfile(res *pipeline.Result) (string, error) {
	return w.write(w.Layout.ProfileDir, res.Path, "_profile", NewProfileDocument(res, w.now()))
}

// WriteQuality writes <stem>_quality_report.<ext>.
func (w *Writer) WriteQuality(res *pipeline.Result) (string, error) {
	return w.write(w.Layout.ReportDir, res.Path, "_quality_report", NewQualityDocument(res, w.now()))
}

// WriteSchema writes <stem>_schema.<ext> for the dataset at source.
func (w *Writer) WriteSchema(source string, s *schema.Schema) (string, error) {
	if s == nil {
		return "", fmt.Errorf("no schema for %s", source)
	}
	return w.write(w.Layout.SchemaDir, source, "_schema", s)
}
