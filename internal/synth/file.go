package synth

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/catalog"
	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"github.com/KaramelBytes/dqcheck-cli/internal/utils"
)

// WriteCSV generates a dataset from s, writes it to path and records a
// catalog sidecar next to it. The sidecar carries the data checksum.
func WriteCSV(path string, s *schema.Schema, opt Options, now time.Time) (catalog.Metadata, error) {
	header, rows, err := Records(s, opt)
	if err != nil {
		return catalog.Metadata{}, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return catalog.Metadata{}, fmt.Errorf("encode csv: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return catalog.Metadata{}, fmt.Errorf("encode csv: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return catalog.Metadata{}, fmt.Errorf("write %s: %w", path, err)
	}
	name := s.Dataset
	if name == "" {
		name = utils.Stem(path)
	}
	meta := catalog.Metadata{
		Name:        name,
		Description: fmt.Sprintf("synthetic data from schema (seed %d)", opt.Seed),
		Type:        "synthetic",
		FilePath:    path,
		GeneratedAt: now.Format(time.RFC3339),
		Columns:     header,
		Shape:       []int{len(rows), len(header)},
	}
	if err := catalog.Write(path, meta); err != nil {
		return catalog.Metadata{}, fmt.Errorf("write metadata: %w", err)
	}
	entry, err := catalog.Lookup(path)
	if err != nil || entry == nil {
		return meta, err
	}
	return entry.Metadata, nil
}
