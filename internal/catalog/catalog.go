package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/KaramelBytes/dqcheck-cli/internal/utils"
	"gopkg.in/yaml.v3"
)

// SidecarSuffix is appended to a data file path to locate its metadata.
const SidecarSuffix = ".metadata.yaml"

// Metadata is the catalog record written next to a registered, downloaded or
// generated dataset. Timestamps are kept verbatim.
type Metadata struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Type         string   `yaml:"type,omitempty" json:"type,omitempty"`
	SourceURL    string   `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	SourcePath   string   `yaml:"source_path,omitempty" json:"source_path,omitempty"`
	FilePath     string   `yaml:"filepath" json:"filepath"`
	Checksum     string   `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	SizeBytes    int64    `yaml:"size_bytes,omitempty" json:"size_bytes,omitempty"`
	DownloadedAt string   `yaml:"downloaded_at,omitempty" json:"downloaded_at,omitempty"`
	RegisteredAt string   `yaml:"registered_at,omitempty" json:"registered_at,omitempty"`
	GeneratedAt  string   `yaml:"generated_at,omitempty" json:"generated_at,omitempty"`
	Columns      []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	Shape        []int    `yaml:"shape,omitempty" json:"shape,omitempty"`
}

// Entry is Metadata joined with a verification of the file on disk.
type Entry struct {
	Metadata         `yaml:",inline"`
	ChecksumVerified bool `yaml:"checksum_verified" json:"checksum_verified"`
}

// SidecarPath returns the metadata path for a data file.
func SidecarPath(dataPath string) string { return dataPath + SidecarSuffix }

// Checksum returns the hex sha256 digest and size of a file.
func Checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Lookup reads the sidecar of dataPath and verifies its checksum. It returns
// (nil, nil) when no sidecar exists.
func Lookup(dataPath string) (*Entry, error) {
	b, err := os.ReadFile(SidecarPath(dataPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", SidecarPath(dataPath), err)
	}
	e := &Entry{Metadata: m}
	if m.Checksum != "" {
		sum, size, err := Checksum(dataPath)
		if err != nil {
			return nil, err
		}
		e.ChecksumVerified = sum == m.Checksum && (m.SizeBytes == 0 || m.SizeBytes == size)
	}
	return e, nil
}

// Write stores m as the sidecar of dataPath, filling checksum, size and file
// path from the file on disk.
func Write(dataPath string, m Metadata) error {
	sum, size, err := Checksum(dataPath)
	if err != nil {
		return err
	}
	m.Checksum, m.SizeBytes = sum, size
	if m.FilePath == "" {
		m.FilePath = dataPath
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return utils.SafeWriteFile(SidecarPath(dataPath), b)
}
