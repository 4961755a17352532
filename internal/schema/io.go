package schema

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Encode renders s as YAML.
func (s *Schema) Encode() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return b, nil
}

// Decode parses and validates a YAML schema document.
func Decode(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a schema file.
func Load(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks structural consistency of a decoded schema.
func (s *Schema) Validate() error {
	seen := map[string]bool{}
	for _, c := range s.Columns {
		if c.Name == "" {
			return errors.New("schema column has no name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate schema column %q", c.Name)
		}
		seen[c.Name] = true
		switch c.Kind {
		case "numeric", "text", "temporal", "categorical":
		default:
			return fmt.Errorf("column %q: unknown kind %q", c.Name, c.Kind)
		}
		if c.Pattern != "" {
			if _, err := regexp.Compile(c.Pattern); err != nil {
				return fmt.Errorf("column %q: bad pattern: %w", c.Name, err)
			}
		}
	}
	return nil
}

// ValidateRules checks every rule of rs.
func ValidateRules(rs []Rule) error {
	var errs []error
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
