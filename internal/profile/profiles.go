package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profiles is an ordered column-name to profile mapping. It encodes as a
// YAML/JSON mapping whose keys keep the table's column order.
type Profiles []ColumnProfile

// Lookup returns the profile of a named column.
func (p Profiles) Lookup(name string) (ColumnProfile, bool) {
	for _, c := range p {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Names returns column names in order.
func (p Profiles) Names() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Name
	}
	return out
}

// Kinds returns the column-name to kind mapping.
func (p Profiles) Kinds() map[string]Kind {
	out := make(map[string]Kind, len(p))
	for _, c := range p {
		out[c.Name] = c.Kind
	}
	return out
}

// Clone returns a deep copy.
func (p Profiles) Clone() Profiles {
	if p == nil {
		return nil
	}
	out := make(Profiles, len(p))
	for i, c := range p {
		if c.Numeric != nil {
			ns := *c.Numeric
			ns.Min, ns.Max, ns.Mean, ns.Median = clonePtr(ns.Min), clonePtr(ns.Max), clonePtr(ns.Mean), clonePtr(ns.Median)
			ns.Std, ns.Skewness, ns.Kurtosis, ns.MAD = clonePtr(ns.Std), clonePtr(ns.Skewness), clonePtr(ns.Kurtosis), clonePtr(ns.MAD)
			ns.Quantiles = Quantiles{Q25: clonePtr(ns.Quantiles.Q25), Q75: clonePtr(ns.Quantiles.Q75)}
			c.Numeric = &ns
		}
		if c.Text != nil {
			ts := *c.Text
			ts.TopValues = append([]ValueCount(nil), ts.TopValues...)
			c.Text = &ts
		}
		if c.Temporal != nil {
			tm := *c.Temporal
			c.Temporal = &tm
		}
		out[i] = c
	}
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(*p)
}

// MarshalYAML encodes the profiles as a mapping keyed by column name, in
// column order.
func (p Profiles) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range p {
		var v yaml.Node
		if err := v.Encode(c); err != nil {
			return nil, fmt.Errorf("encode profile %q: %w", c.Name, err)
		}
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Name}, &v)
	}
	return n, nil
}

// UnmarshalYAML decodes a column-keyed mapping, keeping document order.
func (p *Profiles) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("column profiles: expected mapping, got %v", n.Tag)
	}
	out := make(Profiles, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var c ColumnProfile
		if err := n.Content[i+1].Decode(&c); err != nil {
			return fmt.Errorf("decode profile %q: %w", n.Content[i].Value, err)
		}
		c.Name = n.Content[i].Value
		out = append(out, c)
	}
	*p = out
	return nil
}

// MarshalJSON writes a column-keyed object in column order.
func (p Profiles) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encode profile %q: %w", c.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortByCount(vals []ValueCount) {
	sort.SliceStable(vals, func(i, j int) bool { return vals[i].Count > vals[j].Count })
}
