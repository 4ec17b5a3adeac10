package content

import (
	"gopkg.in/yaml.v3"
)

// MetaFile is the name of the per-directory sidebar ordering file.
const MetaFile = "_meta.yaml"

// MetaEntry is one _meta.yaml entry. In YAML it is either a bare title string or a
// mapping with title and hidden.
type MetaEntry struct {
	Name   string
	Title  string
	Hidden bool
}

// Meta is the ordered content of a _meta.yaml file.
type Meta struct {
	Entries []MetaEntry
	index   map[string]int
}

// Lookup returns the entry for a file or directory name (without extension).
func (m *Meta) Lookup(name string) (MetaEntry, int, bool) {
	if m == nil {
		return MetaEntry{}, -1, false
	}
	i, ok := m.index[name]
	if !ok {
		return MetaEntry{}, -1, false
	}
	return m.Entries[i], i, true
}

// parseMeta decodes a _meta.yaml document, keeping key order.
func parseMeta(data []byte) (*Meta, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	m := &Meta{index: map[string]int{}}
	if len(doc.Content) == 0 {
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &yaml.TypeError{Errors: []string{"_meta.yaml must be a mapping of name to title"}}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		entry := MetaEntry{Name: key.Value}
		switch val.Kind {
		case yaml.ScalarNode:
			entry.Title = val.Value
		case yaml.MappingNode:
			var obj struct {
				Title  string `yaml:"title"`
				Hidden bool   `yaml:"hidden"`
			}
			if err := val.Decode(&obj); err != nil {
				return nil, err
			}
			entry.Title, entry.Hidden = obj.Title, obj.Hidden
		default:
			return nil, &yaml.TypeError{Errors: []string{"_meta.yaml entry " + key.Value + " must be a string or mapping"}}
		}
		m.index[entry.Name] = len(m.Entries)
		m.Entries = append(m.Entries, entry)
	}
	return m, nil
}
