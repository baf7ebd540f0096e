package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// A sanitizer declaration from a project descriptor.
//
// Descriptors list sanitizers either as a bare name or as a single-key
// mapping from the name to sanitizer-specific options. Both forms resolve to
// the same entry shape here, so downstream consumers never re-inspect the
// raw document.
type SanitizerEntry struct {
	Name    string         // Sanitizer name, e.g. "address".
	Options map[string]any // Sanitizer-specific options, nil for the bare form.
}

// Sequence of sanitizer declarations in descriptor order.
type sanitizerList []SanitizerEntry

// UnmarshalYAML resolves the two descriptor forms into entries.
//
// Mapping entries keep document order; a mapping with several keys expands
// into one entry per key.
func (l *sanitizerList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("sanitizers: expected a sequence, got %s", nodeKind(value))
	}

	entries := make([]SanitizerEntry, 0, len(value.Content))
	for _, item := range value.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			var name string
			if err := item.Decode(&name); err != nil {
				return fmt.Errorf("sanitizers: %w", err)
			}
			entries = append(entries, SanitizerEntry{Name: name})
		case yaml.MappingNode:
			for i := 0; i+1 < len(item.Content); i += 2 {
				var name string
				if err := item.Content[i].Decode(&name); err != nil {
					return fmt.Errorf("sanitizers: %w", err)
				}
				var opts map[string]any
				if err := item.Content[i+1].Decode(&opts); err != nil {
					return fmt.Errorf("sanitizers: options for %q: %w", name, err)
				}
				entries = append(entries, SanitizerEntry{Name: name, Options: opts})
			}
		default:
			return fmt.Errorf("sanitizers: unsupported entry of kind %s", nodeKind(item))
		}
	}

	*l = entries
	return nil
}

// Wraps bare sanitizer names into option-less entries.
func entriesFromNames(names []string) []SanitizerEntry {
	entries := make([]SanitizerEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, SanitizerEntry{Name: name})
	}
	return entries
}

// Returns the project's sanitizer names in declaration order. Duplicates
// are preserved as declared.
func (p *Project) SanitizerNames() []string {
	names := make([]string, 0, len(p.Sanitizers))
	for _, s := range p.Sanitizers {
		names = append(names, s.Name)
	}
	return names
}

// Describes a YAML node kind for error messages.
func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
