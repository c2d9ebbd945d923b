package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Repository maps a display name to the adapter key serving it.
type Repository struct {
	Name    string `yaml:"name"`
	Adapter string `yaml:"adapter"`
}

// Repositories keeps the configured order, which a plain map would lose.
// It decodes from either a mapping (name: adapter) or a sequence of
// {name, adapter} entries.
type Repositories []Repository

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Repositories) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Repositories, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: repository %q must map to an adapter key", value.Line, key.Value)
			}
			out = append(out, Repository{Name: key.Value, Adapter: value.Value})
		}
		*r = out
		return nil
	case yaml.SequenceNode:
		var list []Repository
		if err := node.Decode(&list); err != nil {
			return err
		}
		*r = list
		return nil
	default:
		return fmt.Errorf("line %d: repos must be a mapping or a list", node.Line)
	}
}

// MarshalYAML renders the mapping form, preserving order.
func (r Repositories) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, repo := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: repo.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: repo.Adapter},
		)
	}
	return node, nil
}

// Select keeps the repositories whose name or adapter key is listed. An
// empty filter keeps everything.
func (r Repositories) Select(names []string) Repositories {
	if len(names) == 0 {
		return r
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	var out Repositories
	for _, repo := range r {
		if wanted[repo.Name] || wanted[repo.Adapter] {
			out = append(out, repo)
		}
	}
	return out
}
