package typesys

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Collect scans a raw document tree for custom type declarations and adds
// them to the registry. Declarations are recognized in two places:
//
//   - under a `types` key of a mapping-shaped document, at any nesting
//     level reachable through `references`;
//
//   - as the root of a sequence-shaped document whose every element is a
//     mapping carrying a `properties` key.
//
// Collect runs before typed parsing, so it decodes declarations leniently;
// the structural parser re-validates the same sections strictly.
func Collect(root *yaml.Node, reg *Registry) error {
	n := root
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	return collectNode(n, reg)
}

// collectNode dispatches on the shape of one document root.
func collectNode(n *yaml.Node, reg *Registry) error {
	switch n.Kind {
	case yaml.MappingNode:
		if types := mappingValue(n, "types"); types != nil {
			if err := declareAll(types, reg); err != nil {
				return err
			}
		}
		if refs := mappingValue(n, "references"); refs != nil && refs.Kind == yaml.SequenceNode {
			for _, sub := range refs.Content {
				if err := collectNode(sub, reg); err != nil {
					return err
				}
			}
		}
		return nil

	case yaml.SequenceNode:
		if !IsTypeList(n) {
			return nil
		}
		return declareAll(n, reg)

	default:
		return nil
	}
}

// IsTypeList reports whether a sequence node is a type-declaration list:
// every element must be a mapping carrying a `properties` key. An empty
// sequence does not qualify.
func IsTypeList(n *yaml.Node) bool {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return false
	}
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode || mappingValue(item, "properties") == nil {
			return false
		}
	}
	return true
}

// declareAll decodes every element of a sequence as a type declaration.
func declareAll(seq *yaml.Node, reg *Registry) error {
	if seq.Kind != yaml.SequenceNode {
		return fmt.Errorf("types section must be a sequence of declarations")
	}
	for _, item := range seq.Content {
		var d Decl
		if err := item.Decode(&d); err != nil {
			return fmt.Errorf("invalid type declaration: %w", err)
		}
		if err := reg.Declare(&d); err != nil {
			return err
		}
	}
	return nil
}

// mappingValue returns the value node for a key of a mapping node, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
