package source

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"
)

// Include tags recognized on scalar nodes.
const (
	tagInclude    = "!include"
	tagIncludeRaw = "!include_raw"
)

// expand walks the node tree depth-first, applying environment substitution
// to string scalars and splicing !include / !include_raw targets in place.
// visited holds the chain of locations currently being expanded, so a cycle
// is detected as soon as a target names a location already on the chain.
func (l *Loader) expand(ctx context.Context, n *yaml.Node, loc *Location, depth int, visited map[string]bool) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode, yaml.MappingNode:
		for _, child := range n.Content {
			if err := l.expand(ctx, child, loc, depth, visited); err != nil {
				return err
			}
		}
		return nil

	case yaml.ScalarNode:
		switch n.Tag {
		case tagInclude:
			return l.include(ctx, n, loc, depth, visited, false)
		case tagIncludeRaw:
			return l.include(ctx, n, loc, depth, visited, true)
		default:
			return l.substitute(n, loc)
		}

	default:
		// Alias nodes point back at anchored content that is expanded
		// where it is defined.
		return nil
	}
}

// substitute applies environment substitution to a scalar. A substituted
// scalar is pinned to the string tag: the replacement text stands for
// itself and is never re-interpreted as YAML.
func (l *Loader) substitute(n *yaml.Node, loc *Location) error {
	if !strings.Contains(n.Value, "${") {
		return nil
	}
	expanded, err := ExpandEnv(n.Value)
	if err != nil {
		return &LoadError{Source: loc.Name, Line: n.Line - 1, Column: n.Column - 1, Msg: err.Error(), Err: err}
	}
	n.Value = expanded
	n.Tag = "!!str"
	n.Style = 0
	return nil
}

// include replaces a tagged scalar with the content of its target: parsed,
// substituted and recursively expanded for !include, or the raw text as a
// single string scalar for !include_raw.
func (l *Loader) include(ctx context.Context, n *yaml.Node, loc *Location, depth int, visited map[string]bool, raw bool) error {
	target, err := ExpandEnv(n.Value)
	if err != nil {
		return &LoadError{Source: loc.Name, Line: n.Line - 1, Column: n.Column - 1, Msg: err.Error(), Err: err}
	}

	includeLoc, err := loc.Resolve(target)
	if err != nil {
		return &LoadError{Source: loc.Name, Line: n.Line - 1, Column: n.Column - 1, Msg: err.Error(), Err: err}
	}

	if visited[includeLoc.Name] {
		return &LoadError{
			Source: loc.Name,
			Line:   n.Line - 1, Column: n.Column - 1,
			Msg: "include cycle detected: " + includeLoc.Name + " is already being expanded",
		}
	}
	if depth+1 > l.maxDepth() {
		return &LoadError{
			Source: loc.Name,
			Line:   n.Line - 1, Column: n.Column - 1,
			Msg: "include depth exceeded while expanding " + includeLoc.Name,
		}
	}

	content, err := l.fetchLocation(ctx, includeLoc)
	if err != nil {
		return &LoadError{
			Source: loc.Name,
			Line:   n.Line - 1, Column: n.Column - 1,
			Msg: "cannot load include target " + includeLoc.Name + ": " + err.Error(),
			Err: err,
		}
	}

	if raw {
		*n = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(content), Line: n.Line, Column: n.Column}
		return nil
	}

	var sub yaml.Node
	if err := yaml.Unmarshal(content, &sub); err != nil {
		return newParseError(includeLoc.Name, err)
	}
	if sub.Kind == 0 || len(sub.Content) == 0 {
		return &LoadError{Source: includeLoc.Name, Line: -1, Column: -1, Msg: "included document is empty"}
	}

	visited[includeLoc.Name] = true
	err = l.expand(ctx, &sub, includeLoc, depth+1, visited)
	delete(visited, includeLoc.Name)
	if err != nil {
		return err
	}

	*n = *sub.Content[0]
	return nil
}
