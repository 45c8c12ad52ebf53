package typesys

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Property is a single named field of a declared structural type.
type Property struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
}

// Decl is a user-declared structural type.
type Decl struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Properties  []Property `yaml:"properties"`
}

// Registry maps declared type names to their structural descriptors. It is
// local to one pipeline invocation and must not be shared between
// concurrent loads.
type Registry struct {
	decls    map[string]*Decl
	compiled map[string]cty.Type
	inFlight map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		decls:    make(map[string]*Decl),
		compiled: make(map[string]cty.Type),
		inFlight: make(map[string]bool),
	}
}

// Declare adds a type declaration to the registry. Redeclaring a name is an
// error unless the declaration is the identical instance.
func (r *Registry) Declare(d *Decl) error {
	if d.Name == "" {
		return fmt.Errorf("type declaration is missing a name")
	}
	if existing, ok := r.decls[d.Name]; ok && existing != d {
		return fmt.Errorf("type %q is declared more than once", d.Name)
	}
	r.decls[d.Name] = d
	return nil
}

// Decl returns the declaration for a type name.
func (r *Registry) Decl(name string) (*Decl, bool) {
	d, ok := r.decls[name]
	return d, ok
}

// Has reports whether a type name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.decls[name]
	return ok
}

// Names returns all declared type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.decls))
	for name := range r.decls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared types.
func (r *Registry) Len() int {
	return len(r.decls)
}

// Type compiles the declared type with the given name into its cty
// representation. Compilation is memoized; a declaration cycle is an error.
func (r *Registry) Type(name string) (cty.Type, error) {
	if t, ok := r.compiled[name]; ok {
		return t, nil
	}
	d, ok := r.decls[name]
	if !ok {
		return cty.NilType, fmt.Errorf("unknown type %q", name)
	}
	if r.inFlight[name] {
		return cty.NilType, fmt.Errorf("type %q refers to itself through its properties", name)
	}
	r.inFlight[name] = true
	defer delete(r.inFlight, name)

	attrs := make(map[string]cty.Type, len(d.Properties))
	var optional []string
	for _, p := range d.Properties {
		if p.Name == "" {
			return cty.NilType, fmt.Errorf("type %q has a property without a name", name)
		}
		pt, err := ParseExpr(r, p.Type)
		if err != nil {
			return cty.NilType, fmt.Errorf("type %q, property %q: %w", name, p.Name, err)
		}
		attrs[p.Name] = pt
		if !p.Required {
			optional = append(optional, p.Name)
		}
	}

	t := cty.ObjectWithOptionalAttrs(attrs, optional)
	r.compiled[name] = t
	return t, nil
}
