package dsl

// Ref holds a value that may appear inline or stand in for a component
// declared elsewhere. Before linking, exactly one of ID and Value is set:
// ID for the reference forms (a bare identifier scalar or {$ref: id}),
// Value for an inline definition. The linker replaces every pending
// reference with a direct link, after which Value is always set.
type Ref[T Component] struct {
	// ID is the referenced component identifier; empty for inline values.
	ID string
	// Value is the inline component, or the link target after linking.
	Value T
}

// Resolved reports whether the reference carries a value, either because
// it was inline or because the linker resolved it.
func (r *Ref[T]) Resolved() bool {
	var zero T
	return any(r.Value) != any(zero)
}

// MarshalYAML renders an inline value as-is and a pending reference in its
// explicit {$ref: id} form.
func (r *Ref[T]) MarshalYAML() (any, error) {
	if r.Resolved() {
		return r.Value, nil
	}
	return map[string]string{"$ref": r.ID}, nil
}
