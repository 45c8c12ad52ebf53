package linker

import (
	"github.com/specialistvlad/flowspec/internal/dsl"
)

// SymbolTable maps component identifiers to their declarations. One table
// spans the whole document, nested sub-documents included.
type SymbolTable struct {
	entries map[string]dsl.Component
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]dsl.Component)}
}

// Register binds a component under its identifier. Rebinding the identical
// instance is an accepted no-op; binding a different instance to an
// already-taken identifier is a DuplicateError.
func (t *SymbolTable) Register(c dsl.Component) error {
	if c == nil {
		return nil
	}
	id := c.ComponentID()
	if id == "" {
		return nil
	}
	if existing, ok := t.entries[id]; ok {
		if existing == c {
			return nil
		}
		return &DuplicateError{ID: id, First: existing, Second: c}
	}
	t.entries[id] = c
	return nil
}

// Lookup returns the component bound to an identifier.
func (t *SymbolTable) Lookup(id string) (dsl.Component, bool) {
	c, ok := t.entries[id]
	return c, ok
}

// Len returns the number of bound identifiers.
func (t *SymbolTable) Len() int {
	return len(t.entries)
}

// merge registers every entry of another table, applying the same
// duplicate policy.
func (t *SymbolTable) merge(other *SymbolTable) error {
	for _, c := range other.entries {
		if err := t.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// BuildSymbolTable collects every component declared by a document into a
// single global table. Flat list documents contribute their components;
// an Application contributes every top-level collection, the inline steps,
// inputs and outputs of each flow, every nested sub-document's table, and
// finally itself under its own identifier.
func BuildSymbolTable(doc *dsl.Document) (*SymbolTable, error) {
	table := NewSymbolTable()
	if err := collectDocument(table, doc); err != nil {
		return nil, err
	}
	return table, nil
}

// collectDocument registers one document's components into the table.
func collectDocument(t *SymbolTable, doc *dsl.Document) error {
	switch doc.Type {
	case dsl.DocApplication:
		return collectApplication(t, doc.App)
	case dsl.DocModels:
		for _, m := range doc.Models {
			if err := t.Register(m); err != nil {
				return err
			}
		}
	case dsl.DocTools:
		for _, tool := range doc.Tools {
			if err := t.Register(tool); err != nil {
				return err
			}
		}
	case dsl.DocVariables:
		for _, v := range doc.Variables {
			if err := t.Register(v); err != nil {
				return err
			}
		}
	case dsl.DocAuthProviders:
		for _, a := range doc.AuthProviders {
			if err := t.Register(a); err != nil {
				return err
			}
		}
	case dsl.DocTypes:
		// Type declarations are not components; nothing to register.
	}
	return nil
}

// collectApplication registers an application's components.
func collectApplication(t *SymbolTable, app *dsl.Application) error {
	if app == nil {
		return nil
	}
	for _, m := range app.Models {
		if err := t.Register(m); err != nil {
			return err
		}
	}
	for _, v := range app.Inputs {
		if err := t.Register(v); err != nil {
			return err
		}
	}
	for _, v := range app.Outputs {
		if err := t.Register(v); err != nil {
			return err
		}
	}
	for _, p := range app.Prompts {
		if err := t.Register(p); err != nil {
			return err
		}
	}
	for _, tool := range app.Tools {
		if err := t.Register(tool); err != nil {
			return err
		}
	}
	for _, p := range app.ToolProviders {
		if err := t.Register(p); err != nil {
			return err
		}
	}
	for _, r := range app.Retrievers {
		if err := t.Register(r); err != nil {
			return err
		}
	}
	for _, f := range app.Flows {
		if err := collectFlow(t, f); err != nil {
			return err
		}
	}
	for _, m := range app.Memory {
		if err := t.Register(m); err != nil {
			return err
		}
	}
	for _, f := range app.Feedback {
		if err := t.Register(f); err != nil {
			return err
		}
	}
	for _, a := range app.AuthProviders {
		if err := t.Register(a); err != nil {
			return err
		}
	}

	// Nested sub-documents share the same global namespace.
	for _, sub := range app.References {
		subTable, err := BuildSymbolTable(sub)
		if err != nil {
			return err
		}
		if err := t.merge(subTable); err != nil {
			return err
		}
	}

	return t.Register(app)
}

// collectFlow registers a flow and its inline steps, inputs and outputs.
// Bare identifier entries are references, not declarations, and are
// skipped.
func collectFlow(t *SymbolTable, f *dsl.Flow) error {
	if f == nil {
		return nil
	}
	if err := t.Register(f); err != nil {
		return err
	}
	for _, ref := range f.Inputs {
		if ref != nil && ref.Resolved() {
			if err := t.Register(ref.Value); err != nil {
				return err
			}
		}
	}
	for _, ref := range f.Outputs {
		if ref != nil && ref.Resolved() {
			if err := t.Register(ref.Value); err != nil {
				return err
			}
		}
	}
	for _, ref := range f.Steps {
		if ref == nil || !ref.Resolved() {
			continue
		}
		if err := collectStep(t, ref.Value); err != nil {
			return err
		}
	}
	return nil
}

// collectStep registers an inline step together with its inline input and
// output variables, so a later step can consume an earlier step's output
// by identifier.
func collectStep(t *SymbolTable, s *dsl.Step) error {
	if err := t.Register(s); err != nil {
		return err
	}
	for _, ref := range s.Inputs {
		if ref != nil && ref.Resolved() {
			if err := t.Register(ref.Value); err != nil {
				return err
			}
		}
	}
	for _, ref := range s.Outputs {
		if ref != nil && ref.Resolved() {
			if err := t.Register(ref.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
