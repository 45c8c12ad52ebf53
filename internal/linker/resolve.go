package linker

import (
	"fmt"
	"maps"

	"github.com/specialistvlad/flowspec/internal/dsl"
)

// Link resolves every reference in a parsed document and returns a new,
// fully resolved tree; the input tree is never mutated. Flat list
// documents are a pass-through. Linking an already linked tree is a no-op
// that reproduces an identical tree.
func Link(doc *dsl.Document) (*dsl.Document, error) {
	if doc.Type != dsl.DocApplication {
		return doc, nil
	}

	table, err := BuildSymbolTable(doc)
	if err != nil {
		return nil, err
	}

	r := &resolver{table: table, memo: make(map[string]dsl.Component)}
	app, err := r.application(doc.App)
	if err != nil {
		return nil, err
	}
	return &dsl.Document{Type: doc.Type, Source: doc.Source, App: app}, nil
}

// resolver produces resolved copies of components, memoized per
// identifier so every occurrence of one component resolves to one shared
// instance.
type resolver struct {
	table *SymbolTable
	memo  map[string]dsl.Component
}

// memoized returns the already-resolved instance for an identifier,
// asserted to the expected concrete type. A kind clash here is an
// internal invariant violation: the global duplicate check has already
// ruled it out.
func memoized[T dsl.Component](r *resolver, id string) (T, bool, error) {
	var zero T
	c, ok := r.memo[id]
	if !ok {
		return zero, false, nil
	}
	v, ok := c.(T)
	if !ok {
		return zero, false, fmt.Errorf("internal: identifier %q resolved to %T earlier in this pass", id, c)
	}
	return v, true, nil
}

// resolveRef resolves one inline-or-reference field: an inline value is
// resolved recursively, a pending reference is looked up in the symbol
// table, kind-checked, and resolved to the shared instance.
func resolveRef[T dsl.Component](r *resolver, ref *dsl.Ref[T], want dsl.Kind, resolve func(T) (T, error)) (*dsl.Ref[T], error) {
	if ref == nil {
		return nil, nil
	}
	if ref.Resolved() {
		v, err := resolve(ref.Value)
		if err != nil {
			return nil, err
		}
		return &dsl.Ref[T]{Value: v}, nil
	}
	c, ok := r.table.Lookup(ref.ID)
	if !ok {
		return nil, &NotFoundError{ID: ref.ID, Want: want}
	}
	target, ok := c.(T)
	if !ok {
		return nil, &WrongKindError{ID: ref.ID, Want: want, Got: c.ComponentKind()}
	}
	v, err := resolve(target)
	if err != nil {
		return nil, err
	}
	return &dsl.Ref[T]{Value: v}, nil
}

// resolveRefSeq resolves a sequence of inline-or-reference values.
func resolveRefSeq[T dsl.Component](r *resolver, refs []*dsl.Ref[T], want dsl.Kind, resolve func(T) (T, error)) ([]*dsl.Ref[T], error) {
	if refs == nil {
		return nil, nil
	}
	out := make([]*dsl.Ref[T], 0, len(refs))
	for _, ref := range refs {
		resolved, err := resolveRef(r, ref, want, resolve)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// application resolves the aggregate root.
func (r *resolver) application(app *dsl.Application) (*dsl.Application, error) {
	if app == nil {
		return nil, nil
	}
	out := &dsl.Application{
		ID:          app.ID,
		Name:        app.Name,
		Description: app.Description,
		Types:       app.Types,
	}

	var err error
	if out.Models, err = resolveSlice(app.Models, r.model); err != nil {
		return nil, err
	}
	if out.Inputs, err = resolveSlice(app.Inputs, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = resolveSlice(app.Outputs, r.variable); err != nil {
		return nil, err
	}
	if out.Prompts, err = resolveSlice(app.Prompts, r.prompt); err != nil {
		return nil, err
	}
	if out.Tools, err = resolveSlice(app.Tools, r.tool); err != nil {
		return nil, err
	}
	if out.ToolProviders, err = resolveSlice(app.ToolProviders, r.toolProvider); err != nil {
		return nil, err
	}
	if out.Retrievers, err = resolveSlice(app.Retrievers, r.retriever); err != nil {
		return nil, err
	}
	if out.Flows, err = resolveSlice(app.Flows, r.flow); err != nil {
		return nil, err
	}
	if out.Memory, err = resolveSlice(app.Memory, r.memory); err != nil {
		return nil, err
	}
	if out.Feedback, err = resolveSlice(app.Feedback, r.feedback); err != nil {
		return nil, err
	}
	if out.AuthProviders, err = resolveSlice(app.AuthProviders, r.authProvider); err != nil {
		return nil, err
	}

	for _, sub := range app.References {
		resolved, err := r.document(sub)
		if err != nil {
			return nil, err
		}
		out.References = append(out.References, resolved)
	}
	return out, nil
}

// document resolves a nested sub-document against the shared global table.
func (r *resolver) document(doc *dsl.Document) (*dsl.Document, error) {
	out := &dsl.Document{Type: doc.Type, Source: doc.Source, Types: doc.Types}
	var err error
	switch doc.Type {
	case dsl.DocApplication:
		out.App, err = r.application(doc.App)
	case dsl.DocModels:
		out.Models, err = resolveSlice(doc.Models, r.model)
	case dsl.DocTools:
		out.Tools, err = resolveSlice(doc.Tools, r.tool)
	case dsl.DocVariables:
		out.Variables, err = resolveSlice(doc.Variables, r.variable)
	case dsl.DocAuthProviders:
		out.AuthProviders, err = resolveSlice(doc.AuthProviders, r.authProvider)
	case dsl.DocTypes:
		// Nothing to resolve.
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveSlice resolves every element of a component slice.
func resolveSlice[T dsl.Component](in []T, resolve func(T) (T, error)) ([]T, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]T, 0, len(in))
	for _, c := range in {
		resolved, err := resolve(c)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// model resolves one model.
func (r *resolver) model(m *dsl.Model) (*dsl.Model, error) {
	if m == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Model](r, m.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Model{
		ID:       m.ID,
		Provider: m.Provider,
		Name:     m.Name,
		Kind:     m.Kind,
		Settings: maps.Clone(m.Settings),
	}
	r.memo[m.ID] = out

	auth, err := resolveRef(r, m.Auth, dsl.KindAuthProvider, r.authProvider)
	if err != nil {
		return nil, err
	}
	out.Auth = auth
	return out, nil
}

// prompt resolves one prompt.
func (r *resolver) prompt(p *dsl.Prompt) (*dsl.Prompt, error) {
	if p == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Prompt](r, p.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Prompt{ID: p.ID, Template: p.Template}
	r.memo[p.ID] = out

	inputs, err := resolveRefSeq(r, p.Inputs, dsl.KindVariable, r.variable)
	if err != nil {
		return nil, err
	}
	out.Inputs = inputs
	return out, nil
}

// variable resolves one variable.
func (r *resolver) variable(v *dsl.Variable) (*dsl.Variable, error) {
	if v == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Variable](r, v.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Variable{
		ID:          v.ID,
		Type:        v.Type,
		Description: v.Description,
		Default:     v.Default,
	}
	if v.Required != nil {
		required := *v.Required
		out.Required = &required
	}
	r.memo[v.ID] = out
	return out, nil
}

// tool resolves one tool.
func (r *resolver) tool(t *dsl.Tool) (*dsl.Tool, error) {
	if t == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Tool](r, t.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Tool{ID: t.ID, Description: t.Description}
	r.memo[t.ID] = out

	provider, err := resolveRef(r, t.Provider, dsl.KindToolProvider, r.toolProvider)
	if err != nil {
		return nil, err
	}
	out.Provider = provider

	if out.Inputs, err = resolveRefSeq(r, t.Inputs, dsl.KindVariable, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = resolveRefSeq(r, t.Outputs, dsl.KindVariable, r.variable); err != nil {
		return nil, err
	}
	return out, nil
}

// toolProvider resolves one tool provider.
func (r *resolver) toolProvider(p *dsl.ToolProvider) (*dsl.ToolProvider, error) {
	if p == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.ToolProvider](r, p.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.ToolProvider{ID: p.ID, Kind: p.Kind, Endpoint: p.Endpoint}
	r.memo[p.ID] = out

	auth, err := resolveRef(r, p.Auth, dsl.KindAuthProvider, r.authProvider)
	if err != nil {
		return nil, err
	}
	out.Auth = auth
	return out, nil
}

// authProvider resolves one authorization provider.
func (r *resolver) authProvider(a *dsl.AuthProvider) (*dsl.AuthProvider, error) {
	if a == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.AuthProvider](r, a.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.AuthProvider{
		ID:              a.ID,
		APIKey:          a.APIKey,
		AccessKeyID:     a.AccessKeyID,
		SecretAccessKey: a.SecretAccessKey,
		SessionToken:    a.SessionToken,
		RoleID:          a.RoleID,
	}
	r.memo[a.ID] = out
	return out, nil
}

// memory resolves one memory block.
func (r *resolver) memory(m *dsl.Memory) (*dsl.Memory, error) {
	if m == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Memory](r, m.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Memory{ID: m.ID, Kind: m.Kind, MaxEntries: m.MaxEntries}
	r.memo[m.ID] = out

	model, err := resolveRef(r, m.Model, dsl.KindModel, r.model)
	if err != nil {
		return nil, err
	}
	out.Model = model
	return out, nil
}

// retriever resolves one retriever.
func (r *resolver) retriever(rt *dsl.Retriever) (*dsl.Retriever, error) {
	if rt == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Retriever](r, rt.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Retriever{ID: rt.ID, Index: rt.Index, TopK: rt.TopK}
	r.memo[rt.ID] = out

	model, err := resolveRef(r, rt.Model, dsl.KindModel, r.model)
	if err != nil {
		return nil, err
	}
	out.Model = model
	return out, nil
}

// feedback resolves one feedback configuration.
func (r *resolver) feedback(f *dsl.Feedback) (*dsl.Feedback, error) {
	if f == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Feedback](r, f.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Feedback{ID: f.ID, Kind: f.Kind}
	r.memo[f.ID] = out

	flow, err := resolveRef(r, f.Flow, dsl.KindFlow, r.flow)
	if err != nil {
		return nil, err
	}
	out.Flow = flow
	return out, nil
}

// flow resolves one flow.
func (r *resolver) flow(f *dsl.Flow) (*dsl.Flow, error) {
	if f == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Flow](r, f.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Flow{ID: f.ID, Description: f.Description}
	r.memo[f.ID] = out

	var err error
	if out.Inputs, err = resolveRefSeq(r, f.Inputs, dsl.KindVariable, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = resolveRefSeq(r, f.Outputs, dsl.KindVariable, r.variable); err != nil {
		return nil, err
	}
	if out.Steps, err = resolveRefSeq(r, f.Steps, dsl.KindStep, r.step); err != nil {
		return nil, err
	}
	return out, nil
}

// step resolves one step.
func (r *resolver) step(s *dsl.Step) (*dsl.Step, error) {
	if s == nil {
		return nil, nil
	}
	if got, ok, err := memoized[*dsl.Step](r, s.ID); err != nil || ok {
		return got, err
	}
	out := &dsl.Step{
		ID:        s.ID,
		Kind:      s.Kind,
		Template:  s.Template,
		Condition: s.Condition,
		Branches:  maps.Clone(s.Branches),
	}
	r.memo[s.ID] = out

	var err error
	if out.Model, err = resolveRef(r, s.Model, dsl.KindModel, r.model); err != nil {
		return nil, err
	}
	if out.Prompt, err = resolveRef(r, s.Prompt, dsl.KindPrompt, r.prompt); err != nil {
		return nil, err
	}
	if out.Tool, err = resolveRef(r, s.Tool, dsl.KindTool, r.tool); err != nil {
		return nil, err
	}
	if out.Retriever, err = resolveRef(r, s.Retriever, dsl.KindRetriever, r.retriever); err != nil {
		return nil, err
	}
	if out.Flow, err = resolveRef(r, s.Flow, dsl.KindFlow, r.flow); err != nil {
		return nil, err
	}
	if out.Inputs, err = resolveRefSeq(r, s.Inputs, dsl.KindVariable, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = resolveRefSeq(r, s.Outputs, dsl.KindVariable, r.variable); err != nil {
		return nil, err
	}
	return out, nil
}
