// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package ir

import (
	"fmt"
	"maps"

	"github.com/specialistvlad/flowspec/internal/dsl"
	"github.com/specialistvlad/flowspec/internal/typesys"
)

// Resolver lowers a linked document into the semantic representation.
// Lowering is memoized per identifier, so every occurrence of one
// component yields the same node instance. A Resolver serves one document
// and is not safe for concurrent use.
type Resolver struct {
	types *typesys.Registry
	memo  map[string]Node
}

// NewResolver creates a Resolver compiling type expressions against the
// given registry.
func NewResolver(types *typesys.Registry) *Resolver {
	return &Resolver{types: types, memo: make(map[string]Node)}
}

// Resolve lowers a linked document. The document must have passed through
// the linker; a pending reference here is an internal error, not a user
// diagnostic.
func (r *Resolver) Resolve(doc *dsl.Document) (*Document, error) {
	out := &Document{Source: doc.Source}
	var err error
	switch doc.Type {
	case dsl.DocApplication:
		out.App, err = r.application(doc.App)
	case dsl.DocModels:
		out.Models, err = lowerSlice(doc.Models, r.model)
	case dsl.DocAuthProviders:
		out.AuthProviders, err = lowerSlice(doc.AuthProviders, r.authProvider)
	case dsl.DocTools:
		out.Tools, err = lowerSlice(doc.Tools, r.tool)
	case dsl.DocVariables:
		out.Variables, err = lowerSlice(doc.Variables, r.variable)
	case dsl.DocTypes:
		// Type documents contribute declarations only; there is nothing
		// to lower.
	default:
		err = fmt.Errorf("cannot lower document of type %s", doc.Type)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nodeFor returns the memoized node for an identifier.
func nodeFor[T Node](r *Resolver, id string) (T, bool, error) {
	var zero T
	n, ok := r.memo[id]
	if !ok {
		return zero, false, nil
	}
	v, ok := n.(T)
	if !ok {
		return zero, false, fmt.Errorf("internal: identifier %q lowered to %T earlier in this pass", id, n)
	}
	return v, true, nil
}

// lowerRef lowers one inline-or-reference field. A still-pending reference
// means the document skipped the linker.
func lowerRef[S dsl.Component, T Node](ref *dsl.Ref[S], lower func(S) (T, error)) (T, error) {
	var zero T
	if ref == nil {
		return zero, nil
	}
	if !ref.Resolved() {
		return zero, fmt.Errorf("internal: reference %q is still unresolved; the document was not linked", ref.ID)
	}
	return lower(ref.Value)
}

// lowerRefSeq lowers a sequence of inline-or-reference values into a
// non-nil slice.
func lowerRefSeq[S dsl.Component, T Node](refs []*dsl.Ref[S], lower func(S) (T, error)) ([]T, error) {
	out := make([]T, 0, len(refs))
	for _, ref := range refs {
		v, err := lowerRef(ref, lower)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// lowerSlice lowers every element of a component slice into a non-nil
// slice.
func lowerSlice[S dsl.Component, T Node](in []S, lower func(S) (T, error)) ([]T, error) {
	out := make([]T, 0, len(in))
	for _, c := range in {
		v, err := lower(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// application lowers the aggregate root, folding components declared in
// nested reference documents into the application's own collections.
func (r *Resolver) application(app *dsl.Application) (*Application, error) {
	if app == nil {
		return nil, fmt.Errorf("internal: application document has no application")
	}
	out := &Application{
		ID:          app.ID,
		Name:        app.Name,
		Description: app.Description,
	}

	var err error
	if out.Models, err = lowerSlice(app.Models, r.model); err != nil {
		return nil, err
	}
	if out.Inputs, err = lowerSlice(app.Inputs, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = lowerSlice(app.Outputs, r.variable); err != nil {
		return nil, err
	}
	if out.Prompts, err = lowerSlice(app.Prompts, r.prompt); err != nil {
		return nil, err
	}
	if out.Tools, err = lowerSlice(app.Tools, r.tool); err != nil {
		return nil, err
	}
	if out.ToolProviders, err = lowerSlice(app.ToolProviders, r.toolProvider); err != nil {
		return nil, err
	}
	if out.AuthProviders, err = lowerSlice(app.AuthProviders, r.authProvider); err != nil {
		return nil, err
	}
	if out.Memory, err = lowerSlice(app.Memory, r.memory); err != nil {
		return nil, err
	}
	if out.Retrievers, err = lowerSlice(app.Retrievers, r.retriever); err != nil {
		return nil, err
	}
	if out.Flows, err = lowerSlice(app.Flows, r.flow); err != nil {
		return nil, err
	}
	if out.Feedback, err = lowerSlice(app.Feedback, r.feedback); err != nil {
		return nil, err
	}

	for _, sub := range app.References {
		if err := r.fold(out, sub); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fold lowers a nested reference document and merges its components into
// the application.
func (r *Resolver) fold(out *Application, doc *dsl.Document) error {
	sub, err := r.Resolve(doc)
	if err != nil {
		return err
	}
	out.Models = append(out.Models, sub.Models...)
	out.AuthProviders = append(out.AuthProviders, sub.AuthProviders...)
	out.Tools = append(out.Tools, sub.Tools...)
	out.Inputs = append(out.Inputs, sub.Variables...)
	if sub.App != nil {
		out.Models = append(out.Models, sub.App.Models...)
		out.Inputs = append(out.Inputs, sub.App.Inputs...)
		out.Outputs = append(out.Outputs, sub.App.Outputs...)
		out.Prompts = append(out.Prompts, sub.App.Prompts...)
		out.Tools = append(out.Tools, sub.App.Tools...)
		out.ToolProviders = append(out.ToolProviders, sub.App.ToolProviders...)
		out.AuthProviders = append(out.AuthProviders, sub.App.AuthProviders...)
		out.Memory = append(out.Memory, sub.App.Memory...)
		out.Retrievers = append(out.Retrievers, sub.App.Retrievers...)
		out.Flows = append(out.Flows, sub.App.Flows...)
		out.Feedback = append(out.Feedback, sub.App.Feedback...)
	}
	return nil
}

func (r *Resolver) model(m *dsl.Model) (*Model, error) {
	if m == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Model](r, m.ID); err != nil || ok {
		return got, err
	}
	out := &Model{
		ID:       m.ID,
		Provider: m.Provider,
		Name:     m.Name,
		Kind:     m.Kind,
		Settings: maps.Clone(m.Settings),
	}
	if out.Kind == "" {
		out.Kind = dsl.ModelLLM
	}
	r.memo[m.ID] = out

	auth, err := lowerRef(m.Auth, r.authProvider)
	if err != nil {
		return nil, err
	}
	out.Auth = auth
	return out, nil
}

func (r *Resolver) prompt(p *dsl.Prompt) (*Prompt, error) {
	if p == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Prompt](r, p.ID); err != nil || ok {
		return got, err
	}
	out := &Prompt{ID: p.ID, Template: p.Template}
	r.memo[p.ID] = out

	inputs, err := lowerRefSeq(p.Inputs, r.variable)
	if err != nil {
		return nil, err
	}
	out.Inputs = inputs
	return out, nil
}

func (r *Resolver) variable(v *dsl.Variable) (*Variable, error) {
	if v == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Variable](r, v.ID); err != nil || ok {
		return got, err
	}
	t, err := typesys.ParseExpr(r.types, v.Type)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.ID, err)
	}
	out := &Variable{
		ID:          v.ID,
		TypeName:    v.Type,
		Type:        t,
		Description: v.Description,
		Default:     v.Default,
	}
	if v.Required != nil {
		out.Required = *v.Required
	} else {
		out.Required = v.Default == nil
	}
	r.memo[v.ID] = out
	return out, nil
}

func (r *Resolver) tool(t *dsl.Tool) (*Tool, error) {
	if t == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Tool](r, t.ID); err != nil || ok {
		return got, err
	}
	out := &Tool{ID: t.ID, Description: t.Description}
	r.memo[t.ID] = out

	provider, err := lowerRef(t.Provider, r.toolProvider)
	if err != nil {
		return nil, err
	}
	out.Provider = provider

	if out.Inputs, err = lowerRefSeq(t.Inputs, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = lowerRefSeq(t.Outputs, r.variable); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) toolProvider(p *dsl.ToolProvider) (*ToolProvider, error) {
	if p == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*ToolProvider](r, p.ID); err != nil || ok {
		return got, err
	}
	out := &ToolProvider{ID: p.ID, Kind: p.Kind, Endpoint: p.Endpoint}
	r.memo[p.ID] = out

	auth, err := lowerRef(p.Auth, r.authProvider)
	if err != nil {
		return nil, err
	}
	out.Auth = auth
	return out, nil
}

func (r *Resolver) authProvider(a *dsl.AuthProvider) (*AuthProvider, error) {
	if a == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*AuthProvider](r, a.ID); err != nil || ok {
		return got, err
	}
	out := &AuthProvider{
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

func (r *Resolver) memory(m *dsl.Memory) (*Memory, error) {
	if m == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Memory](r, m.ID); err != nil || ok {
		return got, err
	}
	out := &Memory{ID: m.ID, Kind: m.Kind, MaxEntries: m.MaxEntries}
	if out.Kind == "" {
		out.Kind = dsl.MemoryConversation
	}
	r.memo[m.ID] = out

	model, err := lowerRef(m.Model, r.model)
	if err != nil {
		return nil, err
	}
	out.Model = model
	return out, nil
}

func (r *Resolver) retriever(rt *dsl.Retriever) (*Retriever, error) {
	if rt == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Retriever](r, rt.ID); err != nil || ok {
		return got, err
	}
	out := &Retriever{ID: rt.ID, Index: rt.Index, TopK: rt.TopK}
	r.memo[rt.ID] = out

	model, err := lowerRef(rt.Model, r.model)
	if err != nil {
		return nil, err
	}
	out.Model = model
	return out, nil
}

func (r *Resolver) feedback(f *dsl.Feedback) (*Feedback, error) {
	if f == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Feedback](r, f.ID); err != nil || ok {
		return got, err
	}
	out := &Feedback{ID: f.ID, Kind: f.Kind}
	if out.Kind == "" {
		out.Kind = dsl.FeedbackThumbs
	}
	r.memo[f.ID] = out

	flow, err := lowerRef(f.Flow, r.flow)
	if err != nil {
		return nil, err
	}
	out.Flow = flow
	return out, nil
}

func (r *Resolver) flow(f *dsl.Flow) (*Flow, error) {
	if f == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Flow](r, f.ID); err != nil || ok {
		return got, err
	}
	out := &Flow{ID: f.ID, Description: f.Description}
	r.memo[f.ID] = out

	var err error
	if out.Inputs, err = lowerRefSeq(f.Inputs, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = lowerRefSeq(f.Outputs, r.variable); err != nil {
		return nil, err
	}
	if out.Steps, err = lowerRefSeq(f.Steps, r.step); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) step(s *dsl.Step) (*Step, error) {
	if s == nil {
		return nil, nil
	}
	if got, ok, err := nodeFor[*Step](r, s.ID); err != nil || ok {
		return got, err
	}
	out := &Step{
		ID:        s.ID,
		Kind:      s.Kind,
		Template:  s.Template,
		Condition: s.Condition,
		Branches:  maps.Clone(s.Branches),
	}
	r.memo[s.ID] = out

	var err error
	if out.Model, err = lowerRef(s.Model, r.model); err != nil {
		return nil, err
	}
	if out.Prompt, err = lowerRef(s.Prompt, r.prompt); err != nil {
		return nil, err
	}
	if out.Tool, err = lowerRef(s.Tool, r.tool); err != nil {
		return nil, err
	}
	if out.Retriever, err = lowerRef(s.Retriever, r.retriever); err != nil {
		return nil, err
	}
	if out.Flow, err = lowerRef(s.Flow, r.flow); err != nil {
		return nil, err
	}
	if out.Inputs, err = lowerRefSeq(s.Inputs, r.variable); err != nil {
		return nil, err
	}
	if out.Outputs, err = lowerRefSeq(s.Outputs, r.variable); err != nil {
		return nil, err
	}
	return out, nil
}
