package linker

import "github.com/specialistvlad/flowspec/internal/dsl"

// Unresolved walks a document and returns the identifiers of any reference
// still pending after linking. A linked tree always yields an empty slice.
func Unresolved(doc *dsl.Document) []string {
	w := &walker{seen: make(map[dsl.Component]bool)}
	w.document(doc)
	return w.pending
}

// walker tracks visited components so shared and cyclic instances are
// scanned once.
type walker struct {
	seen    map[dsl.Component]bool
	pending []string
}

func (w *walker) enter(c dsl.Component) bool {
	if w.seen[c] {
		return false
	}
	w.seen[c] = true
	return true
}

func (w *walker) document(doc *dsl.Document) {
	if doc == nil {
		return
	}
	switch doc.Type {
	case dsl.DocApplication:
		w.application(doc.App)
	case dsl.DocModels:
		for _, m := range doc.Models {
			w.model(m)
		}
	case dsl.DocTools:
		for _, t := range doc.Tools {
			w.tool(t)
		}
	case dsl.DocVariables:
		// Leaves; nothing to scan.
	case dsl.DocAuthProviders:
		// Leaves; nothing to scan.
	}
}

func (w *walker) application(app *dsl.Application) {
	if app == nil || !w.enter(app) {
		return
	}
	for _, m := range app.Models {
		w.model(m)
	}
	for _, p := range app.Prompts {
		w.prompt(p)
	}
	for _, t := range app.Tools {
		w.tool(t)
	}
	for _, p := range app.ToolProviders {
		w.toolProvider(p)
	}
	for _, rt := range app.Retrievers {
		w.retriever(rt)
	}
	for _, f := range app.Flows {
		w.flow(f)
	}
	for _, m := range app.Memory {
		w.memory(m)
	}
	for _, f := range app.Feedback {
		w.feedback(f)
	}
	for _, sub := range app.References {
		w.document(sub)
	}
}

// ref records a pending reference and reports whether the inline value
// should be scanned further.
func ref[T dsl.Component](w *walker, r *dsl.Ref[T]) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	if !r.Resolved() {
		w.pending = append(w.pending, r.ID)
		return zero, false
	}
	return r.Value, true
}

func (w *walker) model(m *dsl.Model) {
	if m == nil || !w.enter(m) {
		return
	}
	ref(w, m.Auth)
}

func (w *walker) prompt(p *dsl.Prompt) {
	if p == nil || !w.enter(p) {
		return
	}
	for _, in := range p.Inputs {
		ref(w, in)
	}
}

func (w *walker) tool(t *dsl.Tool) {
	if t == nil || !w.enter(t) {
		return
	}
	if p, ok := ref(w, t.Provider); ok {
		w.toolProvider(p)
	}
	for _, in := range t.Inputs {
		ref(w, in)
	}
	for _, out := range t.Outputs {
		ref(w, out)
	}
}

func (w *walker) toolProvider(p *dsl.ToolProvider) {
	if p == nil || !w.enter(p) {
		return
	}
	ref(w, p.Auth)
}

func (w *walker) memory(m *dsl.Memory) {
	if m == nil || !w.enter(m) {
		return
	}
	if model, ok := ref(w, m.Model); ok {
		w.model(model)
	}
}

func (w *walker) retriever(rt *dsl.Retriever) {
	if rt == nil || !w.enter(rt) {
		return
	}
	if model, ok := ref(w, rt.Model); ok {
		w.model(model)
	}
}

func (w *walker) feedback(f *dsl.Feedback) {
	if f == nil || !w.enter(f) {
		return
	}
	if flow, ok := ref(w, f.Flow); ok {
		w.flow(flow)
	}
}

func (w *walker) flow(f *dsl.Flow) {
	if f == nil || !w.enter(f) {
		return
	}
	for _, in := range f.Inputs {
		ref(w, in)
	}
	for _, out := range f.Outputs {
		ref(w, out)
	}
	for _, s := range f.Steps {
		if step, ok := ref(w, s); ok {
			w.step(step)
		}
	}
}

func (w *walker) step(s *dsl.Step) {
	if s == nil || !w.enter(s) {
		return
	}
	if m, ok := ref(w, s.Model); ok {
		w.model(m)
	}
	if p, ok := ref(w, s.Prompt); ok {
		w.prompt(p)
	}
	if t, ok := ref(w, s.Tool); ok {
		w.tool(t)
	}
	if rt, ok := ref(w, s.Retriever); ok {
		w.retriever(rt)
	}
	if f, ok := ref(w, s.Flow); ok {
		w.flow(f)
	}
	for _, in := range s.Inputs {
		ref(w, in)
	}
	for _, out := range s.Outputs {
		ref(w, out)
	}
}
