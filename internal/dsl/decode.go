package dsl

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/flowspec/internal/typesys"
)

// ParseDocument decodes a substituted YAML node tree into a typed Document.
// The registry carries the custom types collected during the same load and
// is consulted when validating declared variable types. src names the
// originating source for diagnostics. All field violations are collected
// and returned together as a *TypeErrors.
func ParseDocument(root *yaml.Node, reg *typesys.Registry, src string) (*Document, error) {
	n := root
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, &TypeErrors{Source: src, Errors: []FieldError{{Msg: "document is empty"}}}
		}
		n = n.Content[0]
	}

	d := &decoder{reg: reg}
	doc := d.document(n, "")
	if errs := filterErrors(d.errs); len(errs) > 0 {
		return nil, &TypeErrors{Source: src, Errors: errs}
	}
	doc.Source = src
	return doc, nil
}

// decoder accumulates field diagnostics while walking the node tree.
type decoder struct {
	reg  *typesys.Registry
	errs []FieldError
}

// errorf records one diagnostic at a field path.
func (d *decoder) errorf(path, format string, args ...any) {
	d.errs = append(d.errs, FieldError{Path: path, Msg: fmt.Sprintf(format, args...)})
}

// childPath joins a parent path with a field name.
func childPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// indexPath joins a parent path with a sequence index.
func indexPath(path string, i int) string {
	if path == "" {
		return "[" + strconv.Itoa(i) + "]"
	}
	return path + "[" + strconv.Itoa(i) + "]"
}

// --- Document variant selection ---

// document selects which root shape applies, first match wins: a mapping
// is an Application; a sequence is matched as types, models, authorization
// providers, tools, then variables, each by its detection condition.
func (d *decoder) document(n *yaml.Node, path string) *Document {
	switch n.Kind {
	case yaml.MappingNode:
		return &Document{Type: DocApplication, App: d.application(n, path)}

	case yaml.SequenceNode:
		switch {
		case typesys.IsTypeList(n):
			return &Document{Type: DocTypes, Types: decodeSeq(d, n, childPath(path, "types"), d.typeDecl)}
		case everyItemHasKey(n, "provider"):
			return &Document{Type: DocModels, Models: decodeSeq(d, n, childPath(path, "models"), d.model)}
		case everyItemHasAnyKey(n, "api_key", "access_key_id", "role_id"):
			return &Document{Type: DocAuthProviders, AuthProviders: decodeSeq(d, n, childPath(path, "auth_providers"), d.authProvider)}
		case everyItemHasAnyKey(n, "inputs", "outputs"):
			return &Document{Type: DocTools, Tools: decodeSeq(d, n, childPath(path, "tools"), d.tool)}
		case everyItemHasKey(n, "type"):
			return &Document{Type: DocVariables, Variables: decodeSeq(d, n, childPath(path, "variables"), d.variable)}
		default:
			d.errorf(path, "sequence does not match any known component list (types, models, auth_providers, tools, variables)")
			return &Document{}
		}

	default:
		d.errorf(path, "document root must be a mapping or a sequence")
		return &Document{}
	}
}

// everyItemHasKey reports whether every element of a non-empty sequence is
// a mapping carrying the given key.
func everyItemHasKey(n *yaml.Node, key string) bool {
	return everyItemHasAnyKey(n, key)
}

// everyItemHasAnyKey reports whether every element of a non-empty sequence
// is a mapping carrying at least one of the given keys.
func everyItemHasAnyKey(n *yaml.Node, keys ...string) bool {
	if len(n.Content) == 0 {
		return false
	}
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return false
		}
		found := false
		for i := 0; i+1 < len(item.Content) && !found; i += 2 {
			for _, key := range keys {
				if item.Content[i].Value == key {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// --- Scalar helpers ---

// str decodes a required string scalar.
func (d *decoder) str(n *yaml.Node, path string) string {
	if n.Kind != yaml.ScalarNode {
		d.errorf(path, "expected a string")
		return ""
	}
	return n.Value
}

// integer decodes an integer scalar.
func (d *decoder) integer(n *yaml.Node, path string) int {
	var v int
	if n.Kind != yaml.ScalarNode || n.Decode(&v) != nil {
		d.errorf(path, "expected an integer")
		return 0
	}
	return v
}

// boolean decodes a boolean scalar.
func (d *decoder) boolean(n *yaml.Node, path string) bool {
	var v bool
	if n.Kind != yaml.ScalarNode || n.Decode(&v) != nil {
		d.errorf(path, "expected a boolean")
		return false
	}
	return v
}

// anyValue decodes an arbitrary YAML value.
func (d *decoder) anyValue(n *yaml.Node, path string) any {
	var v any
	if err := n.Decode(&v); err != nil {
		d.errorf(path, "invalid value: %v", err)
		return nil
	}
	return v
}

// anyMap decodes a free-form mapping.
func (d *decoder) anyMap(n *yaml.Node, path string) map[string]any {
	if n.Kind != yaml.MappingNode {
		d.errorf(path, "expected a mapping")
		return nil
	}
	var v map[string]any
	if err := n.Decode(&v); err != nil {
		d.errorf(path, "invalid mapping: %v", err)
		return nil
	}
	return v
}

// stringMap decodes a mapping of string scalars.
func (d *decoder) stringMap(n *yaml.Node, path string) map[string]string {
	if n.Kind != yaml.MappingNode {
		d.errorf(path, "expected a mapping")
		return nil
	}
	out := make(map[string]string, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		out[key] = d.str(n.Content[i+1], childPath(path, key))
	}
	return out
}

// requireMapping validates that a component body is a mapping.
func (d *decoder) requireMapping(n *yaml.Node, path, what string) bool {
	if n.Kind != yaml.MappingNode {
		d.errorf(path, "expected a mapping describing a %s", what)
		return false
	}
	return true
}

// requireID validates that a component declared an identifier.
func (d *decoder) requireID(id, path, what string) {
	if id == "" {
		d.errorf(childPath(path, "id"), "a %s requires an id", what)
	}
}

// decodeSeq decodes every element of a sequence with the given element
// decoder.
func decodeSeq[T any](d *decoder, n *yaml.Node, path string, elem func(*yaml.Node, string) T) []T {
	if n.Kind != yaml.SequenceNode {
		d.errorf(path, "expected a sequence")
		return nil
	}
	out := make([]T, 0, len(n.Content))
	for i, item := range n.Content {
		out = append(out, elem(item, indexPath(path, i)))
	}
	return out
}

// --- Reference decoding ---

// refOf decodes an inline-or-reference field. The forms are discriminated
// by shape before any decoding happens: a scalar is a bare identifier, a
// single-key {$ref: id} mapping is an explicit reference, and any other
// mapping is an inline definition.
func refOf[T Component](d *decoder, n *yaml.Node, path string, inline func(*yaml.Node, string) T) *Ref[T] {
	switch {
	case n.Kind == yaml.ScalarNode:
		if n.Value == "" {
			d.errorf(path, "reference identifier is empty")
			return nil
		}
		return &Ref[T]{ID: n.Value}

	case n.Kind == yaml.MappingNode && len(n.Content) == 2 && n.Content[0].Value == "$ref":
		id := d.str(n.Content[1], childPath(path, "$ref"))
		if id == "" {
			d.errorf(childPath(path, "$ref"), "reference identifier is empty")
			return nil
		}
		return &Ref[T]{ID: id}

	case n.Kind == yaml.MappingNode:
		return &Ref[T]{Value: inline(n, path)}

	default:
		d.errorf(path, "expected an identifier, {$ref: id}, or an inline definition")
		return nil
	}
}

// refSeq decodes a sequence of inline-or-reference values.
func refSeq[T Component](d *decoder, n *yaml.Node, path string, inline func(*yaml.Node, string) T) []*Ref[T] {
	return decodeSeq(d, n, path, func(item *yaml.Node, itemPath string) *Ref[T] {
		return refOf(d, item, itemPath, inline)
	})
}

// --- Component decoding ---

// application decodes the aggregate Application root.
func (d *decoder) application(n *yaml.Node, path string) *Application {
	app := &Application{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			app.ID = d.str(val, kp)
		case "name":
			app.Name = d.str(val, kp)
		case "description":
			app.Description = d.str(val, kp)
		case "models":
			app.Models = decodeSeq(d, val, kp, d.model)
		case "inputs":
			app.Inputs = decodeSeq(d, val, kp, d.variable)
		case "outputs":
			app.Outputs = decodeSeq(d, val, kp, d.variable)
		case "prompts":
			app.Prompts = decodeSeq(d, val, kp, d.prompt)
		case "tools":
			app.Tools = decodeSeq(d, val, kp, d.tool)
		case "tool_providers":
			app.ToolProviders = decodeSeq(d, val, kp, d.toolProvider)
		case "retrievers":
			app.Retrievers = decodeSeq(d, val, kp, d.retriever)
		case "flows":
			app.Flows = decodeSeq(d, val, kp, d.flow)
		case "memory":
			app.Memory = decodeSeq(d, val, kp, d.memory)
		case "feedback":
			app.Feedback = decodeSeq(d, val, kp, d.feedback)
		case "auth_providers":
			app.AuthProviders = decodeSeq(d, val, kp, d.authProvider)
		case "types":
			app.Types = decodeSeq(d, val, kp, d.typeDecl)
		case "references":
			app.References = decodeSeq(d, val, kp, d.document)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(app.ID, path, "application")
	return app
}

// model decodes one model declaration.
func (d *decoder) model(n *yaml.Node, path string) *Model {
	if !d.requireMapping(n, path, "model") {
		return nil
	}
	m := &Model{Kind: ModelLLM}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			m.ID = d.str(val, kp)
		case "provider":
			m.Provider = d.str(val, kp)
		case "name":
			m.Name = d.str(val, kp)
		case "kind":
			kind := ModelKind(d.str(val, kp))
			if kind != ModelLLM && kind != ModelEmbedding {
				d.errorf(kp, "unknown model kind %q", kind)
			} else {
				m.Kind = kind
			}
		case "settings":
			m.Settings = d.anyMap(val, kp)
		case "auth":
			m.Auth = refOf(d, val, kp, d.authProvider)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(m.ID, path, "model")
	if m.Provider == "" {
		d.errorf(childPath(path, "provider"), "a model requires a provider")
	}
	return m
}

// prompt decodes one prompt declaration.
func (d *decoder) prompt(n *yaml.Node, path string) *Prompt {
	if !d.requireMapping(n, path, "prompt") {
		return nil
	}
	p := &Prompt{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			p.ID = d.str(val, kp)
		case "template":
			p.Template = d.str(val, kp)
		case "inputs":
			p.Inputs = refSeq(d, val, kp, d.variable)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(p.ID, path, "prompt")
	if p.Template == "" {
		d.errorf(childPath(path, "template"), "a prompt requires a template")
	}
	return p
}

// variable decodes one variable declaration and validates its declared
// type against the registry.
func (d *decoder) variable(n *yaml.Node, path string) *Variable {
	if !d.requireMapping(n, path, "variable") {
		return nil
	}
	v := &Variable{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			v.ID = d.str(val, kp)
		case "type":
			v.Type = d.str(val, kp)
		case "description":
			v.Description = d.str(val, kp)
		case "default":
			v.Default = d.anyValue(val, kp)
		case "required":
			b := d.boolean(val, kp)
			v.Required = &b
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(v.ID, path, "variable")
	if v.Type == "" {
		d.errorf(childPath(path, "type"), "a variable requires a type")
		return v
	}
	t, err := typesys.ParseExpr(d.reg, v.Type)
	if err != nil {
		d.errorf(childPath(path, "type"), "%v", err)
		return v
	}
	if v.Default != nil {
		if err := typesys.ValueConformsTo(v.Default, t); err != nil {
			d.errorf(childPath(path, "default"), "%v", err)
		}
	}
	return v
}

// tool decodes one tool declaration.
func (d *decoder) tool(n *yaml.Node, path string) *Tool {
	if !d.requireMapping(n, path, "tool") {
		return nil
	}
	t := &Tool{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			t.ID = d.str(val, kp)
		case "description":
			t.Description = d.str(val, kp)
		case "provider":
			t.Provider = refOf(d, val, kp, d.toolProvider)
		case "inputs":
			t.Inputs = refSeq(d, val, kp, d.variable)
		case "outputs":
			t.Outputs = refSeq(d, val, kp, d.variable)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(t.ID, path, "tool")
	return t
}

// toolProvider decodes one tool provider declaration.
func (d *decoder) toolProvider(n *yaml.Node, path string) *ToolProvider {
	if !d.requireMapping(n, path, "tool provider") {
		return nil
	}
	p := &ToolProvider{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			p.ID = d.str(val, kp)
		case "kind":
			kind := ProviderKind(d.str(val, kp))
			if kind != ProviderMCP && kind != ProviderHTTP && kind != ProviderBuiltin {
				d.errorf(kp, "unknown tool provider kind %q", kind)
			} else {
				p.Kind = kind
			}
		case "endpoint":
			p.Endpoint = d.str(val, kp)
		case "auth":
			p.Auth = refOf(d, val, kp, d.authProvider)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(p.ID, path, "tool provider")
	return p
}

// authProvider decodes one authorization provider declaration.
func (d *decoder) authProvider(n *yaml.Node, path string) *AuthProvider {
	if !d.requireMapping(n, path, "authorization provider") {
		return nil
	}
	a := &AuthProvider{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			a.ID = d.str(val, kp)
		case "api_key":
			a.APIKey = d.str(val, kp)
		case "access_key_id":
			a.AccessKeyID = d.str(val, kp)
		case "secret_access_key":
			a.SecretAccessKey = d.str(val, kp)
		case "session_token":
			a.SessionToken = d.str(val, kp)
		case "role_id":
			a.RoleID = d.str(val, kp)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(a.ID, path, "authorization provider")
	return a
}

// memory decodes one memory block declaration.
func (d *decoder) memory(n *yaml.Node, path string) *Memory {
	if !d.requireMapping(n, path, "memory block") {
		return nil
	}
	m := &Memory{Kind: MemoryConversation}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			m.ID = d.str(val, kp)
		case "kind":
			kind := MemoryKind(d.str(val, kp))
			if kind != MemoryConversation && kind != MemoryVector {
				d.errorf(kp, "unknown memory kind %q", kind)
			} else {
				m.Kind = kind
			}
		case "max_entries":
			m.MaxEntries = d.integer(val, kp)
		case "model":
			m.Model = refOf(d, val, kp, d.model)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(m.ID, path, "memory block")
	return m
}

// retriever decodes one retriever declaration.
func (d *decoder) retriever(n *yaml.Node, path string) *Retriever {
	if !d.requireMapping(n, path, "retriever") {
		return nil
	}
	r := &Retriever{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			r.ID = d.str(val, kp)
		case "index":
			r.Index = d.str(val, kp)
		case "model":
			r.Model = refOf(d, val, kp, d.model)
		case "top_k":
			r.TopK = d.integer(val, kp)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(r.ID, path, "retriever")
	return r
}

// feedback decodes one feedback configuration.
func (d *decoder) feedback(n *yaml.Node, path string) *Feedback {
	if !d.requireMapping(n, path, "feedback config") {
		return nil
	}
	f := &Feedback{Kind: FeedbackThumbs}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			f.ID = d.str(val, kp)
		case "kind":
			kind := FeedbackKind(d.str(val, kp))
			if kind != FeedbackThumbs && kind != FeedbackScore {
				d.errorf(kp, "unknown feedback kind %q", kind)
			} else {
				f.Kind = kind
			}
		case "flow":
			f.Flow = refOf(d, val, kp, d.flow)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(f.ID, path, "feedback config")
	return f
}

// flow decodes one flow declaration.
func (d *decoder) flow(n *yaml.Node, path string) *Flow {
	if !d.requireMapping(n, path, "flow") {
		return nil
	}
	f := &Flow{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			f.ID = d.str(val, kp)
		case "description":
			f.Description = d.str(val, kp)
		case "inputs":
			f.Inputs = refSeq(d, val, kp, d.variable)
		case "outputs":
			f.Outputs = refSeq(d, val, kp, d.variable)
		case "steps":
			f.Steps = refSeq(d, val, kp, d.step)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(f.ID, path, "flow")
	return f
}

// step decodes one step declaration.
func (d *decoder) step(n *yaml.Node, path string) *Step {
	if !d.requireMapping(n, path, "step") {
		return nil
	}
	s := &Step{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "id":
			s.ID = d.str(val, kp)
		case "kind":
			kind := StepKind(d.str(val, kp))
			if !stepKinds[kind] {
				d.errorf(kp, "unknown step kind %q", kind)
			} else {
				s.Kind = kind
			}
		case "model":
			s.Model = refOf(d, val, kp, d.model)
		case "prompt":
			s.Prompt = refOf(d, val, kp, d.prompt)
		case "template":
			s.Template = d.str(val, kp)
		case "tool":
			s.Tool = refOf(d, val, kp, d.tool)
		case "retriever":
			s.Retriever = refOf(d, val, kp, d.retriever)
		case "flow":
			s.Flow = refOf(d, val, kp, d.flow)
		case "inputs":
			s.Inputs = refSeq(d, val, kp, d.variable)
		case "outputs":
			s.Outputs = refSeq(d, val, kp, d.variable)
		case "condition":
			s.Condition = d.str(val, kp)
		case "branches":
			s.Branches = d.stringMap(val, kp)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	d.requireID(s.ID, path, "step")
	if s.Kind == "" {
		d.errorf(childPath(path, "kind"), "a step requires a kind")
	}
	return s
}

// typeDecl strictly decodes one custom type declaration.
func (d *decoder) typeDecl(n *yaml.Node, path string) *typesys.Decl {
	if !d.requireMapping(n, path, "type declaration") {
		return nil
	}
	decl := &typesys.Decl{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "name":
			decl.Name = d.str(val, kp)
		case "description":
			decl.Description = d.str(val, kp)
		case "properties":
			decl.Properties = decodeSeq(d, val, kp, d.typeProperty)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	if decl.Name == "" {
		d.errorf(childPath(path, "name"), "a type declaration requires a name")
	}
	return decl
}

// typeProperty decodes one property of a custom type declaration.
func (d *decoder) typeProperty(n *yaml.Node, path string) typesys.Property {
	var p typesys.Property
	if !d.requireMapping(n, path, "type property") {
		return p
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		kp := childPath(path, key.Value)
		switch key.Value {
		case "name":
			p.Name = d.str(val, kp)
		case "type":
			p.Type = d.str(val, kp)
		case "description":
			p.Description = d.str(val, kp)
		case "required":
			p.Required = d.boolean(val, kp)
		default:
			d.errorf(kp, "unknown field")
		}
	}
	if p.Name == "" {
		d.errorf(childPath(path, "name"), "a property requires a name")
	}
	if p.Type != "" {
		if _, err := typesys.ParseExpr(d.reg, p.Type); err != nil {
			d.errorf(childPath(path, "type"), "%v", err)
		}
	}
	return p
}
