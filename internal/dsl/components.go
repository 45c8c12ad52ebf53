// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package dsl

// ModelKind distinguishes chat/completion models from embedding models.
type ModelKind string

// Model kinds.
const (
	ModelLLM       ModelKind = "llm"
	ModelEmbedding ModelKind = "embedding"
)

// Model describes a generative or embedding model endpoint.
type Model struct {
	ID       string              `yaml:"id"`
	Provider string              `yaml:"provider"`
	Name     string              `yaml:"name,omitempty"`
	Kind     ModelKind           `yaml:"kind,omitempty"`
	Settings map[string]any      `yaml:"settings,omitempty"`
	Auth     *Ref[*AuthProvider] `yaml:"auth,omitempty"`
}

// ComponentID implements Component.
func (m *Model) ComponentID() string { return m.ID }

// ComponentKind implements Component.
func (m *Model) ComponentKind() Kind { return KindModel }

// Prompt is a reusable template with named input slots.
type Prompt struct {
	ID       string            `yaml:"id"`
	Template string            `yaml:"template"`
	Inputs   []*Ref[*Variable] `yaml:"inputs,omitempty"`
}

// ComponentID implements Component.
func (p *Prompt) ComponentID() string { return p.ID }

// ComponentKind implements Component.
func (p *Prompt) ComponentKind() Kind { return KindPrompt }

// Variable declares a typed input or output slot. Type is a type
// expression: a primitive, list(T), map(T), or a declared custom type
// name. A variable with no default is required unless Required says
// otherwise.
type Variable struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Required    *bool  `yaml:"required,omitempty"`
}

// ComponentID implements Component.
func (v *Variable) ComponentID() string { return v.ID }

// ComponentKind implements Component.
func (v *Variable) ComponentKind() Kind { return KindVariable }

// Tool describes a callable tool contract.
type Tool struct {
	ID          string              `yaml:"id"`
	Description string              `yaml:"description,omitempty"`
	Provider    *Ref[*ToolProvider] `yaml:"provider,omitempty"`
	Inputs      []*Ref[*Variable]   `yaml:"inputs,omitempty"`
	Outputs     []*Ref[*Variable]   `yaml:"outputs,omitempty"`
}

// ComponentID implements Component.
func (t *Tool) ComponentID() string { return t.ID }

// ComponentKind implements Component.
func (t *Tool) ComponentKind() Kind { return KindTool }

// ProviderKind names the transport a tool provider speaks.
type ProviderKind string

// Tool provider kinds.
const (
	ProviderMCP     ProviderKind = "mcp"
	ProviderHTTP    ProviderKind = "http"
	ProviderBuiltin ProviderKind = "builtin"
)

// ToolProvider describes where a tool's implementation lives.
type ToolProvider struct {
	ID       string              `yaml:"id"`
	Kind     ProviderKind        `yaml:"kind,omitempty"`
	Endpoint string              `yaml:"endpoint,omitempty"`
	Auth     *Ref[*AuthProvider] `yaml:"auth,omitempty"`
}

// ComponentID implements Component.
func (p *ToolProvider) ComponentID() string { return p.ID }

// ComponentKind implements Component.
func (p *ToolProvider) ComponentKind() Kind { return KindToolProvider }

// AuthProvider carries credentials. A provider is usable when at least one
// credential method is complete: an API key, an access key pair, or a
// bearer session token. RoleID requests delegated access and additionally
// requires the key pair.
type AuthProvider struct {
	ID              string `yaml:"id"`
	APIKey          string `yaml:"api_key,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	SessionToken    string `yaml:"session_token,omitempty"`
	RoleID          string `yaml:"role_id,omitempty"`
}

// ComponentID implements Component.
func (a *AuthProvider) ComponentID() string { return a.ID }

// ComponentKind implements Component.
func (a *AuthProvider) ComponentKind() Kind { return KindAuthProvider }

// MemoryKind distinguishes memory block behaviors.
type MemoryKind string

// Memory kinds.
const (
	MemoryConversation MemoryKind = "conversation"
	MemoryVector       MemoryKind = "vector"
)

// Memory describes a conversation or vector memory block. Vector memory
// requires an embedding model.
type Memory struct {
	ID         string       `yaml:"id"`
	Kind       MemoryKind   `yaml:"kind,omitempty"`
	MaxEntries int          `yaml:"max_entries,omitempty"`
	Model      *Ref[*Model] `yaml:"model,omitempty"`
}

// ComponentID implements Component.
func (m *Memory) ComponentID() string { return m.ID }

// ComponentKind implements Component.
func (m *Memory) ComponentKind() Kind { return KindMemory }

// Retriever describes a search index backed by an embedding model.
type Retriever struct {
	ID    string       `yaml:"id"`
	Index string       `yaml:"index,omitempty"`
	Model *Ref[*Model] `yaml:"model,omitempty"`
	TopK  int          `yaml:"top_k,omitempty"`
}

// ComponentID implements Component.
func (r *Retriever) ComponentID() string { return r.ID }

// ComponentKind implements Component.
func (r *Retriever) ComponentKind() Kind { return KindRetriever }

// FeedbackKind distinguishes feedback capture styles.
type FeedbackKind string

// Feedback kinds.
const (
	FeedbackThumbs FeedbackKind = "thumbs"
	FeedbackScore  FeedbackKind = "score"
)

// Feedback configures feedback capture for a flow.
type Feedback struct {
	ID   string       `yaml:"id"`
	Kind FeedbackKind `yaml:"kind,omitempty"`
	Flow *Ref[*Flow]  `yaml:"flow,omitempty"`
}

// ComponentID implements Component.
func (f *Feedback) ComponentID() string { return f.ID }

// ComponentKind implements Component.
func (f *Feedback) ComponentKind() Kind { return KindFeedback }
