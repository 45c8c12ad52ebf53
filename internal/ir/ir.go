// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package ir

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/flowspec/internal/dsl"
)

// NodeKind names the semantic node kinds.
type NodeKind string

// Node kinds.
const (
	KindApplication  NodeKind = "application"
	KindModel        NodeKind = "model"
	KindPrompt       NodeKind = "prompt"
	KindVariable     NodeKind = "variable"
	KindTool         NodeKind = "tool"
	KindToolProvider NodeKind = "tool_provider"
	KindAuthProvider NodeKind = "auth_provider"
	KindMemory       NodeKind = "memory"
	KindRetriever    NodeKind = "retriever"
	KindFeedback     NodeKind = "feedback"
	KindFlow         NodeKind = "flow"
	KindStep         NodeKind = "step"
)

// Node is any semantic node with an identifier.
type Node interface {
	NodeID() string
	NodeKind() NodeKind
}

// Document is the lowered form of one specification document. App is set
// for application documents; the flat list fields are set for the
// corresponding list documents.
type Document struct {
	Source string

	App           *Application
	Models        []*Model
	AuthProviders []*AuthProvider
	Tools         []*Tool
	Variables     []*Variable
}

// Application is the lowered aggregate root. Every collection is non-nil,
// and components pulled in through nested reference documents are folded
// into the application's own collections.
type Application struct {
	ID          string
	Name        string
	Description string

	Models        []*Model
	Inputs        []*Variable
	Outputs       []*Variable
	Prompts       []*Prompt
	Tools         []*Tool
	ToolProviders []*ToolProvider
	AuthProviders []*AuthProvider
	Memory        []*Memory
	Retrievers    []*Retriever
	Flows         []*Flow
	Feedback      []*Feedback
}

// NodeID implements Node.
func (a *Application) NodeID() string { return a.ID }

// NodeKind implements Node.
func (a *Application) NodeKind() NodeKind { return KindApplication }

// Model is a lowered model. Auth is nil when the model declares no
// authorization provider.
type Model struct {
	ID       string
	Provider string
	Name     string
	Kind     dsl.ModelKind
	Settings map[string]any
	Auth     *AuthProvider
}

// NodeID implements Node.
func (m *Model) NodeID() string { return m.ID }

// NodeKind implements Node.
func (m *Model) NodeKind() NodeKind { return KindModel }

// Prompt is a lowered prompt template.
type Prompt struct {
	ID       string
	Template string
	Inputs   []*Variable
}

// NodeID implements Node.
func (p *Prompt) NodeID() string { return p.ID }

// NodeKind implements Node.
func (p *Prompt) NodeKind() NodeKind { return KindPrompt }

// Variable is a lowered typed slot. Type is the compiled structural type
// of the TypeName expression, and Required is fully determined: a
// variable with neither an explicit flag nor a default is required.
type Variable struct {
	ID          string
	TypeName    string
	Type        cty.Type
	Description string
	Default     any
	Required    bool
}

// NodeID implements Node.
func (v *Variable) NodeID() string { return v.ID }

// NodeKind implements Node.
func (v *Variable) NodeKind() NodeKind { return KindVariable }

// Tool is a lowered tool contract.
type Tool struct {
	ID          string
	Description string
	Provider    *ToolProvider
	Inputs      []*Variable
	Outputs     []*Variable
}

// NodeID implements Node.
func (t *Tool) NodeID() string { return t.ID }

// NodeKind implements Node.
func (t *Tool) NodeKind() NodeKind { return KindTool }

// ToolProvider is a lowered tool provider.
type ToolProvider struct {
	ID       string
	Kind     dsl.ProviderKind
	Endpoint string
	Auth     *AuthProvider
}

// NodeID implements Node.
func (p *ToolProvider) NodeID() string { return p.ID }

// NodeKind implements Node.
func (p *ToolProvider) NodeKind() NodeKind { return KindToolProvider }

// AuthProvider is a lowered credential set.
type AuthProvider struct {
	ID              string
	APIKey          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	RoleID          string
}

// NodeID implements Node.
func (a *AuthProvider) NodeID() string { return a.ID }

// NodeKind implements Node.
func (a *AuthProvider) NodeKind() NodeKind { return KindAuthProvider }

// HasKeyPair reports whether both halves of the access key pair are set.
func (a *AuthProvider) HasKeyPair() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != ""
}

// Memory is a lowered memory block.
type Memory struct {
	ID         string
	Kind       dsl.MemoryKind
	MaxEntries int
	Model      *Model
}

// NodeID implements Node.
func (m *Memory) NodeID() string { return m.ID }

// NodeKind implements Node.
func (m *Memory) NodeKind() NodeKind { return KindMemory }

// Retriever is a lowered retriever.
type Retriever struct {
	ID    string
	Index string
	TopK  int
	Model *Model
}

// NodeID implements Node.
func (r *Retriever) NodeID() string { return r.ID }

// NodeKind implements Node.
func (r *Retriever) NodeKind() NodeKind { return KindRetriever }

// Feedback is a lowered feedback configuration.
type Feedback struct {
	ID   string
	Kind dsl.FeedbackKind
	Flow *Flow
}

// NodeID implements Node.
func (f *Feedback) NodeID() string { return f.ID }

// NodeKind implements Node.
func (f *Feedback) NodeKind() NodeKind { return KindFeedback }

// Flow is a lowered flow. Steps holds direct step instances in declared
// order.
type Flow struct {
	ID          string
	Description string
	Inputs      []*Variable
	Outputs     []*Variable
	Steps       []*Step
}

// NodeID implements Node.
func (f *Flow) NodeID() string { return f.ID }

// NodeKind implements Node.
func (f *Flow) NodeKind() NodeKind { return KindFlow }

// Step is a lowered step. The collaborator pointer matching Kind is set;
// the others are nil.
type Step struct {
	ID   string
	Kind dsl.StepKind

	Model     *Model
	Prompt    *Prompt
	Template  string
	Tool      *Tool
	Retriever *Retriever
	Flow      *Flow

	Inputs  []*Variable
	Outputs []*Variable

	Condition string
	Branches  map[string]string
}

// NodeID implements Node.
func (s *Step) NodeID() string { return s.ID }

// NodeKind implements Node.
func (s *Step) NodeKind() NodeKind { return KindStep }
