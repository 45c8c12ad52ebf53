// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package dsl

import (
	"fmt"

	"github.com/specialistvlad/flowspec/internal/typesys"
)

// Kind names the component kinds of the specification language.
type Kind string

// Component kinds.
const (
	KindApplication  Kind = "application"
	KindModel        Kind = "model"
	KindPrompt       Kind = "prompt"
	KindVariable     Kind = "variable"
	KindTool         Kind = "tool"
	KindToolProvider Kind = "tool_provider"
	KindAuthProvider Kind = "auth_provider"
	KindMemory       Kind = "memory"
	KindRetriever    Kind = "retriever"
	KindFeedback     Kind = "feedback"
	KindFlow         Kind = "flow"
	KindStep         Kind = "step"
)

// Component is any specification entity carrying a process-unique string
// identifier. Components are the unit of identity for linking.
type Component interface {
	ComponentID() string
	ComponentKind() Kind
}

// DocType selects the root shape of a Document.
type DocType int

// Document root shapes, in variant-selection order for sequence roots.
const (
	DocApplication DocType = iota
	DocTypes
	DocModels
	DocAuthProviders
	DocTools
	DocVariables
)

// String returns the human-readable name of a document type.
func (t DocType) String() string {
	switch t {
	case DocApplication:
		return "application"
	case DocTypes:
		return "types"
	case DocModels:
		return "models"
	case DocAuthProviders:
		return "auth_providers"
	case DocTools:
		return "tools"
	case DocVariables:
		return "variables"
	default:
		return fmt.Sprintf("DocType(%d)", int(t))
	}
}

// Document is the root of a loaded specification: either an aggregate
// Application or a flat list of one component kind. Exactly the field
// matching Type is populated.
type Document struct {
	Type   DocType `yaml:"-"`
	Source string  `yaml:"-"`

	App           *Application     `yaml:"-"`
	Types         []*typesys.Decl  `yaml:"-"`
	Models        []*Model         `yaml:"-"`
	AuthProviders []*AuthProvider  `yaml:"-"`
	Tools         []*Tool          `yaml:"-"`
	Variables     []*Variable      `yaml:"-"`
}

// MarshalYAML renders the document back to its root shape.
func (doc *Document) MarshalYAML() (any, error) {
	switch doc.Type {
	case DocApplication:
		return doc.App, nil
	case DocTypes:
		return doc.Types, nil
	case DocModels:
		return doc.Models, nil
	case DocAuthProviders:
		return doc.AuthProviders, nil
	case DocTools:
		return doc.Tools, nil
	case DocVariables:
		return doc.Variables, nil
	default:
		return nil, fmt.Errorf("cannot marshal document of type %s", doc.Type)
	}
}

// Application is the aggregate root shape: a named bundle of every
// component kind plus nested sub-documents under References, whose
// components share the application's global namespace.
type Application struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	Models        []*Model        `yaml:"models,omitempty"`
	Inputs        []*Variable     `yaml:"inputs,omitempty"`
	Outputs       []*Variable     `yaml:"outputs,omitempty"`
	Prompts       []*Prompt       `yaml:"prompts,omitempty"`
	Tools         []*Tool         `yaml:"tools,omitempty"`
	ToolProviders []*ToolProvider `yaml:"tool_providers,omitempty"`
	Retrievers    []*Retriever    `yaml:"retrievers,omitempty"`
	Flows         []*Flow         `yaml:"flows,omitempty"`
	Memory        []*Memory       `yaml:"memory,omitempty"`
	Feedback      []*Feedback     `yaml:"feedback,omitempty"`
	AuthProviders []*AuthProvider `yaml:"auth_providers,omitempty"`
	Types         []*typesys.Decl `yaml:"types,omitempty"`
	References    []*Document     `yaml:"references,omitempty"`
}

// ComponentID implements Component.
func (a *Application) ComponentID() string { return a.ID }

// ComponentKind implements Component.
func (a *Application) ComponentKind() Kind { return KindApplication }
