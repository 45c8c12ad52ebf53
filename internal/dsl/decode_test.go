package dsl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/flowspec/internal/typesys"
)

// parse collects types and decodes a document from literal YAML.
func parse(t *testing.T, text string) (*Document, error) {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &root))
	reg := typesys.NewRegistry()
	require.NoError(t, typesys.Collect(&root, reg))
	return ParseDocument(&root, reg, "test.yaml")
}

// mustParse decodes a document that is expected to be well formed.
func mustParse(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := parse(t, text)
	require.NoError(t, err)
	return doc
}

func TestParseDocument_Application(t *testing.T) {
	doc := mustParse(t, `
id: support_bot
name: Support Bot
models:
  - id: gpt
    provider: openai
    name: gpt-4o
    settings:
      temperature: 0.2
prompts:
  - id: answer
    template: "Answer: {question}"
    inputs:
      - id: question
        type: text
flows:
  - id: main
    steps:
      - id: ask
        kind: input_message
        outputs: [question]
      - id: reply
        kind: llm
        model: gpt
        prompt: answer
        inputs: [question]
        outputs:
          - id: answer_text
            type: text
`)

	require.Equal(t, DocApplication, doc.Type)
	app := doc.App
	require.NotNil(t, app)
	assert.Equal(t, "support_bot", app.ID)
	require.Len(t, app.Models, 1)
	assert.Equal(t, "openai", app.Models[0].Provider)
	assert.Equal(t, ModelLLM, app.Models[0].Kind)
	assert.Equal(t, 0.2, app.Models[0].Settings["temperature"])

	require.Len(t, app.Flows, 1)
	steps := app.Flows[0].Steps
	require.Len(t, steps, 2)

	// A bare identifier stays a pending reference until linking.
	reply := steps[1].Value
	require.NotNil(t, reply)
	require.NotNil(t, reply.Model)
	assert.False(t, reply.Model.Resolved())
	assert.Equal(t, "gpt", reply.Model.ID)

	// An inline definition is resolved from the start.
	require.Len(t, reply.Outputs, 1)
	assert.True(t, reply.Outputs[0].Resolved())
	assert.Equal(t, "answer_text", reply.Outputs[0].Value.ID)
}

func TestParseDocument_ExplicitRefForm(t *testing.T) {
	doc := mustParse(t, `
id: app
flows:
  - id: main
    steps:
      - id: reply
        kind: llm
        model: {$ref: gpt}
`)

	model := doc.App.Flows[0].Steps[0].Value.Model
	require.NotNil(t, model)
	assert.False(t, model.Resolved())
	assert.Equal(t, "gpt", model.ID)
}

func TestParseDocument_UnknownFieldReportsPath(t *testing.T) {
	_, err := parse(t, `
id: app
flows:
  - id: main
    steps:
      - id: reply
        kind: llm
        modell: gpt
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.yaml: flows[0].steps[0].modell: unknown field")
}

func TestParseDocument_CollectsAllErrors(t *testing.T) {
	_, err := parse(t, `
id: app
models:
  - id: m1
  - provider: openai
`)

	require.Error(t, err)
	var typeErrs *TypeErrors
	require.ErrorAs(t, err, &typeErrs)
	assert.Contains(t, err.Error(), "models[0].provider: a model requires a provider")
	assert.Contains(t, err.Error(), "models[1].id: a model requires an id")
}

func TestParseDocument_UnknownStepKindFails(t *testing.T) {
	_, err := parse(t, `
id: app
flows:
  - id: main
    steps:
      - id: s1
        kind: teleport
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown step kind "teleport"`)
}

func TestParseDocument_VariableTypeValidated(t *testing.T) {
	_, err := parse(t, `
id: app
inputs:
  - id: who
    type: customer
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `inputs[0].type: unknown type "customer"`)
}

func TestParseDocument_VariableCustomTypeFromTypesSection(t *testing.T) {
	doc := mustParse(t, `
id: app
types:
  - name: customer
    properties:
      - name: name
        type: string
        required: true
inputs:
  - id: who
    type: customer
`)

	require.Len(t, doc.App.Inputs, 1)
	assert.Equal(t, "customer", doc.App.Inputs[0].Type)
}

func TestParseDocument_DefaultMustMatchType(t *testing.T) {
	_, err := parse(t, `
id: app
inputs:
  - id: retries
    type: number
    default: [1, 2]
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs[0].default")
}

func TestParseDocument_ModelListVariant(t *testing.T) {
	doc := mustParse(t, `
- id: m1
  provider: openai
- id: m2
  provider: anthropic
  kind: embedding
`)

	require.Equal(t, DocModels, doc.Type)
	require.Len(t, doc.Models, 2)
	assert.Equal(t, ModelEmbedding, doc.Models[1].Kind)
}

func TestParseDocument_AuthListVariant(t *testing.T) {
	doc := mustParse(t, `
- id: a1
  api_key: sk-123
`)

	require.Equal(t, DocAuthProviders, doc.Type)
	require.Len(t, doc.AuthProviders, 1)
}

func TestParseDocument_ToolListVariant(t *testing.T) {
	doc := mustParse(t, `
- id: t1
  inputs:
    - id: q
      type: string
`)

	require.Equal(t, DocTools, doc.Type)
	require.Len(t, doc.Tools, 1)
}

func TestParseDocument_VariableListVariant(t *testing.T) {
	doc := mustParse(t, `
- id: v1
  type: string
`)

	require.Equal(t, DocVariables, doc.Type)
	require.Len(t, doc.Variables, 1)
}

func TestParseDocument_TypeListVariant(t *testing.T) {
	doc := mustParse(t, `
- name: customer
  properties:
    - name: name
      type: string
`)

	require.Equal(t, DocTypes, doc.Type)
	require.Len(t, doc.Types, 1)
	assert.Equal(t, "customer", doc.Types[0].Name)
}

func TestParseDocument_UnrecognizedSequenceFails(t *testing.T) {
	_, err := parse(t, `
- just_a: thing
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match any known component list")
}

func TestParseDocument_ScalarRootFails(t *testing.T) {
	_, err := parse(t, `42`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document root must be a mapping or a sequence")
}

func TestParseDocument_NestedReferences(t *testing.T) {
	doc := mustParse(t, `
id: app
references:
  - - id: shared_model
      provider: openai
`)

	require.Len(t, doc.App.References, 1)
	sub := doc.App.References[0]
	assert.Equal(t, DocModels, sub.Type)
	require.Len(t, sub.Models, 1)
}

func TestParseDocument_RoundTrip(t *testing.T) {
	text := `
id: app
models:
  - id: gpt
    provider: openai
flows:
  - id: main
    steps:
      - id: ask
        kind: input_message
        outputs:
          - id: q
            type: text
      - id: reply
        kind: llm
        model: gpt
        inputs: [q]
`
	first := mustParse(t, text)

	rendered, err := yaml.Marshal(first)
	require.NoError(t, err)
	second := mustParse(t, string(rendered))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("round trip changed the document (-first +second):\n%s", diff)
	}
}
