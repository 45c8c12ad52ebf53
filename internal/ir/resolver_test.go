package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/flowspec/internal/dsl"
	"github.com/specialistvlad/flowspec/internal/linker"
	"github.com/specialistvlad/flowspec/internal/typesys"
)

// lower parses, links and lowers a document from literal YAML.
func lower(t *testing.T, text string) *Document {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &root))
	reg := typesys.NewRegistry()
	require.NoError(t, typesys.Collect(&root, reg))
	doc, err := dsl.ParseDocument(&root, reg, "test.yaml")
	require.NoError(t, err)
	linked, err := linker.Link(doc)
	require.NoError(t, err)
	out, err := NewResolver(reg).Resolve(linked)
	require.NoError(t, err)
	return out
}

func TestResolve_SharedReferenceLowersToOneInstance(t *testing.T) {
	doc := lower(t, `
id: app
models:
  - id: gpt
    provider: openai
flows:
  - id: main
    steps:
      - id: a
        kind: llm
        model: gpt
      - id: b
        kind: llm
        model: gpt
`)

	steps := doc.App.Flows[0].Steps
	require.NotNil(t, steps[0].Model)
	assert.Same(t, steps[0].Model, steps[1].Model)
	assert.Same(t, doc.App.Models[0], steps[0].Model)
}

func TestResolve_VariableTypeCompiled(t *testing.T) {
	doc := lower(t, `
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
  - id: tags
    type: list(string)
`)

	who := doc.App.Inputs[0]
	assert.Equal(t, "customer", who.TypeName)
	assert.True(t, who.Type.IsObjectType())

	tags := doc.App.Inputs[1]
	assert.True(t, tags.Type.Equals(cty.List(cty.String)))
}

func TestResolve_RequiredDefaulting(t *testing.T) {
	doc := lower(t, `
id: app
inputs:
  - id: plain
    type: string
  - id: with_default
    type: string
    default: hello
  - id: explicit_optional
    type: string
    required: false
  - id: forced_required
    type: string
    default: hello
    required: true
`)

	inputs := doc.App.Inputs
	assert.True(t, inputs[0].Required, "no default and no flag means required")
	assert.False(t, inputs[1].Required, "a default makes the variable optional")
	assert.False(t, inputs[2].Required)
	assert.True(t, inputs[3].Required, "an explicit flag wins over the default")
}

func TestResolve_CollectionsAreNonNil(t *testing.T) {
	doc := lower(t, `
id: app
`)

	app := doc.App
	assert.NotNil(t, app.Models)
	assert.NotNil(t, app.Flows)
	assert.NotNil(t, app.Tools)
	assert.NotNil(t, app.Inputs)
	assert.NotNil(t, app.AuthProviders)
}

func TestResolve_ModelKindDefaultsToLLM(t *testing.T) {
	doc := lower(t, `
id: app
models:
  - id: gpt
    provider: openai
`)

	assert.Equal(t, dsl.ModelLLM, doc.App.Models[0].Kind)
}

func TestResolve_ReferencesFoldIn(t *testing.T) {
	doc := lower(t, `
id: app
references:
  - - id: shared_model
      provider: openai
      kind: embedding
`)

	require.Len(t, doc.App.Models, 1)
	assert.Equal(t, "shared_model", doc.App.Models[0].ID)
	assert.Equal(t, dsl.ModelEmbedding, doc.App.Models[0].Kind)
}

func TestResolve_UnlinkedReferenceIsInternalError(t *testing.T) {
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
id: app
models:
  - id: gpt
    provider: openai
flows:
  - id: main
    steps:
      - id: a
        kind: llm
        model: gpt
`), &root))
	reg := typesys.NewRegistry()
	doc, err := dsl.ParseDocument(&root, reg, "test.yaml")
	require.NoError(t, err)

	// Lowering the parsed tree without linking must fail loudly.
	_, err = NewResolver(reg).Resolve(doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "still unresolved")
}

func TestResolve_FlatModelList(t *testing.T) {
	doc := lower(t, `
- id: m1
  provider: openai
`)

	assert.Nil(t, doc.App)
	require.Len(t, doc.Models, 1)
	assert.Equal(t, "m1", doc.Models[0].ID)
}
