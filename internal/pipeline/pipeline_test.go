package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowspec/internal/check"
	"github.com/specialistvlad/flowspec/internal/linker"
	"github.com/specialistvlad/flowspec/internal/pipeline"
	"github.com/specialistvlad/flowspec/internal/source"
	"github.com/specialistvlad/flowspec/internal/testutil"
)

const validApp = `
id: support_bot
models:
  - id: gpt
    provider: ${FLOWSPEC_TEST_PROVIDER:openai}
flows:
  - id: main
    steps:
      - id: ask
        kind: input_message
        outputs:
          - id: question
            type: text
      - id: reply
        kind: llm
        model: gpt
        inputs: [question]
        outputs:
          - id: answer
            type: text
`

func TestRun_EndToEnd(t *testing.T) {
	res := testutil.Compile(t, validApp)

	require.NoError(t, res.Err)
	app := res.Result.Lowered.App
	require.NotNil(t, app)
	assert.Equal(t, "support_bot", app.ID)
	assert.Equal(t, "openai", app.Models[0].Provider)
	assert.Empty(t, linker.Unresolved(res.Result.Linked))
}

func TestRun_StagesAreLogged(t *testing.T) {
	res := testutil.Compile(t, validApp)

	require.NoError(t, res.Err)
	assert.Contains(t, res.LogOutput, "Parsed document.")
	assert.Contains(t, res.LogOutput, "Linked document.")
	assert.Contains(t, res.LogOutput, "Semantic checks passed.")
}

func TestRun_IncludedFilesJoinTheNamespace(t *testing.T) {
	res := testutil.CompileFiles(t, map[string]string{
		"main.yaml": `
id: app
models: !include refs/models.yaml
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
        model: shared
        inputs: [q]
        outputs:
          - id: answer
            type: text
`,
		"refs/models.yaml": `
- id: shared
  provider: openai
`,
	}, "main.yaml")

	require.NoError(t, res.Err)
	app := res.Result.Lowered.App
	require.Len(t, app.Models, 1)
	assert.Same(t, app.Models[0], app.Flows[0].Steps[1].Model)
}

func TestRun_MissingEnvVarSurfaces(t *testing.T) {
	res := testutil.Compile(t, "id: app\nname: ${FLOWSPEC_TEST_DEFINITELY_UNSET}\n")

	require.Error(t, res.Err)
	var missing *source.MissingEnvVarError
	assert.ErrorAs(t, res.Err, &missing)
}

func TestRun_SemanticViolationsSurface(t *testing.T) {
	res := testutil.Compile(t, `
id: app
flows:
  - id: tiny
    steps:
      - id: only
        kind: input_message
        outputs:
          - id: q
            type: text
`)

	require.Error(t, res.Err)
	var vs check.Violations
	require.ErrorAs(t, res.Err, &vs)
	assert.Contains(t, res.Err.Error(), "at least 2 steps")
}

func TestRun_SkipChecks(t *testing.T) {
	res := testutil.CompileWithOptions(t, `
id: app
flows:
  - id: tiny
    steps:
      - id: only
        kind: input_message
        outputs:
          - id: q
            type: text
`, pipeline.Options{SkipChecks: true})

	require.NoError(t, res.Err)
	require.NotNil(t, res.Result.Lowered.App)
}

func TestRun_CustomTypesFlowThrough(t *testing.T) {
	res := testutil.Compile(t, `
id: app
types:
  - name: ticket
    properties:
      - name: subject
        type: string
        required: true
inputs:
  - id: incoming
    type: ticket
`)

	require.NoError(t, res.Err)
	assert.True(t, res.Result.Types.Has("ticket"))
	assert.True(t, res.Result.Lowered.App.Inputs[0].Type.IsObjectType())
}

func TestRun_FlatAuthListIsChecked(t *testing.T) {
	res := testutil.Compile(t, `
- id: half
  access_key_id: AKIA
`)

	require.Error(t, res.Err)
	var vs check.Violations
	require.ErrorAs(t, res.Err, &vs)
	assert.Contains(t, res.Err.Error(), "must be set together")
}

func TestRun_FlatListDocument(t *testing.T) {
	res := testutil.Compile(t, `
- id: m1
  provider: openai
- id: m2
  provider: anthropic
`)

	require.NoError(t, res.Err)
	assert.Nil(t, res.Result.Lowered.App)
	assert.Len(t, res.Result.Lowered.Models, 2)
}
