package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeFiles materializes a file map under a fresh temp dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// mappingValue returns the value node for a key of a document's root
// mapping.
func mappingValue(t *testing.T, doc *yaml.Node, key string) *yaml.Node {
	t.Helper()
	require.Equal(t, yaml.DocumentNode, doc.Kind)
	root := doc.Content[0]
	require.Equal(t, yaml.MappingNode, root.Kind)
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1]
		}
	}
	t.Fatalf("key %q not found in root mapping", key)
	return nil
}

func TestExpandEnv_ReplacesSetVariable(t *testing.T) {
	t.Setenv("FLOWSPEC_TEST_NAME", "production")

	out, err := ExpandEnv("env: ${FLOWSPEC_TEST_NAME}")

	require.NoError(t, err)
	assert.Equal(t, "env: production", out)
}

func TestExpandEnv_MissingWithoutDefaultFails(t *testing.T) {
	_, err := ExpandEnv("${FLOWSPEC_TEST_DEFINITELY_UNSET}")

	require.Error(t, err)
	var missing *MissingEnvVarError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "FLOWSPEC_TEST_DEFINITELY_UNSET", missing.Name)
}

func TestExpandEnv_FallsBackToDefault(t *testing.T) {
	out, err := ExpandEnv("${FLOWSPEC_TEST_DEFINITELY_UNSET:8080}")

	require.NoError(t, err)
	assert.Equal(t, "8080", out)
}

func TestExpandEnv_EmptyDefaultIsValid(t *testing.T) {
	out, err := ExpandEnv("x${FLOWSPEC_TEST_DEFINITELY_UNSET:}y")

	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}

func TestExpandEnv_SetVariableWinsOverDefault(t *testing.T) {
	t.Setenv("FLOWSPEC_TEST_PORT", "9999")

	out, err := ExpandEnv("${FLOWSPEC_TEST_PORT:8080}")

	require.NoError(t, err)
	assert.Equal(t, "9999", out)
}

func TestLoad_SubstitutedScalarStaysString(t *testing.T) {
	// The substituted value must stand for itself, not be re-read as a
	// YAML integer.
	doc, _, err := NewLoader().Load(context.Background(), "port: ${FLOWSPEC_TEST_DEFINITELY_UNSET:8080}\n")

	require.NoError(t, err)
	val := mappingValue(t, doc, "port")
	assert.Equal(t, "8080", val.Value)
	assert.Equal(t, "!!str", val.Tag)
}

func TestLoad_MissingVariableReportsLocation(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.yaml": "id: app\nkey: ${FLOWSPEC_TEST_DEFINITELY_UNSET}\n",
	})

	_, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.yaml"))

	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 1, loadErr.Line)
	var missing *MissingEnvVarError
	assert.ErrorAs(t, err, &missing)
}

func TestLoad_IncludeSplicesParsedContent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.yaml":        "id: app\nmodels: !include refs/models.yaml\n",
		"refs/models.yaml": "- id: m1\n  provider: openai\n",
	})

	doc, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.yaml"))

	require.NoError(t, err)
	models := mappingValue(t, doc, "models")
	require.Equal(t, yaml.SequenceNode, models.Kind)
	require.Len(t, models.Content, 1)
}

func TestLoad_IncludeRawKeepsText(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.yaml":  "id: app\ntemplate: !include_raw prompt.txt\n",
		"prompt.txt": "Answer as {persona}: {question}",
	})

	doc, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.yaml"))

	require.NoError(t, err)
	tmpl := mappingValue(t, doc, "template")
	assert.Equal(t, yaml.ScalarNode, tmpl.Kind)
	assert.Equal(t, "!!str", tmpl.Tag)
	assert.Equal(t, "Answer as {persona}: {question}", tmpl.Value)
}

func TestLoad_NestedIncludesExpand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.yaml": "id: app\nextra: !include a.yaml\n",
		"a.yaml":    "inner: !include b.yaml\n",
		"b.yaml":    "leaf: true\n",
	})

	doc, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.yaml"))

	require.NoError(t, err)
	extra := mappingValue(t, doc, "extra")
	require.Equal(t, yaml.MappingNode, extra.Kind)
	assert.Equal(t, "inner", extra.Content[0].Value)
}

func TestLoad_IncludeCycleFails(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.yaml": "next: !include b.yaml\n",
		"b.yaml": "next: !include a.yaml\n",
	})

	_, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "a.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle detected")
}

func TestLoad_SelfIncludeFails(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.yaml": "next: !include a.yaml\n",
	})

	_, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "a.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle detected")
}

func TestLoad_IncludeDepthBound(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.yaml": "next: !include a.yaml\n",
		"a.yaml":    "next: !include b.yaml\n",
		"b.yaml":    "leaf: true\n",
	})
	loader := &Loader{MaxIncludeDepth: 1}

	_, _, err := loader.Load(context.Background(), filepath.Join(dir, "main.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "include depth exceeded")
}

func TestLoad_EmptyDocumentFails(t *testing.T) {
	dir := writeFiles(t, map[string]string{"empty.yaml": ""})

	_, _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "empty.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document is empty")
}

func TestLoad_MissingFileFails(t *testing.T) {
	dir := t.TempDir()

	// The file scheme forces path interpretation; a bare nonexistent path
	// would be read as literal YAML.
	_, _, err := NewLoader().Load(context.Background(), "file://"+filepath.Join(dir, "nope.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot retrieve source")
}

func TestIsURI(t *testing.T) {
	dir := writeFiles(t, map[string]string{"spec.yaml": "id: app\n"})

	assert.True(t, IsURI("https://example.com/spec.yaml"))
	assert.True(t, IsURI("s3://bucket/key.yaml"))
	assert.True(t, IsURI(filepath.Join(dir, "spec.yaml")))
	assert.False(t, IsURI("id: app\nname: x\n"))
	assert.False(t, IsURI(filepath.Join(dir, "missing.yaml")))
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Source: "main.yaml", Line: 3, Column: 7, Msg: "boom"}
	assert.Equal(t, "boom (in main.yaml, line 3, column 7)", err.Error())

	err = &LoadError{Source: "main.yaml", Line: -1, Column: -1, Msg: "boom"}
	assert.Equal(t, "boom (in main.yaml)", err.Error())
}

func TestLoadError_Unwrap(t *testing.T) {
	inner := &MissingEnvVarError{Name: "X"}
	err := &LoadError{Source: "s", Line: -1, Column: -1, Msg: inner.Error(), Err: inner}

	var missing *MissingEnvVarError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "X", missing.Name)
}
