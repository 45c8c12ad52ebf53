package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowspec/internal/source"
)

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer

	cfg, shouldExit, err := Parse(nil, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_PositionalPath(t *testing.T) {
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{"spec.yaml"}, &out)

	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, cfg)
	assert.Equal(t, "spec.yaml", cfg.SpecPath)
}

func TestParse_SpecFlagWinsOverPositional(t *testing.T) {
	var out bytes.Buffer

	cfg, _, err := Parse([]string{"-spec", "a.yaml", "b.yaml"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "a.yaml", cfg.SpecPath)
}

func TestParse_ShorthandFlag(t *testing.T) {
	var out bytes.Buffer

	cfg, _, err := Parse([]string{"-s", "spec.yaml"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "spec.yaml", cfg.SpecPath)
}

func TestParse_Defaults(t *testing.T) {
	var out bytes.Buffer

	cfg, _, err := Parse([]string{"spec.yaml"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Emit)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.SkipChecks)
	assert.Equal(t, source.DefaultMaxIncludeDepth, cfg.MaxIncludeDepth)
}

func TestParse_InvalidEmitFails(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-emit", "protobuf", "spec.yaml"}, &out)

	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid emit")
}

func TestParse_InvalidLogFormatFails(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-format", "xml", "spec.yaml"}, &out)

	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_InvalidLogLevelFails(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-level", "verbose", "spec.yaml"}, &out)

	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_HelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{"-h"}, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
}
