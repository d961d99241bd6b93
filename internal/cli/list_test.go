package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorcheck/internal/value"
)

func TestList_Text(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "TestAlpha", value.Scalar(0.5))
	writeArtifact(t, dir, "TestBeta.case", value.Scalar(1.5))

	out, err := execute(t, "list", dir)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_text", []byte(out))
}

func TestList_JSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "TestAlpha", value.Scalar(0.5))
	writeArtifact(t, dir, "TestBeta", value.Scalar(1.5))

	out, err := execute(t, "list", dir, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"count":2`)
	assert.Contains(t, out, "TestAlpha_expect.tck")
}

func TestList_Empty(t *testing.T) {
	out, err := execute(t, "list", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "0 artifact(s)")
}

func TestList_MissingDir(t *testing.T) {
	_, err := execute(t, "list", "/nonexistent/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
