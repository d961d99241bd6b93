package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorcheck/internal/tensor"
	"github.com/roach88/tensorcheck/internal/value"
)

func oversizeValue(t *testing.T) value.Value {
	t.Helper()
	return value.Array{Tensor: tensor.MustNew(tensor.Float64, []int{7000}, make([]float64, 7000))}
}

func TestPrune_Match(t *testing.T) {
	dir := t.TempDir()
	kept := writeArtifact(t, dir, "TestKeep", value.Scalar(1))
	gone := writeArtifact(t, dir, "TestDrop", value.Scalar(2))

	out, err := execute(t, "prune", dir, "--match", "TestDrop*")
	require.NoError(t, err)
	assert.Contains(t, out, "removed expect/TestDrop_expect.tck")
	assert.Contains(t, out, "removed 1 artifact(s)")

	assert.FileExists(t, kept)
	assert.NoFileExists(t, gone)
}

func TestPrune_OversizeOnly(t *testing.T) {
	dir := t.TempDir()
	small := writeArtifact(t, dir, "TestSmall", value.Scalar(1))
	big := writeArtifact(t, dir, "TestBig", oversizeValue(t))

	_, err := execute(t, "prune", dir, "--oversize")
	require.NoError(t, err)

	assert.FileExists(t, small)
	assert.NoFileExists(t, big)
}

func TestPrune_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "TestDry", value.Scalar(1))

	out, err := execute(t, "prune", dir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would remove expect/TestDry_expect.tck")
	assert.FileExists(t, path)
}

func TestPrune_JSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "TestJSON", value.Scalar(1))

	out, err := execute(t, "prune", dir, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"count":1`)
}

func TestPrune_BadPattern(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "prune", dir, "--match", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
