package expect

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorcheck/internal/check"
	"github.com/roach88/tensorcheck/internal/tensor"
	"github.com/roach88/tensorcheck/internal/value"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChecker(t *testing.T, mode Mode) *Checker {
	t.Helper()
	return New(WithMode(mode), WithDir(t.TempDir()), WithLogger(quiet()))
}

func sample(last float64) value.Value {
	return value.Map{
		"loss":  value.Scalar(0.125),
		"preds": value.Array{Tensor: tensor.MustNew(tensor.Float32, []int{3}, []float64{0.5, 1.0, last})},
	}
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("pkg", "expect", "TestFoo_expect.tck"),
		ArtifactPath("pkg", "TestFoo", ""))
	assert.Equal(t,
		filepath.Join("pkg", "expect", "TestFoo_grad_expect.tck"),
		ArtifactPath("pkg", "TestFoo", "grad"))
}

func TestSanitizeIdentity(t *testing.T) {
	assert.Equal(t, "TestFoo.case_1", SanitizeIdentity("TestFoo/case 1"))
	assert.Equal(t, "TestBar.a-b_0", SanitizeIdentity("TestBar/a-b=0"))
	assert.Equal(t, "TestPlain", SanitizeIdentity("TestPlain"))
}

func TestVerify_MissingArtifact(t *testing.T) {
	c := newChecker(t, Verify)
	err := c.Compare("TestVerifyMissing", "", sample(2), check.Tolerance{})

	var aerr *ArtifactError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ArtifactMissing, aerr.Kind)
	assert.Contains(t, err.Error(), "--accept")
	assert.Contains(t, err.Error(), AcceptEnv)
}

func TestAccept_RecordsThenVerifies(t *testing.T) {
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))
	ver := New(WithMode(Verify), WithDir(dir), WithLogger(quiet()))

	require.NoError(t, acc.Compare("TestRecord", "", sample(2), check.Tolerance{}))
	require.FileExists(t, ArtifactPath(dir, "TestRecord", ""))
	require.NoError(t, ver.Compare("TestRecord", "", sample(2), check.Tolerance{}))
}

func TestVerify_Mismatch(t *testing.T) {
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))
	ver := New(WithMode(Verify), WithDir(dir), WithLogger(quiet()))

	require.NoError(t, acc.Compare("TestMismatch", "", sample(2), check.Tolerance{}))

	err := ver.Compare("TestMismatch", "", sample(3), check.Tolerance{})
	var aerr *ArtifactError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ArtifactMismatch, aerr.Kind)

	var m *check.Mismatch
	require.ErrorAs(t, err, &m)
	assert.Equal(t, check.KindTolerance, m.Kind)
	assert.Contains(t, err.Error(), "re-record")
}

func TestAccept_ReRecordsOnChange(t *testing.T) {
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))
	ver := New(WithMode(Verify), WithDir(dir), WithLogger(quiet()))

	require.NoError(t, acc.Compare("TestReRecord", "", sample(2), check.Tolerance{}))
	require.NoError(t, acc.Compare("TestReRecord", "", sample(3), check.Tolerance{}))

	require.NoError(t, ver.Compare("TestReRecord", "", sample(3), check.Tolerance{}))
	err := ver.Compare("TestReRecord", "", sample(2), check.Tolerance{})
	require.Error(t, err)
}

func TestAccept_ReRecordsOnStructureChange(t *testing.T) {
	// A recording with an entirely different shape must not wedge accept
	// mode; any comparison failure leads to a re-record.
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))
	ver := New(WithMode(Verify), WithDir(dir), WithLogger(quiet()))

	require.NoError(t, acc.Compare("TestReshape", "", value.Scalar(1), check.Tolerance{}))
	require.NoError(t, acc.Compare("TestReshape", "", sample(2), check.Tolerance{}))
	require.NoError(t, ver.Compare("TestReshape", "", sample(2), check.Tolerance{}))
}

func TestAccept_MatchingOutputLeavesArtifactAlone(t *testing.T) {
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))

	require.NoError(t, acc.Compare("TestStable", "", sample(2), check.Tolerance{}))
	before, err := os.ReadFile(ArtifactPath(dir, "TestStable", ""))
	require.NoError(t, err)

	require.NoError(t, acc.Compare("TestStable", "", sample(2), check.Tolerance{}))
	after, err := os.ReadFile(ArtifactPath(dir, "TestStable", ""))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAccept_OversizeFails(t *testing.T) {
	c := newChecker(t, Accept)
	big := make([]float64, 7000)
	out := value.Array{Tensor: tensor.MustNew(tensor.Float64, []int{7000}, big)}

	err := c.Compare("TestOversize", "", out, check.Tolerance{})
	var aerr *ArtifactError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ArtifactOversize, aerr.Kind)
	assert.Greater(t, aerr.Size, int64(MaxArtifactSize))

	// The recording still lands on disk for inspection.
	require.FileExists(t, aerr.Path)
}

func TestCorruptArtifactPropagates(t *testing.T) {
	dir := t.TempDir()
	path := ArtifactPath(dir, "TestCorrupt", "")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not an artifact"), 0o644))

	for _, mode := range []Mode{Verify, Accept} {
		c := New(WithMode(mode), WithDir(dir), WithLogger(quiet()))
		err := c.Compare("TestCorrupt", "", sample(2), check.Tolerance{})
		require.Error(t, err, mode.String())
		var aerr *ArtifactError
		assert.False(t, errors.As(err, &aerr), mode.String())
	}
}

func TestReadFaultPropagates(t *testing.T) {
	dir := t.TempDir()
	path := ArtifactPath(dir, "TestDirInPlace", "")
	require.NoError(t, os.MkdirAll(path, 0o755))

	c := New(WithMode(Verify), WithDir(dir), WithLogger(quiet()))
	err := c.Compare("TestDirInPlace", "", sample(2), check.Tolerance{})
	require.Error(t, err)
	var aerr *ArtifactError
	assert.False(t, errors.As(err, &aerr))
}

func TestCheckSub(t *testing.T) {
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))
	ver := New(WithMode(Verify), WithDir(dir), WithLogger(quiet()))

	acc.CheckSub(t, "weights", sample(2))
	acc.CheckSub(t, "bias", value.Scalar(0.5))

	require.FileExists(t, ArtifactPath(dir, "TestCheckSub", "weights"))
	require.FileExists(t, ArtifactPath(dir, "TestCheckSub", "bias"))

	ver.CheckSub(t, "weights", sample(2))
	ver.CheckSub(t, "bias", value.Scalar(0.5))
}

func TestCheckUsesSubtestIdentity(t *testing.T) {
	dir := t.TempDir()
	acc := New(WithMode(Accept), WithDir(dir), WithLogger(quiet()))

	t.Run("case one", func(t *testing.T) {
		acc.Check(t, value.Scalar(7))
	})
	require.FileExists(t, ArtifactPath(dir, "TestCheckUsesSubtestIdentity.case_one", ""))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "verify", Verify.String())
	assert.Equal(t, "accept", Accept.String())
}
