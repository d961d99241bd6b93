package tensor

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, in *Tensor) *Tensor {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, in.EncodeTo(&buf))
	out, err := Decode(&buf)
	require.NoError(t, err)
	return out
}

func TestCodec_Dense(t *testing.T) {
	in := MustNew(Float32, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	out := roundTrip(t, in)
	assert.Equal(t, in.DType(), out.DType())
	assert.Equal(t, in.Shape(), out.Shape())
	assert.Equal(t, in.Float64s(), out.Float64s())
}

func TestCodec_SpecialValues(t *testing.T) {
	in := MustNew(Float64, []int{3}, []float64{math.NaN(), math.Inf(1), math.Inf(-1)})
	out := roundTrip(t, in)
	vals := out.Float64s()
	assert.True(t, math.IsNaN(vals[0]))
	assert.True(t, math.IsInf(vals[1], 1))
	assert.True(t, math.IsInf(vals[2], -1))
}

func TestCodec_ZeroDim(t *testing.T) {
	in := MustNew(Int64, nil, []float64{7})
	out := roundTrip(t, in)
	assert.Equal(t, 0, len(out.Shape()))
	v, err := out.Item()
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestCodec_Sparse(t *testing.T) {
	in, err := NewSparse(Float64, []int{3, 3},
		[][]int{{0, 1}, {2, 2}, {0, 1}},
		[]float64{1, 2, 3})
	require.NoError(t, err)

	out := roundTrip(t, in)
	require.True(t, out.IsSparse())
	assert.Equal(t, in.NNZ(), out.NNZ())
	assert.Equal(t, in.Indices().Float64s(), out.Indices().Float64s())
	assert.Equal(t, in.Values().Float64s(), out.Values().Float64s())

	// Coalesced state survives the round trip.
	c := roundTrip(t, in.Coalesce())
	assert.Same(t, c, c.Coalesce())
}

func TestCodec_Quantized(t *testing.T) {
	in, err := NewQuantizedPerChannel(QInt8, []int{2, 2},
		[]int64{1, 2, 3, 4},
		[]float64{0.5, 0.25}, []int64{1, 2}, 0)
	require.NoError(t, err)

	out := roundTrip(t, in)
	require.True(t, out.IsQuantized())
	assert.Equal(t, PerChannelAffine, out.QScheme())
	assert.Equal(t, in.ChannelScales(), out.ChannelScales())
	assert.Equal(t, in.ChannelZeroPoints(), out.ChannelZeroPoints())
	assert.Equal(t, in.Axis(), out.Axis())
	assert.Equal(t, in.IntRepr().Float64s(), out.IntRepr().Float64s())
}

func TestDecode_AbsurdCounts(t *testing.T) {
	// A corrupt header must be rejected by size, not trusted into a huge
	// allocation.
	header := func(layout Layout) *bytes.Buffer {
		var buf bytes.Buffer
		buf.WriteString("TNSR")
		buf.Write([]byte{codecVersion, byte(layout), byte(Float64)})
		return &buf
	}

	dims := header(Strided)
	require.NoError(t, writeUvarint(dims, 1<<50))
	_, err := Decode(dims)
	require.ErrorContains(t, err, "exceeds remaining input")

	elems := header(Strided)
	require.NoError(t, writeUvarint(elems, 1))
	require.NoError(t, writeUvarint(elems, 1<<40))
	_, err = Decode(elems)
	require.ErrorContains(t, err, "exceeds remaining input")

	sparse := header(COO)
	require.NoError(t, writeUvarint(sparse, 1))     // ndim
	require.NoError(t, writeUvarint(sparse, 8))     // dim
	require.NoError(t, writeUvarint(sparse, 1<<40)) // nnz
	_, err = Decode(sparse)
	require.ErrorContains(t, err, "exceeds remaining input")
}

func TestDecode_BadInput(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("not a tensor"))
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, MustNew(Float64, []int{1}, []float64{1}).EncodeTo(&buf))
	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()-4])
	_, err = Decode(truncated)
	require.Error(t, err)
}
