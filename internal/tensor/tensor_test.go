package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ShapeValidation(t *testing.T) {
	_, err := New(Float32, []int{2, 3}, make([]float64, 5))
	require.Error(t, err)

	_, err = New(Float32, []int{-1}, nil)
	require.Error(t, err)

	_, err = New(QInt8, []int{1}, []float64{0})
	require.Error(t, err, "quantized dtypes need the quantized constructors")

	tt, err := New(Float64, nil, []float64{3.5})
	require.NoError(t, err)
	assert.Equal(t, 0, len(tt.Shape()))
	assert.Equal(t, 1, tt.Numel())
}

func TestDTypeRounding(t *testing.T) {
	tests := []struct {
		name string
		dt   DType
		in   float64
		want float64
	}{
		{"bool_nonzero", Bool, 2.5, 1},
		{"bool_zero", Bool, 0, 0},
		{"int8_clamp_high", Int8, 300, 127},
		{"int8_clamp_low", Int8, -300, -128},
		{"int32_trunc", Int32, 2.9, 2},
		{"uint8_negative", Uint8, -3, 0},
		{"float32_narrowing", Float32, 0.1, float64(float32(0.1))},
		{"float16_coarse", Float16, 1.0009765625, 1.0009765625},
		{"float64_identity", Float64, 0.1, 0.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := MustNew(tc.dt, []int{1}, []float64{tc.in})
			assert.Equal(t, tc.want, tt.Float64s()[0])
		})
	}
}

func TestDTypeRounding_SpecialValues(t *testing.T) {
	tt := MustNew(Float16, []int{3}, []float64{math.NaN(), math.Inf(1), math.Inf(-1)})
	vals := tt.Float64s()
	assert.True(t, math.IsNaN(vals[0]))
	assert.True(t, math.IsInf(vals[1], 1))
	assert.True(t, math.IsInf(vals[2], -1))
}

func TestItem(t *testing.T) {
	tt := MustNew(Float64, []int{1, 1}, []float64{42})
	v, err := tt.Item()
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	_, err = MustNew(Float64, []int{2}, []float64{1, 2}).Item()
	require.Error(t, err)
}

func TestSubAbsMax(t *testing.T) {
	a := MustNew(Float64, []int{2, 2}, []float64{1, 2, 3, 4})
	b := MustNew(Float64, []int{2, 2}, []float64{1, 4, 1, 4})

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -2, 2, 0}, diff.Float64s())
	assert.Equal(t, []float64{0, 2, 2, 0}, diff.Abs().Float64s())
	assert.Equal(t, 2.0, diff.Abs().Max())

	_, err = a.Sub(MustNew(Float64, []int{4}, []float64{1, 2, 3, 4}))
	require.Error(t, err)
}

func TestMasks(t *testing.T) {
	tt := MustNew(Float64, []int{4}, []float64{1, math.NaN(), math.Inf(1), math.Inf(-1)})
	assert.Equal(t, []bool{false, true, false, false}, tt.NaNMask())
	assert.Equal(t, []int8{0, 0, 1, -1}, tt.InfSigns())
}

func TestAsType_BoolToInt(t *testing.T) {
	tt := MustNew(Bool, []int{3}, []float64{0, 1, 5})
	asInt := tt.AsType(Int64)
	assert.Equal(t, Int64, asInt.DType())
	assert.Equal(t, []float64{0, 1, 1}, asInt.Float64s())
}

func TestSparse_Coalesce(t *testing.T) {
	// Two entries for (1,0) should merge by summation; output sorted by
	// linearized index.
	tt, err := NewSparse(Float64, []int{2, 2},
		[][]int{{1, 0}, {0, 1}, {1, 0}},
		[]float64{1, 5, 2})
	require.NoError(t, err)
	require.Equal(t, 3, tt.NNZ())

	c := tt.Coalesce()
	require.Equal(t, 2, c.NNZ())
	assert.Same(t, c, c.Coalesce())

	// (0,1) has linear index 1, (1,0) has linear index 2.
	assert.Equal(t, []float64{0, 1, 1, 0}, c.Indices().Float64s())
	assert.Equal(t, []float64{5, 3}, c.Values().Float64s())
	assert.Equal(t, []int{2, 2}, c.Indices().Shape())
	assert.Equal(t, []int{2}, c.Values().Shape())
}

func TestSparse_Validation(t *testing.T) {
	_, err := NewSparse(Float64, []int{2}, [][]int{{5}}, []float64{1})
	require.Error(t, err, "index out of bounds")

	_, err = NewSparse(Float64, []int{2, 2}, [][]int{{0}}, []float64{1})
	require.Error(t, err, "wrong index rank")

	_, err = NewSparse(Float64, nil, nil, nil)
	require.Error(t, err, "sparse tensors need at least one dimension")
}

func TestQuantized_PerTensor(t *testing.T) {
	tt, err := NewQuantizedPerTensor(QInt8, []int{2}, []int64{10, -4}, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, PerTensorAffine, tt.QScheme())
	assert.Equal(t, 0.5, tt.Scale())
	assert.Equal(t, int64(2), tt.ZeroPoint())

	ir := tt.IntRepr()
	assert.Equal(t, Int64, ir.DType())
	assert.Equal(t, []float64{10, -4}, ir.Float64s())

	dq := tt.Dequantize()
	assert.Equal(t, []float64{4, -3}, dq.Float64s())
}

func TestQuantized_PerChannel(t *testing.T) {
	// Shape (2,2), axis 0: row 0 scaled by 1, row 1 scaled by 10.
	tt, err := NewQuantizedPerChannel(QUInt8, []int{2, 2},
		[]int64{1, 2, 3, 4},
		[]float64{1, 10}, []int64{0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, PerChannelAffine, tt.QScheme())
	assert.Equal(t, 0, tt.Axis())
	assert.Equal(t, []float64{1, 2, 30, 40}, tt.Dequantize().Float64s())
}

func TestQuantized_CodeClamping(t *testing.T) {
	tt, err := NewQuantizedPerTensor(QInt8, []int{2}, []int64{1000, -1000}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{127, -128}, tt.IntRepr().Float64s())
}

func TestQuantized_Validation(t *testing.T) {
	_, err := NewQuantizedPerTensor(Float32, []int{1}, []int64{0}, 1, 0)
	require.Error(t, err, "dense dtype rejected")

	_, err = NewQuantizedPerChannel(QInt8, []int{2, 3}, make([]int64, 6),
		[]float64{1}, []int64{0}, 0)
	require.Error(t, err, "scale count must match channel count")

	_, err = NewQuantizedPerChannel(QInt8, []int{2}, make([]int64, 2),
		[]float64{1, 1}, []int64{0, 0}, 3)
	require.Error(t, err, "axis out of range")
}
