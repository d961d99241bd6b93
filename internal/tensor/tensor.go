package tensor

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Layout identifies the storage layout of a Tensor.
type Layout uint8

const (
	// Strided is the default dense row-major layout.
	Strided Layout = iota
	// COO is the sparse coordinate layout: explicit (index, value) pairs.
	COO
	// Affine is the quantized layout: integer codes plus scale/zero-point.
	Affine
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case Strided:
		return "strided"
	case COO:
		return "sparse_coo"
	case Affine:
		return "quantized_affine"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// QScheme identifies the quantization scheme of an Affine tensor.
type QScheme uint8

const (
	// PerTensorAffine quantizes with a single scale and zero point.
	PerTensorAffine QScheme = iota + 1
	// PerChannelAffine quantizes with one scale and zero point per channel
	// along a designated axis.
	PerChannelAffine
)

// String returns the scheme name.
func (q QScheme) String() string {
	switch q {
	case PerTensorAffine:
		return "per_tensor_affine"
	case PerChannelAffine:
		return "per_channel_affine"
	default:
		return fmt.Sprintf("qscheme(%d)", uint8(q))
	}
}

// Tensor is a multi-dimensional numeric array.
//
// A Tensor is immutable after construction: every accessor returns copies or
// fresh tensors. Dense element values live in a row-major float64 slice,
// rounded through the declared dtype's precision at construction time.
// Sparse tensors carry explicit COO (index, value) entries; quantized tensors
// carry integer codes plus affine parameters.
type Tensor struct {
	dtype  DType
	shape  []int
	layout Layout

	// Strided payload.
	data []float64

	// COO payload. indices holds nnz*ndim entries, entry j's coordinate for
	// dimension d at indices[d*nnz+j] (dimension-major, matching Indices()).
	indices   []int64
	nnz       int
	values    []float64
	coalesced bool

	// Affine payload.
	scheme QScheme
	scales []float64
	zeros  []int64
	axis   int
	codes  []int64
}

// New creates a dense tensor with the given dtype, shape and row-major
// element values. Values are rounded through the dtype's precision.
// A nil or empty shape creates a zero-dimensional (scalar) tensor.
func New(dt DType, shape []int, data []float64) (*Tensor, error) {
	if !dt.valid() || dt.IsQuantized() {
		return nil, fmt.Errorf("tensor: invalid dense dtype %s", dt)
	}
	shape, n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("tensor: shape %v wants %d elements, got %d", shape, n, len(data))
	}
	rounded := make([]float64, len(data))
	for i, v := range data {
		rounded[i] = dt.round(v)
	}
	return &Tensor{dtype: dt, shape: shape, layout: Strided, data: rounded}, nil
}

// MustNew is New but panics on error. Intended for test fixtures.
func MustNew(dt DType, shape []int, data []float64) *Tensor {
	t, err := New(dt, shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates a zero-dimensional tensor holding a single value.
func Scalar(dt DType, v float64) (*Tensor, error) {
	return New(dt, nil, []float64{v})
}

// NewSparse creates a sparse COO tensor. Each entry of indices is one
// coordinate (length == len(shape)); values holds the matching element
// values. Duplicate coordinates are allowed and are summed by Coalesce.
func NewSparse(dt DType, shape []int, indices [][]int, values []float64) (*Tensor, error) {
	if !dt.valid() || dt.IsQuantized() {
		return nil, fmt.Errorf("tensor: invalid sparse dtype %s", dt)
	}
	shape, _, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("tensor: sparse tensors must have at least one dimension")
	}
	if len(indices) != len(values) {
		return nil, fmt.Errorf("tensor: %d indices but %d values", len(indices), len(values))
	}
	nnz := len(indices)
	ndim := len(shape)
	flat := make([]int64, ndim*nnz)
	for j, idx := range indices {
		if len(idx) != ndim {
			return nil, fmt.Errorf("tensor: index %v has %d dims, shape %v has %d", idx, len(idx), shape, ndim)
		}
		for d, i := range idx {
			if i < 0 || i >= shape[d] {
				return nil, fmt.Errorf("tensor: index %v out of bounds for shape %v", idx, shape)
			}
			flat[d*nnz+j] = int64(i)
		}
	}
	rounded := make([]float64, nnz)
	for i, v := range values {
		rounded[i] = dt.round(v)
	}
	return &Tensor{
		dtype:   dt,
		shape:   shape,
		layout:  COO,
		indices: flat,
		nnz:     nnz,
		values:  rounded,
	}, nil
}

// NewQuantizedPerTensor creates an affine-quantized tensor with a single
// scale and zero point. codes are clamped to the dtype's code range.
func NewQuantizedPerTensor(dt DType, shape []int, codes []int64, scale float64, zeroPoint int64) (*Tensor, error) {
	t, err := newQuantized(dt, shape, codes)
	if err != nil {
		return nil, err
	}
	t.scheme = PerTensorAffine
	t.scales = []float64{scale}
	t.zeros = []int64{zeroPoint}
	t.axis = -1
	return t, nil
}

// NewQuantizedPerChannel creates an affine-quantized tensor with one scale
// and zero point per channel along axis.
func NewQuantizedPerChannel(dt DType, shape []int, codes []int64, scales []float64, zeroPoints []int64, axis int) (*Tensor, error) {
	t, err := newQuantized(dt, shape, codes)
	if err != nil {
		return nil, err
	}
	if axis < 0 || axis >= len(t.shape) {
		return nil, fmt.Errorf("tensor: quantization axis %d out of range for shape %v", axis, t.shape)
	}
	if len(scales) != t.shape[axis] || len(zeroPoints) != t.shape[axis] {
		return nil, fmt.Errorf("tensor: axis %d has %d channels, got %d scales and %d zero points",
			axis, t.shape[axis], len(scales), len(zeroPoints))
	}
	t.scheme = PerChannelAffine
	t.scales = slices.Clone(scales)
	t.zeros = slices.Clone(zeroPoints)
	t.axis = axis
	return t, nil
}

func newQuantized(dt DType, shape []int, codes []int64) (*Tensor, error) {
	if !dt.IsQuantized() {
		return nil, fmt.Errorf("tensor: %s is not a quantized dtype", dt)
	}
	shape, n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(codes) != n {
		return nil, fmt.Errorf("tensor: shape %v wants %d codes, got %d", shape, n, len(codes))
	}
	lo, hi := dt.codeRange()
	clamped := make([]int64, len(codes))
	for i, c := range codes {
		clamped[i] = min(max(c, lo), hi)
	}
	return &Tensor{dtype: dt, shape: shape, layout: Affine, codes: clamped}, nil
}

func checkShape(shape []int) ([]int, int, error) {
	out := slices.Clone(shape)
	n := 1
	for _, d := range out {
		if d < 0 {
			return nil, 0, fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}
		n *= d
	}
	return out, n, nil
}

// DType returns the element type.
func (t *Tensor) DType() DType { return t.dtype }

// Layout returns the storage layout.
func (t *Tensor) Layout() Layout { return t.layout }

// IsSparse reports whether the tensor uses the sparse COO layout.
func (t *Tensor) IsSparse() bool { return t.layout == COO }

// IsQuantized reports whether the tensor uses the quantized affine layout.
func (t *Tensor) IsQuantized() bool { return t.layout == Affine }

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int { return slices.Clone(t.shape) }

// Numel returns the number of elements in the logical dense shape.
func (t *Tensor) Numel() int {
	n := 1
	for _, d := range t.shape {
		n *= d
	}
	return n
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Tensor) bool { return slices.Equal(a.shape, b.shape) }

// String describes the tensor as dtype[shape] with the layout appended for
// non-strided tensors.
func (t *Tensor) String() string {
	s := fmt.Sprintf("%s%v", t.dtype, t.shape)
	if t.layout != Strided {
		s += fmt.Sprintf(" (%s)", t.layout)
	}
	return s
}

// Float64s returns a copy of the dense element values in row-major order.
// For quantized tensors it returns the dequantized values.
func (t *Tensor) Float64s() []float64 {
	switch t.layout {
	case Strided:
		return slices.Clone(t.data)
	case Affine:
		return t.Dequantize().Float64s()
	default:
		return nil
	}
}

// Item unwraps a single-element dense tensor to its scalar value.
func (t *Tensor) Item() (float64, error) {
	if t.layout != Strided {
		return 0, fmt.Errorf("tensor: Item on %s layout", t.layout)
	}
	if len(t.data) != 1 {
		return 0, fmt.Errorf("tensor: Item on tensor with %d elements", len(t.data))
	}
	return t.data[0], nil
}

// AsType converts a dense tensor to another dtype, rounding every element
// through the target precision.
func (t *Tensor) AsType(dt DType) *Tensor {
	if t.layout != Strided {
		panic(fmt.Sprintf("tensor: AsType on %s layout", t.layout))
	}
	out, err := New(dt, t.shape, t.data)
	if err != nil {
		panic(err)
	}
	return out
}

// Sub returns the elementwise difference t-o as a float64 dense tensor.
// Shapes must match.
func (t *Tensor) Sub(o *Tensor) (*Tensor, error) {
	if t.layout != Strided || o.layout != Strided {
		return nil, fmt.Errorf("tensor: Sub wants strided tensors, got %s and %s", t.layout, o.layout)
	}
	if !SameShape(t, o) {
		return nil, fmt.Errorf("tensor: Sub shape mismatch %v vs %v", t.shape, o.shape)
	}
	diff := make([]float64, len(t.data))
	floats.SubTo(diff, t.data, o.data)
	return &Tensor{dtype: Float64, shape: slices.Clone(t.shape), layout: Strided, data: diff}, nil
}

// Abs returns the elementwise absolute value as a float64 dense tensor.
func (t *Tensor) Abs() *Tensor {
	abs := make([]float64, len(t.data))
	for i, v := range t.data {
		abs[i] = math.Abs(v)
	}
	return &Tensor{dtype: Float64, shape: slices.Clone(t.shape), layout: Strided, data: abs}
}

// Max returns the maximum element. It panics on an empty tensor.
func (t *Tensor) Max() float64 {
	return floats.Max(t.data)
}

// NaNMask returns a mask with true at every NaN position.
func (t *Tensor) NaNMask() []bool {
	mask := make([]bool, len(t.data))
	for i, v := range t.data {
		mask[i] = math.IsNaN(v)
	}
	return mask
}

// InfSigns returns +1/-1 at positions holding +Inf/-Inf and 0 elsewhere.
func (t *Tensor) InfSigns() []int8 {
	signs := make([]int8, len(t.data))
	for i, v := range t.data {
		switch {
		case math.IsInf(v, 1):
			signs[i] = 1
		case math.IsInf(v, -1):
			signs[i] = -1
		}
	}
	return signs
}

// Coalesce returns a sparse tensor with duplicate coordinates merged by
// summation and entries sorted by linearized index. Calling Coalesce on an
// already-coalesced tensor returns the receiver.
func (t *Tensor) Coalesce() *Tensor {
	if t.layout != COO {
		panic(fmt.Sprintf("tensor: Coalesce on %s layout", t.layout))
	}
	if t.coalesced {
		return t
	}
	strides := make([]int64, len(t.shape))
	stride := int64(1)
	for d := len(t.shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= int64(t.shape[d])
	}
	linear := make([]int64, t.nnz)
	for j := 0; j < t.nnz; j++ {
		for d := range t.shape {
			linear[j] += t.indices[d*t.nnz+j] * strides[d]
		}
	}
	order := make([]int, t.nnz)
	for j := range order {
		order[j] = j
	}
	sort.Slice(order, func(a, b int) bool { return linear[order[a]] < linear[order[b]] })

	var (
		mergedIdx [][]int
		mergedVal []float64
		last      = int64(-1)
	)
	for _, j := range order {
		if linear[j] == last {
			n := len(mergedVal) - 1
			mergedVal[n] = t.dtype.round(mergedVal[n] + t.values[j])
			continue
		}
		last = linear[j]
		coord := make([]int, len(t.shape))
		for d := range t.shape {
			coord[d] = int(t.indices[d*t.nnz+j])
		}
		mergedIdx = append(mergedIdx, coord)
		mergedVal = append(mergedVal, t.values[j])
	}
	out, err := NewSparse(t.dtype, t.shape, mergedIdx, mergedVal)
	if err != nil {
		panic(err)
	}
	out.coalesced = true
	return out
}

// NNZ returns the number of stored sparse entries.
func (t *Tensor) NNZ() int { return t.nnz }

// Indices returns the sparse coordinates as a dense int64 tensor of shape
// (ndim, nnz).
func (t *Tensor) Indices() *Tensor {
	if t.layout != COO {
		panic(fmt.Sprintf("tensor: Indices on %s layout", t.layout))
	}
	data := make([]float64, len(t.indices))
	for i, v := range t.indices {
		data[i] = float64(v)
	}
	out, err := New(Int64, []int{len(t.shape), t.nnz}, data)
	if err != nil {
		panic(err)
	}
	return out
}

// Values returns the stored sparse values as a dense tensor of shape (nnz).
func (t *Tensor) Values() *Tensor {
	if t.layout != COO {
		panic(fmt.Sprintf("tensor: Values on %s layout", t.layout))
	}
	out, err := New(t.dtype, []int{t.nnz}, t.values)
	if err != nil {
		panic(err)
	}
	return out
}

// QScheme returns the quantization scheme. Zero for non-quantized tensors.
func (t *Tensor) QScheme() QScheme { return t.scheme }

// Scale returns the per-tensor quantization scale.
func (t *Tensor) Scale() float64 { return t.scales[0] }

// ZeroPoint returns the per-tensor quantization zero point.
func (t *Tensor) ZeroPoint() int64 { return t.zeros[0] }

// ChannelScales returns a copy of the per-channel quantization scales.
func (t *Tensor) ChannelScales() []float64 { return slices.Clone(t.scales) }

// ChannelZeroPoints returns a copy of the per-channel zero points.
func (t *Tensor) ChannelZeroPoints() []int64 { return slices.Clone(t.zeros) }

// Axis returns the per-channel quantization axis.
func (t *Tensor) Axis() int { return t.axis }

// IntRepr returns the quantized integer codes as a wide signed dense tensor.
func (t *Tensor) IntRepr() *Tensor {
	if t.layout != Affine {
		panic(fmt.Sprintf("tensor: IntRepr on %s layout", t.layout))
	}
	data := make([]float64, len(t.codes))
	for i, c := range t.codes {
		data[i] = float64(c)
	}
	out, err := New(Int64, t.shape, data)
	if err != nil {
		panic(err)
	}
	return out
}

// Dequantize maps the integer codes back to real values:
// value = scale * (code - zero_point), per tensor or per channel.
func (t *Tensor) Dequantize() *Tensor {
	if t.layout != Affine {
		panic(fmt.Sprintf("tensor: Dequantize on %s layout", t.layout))
	}
	data := make([]float64, len(t.codes))
	switch t.scheme {
	case PerChannelAffine:
		// Channel index of flat element i along t.axis.
		inner := 1
		for d := t.axis + 1; d < len(t.shape); d++ {
			inner *= t.shape[d]
		}
		for i, c := range t.codes {
			ch := (i / inner) % t.shape[t.axis]
			data[i] = t.scales[ch] * float64(c-t.zeros[ch])
		}
	default:
		for i, c := range t.codes {
			data[i] = t.scales[0] * float64(c-t.zeros[0])
		}
	}
	out, err := New(Float32, t.shape, data)
	if err != nil {
		panic(err)
	}
	return out
}
