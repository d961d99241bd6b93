package tensor

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// DType identifies the element type of a Tensor.
//
// Narrow floating types (Float16, BFloat16) and integer types are stored as
// float64 internally, but construction and AsType round every element through
// the declared precision so that equality semantics observe the real encoding.
type DType uint8

const (
	Invalid DType = iota
	Bool
	Int8
	Uint8
	Int16
	Int32
	Int64
	Float16
	BFloat16
	Float32
	Float64

	// Quantized element types: integer codes plus an affine scale/zero-point
	// mapping back to real values.
	QInt8
	QUInt8
	QInt32
)

var dtypeNames = map[DType]string{
	Bool:     "bool",
	Int8:     "int8",
	Uint8:    "uint8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Float16:  "float16",
	BFloat16: "bfloat16",
	Float32:  "float32",
	Float64:  "float64",
	QInt8:    "qint8",
	QUInt8:   "quint8",
	QInt32:   "qint32",
}

// String returns the lower-case dtype name.
func (dt DType) String() string {
	if name, ok := dtypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("dtype(%d)", uint8(dt))
}

// IsFloat reports whether the dtype is a floating-point encoding.
func (dt DType) IsFloat() bool {
	switch dt {
	case Float16, BFloat16, Float32, Float64:
		return true
	}
	return false
}

// IsQuantized reports whether the dtype is a quantized encoding.
func (dt DType) IsQuantized() bool {
	switch dt {
	case QInt8, QUInt8, QInt32:
		return true
	}
	return false
}

// IsSigned reports whether the dtype can represent negative values.
func (dt DType) IsSigned() bool {
	switch dt {
	case Uint8, Bool, QUInt8:
		return false
	}
	return true
}

// valid reports whether dt is one of the defined element types.
func (dt DType) valid() bool {
	_, ok := dtypeNames[dt]
	return ok
}

// codeRange returns the representable code range for a quantized dtype.
func (dt DType) codeRange() (lo, hi int64) {
	switch dt {
	case QInt8:
		return math.MinInt8, math.MaxInt8
	case QUInt8:
		return 0, math.MaxUint8
	case QInt32:
		return math.MinInt32, math.MaxInt32
	default:
		return 0, 0
	}
}

// round maps x onto the nearest value representable in dt.
// NaN and Inf pass through unchanged for floating dtypes.
func (dt DType) round(x float64) float64 {
	switch dt {
	case Bool:
		if x != 0 {
			return 1
		}
		return 0
	case Int8:
		return clampInt(x, math.MinInt8, math.MaxInt8)
	case Uint8:
		return clampInt(x, 0, math.MaxUint8)
	case Int16:
		return clampInt(x, math.MinInt16, math.MaxInt16)
	case Int32:
		return clampInt(x, math.MinInt32, math.MaxInt32)
	case Int64:
		return clampInt(x, math.MinInt64, math.MaxInt64)
	case Float16:
		return float64(float16.Fromfloat32(float32(x)).Float32())
	case BFloat16:
		return roundBFloat16(x)
	case Float32:
		return float64(float32(x))
	default:
		return x
	}
}

// clampInt truncates x toward zero and clamps it to [lo, hi].
// Non-finite inputs saturate at the range bounds.
func clampInt(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Trunc(x)
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// roundBFloat16 rounds x to bfloat16 precision (round-to-nearest-even on the
// upper 16 bits of the float32 representation).
func roundBFloat16(x float64) float64 {
	f := float32(x)
	bits := math.Float32bits(f)
	if math.IsNaN(float64(f)) {
		return float64(f)
	}
	rounded := bits + 0x7fff + ((bits >> 16) & 1)
	return float64(math.Float32frombits(rounded &^ 0xffff))
}
