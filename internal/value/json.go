package value

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/roach88/tensorcheck/internal/tensor"
)

// MarshalJSONCanonical renders v as deterministic JSON: unordered map keys
// sort by UTF-16 code units per RFC 8785, strings are NFC normalized, and
// HTML characters are not escaped. JSON has no encoding for non-finite
// numbers, so those scalars render as the strings "NaN", "Infinity", and
// "-Infinity". The output is for rendering and diffing, not hashing.
func MarshalJSONCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalJSON(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Scalar:
		buf.WriteString(formatJSONNumber(float64(val)))
		return nil
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case String:
		writeJSONString(buf, string(val))
		return nil
	case Set:
		// Members sort by their rendered bytes so set output is
		// insertion-order independent.
		members := make([][]byte, 0, len(val))
		for m := range val {
			enc, err := MarshalJSONCanonical(m)
			if err != nil {
				return err
			}
			members = append(members, enc)
		}
		slices.SortFunc(members, bytes.Compare)
		buf.WriteByte('[')
		for i, m := range members {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(m)
		}
		buf.WriteByte(']')
		return nil
	case Map:
		buf.WriteByte('{')
		for i, k := range canonicalKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if err := marshalJSON(buf, val[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case *OrderedMap:
		buf.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if err := marshalJSON(buf, val.vals[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case Seq:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalJSON(buf, elem); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case Array:
		if val.Tensor == nil {
			return fmt.Errorf("value: cannot render nil tensor")
		}
		return marshalJSON(buf, tensorTree(val.Tensor))
	default:
		return fmt.Errorf("value: cannot render %T", v)
	}
}

// tensorTree expands a tensor into a mapping of its observable parts, in a
// fixed field order.
func tensorTree(t *tensor.Tensor) Value {
	m := NewOrderedMap().
		Set("dtype", String(t.DType().String())).
		Set("layout", String(t.Layout().String())).
		Set("shape", intSeq(t.Shape()))
	switch {
	case t.IsSparse():
		m.Set("nnz", Scalar(t.NNZ())).
			Set("indices", floatSeq(t.Indices().Float64s())).
			Set("values", floatSeq(t.Values().Float64s()))
	case t.IsQuantized():
		m.Set("qscheme", String(t.QScheme().String()))
		if t.QScheme() == tensor.PerChannelAffine {
			m.Set("axis", Scalar(t.Axis())).
				Set("scales", floatSeq(t.ChannelScales())).
				Set("zero_points", int64Seq(t.ChannelZeroPoints()))
		} else {
			m.Set("scale", Scalar(t.Scale())).
				Set("zero_point", Scalar(t.ZeroPoint()))
		}
		m.Set("int_repr", floatSeq(t.IntRepr().Float64s()))
	default:
		m.Set("values", floatSeq(t.Float64s()))
	}
	return m
}

func intSeq(xs []int) Seq {
	out := make(Seq, len(xs))
	for i, x := range xs {
		out[i] = Scalar(x)
	}
	return out
}

func int64Seq(xs []int64) Seq {
	out := make(Seq, len(xs))
	for i, x := range xs {
		out[i] = Scalar(x)
	}
	return out
}

func floatSeq(xs []float64) Seq {
	out := make(Seq, len(xs))
	for i, x := range xs {
		out[i] = Scalar(x)
	}
	return out
}

func formatJSONNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// writeJSONString emits s per RFC 8785 string rules: NFC normalized, with
// only control characters, the quote, and the backslash escaped. In
// particular <, >, &, U+2028, and U+2029 pass through unescaped.
func writeJSONString(buf *bytes.Buffer, s string) {
	s = normalize(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
