package value

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/roach88/tensorcheck/internal/tensor"
)

// Artifact encoding: one tag byte per variant followed by the payload.
// Scalars are raw IEEE-754 bits, so NaN and Inf are preserved exactly.
// Unordered containers are emitted in canonical order (see canonical.go),
// making the encoding deterministic for a given logical value.
const (
	tagScalar byte = iota + 1
	tagBool
	tagString
	tagSet
	tagMap
	tagOrderedMap
	tagSeq
	tagArray
)

// Encode serializes v to the artifact encoding.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTo(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Scalar:
		buf.WriteByte(tagScalar)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(float64(val)))
		buf.Write(b[:])
		return nil
	case Bool:
		buf.WriteByte(tagBool)
		if val {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case String:
		buf.WriteByte(tagString)
		writeString(buf, string(val))
		return nil
	case Set:
		// Members sort by their encoded bytes so set encoding is
		// insertion-order independent.
		members := make([][]byte, 0, len(val))
		for m := range val {
			enc, err := Encode(m)
			if err != nil {
				return err
			}
			members = append(members, enc)
		}
		slices.SortFunc(members, bytes.Compare)
		buf.WriteByte(tagSet)
		writeUvarint(buf, uint64(len(members)))
		for _, m := range members {
			buf.Write(m)
		}
		return nil
	case Map:
		buf.WriteByte(tagMap)
		writeUvarint(buf, uint64(len(val)))
		for _, k := range canonicalKeys(val) {
			writeString(buf, k)
			if err := encodeTo(buf, val[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		return nil
	case *OrderedMap:
		buf.WriteByte(tagOrderedMap)
		writeUvarint(buf, uint64(val.Len()))
		for _, k := range val.keys {
			writeString(buf, k)
			if err := encodeTo(buf, val.vals[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		return nil
	case Seq:
		buf.WriteByte(tagSeq)
		writeUvarint(buf, uint64(len(val)))
		for i, elem := range val {
			if err := encodeTo(buf, elem); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	case Array:
		if val.Tensor == nil {
			return fmt.Errorf("value: cannot encode nil tensor")
		}
		buf.WriteByte(tagArray)
		return val.Tensor.EncodeTo(buf)
	default:
		return fmt.Errorf("value: cannot encode %T", v)
	}
}

// Decode deserializes one value from the artifact encoding.
// Trailing bytes after the value are an error.
func Decode(data []byte) (Value, error) {
	r := bytes.NewReader(data)
	v, err := decodeFrom(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("value: %d trailing bytes after artifact", r.Len())
	}
	return v, nil
}

func decodeFrom(r *bytes.Reader) (Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("value: reading tag: %w", err)
	}
	switch tag {
	case tagScalar:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return Scalar(math.Float64frombits(binary.LittleEndian.Uint64(b[:]))), nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return Bool(b == 1), nil
	case tagString:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case tagSet:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		members := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			m, err := decodeFrom(r)
			if err != nil {
				return nil, fmt.Errorf("set member %d: %w", i, err)
			}
			members = append(members, m)
		}
		return NewSet(members...)
	case tagMap:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		m := make(Map, n)
		for i := uint64(0); i < n; i++ {
			k, err := readString(r)
			if err != nil {
				return nil, err
			}
			v, err := decodeFrom(r)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return m, nil
	case tagOrderedMap:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		m := NewOrderedMap()
		for i := uint64(0); i < n; i++ {
			k, err := readString(r)
			if err != nil {
				return nil, err
			}
			v, err := decodeFrom(r)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, v)
		}
		return m, nil
	case tagSeq:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		seq := make(Seq, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := decodeFrom(r)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			seq = append(seq, v)
		}
		return seq, nil
	case tagArray:
		t, err := tensor.Decode(r)
		if err != nil {
			return nil, err
		}
		return Array{Tensor: t}, nil
	default:
		return nil, fmt.Errorf("value: unknown tag %#x", tag)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	s = normalize(s)
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > uint64(r.Len()) {
		return "", fmt.Errorf("value: string length %d exceeds remaining input", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	buf.Write(b[:n])
}
