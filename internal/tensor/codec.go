package tensor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Binary tensor format. Little-endian throughout. Float payloads are written
// as raw IEEE-754 bits so NaN and Inf survive the round trip exactly.
const (
	codecMagic   = "TNSR"
	codecVersion = 1
)

// EncodeTo writes the tensor in the binary tensor format.
func (t *Tensor) EncodeTo(w io.Writer) error {
	if _, err := io.WriteString(w, codecMagic); err != nil {
		return err
	}
	header := []byte{codecVersion, byte(t.layout), byte(t.dtype)}
	if _, err := w.Write(header); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(t.shape))); err != nil {
		return err
	}
	for _, d := range t.shape {
		if err := writeUvarint(w, uint64(d)); err != nil {
			return err
		}
	}
	switch t.layout {
	case Strided:
		return writeFloats(w, t.data)
	case COO:
		if err := writeUvarint(w, uint64(t.nnz)); err != nil {
			return err
		}
		coalesced := byte(0)
		if t.coalesced {
			coalesced = 1
		}
		if _, err := w.Write([]byte{coalesced}); err != nil {
			return err
		}
		if err := writeInts(w, t.indices); err != nil {
			return err
		}
		return writeFloats(w, t.values)
	case Affine:
		if _, err := w.Write([]byte{byte(t.scheme)}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int64(t.axis)); err != nil {
			return err
		}
		if err := writeUvarint(w, uint64(len(t.scales))); err != nil {
			return err
		}
		if err := writeFloats(w, t.scales); err != nil {
			return err
		}
		if err := writeInts(w, t.zeros); err != nil {
			return err
		}
		return writeInts(w, t.codes)
	default:
		return fmt.Errorf("tensor: cannot encode layout %s", t.layout)
	}
}

// Reader is the input for Decode. bytes.Reader and bytes.Buffer both
// satisfy it; Len reports the unread byte count so element counts from the
// header can be validated before anything is allocated for them.
type Reader interface {
	io.ByteReader
	Len() int
}

// Decode reads one tensor in the binary tensor format.
func Decode(r Reader) (*Tensor, error) {
	for _, want := range []byte(codecMagic) {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("tensor: reading magic: %w", err)
		}
		if b != want {
			return nil, fmt.Errorf("tensor: bad magic byte %#x", b)
		}
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != codecVersion {
		return nil, fmt.Errorf("tensor: unsupported format version %d", version)
	}
	layoutByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	dtypeByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	layout := Layout(layoutByte)
	dt := DType(dtypeByte)
	if !dt.valid() {
		return nil, fmt.Errorf("tensor: unknown dtype %d", dtypeByte)
	}
	ndim, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if err := checkCount(r, ndim, 1, "dimension"); err != nil {
		return nil, err
	}
	shape := make([]int, ndim)
	n := uint64(1)
	for i := range shape {
		d, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		shape[i] = int(d)
		if d != 0 && n > math.MaxUint64/d {
			return nil, fmt.Errorf("tensor: shape product overflows")
		}
		n *= d
	}

	switch layout {
	case Strided:
		if err := checkCount(r, n, 8, "element"); err != nil {
			return nil, err
		}
		data, err := readFloats(r, int(n))
		if err != nil {
			return nil, err
		}
		return &Tensor{dtype: dt, shape: shape, layout: Strided, data: data}, nil
	case COO:
		nnz64, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		if err := checkCount(r, nnz64, 8, "value"); err != nil {
			return nil, err
		}
		if err := checkCount(r, ndim*nnz64, 8, "index"); err != nil {
			return nil, err
		}
		nnz := int(nnz64)
		coalesced, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		indices, err := readInts(r, int(ndim)*nnz)
		if err != nil {
			return nil, err
		}
		values, err := readFloats(r, nnz)
		if err != nil {
			return nil, err
		}
		return &Tensor{
			dtype:     dt,
			shape:     shape,
			layout:    COO,
			indices:   indices,
			nnz:       nnz,
			values:    values,
			coalesced: coalesced == 1,
		}, nil
	case Affine:
		schemeByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var axis int64
		if err := readLE(r, &axis); err != nil {
			return nil, err
		}
		nscales, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		// Each channel carries an 8-byte scale and an 8-byte zero point.
		if err := checkCount(r, nscales, 16, "scale"); err != nil {
			return nil, err
		}
		scales, err := readFloats(r, int(nscales))
		if err != nil {
			return nil, err
		}
		zeros, err := readInts(r, int(nscales))
		if err != nil {
			return nil, err
		}
		if err := checkCount(r, n, 8, "code"); err != nil {
			return nil, err
		}
		codes, err := readInts(r, int(n))
		if err != nil {
			return nil, err
		}
		return &Tensor{
			dtype:  dt,
			shape:  shape,
			layout: Affine,
			scheme: QScheme(schemeByte),
			scales: scales,
			zeros:  zeros,
			axis:   int(axis),
			codes:  codes,
		}, nil
	default:
		return nil, fmt.Errorf("tensor: unknown layout %d", layoutByte)
	}
}

// checkCount rejects element counts that could not possibly fit in the
// remaining input, before anything is allocated for them.
func checkCount(r Reader, n uint64, width int, what string) error {
	if n > uint64(r.Len())/uint64(width) {
		return fmt.Errorf("tensor: %s count %d exceeds remaining input", what, n)
	}
	return nil
}

func writeUvarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func writeFloats(w io.Writer, vals []float64) error {
	buf := make([]byte, 8)
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func writeInts(w io.Writer, vals []int64) error {
	buf := make([]byte, 8)
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf, uint64(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func readLE(r io.ByteReader, out *int64) error {
	var buf [8]byte
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	*out = int64(binary.LittleEndian.Uint64(buf[:]))
	return nil
}

func readFloats(r io.ByteReader, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		var bits int64
		if err := readLE(r, &bits); err != nil {
			return nil, err
		}
		out[i] = math.Float64frombits(uint64(bits))
	}
	return out, nil
}

func readInts(r io.ByteReader, n int) ([]int64, error) {
	out := make([]int64, n)
	for i := range out {
		if err := readLE(r, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
