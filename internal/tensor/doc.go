// Package tensor is the numeric substrate for the tensorcheck harness.
//
// It provides a small multi-dimensional array type with three storage
// layouts:
//
//   - Strided: dense row-major element values
//   - COO: sparse coordinate (index, value) entries
//   - Affine: quantized integer codes with scale/zero-point parameters
//
// The package exposes exactly the capabilities the equality engine and the
// artifact codec consume: shape and dtype introspection, elementwise
// subtraction/abs/max, NaN and Inf masks, sparse coalescing and accessors,
// quantization parameter accessors, and a binary persistence round trip that
// preserves shape, dtype and values bit-exactly.
//
// Tensors are immutable after construction. Element values are rounded
// through the declared dtype's precision when a tensor is built, so narrow
// encodings (float16, bfloat16, integer types) behave like the real thing
// even though storage is float64.
package tensor
