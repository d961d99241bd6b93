// Package value defines the closed set of nested values the harness can
// compare and record: scalars, booleans, strings, sets, ordered and
// unordered mappings, sequences, and numeric arrays.
//
// Value is a sealed interface - the variant set is fixed, and the equality
// engine dispatches on variant pairs rather than on open-ended runtime
// reflection. Values are treated as immutable and acyclic; self-referential
// containers are not supported.
//
// The package also provides the deterministic artifact encoding used by the
// golden-artifact protocol. Strings are NFC normalized and unordered
// container members are emitted in canonical order, so equal logical values
// encode to identical bytes.
package value
