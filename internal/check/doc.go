// Package check is the structural equality engine of the tensorcheck
// harness.
//
// Equal compares two nested values under a per-variant dispatch table:
// arrays by shape/layout gates and an elementwise max-difference kernel with
// NaN and Inf policies, mappings by order-aware key and value comparison,
// sequences pairwise, scalars within an absolute tolerance. DeepEqual is the
// stricter traversal the golden-artifact protocol uses: identical variant
// kinds at every level and a combined absolute+relative bound for arrays.
//
// Every failure is a *Mismatch carrying the kind of broken invariant, the
// path into the nested value, and both operands' descriptions. Comparison
// stops at the first mismatch.
package check
