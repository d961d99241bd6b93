package check

import (
	"fmt"
	"strings"
)

// MismatchKind categorizes why a comparison failed.
type MismatchKind uint8

const (
	// KindType: the two values have incompatible categories.
	KindType MismatchKind = iota + 1
	// KindShape: array shapes differ.
	KindShape
	// KindLength: sequence or ordered-map lengths differ.
	KindLength
	// KindKeys: mapping key sets differ.
	KindKeys
	// KindTolerance: maximum elementwise or scalar difference exceeds the bound.
	KindTolerance
	// KindNaNPosition: NaN layouts of the two arrays disagree.
	KindNaNPosition
	// KindInfSign: Inf sign layouts of the two arrays disagree.
	KindInfSign
	// KindNonFinite: an infinite value appeared without Inf allowance.
	KindNonFinite
	// KindNotEqual: exact comparison failed (strings, bools, sets, fallback).
	KindNotEqual
)

// String returns the kind name used in failure headers.
func (k MismatchKind) String() string {
	switch k {
	case KindType:
		return "type mismatch"
	case KindShape:
		return "shape mismatch"
	case KindLength:
		return "length mismatch"
	case KindKeys:
		return "key mismatch"
	case KindTolerance:
		return "tolerance exceeded"
	case KindNaNPosition:
		return "NaN position mismatch"
	case KindInfSign:
		return "Inf sign mismatch"
	case KindNonFinite:
		return "non-finite value without allowance"
	case KindNotEqual:
		return "values differ"
	default:
		return fmt.Sprintf("mismatch(%d)", uint8(k))
	}
}

// Mismatch describes a failed comparison. The first mismatch found aborts
// the whole comparison; there is no aggregation across a nested value.
type Mismatch struct {
	Kind     MismatchKind
	Path     string // Location within the nested value, empty at the root
	Expected string // Human-readable expected operand or bound
	Actual   string // Human-readable actual operand or observation
}

// Error implements the error interface in the harness failure format.
func (e *Mismatch) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "comparison failed: %s", e.Kind)
	if e.Path != "" {
		fmt.Fprintf(&buf, " at %s", e.Path)
	}
	fmt.Fprintf(&buf, "\n  expected: %s\n  actual: %s", e.Expected, e.Actual)

	return buf.String()
}

func mismatch(kind MismatchKind, path, expected, actual string) *Mismatch {
	return &Mismatch{Kind: kind, Path: path, Expected: expected, Actual: actual}
}
