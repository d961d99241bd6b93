package check

import (
	"fmt"
	"math"

	"github.com/roach88/tensorcheck/internal/tensor"
	"github.com/roach88/tensorcheck/internal/value"
)

// DeepEqual is the traversal mode the artifact comparison uses. The two
// values must have the identical variant kind at every recursion level.
// Arrays are compared with a combined absolute+relative bound, mappings by
// exact key set and per-key recursion, sequences pairwise; everything else
// falls back to the structural engine's scalar rules.
func DeepEqual(a, b value.Value, tol Tolerance) error {
	if tol == (Tolerance{}) {
		tol = deepDefault()
	}
	return deepEqualAt("", a, b, tol)
}

func deepEqualAt(path string, a, b value.Value, tol Tolerance) error {
	if value.KindOf(a) != value.KindOf(b) {
		return typeMismatch(path, a, b)
	}

	switch av := a.(type) {
	case value.Array:
		return allClose(path, av.Tensor, b.(value.Array).Tensor, tol)

	case value.Map:
		bv := b.(value.Map)
		if len(av) != len(bv) {
			return mismatch(KindLength, path,
				fmt.Sprintf("%d keys", len(av)),
				fmt.Sprintf("%d keys", len(bv)))
		}
		for _, k := range mappingKeys(av) {
			bval, ok := bv[k]
			if !ok {
				return mismatch(KindKeys, path, fmt.Sprintf("key %q present", k), "key absent")
			}
			if err := deepEqualAt(childPath(path, k), av[k], bval, tol); err != nil {
				return err
			}
		}
		return nil

	case *value.OrderedMap:
		bv := b.(*value.OrderedMap)
		if av.Len() != bv.Len() {
			return mismatch(KindLength, path,
				fmt.Sprintf("%d keys", av.Len()),
				fmt.Sprintf("%d keys", bv.Len()))
		}
		for _, k := range av.Keys() {
			bval, ok := bv.Get(k)
			if !ok {
				return mismatch(KindKeys, path, fmt.Sprintf("key %q present", k), "key absent")
			}
			aval, _ := av.Get(k)
			if err := deepEqualAt(childPath(path, k), aval, bval, tol); err != nil {
				return err
			}
		}
		return nil

	case value.Seq:
		bv := b.(value.Seq)
		if len(av) != len(bv) {
			return mismatch(KindLength, path,
				fmt.Sprintf("%d elements", len(av)),
				fmt.Sprintf("%d elements", len(bv)))
		}
		for i := range av {
			if err := deepEqualAt(fmt.Sprintf("%s[%d]", path, i), av[i], bv[i], tol); err != nil {
				return err
			}
		}
		return nil

	default:
		// Scalars, bools, strings and sets use the structural rules with the
		// engine's default precision.
		return equalAt(path, a, b, Options{Tolerance: Default()})
	}
}

// allClose compares two arrays under |a-b| <= Abs + Rel*|b| elementwise.
// NaN compares equal at matching positions; infinities must match exactly.
// Sparse and quantized arrays are canonicalized the same way the structural
// engine does before their payloads are compared.
func allClose(path string, x, y *tensor.Tensor, tol Tolerance) error {
	if !tensor.SameShape(x, y) {
		return mismatch(KindShape, path,
			fmt.Sprintf("%v", x.Shape()),
			fmt.Sprintf("%v", y.Shape()))
	}
	if x.IsSparse() != y.IsSparse() || x.IsQuantized() != y.IsQuantized() {
		return mismatch(KindType, path, x.String(), y.String())
	}

	switch {
	case x.IsSparse():
		xc, yc := x.Coalesce(), y.Coalesce()
		if err := allClose(path+".indices", xc.Indices(), yc.Indices(), tol); err != nil {
			return err
		}
		return allClose(path+".values", xc.Values(), yc.Values(), tol)

	case x.IsQuantized():
		if err := quantizedParamsEqual(path, x, y, Options{Tolerance: Default()}); err != nil {
			return err
		}
		if x.DType() != y.DType() {
			return mismatch(KindType, path+".dtype", x.DType().String(), y.DType().String())
		}
		return allClose(path+".int_repr", x.IntRepr(), y.IntRepr(), tol)

	default:
		return allCloseDense(path, x, y, tol)
	}
}

func allCloseDense(path string, x, y *tensor.Tensor, tol Tolerance) error {
	xv, yv := x.Float64s(), y.Float64s()
	for i := range xv {
		a, b := xv[i], yv[i]
		if a == b {
			continue
		}
		if math.IsNaN(a) && math.IsNaN(b) {
			continue
		}
		// The a == b shortcut above already accepted identical infinities;
		// any non-finite element left here cannot satisfy a finite bound.
		if math.IsInf(a, 0) || math.IsInf(b, 0) {
			return mismatch(KindTolerance, path,
				fmt.Sprintf("identical non-finite values at flat index %d", i),
				fmt.Sprintf("%v vs %v", a, b))
		}
		diff := math.Abs(a - b)
		bound := tol.Abs + tol.Rel*math.Abs(b)
		if math.IsNaN(diff) || diff > bound {
			return mismatch(KindTolerance, path,
				fmt.Sprintf("difference <= %v at flat index %d", bound, i),
				fmt.Sprintf("|%v - %v| = %v", a, b, diff))
		}
	}
	return nil
}
