package check

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/tensorcheck/internal/tensor"
	"github.com/roach88/tensorcheck/internal/value"
)

// Equal recursively compares two nested values for equality within
// tolerance, dispatching on the variant pair. The first mismatch aborts the
// comparison and is returned as a *Mismatch.
func Equal(a, b value.Value, opts Options) error {
	return equalAt("", a, b, opts.resolved())
}

func equalAt(path string, a, b value.Value, opts Options) error {
	switch av := a.(type) {
	case value.Array:
		if bv, ok := b.(value.Array); ok {
			return arraysEqual(path, av.Tensor, bv.Tensor, opts)
		}
		if bv, ok := b.(value.Scalar); ok {
			item, err := av.Tensor.Item()
			if err != nil {
				return mismatch(KindType, path, value.Describe(b), av.Tensor.String())
			}
			return scalarsEqual(path, value.Scalar(item), bv, opts)
		}
		return typeMismatch(path, a, b)

	case value.Scalar:
		if bv, ok := b.(value.Array); ok {
			item, err := bv.Tensor.Item()
			if err != nil {
				return mismatch(KindType, path, value.Describe(a), bv.Tensor.String())
			}
			return scalarsEqual(path, av, value.Scalar(item), opts)
		}
		if bv, ok := b.(value.Scalar); ok {
			return scalarsEqual(path, av, bv, opts)
		}
		return typeMismatch(path, a, b)

	case value.String:
		bv, ok := b.(value.String)
		if !ok {
			return typeMismatch(path, a, b)
		}
		if av != bv {
			return mismatch(KindNotEqual, path, value.Describe(av), value.Describe(bv))
		}
		return nil

	case value.Set:
		bv, ok := b.(value.Set)
		if !ok {
			return typeMismatch(path, a, b)
		}
		return setsEqual(path, av, bv)

	case value.Map, *value.OrderedMap:
		switch b.(type) {
		case value.Map, *value.OrderedMap:
			return mappingsEqual(path, a, b, opts)
		}
		return typeMismatch(path, a, b)

	case value.Seq:
		bv, ok := b.(value.Seq)
		if !ok {
			return typeMismatch(path, a, b)
		}
		if len(av) != len(bv) {
			return mismatch(KindLength, path,
				fmt.Sprintf("%d elements", len(av)),
				fmt.Sprintf("%d elements", len(bv)))
		}
		for i := range av {
			if err := equalAt(fmt.Sprintf("%s[%d]", path, i), av[i], bv[i], opts); err != nil {
				return err
			}
		}
		return nil

	case value.Bool:
		bv, ok := b.(value.Bool)
		if !ok {
			return typeMismatch(path, a, b)
		}
		if av != bv {
			return mismatch(KindNotEqual, path, value.Describe(av), value.Describe(bv))
		}
		return nil

	default:
		return typeMismatch(path, a, b)
	}
}

func typeMismatch(path string, a, b value.Value) *Mismatch {
	return mismatch(KindType, path,
		fmt.Sprintf("%s (%s)", value.KindOf(a), value.Describe(a)),
		fmt.Sprintf("%s (%s)", value.KindOf(b), value.Describe(b)))
}

// scalarsEqual implements the number-vs-number rule: infinities fail unless
// AllowInf is set (and then must match exactly); otherwise the absolute
// difference must stay within the tolerance bound.
func scalarsEqual(path string, a, b value.Scalar, opts Options) error {
	x, y := float64(a), float64(b)
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		if !opts.AllowInf {
			return mismatch(KindNonFinite, path,
				"finite values",
				fmt.Sprintf("%v and %v", x, y))
		}
		if x != y {
			return mismatch(KindNotEqual, path, value.Describe(a), value.Describe(b))
		}
		return nil
	}
	diff := math.Abs(x - y)
	if math.IsNaN(diff) || diff > opts.Tolerance.Abs {
		return mismatch(KindTolerance, path,
			fmt.Sprintf("difference <= %v", opts.Tolerance.Abs),
			fmt.Sprintf("|%v - %v| = %v", x, y, diff))
	}
	return nil
}

func setsEqual(path string, a, b value.Set) error {
	if len(a) != len(b) {
		return mismatch(KindNotEqual, path,
			fmt.Sprintf("set(%d members)", len(a)),
			fmt.Sprintf("set(%d members)", len(b)))
	}
	for m := range a {
		if _, ok := b[m]; !ok {
			return mismatch(KindNotEqual, path,
				fmt.Sprintf("member %s present", value.Describe(m)),
				"member absent")
		}
	}
	return nil
}

// mappingsEqual compares two mappings. When both sides preserve order the
// (key, value) sequences must match in order; otherwise the key sets must
// match and values are compared per key, iterating in the first argument's
// key order.
func mappingsEqual(path string, a, b value.Value, opts Options) error {
	ao, aOrdered := a.(*value.OrderedMap)
	bo, bOrdered := b.(*value.OrderedMap)

	if aOrdered && bOrdered {
		if ao.Len() != bo.Len() {
			return mismatch(KindLength, path,
				fmt.Sprintf("%d keys", ao.Len()),
				fmt.Sprintf("%d keys", bo.Len()))
		}
		bKeys := bo.Keys()
		for i, k := range ao.Keys() {
			if k != bKeys[i] {
				return mismatch(KindKeys, path,
					fmt.Sprintf("key %q at position %d", k, i),
					fmt.Sprintf("key %q", bKeys[i]))
			}
			av, _ := ao.Get(k)
			bv, _ := bo.Get(k)
			if err := equalAt(childPath(path, k), av, bv, opts); err != nil {
				return err
			}
		}
		return nil
	}

	aKeys := mappingKeys(a)
	bKeys := mappingKeys(b)
	if err := keySetsEqual(path, aKeys, bKeys); err != nil {
		return err
	}
	for _, k := range aKeys {
		av, _ := mappingGet(a, k)
		bv, _ := mappingGet(b, k)
		if err := equalAt(childPath(path, k), av, bv, opts); err != nil {
			return err
		}
	}
	return nil
}

func keySetsEqual(path string, aKeys, bKeys []string) error {
	if len(aKeys) != len(bKeys) {
		return mismatch(KindKeys, path,
			fmt.Sprintf("%d keys", len(aKeys)),
			fmt.Sprintf("%d keys", len(bKeys)))
	}
	seen := make(map[string]bool, len(bKeys))
	for _, k := range bKeys {
		seen[k] = true
	}
	for _, k := range aKeys {
		if !seen[k] {
			return mismatch(KindKeys, path,
				fmt.Sprintf("key %q present", k),
				"key absent")
		}
	}
	return nil
}

// mappingKeys returns the keys of a Map or *OrderedMap. Ordered maps keep
// insertion order; plain maps use canonical sorted order so iteration is
// deterministic.
func mappingKeys(v value.Value) []string {
	switch m := v.(type) {
	case *value.OrderedMap:
		return m.Keys()
	case value.Map:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return keys
	default:
		return nil
	}
}

func mappingGet(v value.Value, key string) (value.Value, bool) {
	switch m := v.(type) {
	case *value.OrderedMap:
		return m.Get(key)
	case value.Map:
		val, ok := m[key]
		return val, ok
	default:
		return nil, false
	}
}

func childPath(path, key string) string {
	return fmt.Sprintf("%s[%q]", path, key)
}

// arraysEqual implements the array-vs-array rule: shape, layout and dtype
// gates, then sparse canonicalization or quantization parameter checks, then
// the dense elementwise kernel.
func arraysEqual(path string, x, y *tensor.Tensor, opts Options) error {
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
		if err := denseEqual(path+".indices", xc.Indices(), yc.Indices(), opts); err != nil {
			return err
		}
		return denseEqual(path+".values", xc.Values(), yc.Values(), opts)

	case x.IsQuantized():
		return quantizedEqual(path, x, y, opts)

	default:
		return denseEqual(path, x, y, opts)
	}
}

func quantizedEqual(path string, x, y *tensor.Tensor, opts Options) error {
	if err := quantizedParamsEqual(path, x, y, opts); err != nil {
		return err
	}
	if x.DType() != y.DType() {
		return mismatch(KindType, path+".dtype", x.DType().String(), y.DType().String())
	}
	return denseEqual(path+".int_repr", x.IntRepr(), y.IntRepr(), opts)
}

// quantizedParamsEqual compares the quantization parameters two arrays must
// share before their codes mean the same thing: scheme, then scale and zero
// point (per tensor or per channel), then the channel axis.
func quantizedParamsEqual(path string, x, y *tensor.Tensor, opts Options) error {
	if x.QScheme() != y.QScheme() {
		return mismatch(KindType, path+".qscheme", x.QScheme().String(), y.QScheme().String())
	}
	switch x.QScheme() {
	case tensor.PerTensorAffine:
		if err := scalarsEqual(path+".scale", value.Scalar(x.Scale()), value.Scalar(y.Scale()), opts); err != nil {
			return err
		}
		if err := scalarsEqual(path+".zero_point", value.Scalar(x.ZeroPoint()), value.Scalar(y.ZeroPoint()), opts); err != nil {
			return err
		}
	case tensor.PerChannelAffine:
		xs := tensor.MustNew(tensor.Float64, []int{len(x.ChannelScales())}, x.ChannelScales())
		ys := tensor.MustNew(tensor.Float64, []int{len(y.ChannelScales())}, y.ChannelScales())
		if err := denseEqual(path+".scales", xs, ys, opts); err != nil {
			return err
		}
		xz := tensor.MustNew(tensor.Int64, []int{len(x.ChannelZeroPoints())}, int64sToFloat64s(x.ChannelZeroPoints()))
		yz := tensor.MustNew(tensor.Int64, []int{len(y.ChannelZeroPoints())}, int64sToFloat64s(y.ChannelZeroPoints()))
		if err := denseEqual(path+".zero_points", xz, yz, opts); err != nil {
			return err
		}
		if x.Axis() != y.Axis() {
			return mismatch(KindNotEqual, path+".axis",
				fmt.Sprintf("%d", x.Axis()),
				fmt.Sprintf("%d", y.Axis()))
		}
	}
	return nil
}

// denseEqual is the dense elementwise kernel. Shapes have matched or are
// checked here; either side empty compares equal. Narrow floats are promoted
// to float32 before subtracting, booleans are compared as integers, NaN
// layouts must agree, and with AllowInf the Inf sign layouts must agree.
// The maximum remaining absolute difference must stay within Tolerance.Abs.
func denseEqual(path string, a, b *tensor.Tensor, opts Options) error {
	if !tensor.SameShape(a, b) {
		return mismatch(KindShape, path,
			fmt.Sprintf("%v", a.Shape()),
			fmt.Sprintf("%v", b.Shape()))
	}
	if a.Numel() == 0 {
		return nil
	}

	if a.DType() == tensor.Float16 || a.DType() == tensor.BFloat16 {
		a = a.AsType(tensor.Float32)
	}
	if (a.DType() == tensor.Bool) != (b.DType() == tensor.Bool) {
		return mismatch(KindType, path, a.DType().String(), b.DType().String())
	}
	if a.DType() == tensor.Bool {
		// Precision still applies, but bool has no subtraction.
		a = a.AsType(tensor.Int64)
		b = b.AsType(tensor.Int64)
	} else {
		b = b.AsType(a.DType())
	}

	diffT, err := a.Sub(b)
	if err != nil {
		return fmt.Errorf("comparing %s: %w", path, err)
	}
	diff := diffT.Float64s()

	if a.DType().IsFloat() {
		aNaN, bNaN := a.NaNMask(), b.NaNMask()
		if !slices.Equal(aNaN, bNaN) {
			return mismatch(KindNaNPosition, path,
				fmt.Sprintf("NaN mask %v", aNaN),
				fmt.Sprintf("NaN mask %v", bNaN))
		}
		for i, isNaN := range aNaN {
			if isNaN {
				diff[i] = 0
			}
		}
		if opts.AllowInf {
			aInf, bInf := a.InfSigns(), b.InfSigns()
			if !slices.Equal(aInf, bInf) {
				return mismatch(KindInfSign, path,
					fmt.Sprintf("Inf signs %v", aInf),
					fmt.Sprintf("Inf signs %v", bInf))
			}
			for i, sign := range aInf {
				if sign != 0 {
					diff[i] = 0
				}
			}
		}
	}

	// int8 differences are left signed; abs is unavailable for that encoding.
	if a.DType() != tensor.Int8 {
		for i, v := range diff {
			diff[i] = math.Abs(v)
		}
	}

	maxErr := math.Inf(-1)
	sawNaN := false
	for _, v := range diff {
		if math.IsNaN(v) {
			sawNaN = true
			break
		}
		if v > maxErr {
			maxErr = v
		}
	}
	if sawNaN {
		return mismatch(KindTolerance, path,
			fmt.Sprintf("max difference <= %v", opts.Tolerance.Abs),
			"difference is NaN")
	}
	if maxErr > opts.Tolerance.Abs {
		return mismatch(KindTolerance, path,
			fmt.Sprintf("max difference <= %v", opts.Tolerance.Abs),
			fmt.Sprintf("max difference %v", maxErr))
	}
	return nil
}

func int64sToFloat64s(vals []int64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}
