package cli

import (
	"sort"

	"github.com/roach88/tensorcheck/internal/tensor"
	"github.com/roach88/tensorcheck/internal/value"
)

// renderTree converts a decoded artifact into plain Go containers suitable
// for YAML or JSON rendering. Ordered mappings become a sequence of
// single-entry maps so their order survives rendering; sets come out sorted.
func renderTree(v value.Value) any {
	switch val := v.(type) {
	case value.Scalar:
		return float64(val)
	case value.Bool:
		return bool(val)
	case value.String:
		return string(val)
	case value.Seq:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = renderTree(e)
		}
		return out
	case value.Map:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = renderTree(e)
		}
		return out
	case *value.OrderedMap:
		out := make([]any, 0, val.Len())
		for _, k := range val.Keys() {
			e, _ := val.Get(k)
			out = append(out, map[string]any{k: renderTree(e)})
		}
		return out
	case value.Set:
		members := make([]string, 0, len(val))
		for m := range val {
			members = append(members, value.Describe(m))
		}
		sort.Strings(members)
		return members
	case value.Array:
		return renderTensor(val.Tensor)
	default:
		return value.Describe(v)
	}
}

func renderTensor(t *tensor.Tensor) map[string]any {
	out := map[string]any{
		"dtype":  t.DType().String(),
		"shape":  t.Shape(),
		"layout": t.Layout().String(),
	}
	switch {
	case t.IsSparse():
		out["nnz"] = t.NNZ()
		out["indices"] = asInts(t.Indices().Float64s())
		out["values"] = t.Values().Float64s()
	case t.IsQuantized():
		out["qscheme"] = t.QScheme().String()
		if t.QScheme() == tensor.PerChannelAffine {
			out["axis"] = t.Axis()
			out["scales"] = t.ChannelScales()
			out["zero_points"] = t.ChannelZeroPoints()
		} else {
			out["scale"] = t.Scale()
			out["zero_point"] = t.ZeroPoint()
		}
		out["int_repr"] = asInts(t.IntRepr().Float64s())
	default:
		out["values"] = t.Float64s()
	}
	return out
}

func asInts(fs []float64) []int64 {
	out := make([]int64, len(fs))
	for i, f := range fs {
		out[i] = int64(f)
	}
	return out
}
