package value

import (
	"fmt"
	"strconv"

	"github.com/roach88/tensorcheck/internal/tensor"
)

// Value is a sealed interface over the closed set of nested value types the
// harness compares and records. Only Scalar, Bool, String, Set, Map,
// OrderedMap, Seq and Array implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Scalar is a numeric scalar.
type Scalar float64

func (Scalar) value() {}

// Bool is a boolean.
type Bool bool

func (Bool) value() {}

// String is a string. Compared byte-exact.
type String string

func (String) value() {}

// Seq is an ordered sequence of values.
type Seq []Value

func (Seq) value() {}

// Map is an unordered string-keyed mapping.
type Map map[string]Value

func (Map) value() {}

// Set is an unordered collection of hashable values (Scalar, Bool, String).
// Construct with NewSet so membership constraints hold.
type Set map[Value]struct{}

func (Set) value() {}

// Array wraps a numeric tensor.
type Array struct {
	Tensor *tensor.Tensor
}

func (Array) value() {}

// NewSet builds a Set from members. Only Scalar, Bool and String members are
// allowed; anything else is not hashable and is rejected.
func NewSet(members ...Value) (Set, error) {
	s := make(Set, len(members))
	for _, m := range members {
		switch m.(type) {
		case Scalar, Bool, String:
			s[m] = struct{}{}
		default:
			return nil, fmt.Errorf("value: %s is not a valid set member", KindOf(m))
		}
	}
	return s, nil
}

// MustSet is NewSet but panics on error. Intended for test fixtures.
func MustSet(members ...Value) Set {
	s, err := NewSet(members...)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind identifies the runtime variant of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindBool
	KindString
	KindSet
	KindMap
	KindOrderedMap
	KindSeq
	KindArray
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindOrderedMap:
		return "ordered map"
	case KindSeq:
		return "sequence"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// KindOf returns the variant kind of v.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Scalar:
		return KindScalar
	case Bool:
		return KindBool
	case String:
		return KindString
	case Set:
		return KindSet
	case Map:
		return KindMap
	case *OrderedMap:
		return KindOrderedMap
	case Seq:
		return KindSeq
	case Array:
		return KindArray
	default:
		return KindInvalid
	}
}

// Describe returns a short human-readable description of v for diagnostics.
func Describe(v Value) string {
	switch val := v.(type) {
	case Scalar:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case String:
		return strconv.Quote(string(val))
	case Set:
		return fmt.Sprintf("set(%d members)", len(val))
	case Map:
		return fmt.Sprintf("map(%d keys)", len(val))
	case *OrderedMap:
		return fmt.Sprintf("ordered map(%d keys)", val.Len())
	case Seq:
		return fmt.Sprintf("sequence(%d elements)", len(val))
	case Array:
		return val.Tensor.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}
