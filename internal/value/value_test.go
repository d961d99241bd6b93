package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorcheck/internal/tensor"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		v    Value
		want Kind
	}{
		{Scalar(1), KindScalar},
		{Bool(true), KindBool},
		{String("x"), KindString},
		{MustSet(String("a")), KindSet},
		{Map{"a": Scalar(1)}, KindMap},
		{NewOrderedMap().Set("a", Scalar(1)), KindOrderedMap},
		{Seq{Scalar(1)}, KindSeq},
		{Array{Tensor: tensor.MustNew(tensor.Float64, []int{1}, []float64{1})}, KindArray},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, KindOf(tc.v), tc.want.String())
	}
}

func TestNewSet_RejectsUnhashable(t *testing.T) {
	_, err := NewSet(Seq{Scalar(1)})
	require.Error(t, err)

	_, err = NewSet(Map{"a": Scalar(1)})
	require.Error(t, err)

	s, err := NewSet(Scalar(1), String("a"), Bool(true), Scalar(1))
	require.NoError(t, err)
	assert.Len(t, s, 3, "duplicate members collapse")
}

func TestOrderedMap(t *testing.T) {
	m := NewOrderedMap().
		Set("b", Scalar(2)).
		Set("a", Scalar(1)).
		Set("b", Scalar(3))

	assert.Equal(t, []string{"b", "a"}, m.Keys(), "replaced key keeps its position")
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, Scalar(3), v)
	assert.Equal(t, 2, m.Len())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "3.5", Describe(Scalar(3.5)))
	assert.Equal(t, `"hi"`, Describe(String("hi")))
	assert.Equal(t, "map(1 keys)", Describe(Map{"a": Scalar(1)}))
	assert.Equal(t, "float64[2]", Describe(Array{Tensor: tensor.MustNew(tensor.Float64, []int{2}, []float64{1, 2})}))
}
