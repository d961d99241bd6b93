package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorcheck/internal/check"
	"github.com/roach88/tensorcheck/internal/value"
)

// RequireEncodeRoundTrip asserts that v survives the artifact encoding: the
// decoded value deep-compares equal to the original.
func RequireEncodeRoundTrip(t *testing.T, v value.Value) {
	t.Helper()
	data, err := value.Encode(v)
	require.NoError(t, err)
	got, err := value.Decode(data)
	require.NoError(t, err)
	require.NoError(t, check.DeepEqual(got, v, check.Tolerance{}))
}

// RequireReproducible asserts that build is deterministic under a frozen
// generator: two runs from the same seed must produce deep-equal values.
func RequireReproducible(t *testing.T, seed uint64, build func(*rand.Rand) value.Value) {
	t.Helper()
	first := build(FrozenRand(seed))
	second := build(FrozenRand(seed))
	require.NoError(t, check.DeepEqual(first, second, check.Tolerance{}))
}
