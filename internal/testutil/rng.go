package testutil

import "math/rand/v2"

// FrozenRand returns a deterministically seeded generator. Two generators
// frozen with the same seed produce identical streams, so a test can replay
// random inputs without touching any global randomness.
func FrozenRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// RandomFloats fills a fresh slice of n values drawn uniformly from [0, 1).
func RandomFloats(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}
