package check

// Tolerance bounds the numeric drift under which two values compare equal.
// Abs is the absolute bound; Rel scales with the magnitude of the expected
// value and is only consulted by the deep comparison mode.
//
// The zero value means "use defaults" (Abs 1e-5 for the structural engine,
// Abs 1e-5 / Rel 1.3e-6 for the deep mode).
type Tolerance struct {
	Abs float64
	Rel float64
}

// Default is the structural engine's default tolerance.
func Default() Tolerance {
	return Tolerance{Abs: 1e-5}
}

// deepDefault is the deep comparison mode's default tolerance.
func deepDefault() Tolerance {
	return Tolerance{Abs: 1e-5, Rel: 1.3e-6}
}

// Options configures the structural equality engine.
type Options struct {
	// Tolerance bounds numeric comparisons. Zero value means Default().
	Tolerance Tolerance

	// AllowInf permits matching infinities: arrays must agree on Inf
	// positions and signs, scalars must both be the same infinity. Without
	// it any infinite operand fails with a non-finite diagnostic.
	AllowInf bool
}

func (o Options) resolved() Options {
	if o.Tolerance == (Tolerance{}) {
		o.Tolerance = Default()
	}
	return o
}
