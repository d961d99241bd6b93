// Package expect implements the golden-artifact protocol of the tensorcheck
// harness.
//
// A Checker maps each test identity to a deterministic artifact path under
// an expect directory next to the test source. In verify mode (the default)
// the test's output must deep-compare equal to the recorded artifact; a
// missing artifact fails with instructions for recording it. In accept
// mode, enabled by the TENSORCHECK_ACCEPT environment variable or an
// --accept argument, outputs are recorded instead. Recordings are written
// atomically and capped at MaxArtifactSize bytes.
package expect
