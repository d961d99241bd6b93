package expect

import (
	"fmt"

	"github.com/roach88/tensorcheck/internal/value"
)

// ArtifactErrorKind classifies artifact protocol failures.
type ArtifactErrorKind int

const (
	// ArtifactMissing means verify mode found no recorded artifact.
	ArtifactMissing ArtifactErrorKind = iota
	// ArtifactMismatch means the output differs from the recording.
	ArtifactMismatch
	// ArtifactOversize means the recorded artifact exceeds MaxArtifactSize.
	ArtifactOversize
)

// ArtifactError reports a failure of the record/verify protocol. Mismatch
// errors wrap the underlying comparison failure.
type ArtifactError struct {
	Kind     ArtifactErrorKind
	Identity string
	Path     string
	Size     int64
	Output   value.Value
	Err      error
}

func (e *ArtifactError) Error() string {
	switch e.Kind {
	case ArtifactMissing:
		return fmt.Sprintf("no recorded artifact for %s at %s\ngot: %s\nre-run with --accept or %s=1 to record it",
			e.Identity, e.Path, renderOutput(e.Output), AcceptEnv)
	case ArtifactOversize:
		return fmt.Sprintf("artifact %s is %d bytes, above the %d byte limit; record a smaller output",
			e.Path, e.Size, MaxArtifactSize)
	default:
		return fmt.Sprintf("%s differs from recorded artifact %s: %v\nre-run with --accept or %s=1 to re-record",
			e.Identity, e.Path, e.Err, AcceptEnv)
	}
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// renderOutput renders the output that had no recording, so the failure
// message shows what would have been written.
func renderOutput(v value.Value) string {
	if v == nil {
		return "<nil>"
	}
	if data, err := value.MarshalJSONCanonical(v); err == nil {
		return string(data)
	}
	return value.Describe(v)
}
