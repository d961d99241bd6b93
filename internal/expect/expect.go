package expect

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/tensorcheck/internal/check"
	"github.com/roach88/tensorcheck/internal/value"
)

// MaxArtifactSize caps recorded artifacts. An output whose encoding exceeds
// it cannot be accepted; trim the output or split the check instead.
const MaxArtifactSize = 50000

// Checker records and verifies golden artifacts for one test package.
// The zero-configured Checker (from New with no options) resolves its mode
// from the environment and keeps artifacts next to the calling test file.
type Checker struct {
	mode   Mode
	dir    string
	logger *slog.Logger
}

// Option customizes a Checker.
type Option func(*Checker)

// WithMode overrides the process-wide mode detection.
func WithMode(m Mode) Option { return func(c *Checker) { c.mode = m } }

// WithDir anchors artifacts under dir instead of the calling file's
// directory.
func WithDir(dir string) Option { return func(c *Checker) { c.dir = dir } }

// WithLogger replaces the default logger used for accept notices.
func WithLogger(l *slog.Logger) Option { return func(c *Checker) { c.logger = l } }

// New builds a checker anchored at the calling test file's directory.
func New(opts ...Option) *Checker {
	c := &Checker{
		mode:   DetectMode(),
		dir:    callerDir(2),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the checker's resolved mode.
func (c *Checker) Mode() Mode { return c.mode }

// Check compares output against the artifact recorded for t, failing the
// test on any difference. In accept mode it records the output instead.
func (c *Checker) Check(t *testing.T, output value.Value) {
	t.Helper()
	c.CheckNamed(t, SanitizeIdentity(t.Name()), "", output, check.Tolerance{})
}

// CheckSub is Check for a named sub-artifact, letting one test record
// several outputs.
func (c *Checker) CheckSub(t *testing.T, subname string, output value.Value) {
	t.Helper()
	c.CheckNamed(t, SanitizeIdentity(t.Name()), subname, output, check.Tolerance{})
}

// CheckNamed compares output against the artifact for an explicit identity
// and tolerance, failing t on any difference.
func (c *Checker) CheckNamed(t *testing.T, identity, subname string, output value.Value, tol check.Tolerance) {
	t.Helper()
	if err := c.Compare(identity, subname, output, tol); err != nil {
		t.Fatal(err)
	}
}

// Compare is the error-returning core of Check.
//
// Verify mode fails with an *ArtifactError when the artifact is missing or
// the output differs. Accept mode records the output whenever the recording
// is absent or no longer matches. Load faults other than a missing file
// propagate unchanged in both modes.
func (c *Checker) Compare(identity, subname string, output value.Value, tol check.Tolerance) error {
	path := ArtifactPath(c.dir, identity, subname)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if c.mode == Accept {
			return c.record(path, identity, subname, output, "new")
		}
		return &ArtifactError{
			Kind:     ArtifactMissing,
			Identity: displayName(identity, subname),
			Path:     path,
			Output:   output,
		}
	case err != nil:
		return err
	}

	expected, err := value.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding artifact %s: %w", path, err)
	}

	if c.mode == Accept {
		if !matchesLeniently(output, expected, tol) {
			return c.record(path, identity, subname, output, "updated")
		}
		return nil
	}

	if err := check.DeepEqual(output, expected, tol); err != nil {
		return &ArtifactError{
			Kind:     ArtifactMismatch,
			Identity: displayName(identity, subname),
			Path:     path,
			Output:   output,
			Err:      err,
		}
	}
	return nil
}

// matchesLeniently reports whether output still matches the recording.
// Any failure, including a panic from comparing against a recording with a
// different structure, means re-record.
func matchesLeniently(output, expected value.Value, tol check.Tolerance) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return check.DeepEqual(output, expected, tol) == nil
}

// record writes the artifact atomically: encode, write to a uuid-suffixed
// temp file, rename over the destination. The size cap is enforced after
// the write so an oversize recording still lands on disk for inspection but
// the run fails.
func (c *Checker) record(path, identity, subname string, output value.Value, update string) error {
	data, err := value.Encode(output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	c.logger.Info("accepted artifact",
		slog.String("identity", displayName(identity, subname)),
		slog.String("path", path),
		slog.String("update", update),
		slog.Int("bytes", len(data)))
	if len(data) > MaxArtifactSize {
		return &ArtifactError{
			Kind:     ArtifactOversize,
			Identity: displayName(identity, subname),
			Path:     path,
			Size:     int64(len(data)),
		}
	}
	return nil
}

func displayName(identity, subname string) string {
	if subname != "" {
		return identity + "_" + subname
	}
	return identity
}
