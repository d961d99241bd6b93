package expect

import (
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ExpectDirName is the artifact directory, co-located with the test
	// source that owns the artifacts.
	ExpectDirName = "expect"

	artifactSuffix = "_expect"
	artifactExt    = ".tck"
)

// ArtifactPath maps a test identity (plus optional subname) to its artifact
// path under dir's expect directory:
//
//	<dir>/expect/<identity>[_<subname>]_expect.tck
func ArtifactPath(dir, identity, subname string) string {
	name := identity
	if subname != "" {
		name += "_" + subname
	}
	return filepath.Join(dir, ExpectDirName, name+artifactSuffix+artifactExt)
}

// SanitizeIdentity turns a test name into a filesystem-safe identity.
// Subtest separators become dots; anything path-hostile becomes an
// underscore.
func SanitizeIdentity(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/':
			b.WriteByte('.')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// callerDir returns the directory of the source file skip frames up the
// stack. It anchors artifact directories next to the test source that calls
// the checker.
func callerDir(skip int) string {
	_, file, _, ok := runtime.Caller(skip)
	if !ok {
		return "."
	}
	return filepath.Dir(file)
}
