package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TempDir creates a uniquely named scratch directory and removes it when the
// test ends. Unlike t.TempDir, the directory name is stable-prefixed so stray
// leftovers from killed runs are easy to find and sweep.
func TempDir(t *testing.T) string {
	t.Helper()
	return TempDirAt(t, os.TempDir())
}

// TempDirFrom creates the scratch directory and seeds it with a copy of the
// src tree.
func TempDirFrom(t *testing.T, src string) string {
	t.Helper()
	dir := TempDir(t)
	require.NoError(t, os.CopyFS(dir, os.DirFS(src)))
	return dir
}

// TempDirAt creates the scratch directory under base.
func TempDirAt(t *testing.T, base string) string {
	t.Helper()
	dir := filepath.Join(base, "tensorcheck-"+uuid.NewString())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	t.Cleanup(func() {
		require.NoError(t, os.RemoveAll(dir))
	})
	return dir
}
