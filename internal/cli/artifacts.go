package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/tensorcheck/internal/expect"
)

// ArtifactInfo describes one recorded artifact on disk.
type ArtifactInfo struct {
	Name     string `json:"name"` // path relative to the scanned directory
	Path     string `json:"path"` // absolute path
	Size     int64  `json:"size"`
	Oversize bool   `json:"oversize,omitempty"`
}

// scanArtifacts walks dir for recorded artifacts and returns them sorted by
// relative name.
func scanArtifacts(dir string) ([]ArtifactInfo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var found []ArtifactInfo
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isArtifactName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		found = append(found, ArtifactInfo{
			Name:     filepath.ToSlash(rel),
			Path:     path,
			Size:     info.Size(),
			Oversize: info.Size() > expect.MaxArtifactSize,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

func isArtifactName(name string) bool {
	return strings.HasSuffix(name, "_expect.tck")
}

// requireDir fails with a command error unless dir exists and is a
// directory.
func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "directory not found: "+dir, err)
	}
	if !info.IsDir() {
		return NewExitError(ExitCommandError, "not a directory: "+dir)
	}
	return nil
}
