package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no marker exists above the
// start directory.
var ErrRootNotFound = errors.New("workspace root not found")

// RootMarkers are the entries that identify a workspace directory.
var RootMarkers = []string{".markwrite", "markwrite.yaml", "markwrite.toml", ".git"}

// FindRoot walks up from startDir and returns the absolute path of the first
// directory holding one of RootMarkers.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for dir := abs; ; {
		for _, marker := range RootMarkers {
			if exists(filepath.Join(dir, marker)) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
