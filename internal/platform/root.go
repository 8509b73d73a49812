package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/studynotes/pkg/adapters/fs"
)

// ConfigFile is the optional per-vault configuration file.
const ConfigFile = "studynotes.yaml"

// FindRoot walks upwards from startDir looking for a vault root, marked by
// the system directory or a studynotes.yaml file, and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, ConfigFile) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("vault root not found from %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
