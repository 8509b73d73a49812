package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// DevDirName is the directory under os.TempDir() holding sandboxed vaults.
const DevDirName = "studynotes-dev"

// IsDevRun reports whether the process runs under `go run` or `go test`,
// which build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveVaultPath returns the path to use for a vault. With forceTemp the
// vault is re-rooted under the dev sandbox, unless it already lives in the
// system temp directory.
func ResolveVaultPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	cleanUserPath := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), cleanUserPath)
	if filepath.IsAbs(cleanUserPath) && err == nil && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	subName := filepath.Base(cleanUserPath)
	if userPath == "" || subName == "." || subName == string(os.PathSeparator) {
		subName = "default"
	}

	return filepath.Join(os.TempDir(), DevDirName, subName)
}
