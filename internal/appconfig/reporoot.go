package appconfig

import (
	"os"
	"path/filepath"
	"strings"
)

// rootMarkers identify a project root. wantDir tells whether the marker is a
// directory (.git) or a regular file.
var rootMarkers = []struct {
	name    string
	wantDir bool
}{
	{ProjectFile, false},
	{".git", true},
	{"go.mod", false},
}

// FindRepoRoot returns the nearest ancestor of start (start included) that
// carries a root marker, or "" when none does.
func FindRepoRoot(start string) string {
	dir := strings.TrimSpace(start)
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for dir != "" {
		if hasRootMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// DefaultRepoPath returns the project config path under repoRoot. The file
// does not have to exist; Load treats a missing file as empty.
func DefaultRepoPath(repoRoot string) string {
	if strings.TrimSpace(repoRoot) == "" {
		return ""
	}
	return filepath.Join(repoRoot, ProjectFile)
}

func hasRootMarker(dir string) bool {
	for _, m := range rootMarkers {
		fi, err := os.Stat(filepath.Join(dir, m.name))
		if err == nil && fi.IsDir() == m.wantDir {
			return true
		}
	}
	return false
}
