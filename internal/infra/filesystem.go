package infra

import (
	"os"
	"path/filepath"
	"strings"
)

// FileSystem resolves user-supplied paths (config, log, callback script).
type FileSystem struct {
	homeDir string
}

// NewFileSystem creates a filesystem helper for the invoking user.
func NewFileSystem() *FileSystem {
	return &FileSystem{homeDir: GetRealUserHome()}
}

// NewFileSystemWithHome creates a filesystem helper with custom home (for testing).
func NewFileSystemWithHome(home string) *FileSystem {
	return &FileSystem{homeDir: home}
}

// Exists checks if a path exists.
func (fs *FileSystem) Exists(path string) bool {
	_, err := os.Stat(fs.ExpandHome(path))
	return err == nil
}

// IsExecutable reports whether path is a regular file with an exec bit set.
func (fs *FileSystem) IsExecutable(path string) bool {
	info, err := os.Stat(fs.ExpandHome(path))
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// EnsureDir creates the parent directory of path.
func (fs *FileSystem) EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(fs.ExpandHome(path)), 0755)
}

// ExpandHome expands ~ to the user's home directory.
func (fs *FileSystem) ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(fs.homeDir, path[2:])
	}
	if path == "~" {
		return fs.homeDir
	}
	return path
}
