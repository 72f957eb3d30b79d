package internal

import (
	"path"
	"path/filepath"
	"strings"
)

// NormalizeDir cleans a directory path; trailing separators are dropped.
func NormalizeDir(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Clean(dir)
}

// PartialName derives a partial's registration name from its file path:
// the slash-separated path relative to root, without extension.
func PartialName(root, file string) (string, error) {
	rel, err := filepath.Rel(NormalizeDir(root), file)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel)), nil
}

// IsHidden reports whether a file or directory name starts with a dot.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// HasExtension reports whether file has one of exts (with or without dot).
func HasExtension(file string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.TrimPrefix(e, ".") == ext {
			return true
		}
	}
	return false
}
