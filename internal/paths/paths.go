// Package paths converts between vault-relative markdown file paths
// (e.g. "logs/Team Retro.md") and note keys (e.g. "logs/Team Retro"), and
// keeps paths from escaping the vault.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathOutsideVault is returned when a path resolves outside its root.
var ErrPathOutsideVault = errors.New("path is outside the vault")

// normalizeRelPath normalizes a vault-relative path-like value:
// - converts OS separators to '/'
// - trims leading "./" and leading "/"
// - collapses repeated '/'
func normalizeRelPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// FileToKey converts a vault-relative file path to a note key.
func FileToKey(relPath string) string {
	return strings.TrimSuffix(normalizeRelPath(relPath), ".md")
}

// KeyToFile converts a note key to a vault-relative file path using OS separators.
func KeyToFile(key string) string {
	return filepath.FromSlash(normalizeRelPath(key) + ".md")
}

// WithinRoot returns the absolute form of p after checking that it lies
// inside root (or is root itself).
func WithinRoot(root, p string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return abs, nil
	}
	return "", fmt.Errorf("%w: %s", ErrPathOutsideVault, p)
}
