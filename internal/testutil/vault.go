// Package testutil provides reusable test utilities for vpub tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestVault represents a temporary vault for testing.
type TestVault struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewTestVault creates a new test vault builder.
// Call Build() to create the actual vault directory.
func NewTestVault(t *testing.T) *TestVault {
	t.Helper()
	return &TestVault{
		t:     t,
		files: make(map[string]string),
	}
}

// At wraps an existing directory, e.g. a command's output folder, so the
// read helpers can be used on it.
func At(t *testing.T, dir string) *TestVault {
	t.Helper()
	return &TestVault{Path: dir, t: t, files: make(map[string]string)}
}

// WithFile adds a file to the vault.
// The path is relative to the vault root.
func (v *TestVault) WithFile(path, content string) *TestVault {
	v.files[path] = content
	return v
}

// WithNote adds a note with the given frontmatter lines (without delimiters)
// and body. An empty frontmatter string produces a note without a block.
func (v *TestVault) WithNote(path, frontmatter, body string) *TestVault {
	if frontmatter == "" {
		return v.WithFile(path, body)
	}
	return v.WithFile(path, "---\n"+frontmatter+"\n---\n"+body)
}

// Build creates the vault directory and all configured files.
// Returns the TestVault for method chaining.
func (v *TestVault) Build() *TestVault {
	v.t.Helper()

	v.Path = v.t.TempDir()
	for path, content := range v.files {
		v.WriteFile(path, content)
	}

	return v
}

// WriteFile writes a file to the vault, creating directories as needed.
func (v *TestVault) WriteFile(relPath, content string) {
	v.t.Helper()
	fullPath := filepath.Join(v.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		v.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the vault.
// Returns the content as a string.
func (v *TestVault) ReadFile(relPath string) string {
	v.t.Helper()
	fullPath := filepath.Join(v.Path, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		v.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the vault.
func (v *TestVault) FileExists(relPath string) bool {
	v.t.Helper()
	fullPath := filepath.Join(v.Path, relPath)
	_, err := os.Stat(fullPath)
	return err == nil
}

// Abs returns the absolute path of a vault-relative path.
func (v *TestVault) Abs(relPath string) string {
	return filepath.Join(v.Path, relPath)
}
