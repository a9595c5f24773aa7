package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/vpub/internal/paths"
	"github.com/aidanlsb/vpub/internal/resolver"
)

// ErrPathNotFound is returned when a requested path does not exist.
var ErrPathNotFound = errors.New("path not found")

// ResolvePath resolves a user-supplied path against the vault root.
//
// An empty path means the vault root. Relative paths are joined to the root;
// absolute paths are used as-is. The result must exist and lie inside the vault.
func ResolvePath(root, p string) (string, error) {
	if p == "" {
		p = root
	} else if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}

	abs, err := paths.WithinRoot(root, p)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: tried %s", ErrPathNotFound, abs)
		}
		return "", err
	}
	return abs, nil
}

// ResolveNoteRef resolves a CLI argument to a file or directory in the vault.
//
// It first tries ResolvePath (with and without a ".md" suffix) and then
// falls back to note-name matching ("Draft", "draft", "logs/team-retro").
func ResolveNoteRef(root, ref string) (string, error) {
	if p, err := ResolvePath(root, ref); err == nil {
		return p, nil
	} else if !errors.Is(err, ErrPathNotFound) {
		return "", err
	}
	if filepath.Ext(ref) != ".md" {
		if p, err := ResolvePath(root, ref+".md"); err == nil {
			return p, nil
		}
	}

	keys, err := ListKeys(root)
	if err != nil {
		return "", err
	}
	if res, ok := resolver.New(keys).Resolve(ref); ok {
		return filepath.Join(root, paths.KeyToFile(res.Key)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrPathNotFound, ref)
}
