package vault

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/vpub/internal/note"
	"github.com/aidanlsb/vpub/internal/paths"
)

// WalkResult contains the result of processing a markdown file.
type WalkResult struct {
	Path         string
	RelativePath string
	Key          string
	Note         *note.Note
	Error        error
}

// WalkNotes walks the markdown notes under dir (which must be inside root)
// in lexical order, parses each one and calls handler.
//
// Per-file read and parse failures are passed to handler in
// WalkResult.Error; returning an error from handler stops the walk.
func WalkNotes(root, dir string, handler func(result WalkResult) error) error {
	return walkFiles(root, dir, func(path, rel string) error {
		result := WalkResult{
			Path:         path,
			RelativePath: rel,
			Key:          paths.FileToKey(rel),
		}
		n, err := note.Parse(path)
		if err != nil {
			result.Error = err
		} else {
			result.Note = n
		}
		return handler(result)
	})
}

// ListKeys returns the keys of every note in the vault without parsing them.
func ListKeys(root string) ([]string, error) {
	var keys []string
	err := walkFiles(root, root, func(_, rel string) error {
		keys = append(keys, paths.FileToKey(rel))
		return nil
	})
	return keys, err
}

// ListFiles returns the vault-relative paths of the notes under dir without
// parsing them.
func ListFiles(root, dir string) ([]string, error) {
	var rels []string
	err := walkFiles(root, dir, func(_, rel string) error {
		rels = append(rels, rel)
		return nil
	})
	return rels, err
}

// ListAttachments returns the vault-relative paths of every file under root
// that is not a note: images, PDFs, drawings and the like.
func ListAttachments(root string) ([]string, error) {
	var rels []string
	err := walkVault(root, root, isAttachment, func(_, rel string) error {
		rels = append(rels, rel)
		return nil
	})
	return rels, err
}

func isAttachment(name string) bool {
	return !strings.HasPrefix(name, ".") && !IsNoteFile(name)
}

// walkFiles calls fn for every vault note file under dir. It skips:
// - hidden directories (.obsidian, .git, .trash, .vpub, ...)
// - non-.md files
// - readme.md in any case
// - Excalidraw drawings (*.excalidraw.md)
// - anything that resolves outside root
func walkFiles(root, dir string, fn func(path, rel string) error) error {
	return walkVault(root, dir, IsNoteFile, fn)
}

func walkVault(root, dir string, keep func(name string) bool, fn func(path, rel string) error) error {
	if dir == "" {
		dir = root
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// Unreadable subtrees are skipped so one bad directory doesn't
			// hide the rest of the vault.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !keep(d.Name()) {
			return nil
		}

		if _, err := paths.WithinRoot(root, path); err != nil {
			if errors.Is(err, paths.ErrPathOutsideVault) {
				return nil
			}
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel))
	})
}

// IsNoteFile reports whether a file name is a vault note.
func IsNoteFile(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case !strings.HasSuffix(name, ".md"):
		return false
	case lower == "readme.md":
		return false
	case strings.HasSuffix(lower, ".excalidraw.md"):
		return false
	case strings.HasPrefix(name, "."):
		return false
	}
	return true
}
