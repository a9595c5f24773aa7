// Package slugs normalises note names and paths for fuzzy matching.
//
// Slugs are only used to compare what a user typed (a CLI argument or a
// wikilink target) with the names of notes on disk. They never become file
// names or permalinks.
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// Component slugifies a single path component, dropping a trailing ".md".
func Component(s string) string {
	s = strings.TrimSuffix(s, ".md")
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
	}
	return slugged
}

// Path slugifies each "/"-separated component of a vault-relative path.
func Path(path string) string {
	path = strings.TrimSuffix(path, ".md")
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = Component(part)
	}
	return strings.Join(parts, "/")
}
