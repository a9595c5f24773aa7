// Package meta implements the single-note frontmatter transforms: identifier
// assignment, URL extraction and validation. None of them touch the publish
// flag.
package meta

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aidanlsb/vpub/internal/note"
)

// Frontmatter keys used by the transforms.
const (
	KeyID        = "id"
	KeyPermalink = "permalink"
	KeyPageTitle = "page-title"
	KeyURL       = "url"
)

// ExtractionMarker tags the line ExtractURL inserts so it runs once per note.
const ExtractionMarker = "#vpub/url_extraction"

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}

// AssignIDs gives n matching id and permalink fields.
//
// If both exist the note is left alone. If only one exists the other is
// copied from it. Otherwise both are set to a fresh value from gen (NewID
// when gen is nil). It reports whether the frontmatter changed.
func AssignIDs(n *note.Note, gen func() string) bool {
	if gen == nil {
		gen = NewID
	}
	if n.Frontmatter == nil {
		n.Frontmatter = note.NewFrontmatter()
	}
	fm := n.Frontmatter

	id, hasID := fm.Get(KeyID)
	permalink, hasPermalink := fm.Get(KeyPermalink)

	switch {
	case hasID && hasPermalink:
		return false
	case hasID:
		fm.Set(KeyPermalink, id)
	case hasPermalink:
		fm.Set(KeyID, permalink)
	default:
		v := gen()
		fm.Set(KeyID, v)
		fm.Set(KeyPermalink, v)
	}
	return true
}

// Extracted reports whether ExtractURL has already run on n.
func Extracted(n *note.Note) bool {
	return strings.Contains(n.Body, ExtractionMarker)
}

// ExtractURL prepends a marker line linking the note's first url* value to
// its body. It reports false when the note was already extracted and wraps
// note.ErrNoURL when the note has no URL.
func ExtractURL(n *note.Note) (bool, error) {
	if Extracted(n) {
		return false, nil
	}
	url, err := n.FirstURL()
	if err != nil {
		return false, err
	}

	name := n.Name
	if n.Frontmatter != nil {
		if title, ok := n.Frontmatter.Get(KeyPageTitle); ok && title != nil {
			name = fmt.Sprint(title)
		}
	}

	n.Body = fmt.Sprintf("%s [%s](%s)\n", ExtractionMarker, name, url) + n.Body
	return true, nil
}
