package meta

import (
	"reflect"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aidanlsb/vpub/internal/note"
)

var (
	errNoFrontmatter = validation.NewError("vpub.frontmatter.missing", "note has no frontmatter")
	errIDMismatch    = validation.NewError("vpub.frontmatter.id_mismatch", "id and permalink do not match")
)

// ValidateReference checks that a reference note carries page-title and url.
func ValidateReference(n *note.Note) error {
	fm, err := frontmatterMap(n)
	if err != nil {
		return err
	}
	return validation.Validate(fm,
		validation.Map(
			validation.Key(KeyPageTitle),
			validation.Key(KeyURL),
		).AllowExtraKeys(),
	)
}

// ValidateIdentity checks that a note has equal id and permalink fields.
func ValidateIdentity(n *note.Note) error {
	fm, err := frontmatterMap(n)
	if err != nil {
		return err
	}
	id := fm[KeyID]
	return validation.Validate(fm,
		validation.Map(
			validation.Key(KeyID),
			validation.Key(KeyPermalink, validation.By(func(value interface{}) error {
				if !reflect.DeepEqual(value, id) {
					return errIDMismatch
				}
				return nil
			})),
		).AllowExtraKeys(),
	)
}

func frontmatterMap(n *note.Note) (map[string]interface{}, error) {
	if n.Frontmatter == nil || n.Frontmatter.Len() == 0 {
		return nil, errNoFrontmatter
	}
	m := make(map[string]interface{}, n.Frontmatter.Len())
	for _, key := range n.Frontmatter.Keys() {
		m[key], _ = n.Frontmatter.Get(key)
	}
	return m, nil
}
