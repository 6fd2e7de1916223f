package domain

import "unicode/utf8"

// Column sizes for user-supplied text. MySQL rejects longer values in
// strict mode, so they are checked before insert.
const (
	MaxSlugLength        = 191
	MaxTextLength        = 255
	MaxJobTypeLength     = 64
	MaxDescriptionLength = 10000
	MaxEmailLength       = 254

	// maxSlugBaseLength leaves room for "-" and the 8 hex suffix.
	maxSlugBaseLength = MaxSlugLength - 11
)

// ExceedsLength counts characters, matching how MySQL sizes VARCHAR columns.
func ExceedsLength(value string, max int) bool {
	return utf8.RuneCountInString(value) > max
}
