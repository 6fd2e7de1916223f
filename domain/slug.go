package domain

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// BaseSlug lowercases name, collapses every non-alphanumeric run into a
// single hyphen and trims hyphens at both ends. The result is cut so a
// suffixed slug always fits its column.
func BaseSlug(name string) string {
	s := strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(s) > maxSlugBaseLength {
		s = strings.TrimRight(s[:maxSlugBaseLength], "-")
	}
	return s
}

// BuildSlug appends suffix to the base slug of name. Names without any
// alphanumeric content fall back to "board".
func BuildSlug(name, suffix string) string {
	base := BaseSlug(name)
	if base == "" {
		base = "board"
	}
	return base + "-" + suffix
}
