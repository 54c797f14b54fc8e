package models

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reSlugInvalid   = regexp.MustCompile(`[^\w\s-]`)
	reSlugSeparator = regexp.MustCompile(`[-\s]+`)
)

/*
Slugify turns a title or name into something URL-safe. Accented letters are
reduced to their base letter, anything that isn't a letter, digit,
underscore, space or hyphen is dropped, and runs of spaces and hyphens become
a single hyphen.

	Slugify("Hello, World!")   == "hello-world"
	Slugify("Crème  brûlée")   == "creme-brulee"
	Slugify("  --Go 1.22--  ") == "go-122"
*/
func Slugify(s string) string {
	var ascii strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r < unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}
	slug := reSlugInvalid.ReplaceAllString(strings.ToLower(ascii.String()), "")
	slug = reSlugSeparator.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-_")
}

// EnsureSlug fills in *slug from source if it's empty. An existing slug is
// never replaced.
func EnsureSlug(slug *string, source string) {
	if *slug == "" {
		*slug = Slugify(source)
	}
}
