package models

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

type Tag struct {
	ID   int    `db:"id"`
	Text string `db:"text"`
}

const (
	MaxTagLength   = 20
	MaxTagsPerPost = 10
)

var REValidTag = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func ValidateTagText(text string) bool {
	if text == "" {
		return true
	}

	if len(text) > MaxTagLength {
		return false
	}
	if !REValidTag.MatchString(text) {
		return false
	}

	return true
}

// ParseTags splits a comma-separated tag list as typed into the post form.
// Tags are trimmed and lowercased; blanks and duplicates are dropped. The
// result is not validated.
func ParseTags(input string) []string {
	tags := lo.Map(strings.Split(input, ","), func(t string, _ int) string {
		return strings.ToLower(strings.TrimSpace(t))
	})
	return lo.Uniq(lo.Compact(tags))
}
