package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":        "hello-world",
		"Crème  brûlée":        "creme-brulee",
		"  --Go 1.22--  ":      "go-122",
		"General Discussion":   "general-discussion",
		"snake_case stays":     "snake_case-stays",
		"UPPER lower":          "upper-lower",
		"日本語":                  "",
		"multiple   spaces---": "multiple-spaces",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, Slugify(input), "input: %q", input)
	}
}

func TestEnsureSlug(t *testing.T) {
	t.Run("fills in an empty slug", func(t *testing.T) {
		post := Post{Title: "My First Post"}
		post.EnsureSlug()
		assert.Equal(t, "my-first-post", post.Slug)
	})
	t.Run("keeps an existing slug", func(t *testing.T) {
		post := Post{Title: "Renamed Post", Slug: "my-first-post"}
		post.EnsureSlug()
		assert.Equal(t, "my-first-post", post.Slug)
	})
	t.Run("saving twice is stable", func(t *testing.T) {
		topic := Topic{Title: "Off Topic"}
		topic.EnsureSlug()
		topic.Title = "Something Else"
		topic.EnsureSlug()
		assert.Equal(t, "off-topic", topic.Slug)
	})
	t.Run("profiles use the full name", func(t *testing.T) {
		profile := Profile{Fullname: "Ada Lovelace"}
		profile.EnsureSlug()
		assert.Equal(t, "ada-lovelace", profile.Slug)
	})
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		closed   bool
		comments int
		state    PostState
		icon     string
	}{
		{false, 0, PostStateZero, "fa fa-frown"},
		{false, 1, PostStateLow, "fa fa-book"},
		{false, 2, PostStateHigh, "fa fa-rocket"},
		{false, 3, PostStateHigh, "fa fa-rocket"},
		{false, 4, PostStatePop, "fa fa-fire"},
		{false, 400, PostStatePop, "fa fa-fire"},
		{true, 0, PostStateClosed, "fa fa-lock"},
		{true, 10, PostStateClosed, "fa fa-lock"},
	}
	for _, c := range cases {
		state, icon := DeriveStatus(c.closed, c.comments)
		assert.Equal(t, c.state, state, "closed=%v comments=%d", c.closed, c.comments)
		assert.Equal(t, c.icon, icon, "closed=%v comments=%d", c.closed, c.comments)
	}
}

func TestApplyStatusIsIdempotent(t *testing.T) {
	post := Post{}
	post.ApplyStatus(3)
	first := post
	post.ApplyStatus(3)
	assert.Equal(t, first, post)
	assert.Equal(t, PostStateHigh, post.State)
}

func TestTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web-dev"}, ParseTags(" Go, web-dev ,, go"))
	assert.Empty(t, ParseTags(""))

	assert.True(t, ValidateTagText("web-dev"))
	assert.False(t, ValidateTagText("web dev"))
	assert.False(t, ValidateTagText("-leading"))
	assert.False(t, ValidateTagText("abcdefghijklmnopqrstuvwxyz"))
}
