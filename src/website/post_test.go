package website

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"git.hoosierptk.dev/forums/forums/src/forms"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosedPostStillTakesComments(t *testing.T) {
	data := PostDetailTemplateData{
		BaseData: templates.BaseData{
			Title: "Closed",
			Header: templates.Header{
				HomepageUrl:    "/",
				LatestPostsUrl: "/latest_posts",
				SearchUrl:      "/search",
				SigninUrl:      "/signin/",
				SignupUrl:      "/signup/",
			},
		},
		Post: templates.Post{
			Title:  "Old news",
			Url:    "/detail/old-news/",
			Date:   time.Now(),
			State:  "closed",
			Icon:   "fa fa-lock",
			Closed: true,
		},
		Comments: []templates.Comment{{
			ID:      7,
			Url:     "/detail/old-news/#comment-7",
			Content: "first",
			Date:    time.Now(),
		}},
		SubmitUrl: "/detail/old-news/",
	}

	var buf bytes.Buffer
	require.Nil(t, templates.GetTemplate("post_detail.html").Execute(&buf, data))
	html := buf.String()
	assert.Contains(t, html, "This post is closed.")
	assert.Contains(t, html, `name="comment-form"`)
	assert.Contains(t, html, `name="reply-form"`)
	assert.Contains(t, html, `name="comment-id" value="7"`)
}

func TestSlugFieldErrors(t *testing.T) {
	taken := oops.New(forumdata.ErrSlugTaken, "failed to save profile")
	errs, ok := slugFieldErrors(taken, "fullname", "taken")
	assert.True(t, ok)
	assert.Equal(t, forms.FieldErrors{"fullname": "taken"}, errs)

	errs, ok = slugFieldErrors(oops.New(forumdata.ErrEmptySlug, "empty"), "title", "taken")
	assert.True(t, ok)
	assert.True(t, errs.Has("title"))
	assert.NotEqual(t, "taken", errs["title"])

	errs, ok = slugFieldErrors(errors.New("connection reset"), "title", "taken")
	assert.False(t, ok)
	assert.Nil(t, errs)
}
