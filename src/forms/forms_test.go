package forms

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignupForm(t *testing.T) {
	valid := NewSignupForm(url.Values{
		"username":  {"  alice  "},
		"password1": {"correct horse"},
		"password2": {"correct horse"},
	})
	assert.Equal(t, "alice", valid.Username)
	assert.Nil(t, Validate(valid))

	errs := Validate(NewSignupForm(url.Values{
		"username":  {"bad name!"},
		"password1": {"12345678"},
		"password2": {"87654321"},
	}))
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("password1"))
	assert.Equal(t, "The two password fields didn't match.", errs["password2"])

	errs = Validate(NewSignupForm(url.Values{}))
	assert.Equal(t, "This field is required.", errs["username"])
	assert.Equal(t, "This field is required.", errs["password1"])
}

func TestSigninForm(t *testing.T) {
	assert.Nil(t, Validate(NewSigninForm(url.Values{"username": {"bob"}, "password": {"x"}})))
	errs := Validate(NewSigninForm(url.Values{"username": {"bob"}}))
	assert.True(t, errs.Has("password"))
	assert.False(t, errs.Has("username"))
}

func TestPostForm(t *testing.T) {
	form := NewPostForm(url.Values{
		"title":   {"Hello World"},
		"content": {"body"},
		"topic":   {"3"},
		"tags":    {"Go, web-dev, go"},
	})
	assert.Nil(t, Validate(form))
	assert.Equal(t, 3, form.TopicID)
	assert.Equal(t, []string{"go", "web-dev"}, form.TagList())

	t.Run("title with nothing to slug", func(t *testing.T) {
		errs := Validate(NewPostForm(url.Values{"title": {"!!!"}, "content": {"x"}, "topic": {"1"}}))
		assert.Equal(t, "This must contain at least one letter or number.", errs["title"])
	})
	t.Run("title too long", func(t *testing.T) {
		errs := Validate(NewPostForm(url.Values{"title": {strings.Repeat("a", 401)}, "content": {"x"}, "topic": {"1"}}))
		assert.Equal(t, "Ensure this value has at most 400 characters.", errs["title"])
	})
	t.Run("bad topic", func(t *testing.T) {
		errs := Validate(NewPostForm(url.Values{"title": {"ok"}, "content": {"x"}, "topic": {"nope"}}))
		assert.True(t, errs.Has("topic"))
	})
	t.Run("bad tags", func(t *testing.T) {
		errs := Validate(NewPostForm(url.Values{"title": {"ok"}, "content": {"x"}, "topic": {"1"}, "tags": {"c++"}}))
		assert.Contains(t, errs["tags"], `"c++" is not a valid tag`)

		many := strings.Repeat("t,", 10) + "a,b,c,d,e,f,g,h,i,j,k"
		errs = Validate(NewPostForm(url.Values{"title": {"ok"}, "content": {"x"}, "topic": {"1"}, "tags": {many}}))
		assert.Equal(t, "You can use at most 10 tags.", errs["tags"])
	})
	t.Run("no tags is fine", func(t *testing.T) {
		assert.Nil(t, Validate(NewPostForm(url.Values{"title": {"ok"}, "content": {"x"}, "topic": {"1"}, "tags": {" , "}})))
	})
}

func TestProfileForm(t *testing.T) {
	assert.Nil(t, Validate(NewProfileForm(url.Values{})))
	errs := Validate(NewProfileForm(url.Values{"fullname": {strings.Repeat("n", 41)}}))
	assert.True(t, errs.Has("fullname"))
}

func TestCommentAndReplyForms(t *testing.T) {
	errs := Validate(NewCommentForm(url.Values{"comment": {"   "}}))
	assert.Equal(t, "This field is required.", errs["comment"])
	errs = Validate(NewCommentForm(url.Values{}))
	assert.True(t, errs.Has("comment"))

	padded := NewCommentForm(url.Values{"comment": {"  nice\n"}})
	assert.Nil(t, Validate(padded))
	assert.Equal(t, "  nice\n", padded.Content)

	blankReply, ok := NewReplyForm(url.Values{"reply": {"\t"}, "comment-id": {"3"}})
	assert.True(t, ok)
	assert.True(t, Validate(blankReply).Has("reply"))

	paddedReply, ok := NewReplyForm(url.Values{"reply": {" yes "}, "comment-id": {"3"}})
	assert.True(t, ok)
	assert.Equal(t, " yes ", paddedReply.Content)

	reply, ok := NewReplyForm(url.Values{"reply": {"yes"}, "comment-id": {"12"}})
	assert.True(t, ok)
	assert.Nil(t, Validate(reply))
	assert.Equal(t, 12, reply.CommentID)

	_, ok = NewReplyForm(url.Values{"reply": {"yes"}, "comment-id": {"twelve"}})
	assert.False(t, ok)
}

func TestFieldErrorsAdd(t *testing.T) {
	var errs FieldErrors
	errs.Add("title", "taken")
	assert.Equal(t, "taken", errs["title"])
}
