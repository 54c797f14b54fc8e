package forms

import (
	"net/url"
	"strconv"
	"strings"

	"git.hoosierptk.dev/forums/forums/src/models"
)

type SignupForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8,notnumeric"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func NewSignupForm(values url.Values) SignupForm {
	return SignupForm{
		Username:  strings.TrimSpace(values.Get("username")),
		Password1: values.Get("password1"),
		Password2: values.Get("password2"),
	}
}

type SigninForm struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required"`
}

func NewSigninForm(values url.Values) SigninForm {
	return SigninForm{
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
	}
}

type PostForm struct {
	Title   string `form:"title" validate:"required,max=400,slugifiable"`
	Content string `form:"content" validate:"required"`
	TopicID int    `form:"topic" validate:"required,gt=0"`
	Tags    string `form:"tags" validate:"tags"`
}

func NewPostForm(values url.Values) PostForm {
	topicID, _ := strconv.Atoi(values.Get("topic"))
	return PostForm{
		Title:   strings.TrimSpace(values.Get("title")),
		Content: values.Get("content"),
		TopicID: topicID,
		Tags:    values.Get("tags"),
	}
}

// TagList is the normalized tag list. Only meaningful once the form is valid.
func (f PostForm) TagList() []string {
	return models.ParseTags(f.Tags)
}

type ProfileForm struct {
	Fullname string `form:"fullname" validate:"max=40"`
	Bio      string `form:"bio"`
	Role     string `form:"role" validate:"max=40"`
}

func NewProfileForm(values url.Values) ProfileForm {
	return ProfileForm{
		Fullname: strings.TrimSpace(values.Get("fullname")),
		Bio:      values.Get("bio"),
		Role:     strings.TrimSpace(values.Get("role")),
	}
}

// Comment and reply content is kept exactly as typed, since get-or-create
// matches on it.
type CommentForm struct {
	Content string `form:"comment" validate:"notblank"`
}

func NewCommentForm(values url.Values) CommentForm {
	return CommentForm{Content: values.Get("comment")}
}

type ReplyForm struct {
	Content   string `form:"reply" validate:"notblank"`
	CommentID int    `form:"comment-id" validate:"required,gt=0"`
}

// NewReplyForm reports ok=false when comment-id is not a number at all,
// which is a malformed request rather than a validation problem.
func NewReplyForm(values url.Values) (form ReplyForm, ok bool) {
	commentID, err := strconv.Atoi(values.Get("comment-id"))
	if err != nil {
		return ReplyForm{}, false
	}
	return ReplyForm{
		Content:   values.Get("reply"),
		CommentID: commentID,
	}, true
}
