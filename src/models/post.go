package models

import (
	"time"
)

type PostState string

const (
	PostStateZero   PostState = "zero"
	PostStateLow    PostState = "low"
	PostStateHigh   PostState = "high"
	PostStatePop    PostState = "pop"
	PostStateClosed PostState = "closed"
)

const (
	IconFrown  = "fa fa-frown"
	IconBook   = "fa fa-book"
	IconRocket = "fa fa-rocket"
	IconFire   = "fa fa-fire"
	IconLock   = "fa fa-lock"
)

type Post struct {
	ID        int `db:"id"`
	TopicID   int `db:"topic_id"`
	ProfileID int `db:"profile_id"`

	Title   string    `db:"title"`
	Slug    string    `db:"slug"`
	Content string    `db:"content"`
	Date    time.Time `db:"date"`

	Approved bool      `db:"approved"`
	Closed   bool      `db:"closed"`
	State    PostState `db:"state"`
	Icon     string    `db:"icon"`
	Hits     int       `db:"hits"`
}

func (p *Post) EnsureSlug() {
	EnsureSlug(&p.Slug, p.Title)
}

/*
DeriveStatus maps a post's engagement to the label and icon shown next to it
in listings:

	closed              closed  fa fa-lock
	0 comments          zero    fa fa-frown
	1 comment           low     fa fa-book
	2-3 comments        high    fa fa-rocket
	4 or more comments  pop     fa fa-fire

Closed wins regardless of how many comments there are.
*/
func DeriveStatus(closed bool, commentCount int) (PostState, string) {
	switch {
	case closed:
		return PostStateClosed, IconLock
	case commentCount <= 0:
		return PostStateZero, IconFrown
	case commentCount < 2:
		return PostStateLow, IconBook
	case commentCount < 4:
		return PostStateHigh, IconRocket
	default:
		return PostStatePop, IconFire
	}
}

// ApplyStatus sets State and Icon from DeriveStatus.
func (p *Post) ApplyStatus(commentCount int) {
	p.State, p.Icon = DeriveStatus(p.Closed, commentCount)
}

type Comment struct {
	ID        int       `db:"id"`
	PostID    int       `db:"post_id"`
	ProfileID int       `db:"profile_id"`
	Content   string    `db:"content"`
	Date      time.Time `db:"date"`
}

type Reply struct {
	ID        int       `db:"id"`
	CommentID int       `db:"comment_id"`
	ProfileID int       `db:"profile_id"`
	Content   string    `db:"content"`
	Date      time.Time `db:"date"`
}
