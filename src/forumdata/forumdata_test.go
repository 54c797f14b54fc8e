package forumdata

import (
	"errors"
	"strings"
	"testing"

	"git.hoosierptk.dev/forums/forums/src/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%go%", LikePattern("go"))
	assert.Equal(t, `%100\%%`, LikePattern("100%"))
	assert.Equal(t, `%snake\_case%`, LikePattern("snake_case"))
	assert.Equal(t, `%C:\\dir%`, LikePattern(`C:\dir`))
	assert.Equal(t, "% go %", LikePattern(" go "))
}

func TestSearchColumn(t *testing.T) {
	assert.Equal(t, "post.content", SearchColumn(SearchDescriptions))
	assert.Equal(t, "post.title", SearchColumn(SearchTitles))
	assert.Equal(t, "post.title", SearchColumn(""))
	assert.Equal(t, "post.title", SearchColumn("anything else"))
}

func TestWrapSlugError(t *testing.T) {
	for _, constraint := range []string{"profile_slug_key", "topic_slug_key", "post_slug_key"} {
		err := wrapSlugError(&pgconn.PgError{Code: "23505", ConstraintName: constraint}, "thing")
		assert.True(t, errors.Is(err, ErrSlugTaken), constraint)
	}

	err := wrapSlugError(&pgconn.PgError{Code: "23505", ConstraintName: "auth_user_username_key"}, "thing")
	assert.False(t, errors.Is(err, ErrSlugTaken))

	err = wrapSlugError(errors.New("connection reset"), "thing")
	assert.False(t, errors.Is(err, ErrSlugTaken))
	assert.Contains(t, err.Error(), "failed to save thing")
}

func TestAwardPointsIsAnIncrement(t *testing.T) {
	assert.Contains(t, awardPointsQuery, "points = points + $1")
	assert.Equal(t, 100, models.PointsForPost)
	assert.Equal(t, 50, models.PointsForComment)
	assert.Equal(t, 25, models.PointsForReply)
}

func TestGroupTopics(t *testing.T) {
	forums := []*models.Forum{{ID: 1, Title: "General"}, {ID: 2, Title: "Empty"}, {ID: 3, Title: "Help"}}
	topics := []*TopicAndStats{
		{Topic: models.Topic{ID: 10, ForumID: 3, Title: "Setup"}},
		{Topic: models.Topic{ID: 11, ForumID: 1, Title: "Intros"}, NumPosts: 4},
		{Topic: models.Topic{ID: 12, ForumID: 1, Title: "News"}},
	}

	grouped := GroupTopics(forums, topics)
	if assert.Len(t, grouped, 3) {
		assert.Equal(t, "General", grouped[0].Forum.Title)
		assert.Len(t, grouped[0].Topics, 2)
		assert.Equal(t, 4, grouped[0].Topics[0].NumPosts)
		assert.Empty(t, grouped[1].Topics)
		assert.Equal(t, "Setup", grouped[2].Topics[0].Topic.Title)
	}
}

func TestAttachReplies(t *testing.T) {
	comments := []*CommentAndStuff{
		{Comment: models.Comment{ID: 1}},
		{Comment: models.Comment{ID: 2}},
	}
	replies := []*ReplyAndStuff{
		{Reply: models.Reply{ID: 7, CommentID: 2, Content: "first"}},
		{Reply: models.Reply{ID: 8, CommentID: 2, Content: "second"}},
	}

	attachReplies(comments, replies)
	assert.Empty(t, comments[0].Replies)
	if assert.Len(t, comments[1].Replies, 2) {
		assert.Equal(t, "first", comments[1].Replies[0].Reply.Content)
		assert.Equal(t, "second", comments[1].Replies[1].Reply.Content)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 40))
	assert.Equal(t, strings.Repeat("é", 40), truncateRunes(strings.Repeat("é", 45), 40))
}
