package forumdata

import (
	"context"
	"errors"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
)

// Forums and topics have no pages of their own for creating them; these are
// used by the admin commands and the seeder.

func CreateForum(ctx context.Context, conn db.ConnOrTx, title string) (*models.Forum, error) {
	forum, err := db.QueryOne[models.Forum](ctx, conn,
		`
		---- Create forum
		INSERT INTO forum (title)
		VALUES ($1)
		RETURNING $columns
		`,
		title,
	)
	if err != nil {
		return nil, oops.New(err, "failed to create forum")
	}
	invalidateHomeStatsOrWarn(ctx)
	return forum, nil
}

type TopicInput struct {
	ForumID     int
	Title       string
	Description string // models.DefaultTopicDescription if empty
	Icon        string
}

func CreateTopic(ctx context.Context, conn db.ConnOrTx, input TopicInput) (*models.Topic, error) {
	topic := models.Topic{
		ForumID:     input.ForumID,
		Title:       input.Title,
		Description: input.Description,
		Icon:        input.Icon,
	}
	if topic.Description == "" {
		topic.Description = models.DefaultTopicDescription
	}
	topic.EnsureSlug()
	if topic.Slug == "" {
		return nil, oops.New(ErrEmptySlug, "topic title %q has no usable characters", input.Title)
	}

	created, err := db.QueryOne[models.Topic](ctx, conn,
		`
		---- Create topic
		INSERT INTO topic (forum_id, title, slug, description, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING $columns
		`,
		topic.ForumID,
		topic.Title,
		topic.Slug,
		topic.Description,
		topic.Icon,
	)
	if err != nil {
		return nil, wrapSlugError(err, "topic")
	}
	invalidateHomeStatsOrWarn(ctx)
	return created, nil
}

/*
SetPostClosed opens or closes a post and refreshes its status, since a closed
post always shows as closed. Returns db.NotFound for an unknown slug.
*/
func SetPostClosed(ctx context.Context, conn db.ConnOrTx, slug string, closed bool) (*models.Post, error) {
	post, err := db.QueryOne[models.Post](ctx, conn,
		`
		---- Set post closed
		UPDATE post
		SET closed = $2
		WHERE slug = $1
		RETURNING $columns
		`,
		slug,
		closed,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, err
		}
		return nil, oops.New(err, "failed to update post")
	}

	post.State, post.Icon, err = RefreshPostStatus(ctx, conn, post.ID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// SetPostApproved hides or shows a post in topic listings. Returns
// db.NotFound for an unknown slug.
func SetPostApproved(ctx context.Context, conn db.ConnOrTx, slug string, approved bool) (*models.Post, error) {
	post, err := db.QueryOne[models.Post](ctx, conn,
		`
		---- Set post approved
		UPDATE post
		SET approved = $2
		WHERE slug = $1
		RETURNING $columns
		`,
		slug,
		approved,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, err
		}
		return nil, oops.New(err, "failed to update post")
	}
	invalidateHomeStatsOrWarn(ctx)
	return post, nil
}

// RefreshAllPostStatuses recomputes every post's state and icon, and returns
// how many posts changed.
func RefreshAllPostStatuses(ctx context.Context, conn db.ConnOrTx) (int64, error) {
	tag, err := conn.Exec(ctx,
		`
		---- Refresh all post statuses
		WITH derived AS (
			SELECT
				post.id,
				CASE
					WHEN post.closed THEN 'closed'
					WHEN stats.n = 0 THEN 'zero'
					WHEN stats.n < 2 THEN 'low'
					WHEN stats.n < 4 THEN 'high'
					ELSE 'pop'
				END AS state,
				CASE
					WHEN post.closed THEN $1
					WHEN stats.n = 0 THEN $2
					WHEN stats.n < 2 THEN $3
					WHEN stats.n < 4 THEN $4
					ELSE $5
				END AS icon
			FROM
				post
				JOIN LATERAL (
					SELECT COUNT(*) AS n FROM comment WHERE comment.post_id = post.id
				) AS stats ON TRUE
		)
		UPDATE post
		SET state = derived.state, icon = derived.icon
		FROM derived
		WHERE post.id = derived.id AND (post.state != derived.state OR post.icon != derived.icon)
		`,
		models.IconLock,
		models.IconFrown,
		models.IconBook,
		models.IconRocket,
		models.IconFire,
	)
	if err != nil {
		return 0, oops.New(err, "failed to refresh post statuses")
	}
	return tag.RowsAffected(), nil
}

func invalidateHomeStatsOrWarn(ctx context.Context) {
	if err := InvalidateHomeStats(ctx); err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Msg("failed to invalidate home stats")
	}
}
