package forumdata

import (
	"context"
	"errors"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"github.com/samber/lo"
)

type CommentAndStuff struct {
	Comment      models.Comment `db:"comment"`
	Author       models.Profile `db:"author"`
	AuthorAvatar *models.Asset  `db:"author_avatar"`
	Replies      []ReplyAndStuff
}

type ReplyAndStuff struct {
	Reply        models.Reply   `db:"reply"`
	Author       models.Profile `db:"author"`
	AuthorAvatar *models.Asset  `db:"author_avatar"`
}

/*
GetOrCreateComment attaches a comment to a post. If the same author already
left a comment with exactly this content on the post, that comment is returned
instead and created is false. The author is paid either way, so resubmitting
the same comment keeps earning points.

TODO: stop awarding points when created is false once the forum owners decide
whether duplicate submissions should count.
*/
func GetOrCreateComment(ctx context.Context, conn db.ConnOrTx, postID int, author *models.Profile, content string) (comment *models.Comment, created bool, err error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Get or create comment").End()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, false, oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	// Serialize submissions to the same post so two identical comments can't
	// both miss the lookup.
	if _, err := tx.Exec(ctx, `SELECT id FROM post WHERE id = $1 FOR UPDATE`, postID); err != nil {
		return nil, false, oops.New(err, "failed to lock post")
	}

	comment, err = db.QueryOne[models.Comment](ctx, tx,
		`
		---- Find existing comment
		SELECT $columns
		FROM comment
		WHERE post_id = $1 AND profile_id = $2 AND content = $3
		ORDER BY id
		LIMIT 1
		`,
		postID,
		author.ID,
		content,
	)
	if errors.Is(err, db.NotFound) {
		comment, err = db.QueryOne[models.Comment](ctx, tx,
			`
			---- Create comment
			INSERT INTO comment (post_id, profile_id, content, date)
			VALUES ($1, $2, $3, NOW())
			RETURNING $columns
			`,
			postID,
			author.ID,
			content,
		)
		created = true
	}
	if err != nil {
		return nil, false, oops.New(err, "failed to save comment")
	}

	if err := awardPoints(ctx, tx, author.ID, models.PointsForComment); err != nil {
		return nil, false, err
	}
	if _, _, err := RefreshPostStatus(ctx, tx, postID); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, oops.New(err, "failed to commit comment")
	}
	author.Points += models.PointsForComment

	return comment, created, nil
}

// GetOrCreateReply is GetOrCreateComment for replies: same lookup, scoped to
// the comment being replied to, and the same unconditional payout.
func GetOrCreateReply(ctx context.Context, conn db.ConnOrTx, commentID int, author *models.Profile, content string) (reply *models.Reply, created bool, err error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Get or create reply").End()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, false, oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM comment WHERE id = $1 FOR UPDATE`, commentID); err != nil {
		return nil, false, oops.New(err, "failed to lock comment")
	}

	reply, err = db.QueryOne[models.Reply](ctx, tx,
		`
		---- Find existing reply
		SELECT $columns
		FROM reply
		WHERE comment_id = $1 AND profile_id = $2 AND content = $3
		ORDER BY id
		LIMIT 1
		`,
		commentID,
		author.ID,
		content,
	)
	if errors.Is(err, db.NotFound) {
		reply, err = db.QueryOne[models.Reply](ctx, tx,
			`
			---- Create reply
			INSERT INTO reply (comment_id, profile_id, content, date)
			VALUES ($1, $2, $3, NOW())
			RETURNING $columns
			`,
			commentID,
			author.ID,
			content,
		)
		created = true
	}
	if err != nil {
		return nil, false, oops.New(err, "failed to save reply")
	}

	if err := awardPoints(ctx, tx, author.ID, models.PointsForReply); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, oops.New(err, "failed to commit reply")
	}
	author.Points += models.PointsForReply

	return reply, created, nil
}

// FetchComment returns db.NotFound unless the comment exists and belongs to
// the given post.
func FetchComment(ctx context.Context, conn db.ConnOrTx, postID, commentID int) (*models.Comment, error) {
	return db.QueryOne[models.Comment](ctx, conn,
		`
		---- Fetch comment
		SELECT $columns
		FROM comment
		WHERE id = $1 AND post_id = $2
		`,
		commentID,
		postID,
	)
}

// FetchCommentsWithReplies returns a post's comments oldest first, each with
// its replies, also oldest first.
func FetchCommentsWithReplies(ctx context.Context, conn db.ConnOrTx, postID int) ([]*CommentAndStuff, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch comments").End()

	comments, err := db.Query[CommentAndStuff](ctx, conn,
		`
		---- Fetch comments
		SELECT $columns
		FROM
			comment
			JOIN profile AS author ON author.id = comment.profile_id
			LEFT JOIN asset AS author_avatar ON author_avatar.id = author.avatar_asset_id
		WHERE comment.post_id = $1
		ORDER BY comment.date, comment.id
		`,
		postID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch comments")
	}

	replies, err := db.Query[ReplyAndStuff](ctx, conn,
		`
		---- Fetch replies
		SELECT $columns
		FROM
			reply
			JOIN comment ON comment.id = reply.comment_id
			JOIN profile AS author ON author.id = reply.profile_id
			LEFT JOIN asset AS author_avatar ON author_avatar.id = author.avatar_asset_id
		WHERE comment.post_id = $1
		ORDER BY reply.date, reply.id
		`,
		postID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch replies")
	}

	attachReplies(comments, replies)
	return comments, nil
}

func attachReplies(comments []*CommentAndStuff, replies []*ReplyAndStuff) {
	byComment := lo.GroupBy(replies, func(r *ReplyAndStuff) int {
		return r.Reply.CommentID
	})
	for _, c := range comments {
		c.Replies = lo.Map(byComment[c.Comment.ID], func(r *ReplyAndStuff, _ int) ReplyAndStuff {
			return *r
		})
	}
}
