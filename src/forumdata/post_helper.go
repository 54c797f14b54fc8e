package forumdata

import (
	"context"
	"errors"
	"strings"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
)

const (
	PostsPerPage    = 5
	NumLatestPosts  = 10
	PreviewMaxChars = 200
)

type PostAndStuff struct {
	Post         models.Post    `db:"post"`
	Topic        models.Topic   `db:"topic"`
	Author       models.Profile `db:"author"`
	AuthorAvatar *models.Asset  `db:"author_avatar"`
	NumComments  int            `db:"comment_stats.num_comments"`
}

type PostsQuery struct {
	TopicIDs     []int // if empty, all topics
	Slugs        []string
	ApprovedOnly bool

	// Case-insensitive substring search. Ignored when Search is empty.
	Search     string
	SearchMode SearchMode

	Limit, Offset int // if empty, no pagination
}

func fetchPosts(ctx context.Context, conn db.ConnOrTx, q PostsQuery) ([]*PostAndStuff, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch posts").End()

	var qb db.QueryBuilder
	qb.Add(
		`
		---- Fetch posts
		SELECT $columns
		FROM
			post
			JOIN topic ON topic.id = post.topic_id
			JOIN profile AS author ON author.id = post.profile_id
			LEFT JOIN asset AS author_avatar ON author_avatar.id = author.avatar_asset_id
			LEFT JOIN LATERAL (
				SELECT COUNT(*) AS num_comments FROM comment WHERE comment.post_id = post.id
			) AS comment_stats ON TRUE
		WHERE
			TRUE
		`,
	)
	qb.AddIf(len(q.TopicIDs) > 0, `AND post.topic_id = ANY ($?)`, q.TopicIDs)
	qb.AddIf(len(q.Slugs) > 0, `AND post.slug = ANY ($?)`, q.Slugs)
	qb.AddIf(q.ApprovedOnly, `AND post.approved`)
	if q.Search != "" {
		qb.Add(`AND `+SearchColumn(q.SearchMode)+` ILIKE $? ESCAPE '\'`, LikePattern(q.Search))
	}
	qb.Add(`ORDER BY post.date DESC, post.id DESC`)
	if q.Limit > 0 {
		qb.Add(`LIMIT $? OFFSET $?`, q.Limit, q.Offset)
	}

	posts, err := db.Query[PostAndStuff](ctx, conn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to fetch posts")
	}
	return posts, nil
}

// FetchPostBySlug returns db.NotFound for an unknown slug.
func FetchPostBySlug(ctx context.Context, conn db.ConnOrTx, slug string) (*PostAndStuff, error) {
	posts, err := fetchPosts(ctx, conn, PostsQuery{Slugs: []string{slug}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, db.NotFound
	}
	return posts[0], nil
}

func CountTopicPosts(ctx context.Context, conn db.ConnOrTx, topicID int) (int, error) {
	count, err := db.QueryOneScalar[int](ctx, conn,
		`
		---- Count approved topic posts
		SELECT COUNT(*)
		FROM post
		WHERE topic_id = $1 AND approved
		`,
		topicID,
	)
	if err != nil {
		return 0, oops.New(err, "failed to count topic posts")
	}
	return count, nil
}

// FetchTopicPosts returns one page of a topic's approved posts, newest first.
// Pages start at 1.
func FetchTopicPosts(ctx context.Context, conn db.ConnOrTx, topicID int, page int) ([]*PostAndStuff, error) {
	if page < 1 {
		page = 1
	}
	return fetchPosts(ctx, conn, PostsQuery{
		TopicIDs:     []int{topicID},
		ApprovedOnly: true,
		Limit:        PostsPerPage,
		Offset:       (page - 1) * PostsPerPage,
	})
}

func LatestPosts(ctx context.Context, conn db.ConnOrTx) ([]*PostAndStuff, error) {
	return fetchPosts(ctx, conn, PostsQuery{
		ApprovedOnly: true,
		Limit:        NumLatestPosts,
	})
}

type SearchMode string

const (
	SearchTitles       SearchMode = "titles"
	SearchDescriptions SearchMode = "descriptions"
)

// SearchColumn is the column a search mode looks at. Anything other than
// "descriptions" searches titles.
func SearchColumn(mode SearchMode) string {
	if mode == SearchDescriptions {
		return "post.content"
	}
	return "post.title"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern matches query anywhere in a string, with LIKE wildcards in the
// query taken literally.
func LikePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// SearchPosts finds every post whose title (or content, in descriptions mode)
// contains query, ignoring case. Results are newest first and unranked.
func SearchPosts(ctx context.Context, conn db.ConnOrTx, query string, mode SearchMode) ([]*PostAndStuff, error) {
	if query == "" {
		// An empty substring matches everything.
		return fetchPosts(ctx, conn, PostsQuery{})
	}
	return fetchPosts(ctx, conn, PostsQuery{
		Search:     query,
		SearchMode: mode,
	})
}

type PostInput struct {
	Title   string
	Content string
	TopicID int
	Tags    []string
}

/*
CreatePost saves a new post with its tags and pays its author. The slug comes
from the title; ErrEmptySlug and ErrSlugTaken are returned (wrapped) when the
title can't produce a usable one.
*/
func CreatePost(ctx context.Context, conn db.ConnOrTx, author *models.Profile, input PostInput) (*models.Post, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Create post").End()

	post := models.Post{
		TopicID:   input.TopicID,
		ProfileID: author.ID,
		Title:     input.Title,
		Content:   input.Content,
		Approved:  true,
	}
	post.EnsureSlug()
	if post.Slug == "" {
		return nil, oops.New(ErrEmptySlug, "title %q has no usable characters", input.Title)
	}
	post.ApplyStatus(0)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	created, err := db.QueryOne[models.Post](ctx, tx,
		`
		---- Create post
		INSERT INTO post (topic_id, profile_id, title, slug, content, date, approved, closed, state, icon)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, FALSE, $7, $8)
		RETURNING $columns
		`,
		post.TopicID,
		post.ProfileID,
		post.Title,
		post.Slug,
		post.Content,
		post.Approved,
		post.State,
		post.Icon,
	)
	if err != nil {
		return nil, wrapSlugError(err, "post")
	}

	if err := SetPostTags(ctx, tx, created.ID, input.Tags); err != nil {
		return nil, err
	}
	if err := awardPoints(ctx, tx, author.ID, models.PointsForPost); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.New(err, "failed to commit new post")
	}
	author.Points += models.PointsForPost

	if err := InvalidateHomeStats(ctx); err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Msg("failed to invalidate home stats")
	}

	return created, nil
}

/*
RefreshPostStatus recomputes a post's state and icon from its comment count
and saves them. Running it twice in a row changes nothing the second time.
*/
func RefreshPostStatus(ctx context.Context, conn db.ConnOrTx, postID int) (models.PostState, string, error) {
	type statusInput struct {
		Closed      bool `db:"closed"`
		NumComments int  `db:"num_comments"`
	}
	in, err := db.QueryOne[statusInput](ctx, conn,
		`
		---- Fetch post status input
		SELECT $columns
		FROM (
			SELECT
				post.closed,
				(SELECT COUNT(*) FROM comment WHERE comment.post_id = post.id) AS num_comments
			FROM post
			WHERE post.id = $1
		) AS status_input
		`,
		postID,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return "", "", err
		}
		return "", "", oops.New(err, "failed to fetch post status input")
	}

	state, icon := models.DeriveStatus(in.Closed, in.NumComments)
	_, err = conn.Exec(ctx,
		`
		---- Save post status
		UPDATE post SET state = $1, icon = $2 WHERE id = $3
		`,
		state,
		icon,
		postID,
	)
	if err != nil {
		return "", "", oops.New(err, "failed to save post status")
	}
	return state, icon, nil
}

// RecordHit counts a view of the post, at most once per session. It reports
// whether this view was counted.
func RecordHit(ctx context.Context, conn db.ConnOrTx, sessionID string, postID int) (bool, error) {
	tag, err := conn.Exec(ctx,
		`
		---- Record post hit
		WITH hit AS (
			INSERT INTO post_hit (session_id, post_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING post_id
		)
		UPDATE post
		SET hits = hits + 1
		WHERE id IN (SELECT post_id FROM hit)
		`,
		sessionID,
		postID,
	)
	if err != nil {
		return false, oops.New(err, "failed to record post hit")
	}
	return tag.RowsAffected() == 1, nil
}
