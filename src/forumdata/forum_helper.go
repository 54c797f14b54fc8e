package forumdata

import (
	"context"
	"time"

	"git.hoosierptk.dev/forums/forums/src/cache"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"github.com/samber/lo"
)

type TopicAndStats struct {
	Topic    models.Topic `db:"topic"`
	NumPosts int          `db:"stats.num_posts"`
	LastPost *models.Post `db:"last_post"` // nil for an empty topic
}

type ForumAndTopics struct {
	Forum  models.Forum
	Topics []TopicAndStats
}

type HomeStats struct {
	Forums []ForumAndTopics

	NumPosts  int
	NumUsers  int
	NumTopics int
	LastPost  *PostAndStuff // nil when nothing has been posted yet
}

const (
	homeStatsKey = "home-stats"
	homeStatsTTL = 30 * time.Second

	// Entries tagged with this are dropped whenever a post, user, forum or
	// topic is created in this process.
	PostsCacheTag = "posts"
)

func FetchTopics(ctx context.Context, conn db.ConnOrTx) ([]*TopicAndStats, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch topics").End()

	topics, err := db.Query[TopicAndStats](ctx, conn,
		`
		---- Fetch topics with stats
		SELECT $columns
		FROM
			topic
			LEFT JOIN LATERAL (
				SELECT COUNT(*) AS num_posts FROM post WHERE post.topic_id = topic.id
			) AS stats ON TRUE
			LEFT JOIN LATERAL (
				SELECT * FROM post
				WHERE post.topic_id = topic.id
				ORDER BY post.date DESC, post.id DESC
				LIMIT 1
			) AS last_post ON TRUE
		ORDER BY topic.forum_id, topic.id
		`,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch topics")
	}
	return topics, nil
}

func FetchForums(ctx context.Context, conn db.ConnOrTx) ([]*models.Forum, error) {
	forums, err := db.Query[models.Forum](ctx, conn,
		`
		---- Fetch forums
		SELECT $columns
		FROM forum
		ORDER BY id
		`,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch forums")
	}
	return forums, nil
}

func FetchTopicBySlug(ctx context.Context, conn db.ConnOrTx, slug string) (*models.Topic, error) {
	topic, err := db.QueryOne[models.Topic](ctx, conn,
		`
		---- Fetch topic by slug
		SELECT $columns
		FROM topic
		WHERE slug = $1
		`,
		slug,
	)
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// GroupTopics puts every topic under its forum, keeping the forums' order.
// Forums without topics are still listed.
func GroupTopics(forums []*models.Forum, topics []*TopicAndStats) []ForumAndTopics {
	byForum := lo.GroupBy(topics, func(t *TopicAndStats) int {
		return t.Topic.ForumID
	})
	return lo.Map(forums, func(f *models.Forum, _ int) ForumAndTopics {
		return ForumAndTopics{
			Forum: *f,
			Topics: lo.Map(byForum[f.ID], func(t *TopicAndStats, _ int) TopicAndStats {
				return *t
			}),
		}
	})
}

/*
FetchHomeStats gathers everything the home page shows: forums with their
topics, the site-wide counts, and the latest post. The result is cached for
homeStatsTTL and dropped whenever this process creates a post, user, forum or
topic. Changes made by another process, like the admin commands, show up once
the entry expires.
*/
func FetchHomeStats(ctx context.Context, conn db.ConnOrTx) (*HomeStats, error) {
	return cache.Remember(ctx, cache.Shared, homeStatsKey, homeStatsTTL, []string{PostsCacheTag}, func() (*HomeStats, error) {
		return fetchHomeStatsUncached(ctx, conn)
	})
}

func fetchHomeStatsUncached(ctx context.Context, conn db.ConnOrTx) (*HomeStats, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch home stats").End()

	forums, err := FetchForums(ctx, conn)
	if err != nil {
		return nil, err
	}
	topics, err := FetchTopics(ctx, conn)
	if err != nil {
		return nil, err
	}

	type counts struct {
		NumPosts int `db:"num_posts"`
		NumUsers int `db:"num_users"`
	}
	c, err := db.QueryOne[counts](ctx, conn,
		`
		---- Count posts and users
		SELECT $columns
		FROM (
			SELECT
				(SELECT COUNT(*) FROM post) AS num_posts,
				(SELECT COUNT(*) FROM auth_user) AS num_users
		) AS counts
		`,
	)
	if err != nil {
		return nil, oops.New(err, "failed to count posts and users")
	}

	var lastPost *PostAndStuff
	latest, err := fetchPosts(ctx, conn, PostsQuery{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		lastPost = latest[0]
	}

	return &HomeStats{
		Forums:    GroupTopics(forums, topics),
		NumPosts:  c.NumPosts,
		NumUsers:  c.NumUsers,
		NumTopics: len(topics),
		LastPost:  lastPost,
	}, nil
}

// InvalidateHomeStats drops the cached home page stats.
func InvalidateHomeStats(ctx context.Context) error {
	return cache.Shared.Invalidate(ctx, PostsCacheTag)
}
