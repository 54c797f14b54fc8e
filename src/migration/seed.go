package migration

import (
	"context"
	"fmt"
	"math/rand"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/models"
	lorem "github.com/HandmadeNetwork/golorem"
	"github.com/jackc/pgx/v5/tracelog"
)

type seedTopic struct {
	Title, Icon string
}

var seedForums = []struct {
	Title  string
	Topics []seedTopic
}{
	{"Community", []seedTopic{
		{"Introductions", "fa fa-hand-paper"},
		{"Off Topic", "fa fa-coffee"},
	}},
	{"Development", []seedTopic{
		{"Help", "fa fa-question"},
		{"Show and Tell", "fa fa-star"},
	}},
}

// Creates only what's necessary to get the site running: the schema and one
// forum with one topic.
func BareMinimumSeed() {
	if err := Migrate(LatestVersion()); err != nil {
		panic(err)
	}

	ctx := context.Background()
	conn := db.NewConnWithConfig(config.PostgresConfig{
		LogLevel: tracelog.LogLevelWarn,
	})
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		panic(err)
	}
	defer tx.Rollback(ctx)

	fmt.Println("Creating forums and topics...")
	for _, f := range seedForums {
		forum, err := forumdata.CreateForum(ctx, tx, f.Title)
		if err != nil {
			panic(err)
		}
		for _, t := range f.Topics {
			_, err := forumdata.CreateTopic(ctx, tx, forumdata.TopicInput{
				ForumID:     forum.ID,
				Title:       t.Title,
				Description: lorem.Sentence(4, 10),
				Icon:        t.Icon,
			})
			if err != nil {
				panic(err)
			}
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		panic(err)
	}
}

// Seeds the database with sample data for local dev.
func SampleSeed() {
	BareMinimumSeed()

	ctx := context.Background()
	conn := db.NewConnWithConfig(config.PostgresConfig{
		LogLevel: tracelog.LogLevelWarn,
	})
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		panic(err)
	}
	defer tx.Rollback(ctx)

	fmt.Println("Creating users (all with password \"password\")...")
	var profiles []*models.Profile
	for _, name := range []string{"alice", "bob", "charlie"} {
		profiles = append(profiles, seedUser(ctx, tx, name))
	}

	topicIDs, err := db.QueryScalar[int](ctx, tx, `SELECT id FROM topic ORDER BY id`)
	if err != nil {
		panic(err)
	}

	fmt.Println("Creating posts, comments, and replies...")
	for i := 0; i < 20; i++ {
		author := profiles[rand.Intn(len(profiles))]
		post, err := forumdata.CreatePost(ctx, tx, author, forumdata.PostInput{
			Title:   fmt.Sprintf("%s %d", lorem.Sentence(3, 8), i),
			Content: lorem.Paragraph(1, 4),
			TopicID: topicIDs[rand.Intn(len(topicIDs))],
			Tags:    []string{"sample"},
		})
		if err != nil {
			panic(err)
		}

		for c := rand.Intn(6); c > 0; c-- {
			commenter := profiles[rand.Intn(len(profiles))]
			comment, _, err := forumdata.GetOrCreateComment(ctx, tx, post.ID, commenter, lorem.Sentence(5, 20))
			if err != nil {
				panic(err)
			}
			if randomBool() {
				replier := profiles[rand.Intn(len(profiles))]
				_, _, err := forumdata.GetOrCreateReply(ctx, tx, comment.ID, replier, lorem.Sentence(3, 12))
				if err != nil {
					panic(err)
				}
			}
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println("Done!")
}

func seedUser(ctx context.Context, conn db.ConnOrTx, username string) *models.Profile {
	user, err := forumdata.RegisterUser(ctx, conn, username, "password")
	if err != nil {
		panic(err)
	}
	profile, err := forumdata.UpsertProfile(ctx, conn, user, forumdata.ProfileInput{
		Fullname: randomName(username),
		Bio:      lorem.Paragraph(0, 2),
	})
	if err != nil {
		panic(err)
	}
	return profile
}

func randomName(username string) string {
	return fmt.Sprintf("%s %s", lorem.Word(3, 8), username)
}

func randomBool() bool {
	return rand.Intn(2) == 1
}
