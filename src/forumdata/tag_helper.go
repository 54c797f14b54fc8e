package forumdata

import (
	"context"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
)

// SetPostTags replaces a post's tags. Tags are expected to be validated
// already; new ones are created as needed.
func SetPostTags(ctx context.Context, tx db.ConnOrTx, postID int, tags []string) error {
	_, err := tx.Exec(ctx, `DELETE FROM post_tag WHERE post_id = $1`, postID)
	if err != nil {
		return oops.New(err, "failed to clear post tags")
	}
	if len(tags) == 0 {
		return nil
	}

	_, err = tx.Exec(ctx,
		`
		---- Upsert tags
		INSERT INTO tag (text)
		SELECT UNNEST($1::VARCHAR[])
		ON CONFLICT (text) DO NOTHING
		`,
		tags,
	)
	if err != nil {
		return oops.New(err, "failed to create tags")
	}

	_, err = tx.Exec(ctx,
		`
		---- Link post tags
		INSERT INTO post_tag (post_id, tag_id)
		SELECT $1, tag.id
		FROM tag
		WHERE tag.text = ANY ($2)
		ON CONFLICT DO NOTHING
		`,
		postID,
		tags,
	)
	if err != nil {
		return oops.New(err, "failed to link post tags")
	}
	return nil
}

func FetchPostTags(ctx context.Context, conn db.ConnOrTx, postID int) ([]*models.Tag, error) {
	tags, err := db.Query[models.Tag](ctx, conn,
		`
		---- Fetch post tags
		SELECT $columns
		FROM
			tag
			JOIN post_tag ON post_tag.tag_id = tag.id
		WHERE post_tag.post_id = $1
		ORDER BY tag.text
		`,
		postID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch post tags")
	}
	return tags, nil
}
