package models

type Forum struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
}

const DefaultTopicDescription = "description"

// Topic is a subforum. Posts live in topics, and topics live in forums.
type Topic struct {
	ID      int    `db:"id"`
	ForumID int    `db:"forum_id"`
	Title   string `db:"title"`
	Slug    string `db:"slug"`

	Description string `db:"description"`
	Icon        string `db:"icon"`
}

func (t *Topic) EnsureSlug() {
	EnsureSlug(&t.Slug, t.Title)
}
