/*
Package db wraps pgx with a few helpers for mapping query results onto Go
types while still writing plain SQL.

Arguments use the normal $1, $2 placeholders and go straight through to pgx.

	slugs, err := db.QueryScalar[string](ctx, conn,
		`
		SELECT slug
		FROM topic
		WHERE forum_id = ANY($1)
		`,
		[]int{1, 2},
	)

(If you need a list in a query, pass a slice and use ANY instead of IN.)

Struct types are mapped with `db:"column"` tags and the $columns placeholder:

	type Topic struct {
		ID    int    `db:"id"`
		Title string `db:"title"`
		Slug  string `db:"slug"`
	}
	topics, err := db.Query[Topic](ctx, conn, `SELECT $columns FROM topic`)
	// SELECT id, title, slug FROM topic

Use $columns{alias} to prefix every column with a table alias:

	posts, err := db.Query[models.Post](ctx, conn, `
		SELECT $columns{p}
		FROM post AS p JOIN topic AS t ON t.id = p.topic_id
		WHERE t.slug = $1
	`, slug)
	// SELECT p.id, p.title, ... FROM post AS p ...

A tagged field whose type is itself a struct is expanded using its tag as the
table alias, which makes JOINs easy to scan into:

	type postAndAuthor struct {
		Post   models.Post    `db:"post"`
		Author models.Profile `db:"author"`
	}
	// SELECT post.id, post.title, ..., author.id, author.fullname, ...

If the nested field is a pointer and every one of its columns is NULL (say, on
the outer side of a LEFT JOIN), the pointer stays nil.

A query can be named for perf tracking by starting it with a line like
"---- Fetch topic posts". The name shows up in request perf blocks.
*/
package db
