package migrations

import (
	"context"
	"time"

	"git.hoosierptk.dev/forums/forums/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddPostHits{})
}

type AddPostHits struct{}

func (m AddPostHits) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 2, 3, 19, 4, 12, 0, time.UTC))
}

func (m AddPostHits) Name() string {
	return "AddPostHits"
}

func (m AddPostHits) Description() string {
	return "Counts post views, once per session"
}

func (m AddPostHits) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		ALTER TABLE post
			ADD COLUMN hits INT NOT NULL DEFAULT 0;

		CREATE TABLE post_hit (
			session_id VARCHAR(40) NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
			post_id INT NOT NULL REFERENCES post (id) ON DELETE CASCADE,
			PRIMARY KEY (session_id, post_id)
		);
	`)
	return err
}

func (m AddPostHits) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		DROP TABLE post_hit;
		ALTER TABLE post
			DROP COLUMN hits;
	`)
	return err
}
