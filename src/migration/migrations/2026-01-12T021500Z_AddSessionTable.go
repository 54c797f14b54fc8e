package migrations

import (
	"context"
	"time"

	"git.hoosierptk.dev/forums/forums/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddSessionTable{})
}

type AddSessionTable struct{}

func (m AddSessionTable) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 1, 12, 2, 15, 0, 0, time.UTC))
}

func (m AddSessionTable) Name() string {
	return "AddSessionTable"
}

func (m AddSessionTable) Description() string {
	return "Adds database-backed login sessions with CSRF tokens"
}

func (m AddSessionTable) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		CREATE TABLE sessions (
			id VARCHAR(40) PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
			csrf_token VARCHAR(30) NOT NULL
		);
		CREATE INDEX sessions_expires_at ON sessions (expires_at);
	`)
	return err
}

func (m AddSessionTable) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		DROP TABLE sessions;
	`)
	return err
}
