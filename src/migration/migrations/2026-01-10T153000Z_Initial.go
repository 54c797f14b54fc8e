package migrations

import (
	"context"
	"time"

	"git.hoosierptk.dev/forums/forums/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(Initial{})
}

type Initial struct{}

func (m Initial) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC))
}

func (m Initial) Name() string {
	return "Initial"
}

func (m Initial) Description() string {
	return "Creates users, profiles, forums, topics, posts, comments, and replies"
}

func (m Initial) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		CREATE TABLE auth_user (
			id SERIAL PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			password VARCHAR(256) NOT NULL,
			date_joined TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_login TIMESTAMP WITH TIME ZONE
		);
		CREATE UNIQUE INDEX auth_user_username_key ON auth_user (LOWER(username));

		CREATE TABLE asset (
			id UUID PRIMARY KEY,
			uploader_id INT REFERENCES auth_user (id) ON DELETE SET NULL,
			s3_key VARCHAR(2000) NOT NULL UNIQUE,
			filename VARCHAR(1000) NOT NULL,
			size INT NOT NULL,
			mime_type VARCHAR(255) NOT NULL,
			sha1sum VARCHAR(40) NOT NULL,
			width INT NOT NULL DEFAULT 0,
			height INT NOT NULL DEFAULT 0
		);

		CREATE TABLE profile (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL UNIQUE REFERENCES auth_user (id) ON DELETE CASCADE,
			fullname VARCHAR(40) NOT NULL DEFAULT '',
			slug VARCHAR(400) NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			role VARCHAR(40) NOT NULL DEFAULT 'User',
			points INT NOT NULL DEFAULT 0,
			avatar_asset_id UUID REFERENCES asset (id) ON DELETE SET NULL,
			CONSTRAINT profile_slug_key UNIQUE (slug)
		);

		CREATE TABLE forum (
			id SERIAL PRIMARY KEY,
			title VARCHAR(50) NOT NULL
		);

		CREATE TABLE topic (
			id SERIAL PRIMARY KEY,
			forum_id INT NOT NULL REFERENCES forum (id) ON DELETE CASCADE,
			title VARCHAR(50) NOT NULL,
			slug VARCHAR(400) NOT NULL CHECK (slug <> ''),
			description TEXT NOT NULL DEFAULT 'description',
			icon VARCHAR(25) NOT NULL DEFAULT '',
			CONSTRAINT topic_slug_key UNIQUE (slug)
		);

		CREATE TABLE post (
			id SERIAL PRIMARY KEY,
			topic_id INT NOT NULL REFERENCES topic (id) ON DELETE CASCADE,
			profile_id INT NOT NULL REFERENCES profile (id) ON DELETE CASCADE,
			title VARCHAR(400) NOT NULL,
			slug VARCHAR(400) NOT NULL CHECK (slug <> ''),
			content TEXT NOT NULL,
			date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			approved BOOLEAN NOT NULL DEFAULT TRUE,
			closed BOOLEAN NOT NULL DEFAULT FALSE,
			state VARCHAR(20) NOT NULL DEFAULT 'zero',
			icon VARCHAR(25) NOT NULL DEFAULT 'fa fa-frown',
			CONSTRAINT post_slug_key UNIQUE (slug)
		);
		CREATE INDEX post_topic_listing ON post (topic_id, approved, date DESC);

		CREATE TABLE comment (
			id SERIAL PRIMARY KEY,
			post_id INT NOT NULL REFERENCES post (id) ON DELETE CASCADE,
			profile_id INT NOT NULL REFERENCES profile (id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE INDEX comment_post_id ON comment (post_id, date);

		CREATE TABLE reply (
			id SERIAL PRIMARY KEY,
			comment_id INT NOT NULL REFERENCES comment (id) ON DELETE CASCADE,
			profile_id INT NOT NULL REFERENCES profile (id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE INDEX reply_comment_id ON reply (comment_id, date);

		CREATE TABLE tag (
			id SERIAL PRIMARY KEY,
			text VARCHAR(20) NOT NULL UNIQUE
		);

		CREATE TABLE post_tag (
			post_id INT NOT NULL REFERENCES post (id) ON DELETE CASCADE,
			tag_id INT NOT NULL REFERENCES tag (id) ON DELETE CASCADE,
			PRIMARY KEY (post_id, tag_id)
		);
	`)
	return err
}

func (m Initial) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		DROP TABLE post_tag;
		DROP TABLE tag;
		DROP TABLE reply;
		DROP TABLE comment;
		DROP TABLE post;
		DROP TABLE topic;
		DROP TABLE forum;
		DROP TABLE profile;
		DROP TABLE asset;
		DROP TABLE auth_user;
	`)
	return err
}
