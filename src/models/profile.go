package models

import (
	"github.com/google/uuid"
)

const DefaultRole = "User"

// Profile is the public face of a User: their display name, bio, and the
// points they've earned by posting.
type Profile struct {
	ID     int `db:"id"`
	UserID int `db:"user_id"`

	Fullname      string     `db:"fullname"`
	Slug          string     `db:"slug"`
	Bio           string     `db:"bio"`
	Role          string     `db:"role"`
	Points        int        `db:"points"`
	AvatarAssetID *uuid.UUID `db:"avatar_asset_id"`
}

func (p *Profile) EnsureSlug() {
	EnsureSlug(&p.Slug, p.Fullname)
}

// Points awarded for each kind of contribution.
const (
	PointsForPost    = 100
	PointsForComment = 50
	PointsForReply   = 25
)
