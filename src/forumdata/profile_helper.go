package forumdata

import (
	"context"
	"errors"
	"fmt"

	"git.hoosierptk.dev/forums/forums/src/auth"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"github.com/google/uuid"
)

var (
	// ErrSlugTaken is returned when a new profile, topic, or post would get
	// a slug that already belongs to another one.
	ErrSlugTaken = errors.New("slug is already taken")

	// ErrEmptySlug is returned when a title or name has nothing in it that
	// survives slugification.
	ErrEmptySlug = errors.New("slug would be empty")

	ErrNoProfile = errors.New("user has no profile")
)

// wrapSlugError turns a unique violation on one of the slug constraints into
// ErrSlugTaken, and wraps anything else as a plain persistence failure.
func wrapSlugError(err error, what string) error {
	if constraint, ok := db.IsUniqueViolation(err); ok {
		switch constraint {
		case "profile_slug_key", "topic_slug_key", "post_slug_key":
			return oops.New(fmt.Errorf("%w (%s)", ErrSlugTaken, constraint), "failed to save %s", what)
		}
	}
	return oops.New(err, "failed to save %s", what)
}

// RegisterUser creates an account through auth.CreateUser and drops the cached
// home stats, which count users.
func RegisterUser(ctx context.Context, conn db.ConnOrTx, username, password string) (*models.User, error) {
	user, err := auth.CreateUser(ctx, conn, username, password)
	if err != nil {
		return nil, err
	}
	invalidateHomeStatsOrWarn(ctx)
	return user, nil
}

type ProfileAndUser struct {
	Profile models.Profile `db:"profile"`
	User    models.User    `db:"auth_user"`
}

func FetchProfileByUserID(ctx context.Context, conn db.ConnOrTx, userID int) (*models.Profile, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch profile").End()

	profile, err := db.QueryOne[models.Profile](ctx, conn,
		`
		---- Fetch profile by user
		SELECT $columns
		FROM profile
		WHERE user_id = $1
		`,
		userID,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrNoProfile
		}
		return nil, oops.New(err, "failed to fetch profile")
	}
	return profile, nil
}

/*
EnsureProfile returns the user's profile, creating one named after the user
if they never filled one in. If another profile already has the slug that the
username produces, the user id is appended to make it unique.
*/
func EnsureProfile(ctx context.Context, conn db.ConnOrTx, user *models.User) (*models.Profile, error) {
	profile, err := FetchProfileByUserID(ctx, conn, user.ID)
	if err == nil {
		return profile, nil
	} else if !errors.Is(err, ErrNoProfile) {
		return nil, err
	}

	slug := models.Slugify(user.Username)
	candidates := []string{slug, fmt.Sprintf("%s-%d", slug, user.ID)}
	if slug == "" {
		candidates = []string{fmt.Sprintf("user-%d", user.ID)}
	}

	for _, candidate := range candidates {
		inserted, err := db.QueryOne[models.Profile](ctx, conn,
			`
			---- Create default profile
			INSERT INTO profile (user_id, fullname, slug, bio, role)
			VALUES ($1, $2, $3, '', $4)
			ON CONFLICT DO NOTHING
			RETURNING $columns
			`,
			user.ID,
			truncateRunes(user.Username, 40),
			candidate,
			models.DefaultRole,
		)
		if err == nil {
			return inserted, nil
		} else if !errors.Is(err, db.NotFound) {
			return nil, oops.New(err, "failed to create profile")
		}

		// Nothing inserted. Either someone else made this user's profile
		// in the meantime or the slug is taken.
		existing, err := FetchProfileByUserID(ctx, conn, user.ID)
		if err == nil {
			return existing, nil
		} else if !errors.Is(err, ErrNoProfile) {
			return nil, err
		}
	}

	return nil, oops.New(ErrSlugTaken, "could not find a free profile slug for user %d", user.ID)
}

type ProfileInput struct {
	Fullname string
	Bio      string
	Role     string

	// Left alone when nil.
	AvatarAssetID *uuid.UUID
}

/*
UpsertProfile saves the user's single profile. An existing profile keeps its
slug; a new one gets its slug from the full name, or the username if the full
name is blank.
*/
func UpsertProfile(ctx context.Context, conn db.ConnOrTx, user *models.User, input ProfileInput) (*models.Profile, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Upsert profile").End()

	role := input.Role
	if role == "" {
		role = models.DefaultRole
	}

	newProfile := models.Profile{Fullname: input.Fullname}
	newProfile.EnsureSlug()
	if newProfile.Slug == "" {
		newProfile.Slug = models.Slugify(user.Username)
	}
	if newProfile.Slug == "" {
		newProfile.Slug = fmt.Sprintf("user-%d", user.ID)
	}

	profile, err := db.QueryOne[models.Profile](ctx, conn,
		`
		---- Upsert profile
		INSERT INTO profile (user_id, fullname, slug, bio, role, avatar_asset_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			fullname = EXCLUDED.fullname,
			bio = EXCLUDED.bio,
			role = EXCLUDED.role,
			avatar_asset_id = COALESCE(EXCLUDED.avatar_asset_id, profile.avatar_asset_id)
		RETURNING $columns
		`,
		user.ID,
		input.Fullname,
		newProfile.Slug,
		input.Bio,
		role,
		input.AvatarAssetID,
	)
	if err != nil {
		return nil, wrapSlugError(err, "profile")
	}
	return profile, nil
}

// awardPoints must run in the same transaction as the content it pays for.
func awardPoints(ctx context.Context, tx db.ConnOrTx, profileID int, points int) error {
	tag, err := tx.Exec(ctx, awardPointsQuery, points, profileID)
	if err != nil {
		return oops.New(err, "failed to award points")
	}
	if tag.RowsAffected() != 1 {
		return oops.New(ErrNoProfile, "failed to award points to profile %d", profileID)
	}
	return nil
}

const awardPointsQuery = `
	---- Award points
	UPDATE profile
	SET points = points + $1
	WHERE id = $2
`

// ProfilePostCount is how many posts a profile has written.
func ProfilePostCount(ctx context.Context, conn db.ConnOrTx, profileID int) (int, error) {
	count, err := db.QueryOneScalar[int](ctx, conn,
		`
		---- Count profile posts
		SELECT COUNT(*) FROM post WHERE profile_id = $1
		`,
		profileID,
	)
	if err != nil {
		return 0, oops.New(err, "failed to count posts for profile")
	}
	return count, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
