package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/jobs"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
)

const SessionCookieName = "ForumsSession"
const CSRFFieldName = "csrf_token"

func makeRandomToken(n int) string {
	idBytes := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, idBytes)
	if err != nil {
		panic(err)
	}

	return base64.RawURLEncoding.EncodeToString(idBytes)[:n]
}

func makeSessionId() string {
	return makeRandomToken(40)
}

func makeCSRFToken() string {
	return makeRandomToken(30)
}

var ErrNoSession = errors.New("no session found")

// GetSession returns the session with the given id, or ErrNoSession if it does
// not exist or has expired.
func GetSession(ctx context.Context, conn db.ConnOrTx, id string) (*models.Session, error) {
	sess, err := db.QueryOne[models.Session](ctx, conn,
		`
		---- Get session
		SELECT $columns
		FROM sessions
		WHERE id = $1 AND expires_at > $2
		`,
		id,
		time.Now(),
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrNoSession
		}
		return nil, oops.New(err, "failed to get session")
	}

	return sess, nil
}

func CreateSession(ctx context.Context, conn db.ConnOrTx, username string) (*models.Session, error) {
	session := models.Session{
		ID:        makeSessionId(),
		Username:  username,
		ExpiresAt: time.Now().Add(config.Config.Auth.SessionLife),
		CSRFToken: makeCSRFToken(),
	}

	_, err := conn.Exec(ctx,
		"INSERT INTO sessions (id, username, expires_at, csrf_token) VALUES ($1, $2, $3, $4)",
		session.ID, session.Username, session.ExpiresAt, session.CSRFToken,
	)
	if err != nil {
		return nil, oops.New(err, "failed to persist session")
	}

	return &session, nil
}

// Deletes a session by id. If no session with that id exists, no
// error is returned.
func DeleteSession(ctx context.Context, conn db.ConnOrTx, id string) error {
	_, err := conn.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return oops.New(err, "failed to delete session")
	}

	return nil
}

func NewSessionCookie(session *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:  SessionCookieName,
		Value: session.ID,
		Path:  "/",

		Domain:  config.Config.Auth.CookieDomain,
		Expires: session.ExpiresAt,

		Secure:   config.Config.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

var DeleteSessionCookie = &http.Cookie{
	Name:   SessionCookieName,
	Path:   "/",
	Domain: config.Config.Auth.CookieDomain,
	MaxAge: -1,
}

func DeleteExpiredSessions(ctx context.Context, conn db.ConnOrTx) (int64, error) {
	tag, err := conn.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	if err != nil {
		return 0, oops.New(err, "failed to delete expired sessions")
	}

	return tag.RowsAffected(), nil
}

// ExpiredSessionCleanup is a scheduled task for jobs.RunScheduled.
func ExpiredSessionCleanup(conn db.ConnOrTx) jobs.Task {
	return jobs.Task{
		Name: "delete expired sessions",
		Spec: "@every 1m",
		Run: func(ctx context.Context) error {
			n, err := DeleteExpiredSessions(ctx, conn)
			if err != nil {
				return err
			}
			if n > 0 {
				logging.ExtractLogger(ctx).Info().Int64("num deleted sessions", n).Msg("Deleted expired sessions")
			}
			return nil
		},
	}
}
