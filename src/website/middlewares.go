package website

import (
	"errors"
	"fmt"
	"net/http"

	"git.hoosierptk.dev/forums/forums/src/auth"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func panicCatcherMiddleware(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		defer func() {
			if recovered := recover(); recovered != nil {
				maybeError, ok := recovered.(error)
				var err error
				if ok {
					err = oops.New(maybeError, "Recovered from panic")
				} else {
					err = oops.New(nil, fmt.Sprintf("Recovered from panic with value: %v", recovered))
				}
				res = c.ErrorResponse(http.StatusInternalServerError, err)
			}
		}()

		return h(c)
	}
}

// Gives each request its own logger carrying the route and a request id.
func requestLoggerMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		logger := c.Logger.With().
			Str("route", c.Route).
			Str("request_id", uuid.NewString()).
			Logger()
		c.Logger = &logger
		c.ctx = logging.AttachLoggerToContext(c.Logger, c.ctx)
		return h(c)
	}
}

func withConn(conn *pgxpool.Pool) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Conn = conn
			return h(c)
		}
	}
}

func trackRequestPerf(perfCollector *perf.PerfCollector) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Perf = perf.MakeNewRequestPerf(c.Route, c.Req.Method, c.Req.URL.Path)
			c.PerfCollector = perfCollector
			defer func() {
				c.Perf.EndRequest()
				c.Logger.Debug().
					Str("method", c.Perf.Method).
					Str("path", c.Perf.Path).
					Dur("took", c.Perf.Duration()).
					Msg("Served request")
				perfCollector.SubmitRun(c.Perf)
			}()

			return h(c)
		}
	}
}

func loadCommonData(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		b := c.Perf.StartBlock("MIDDLEWARE", "Load common website data")
		sessionCookie, err := c.Req.Cookie(auth.SessionCookieName)
		if err == nil {
			user, session, err := getCurrentUserAndSession(c, sessionCookie.Value)
			if err != nil {
				b.End()
				return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to get current user"))
			}

			c.CurrentUser = user
			c.CurrentSession = session
		}
		// http.ErrNoCookie is the only error Cookie ever returns, so no further handling to do here.
		b.End()

		return h(c)
	}
}

// Given a session id, fetches user data from the database. Will return nil if
// the user cannot be found, and will only return an error if it's serious.
func getCurrentUserAndSession(c *RequestContext, sessionId string) (*models.User, *models.Session, error) {
	session, err := auth.GetSession(c, c.Conn, sessionId)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil, nil, nil
		} else {
			return nil, nil, oops.New(err, "failed to get current session")
		}
	}

	user, err := auth.FetchUserByUsername(c, c.Conn, session.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserDoesNotExist) {
			logging.Debug().Str("username", session.Username).Msg("returning no current user for this request because the user for the session couldn't be found")
			return nil, nil, nil // user was deleted or something
		} else {
			return nil, nil, oops.New(err, "failed to get user for session")
		}
	}

	return user, session, nil
}

func needsAuth(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil {
			return c.Redirect(forumurl.BuildSigninWithRedirect(c.PathAndQuery()), http.StatusSeeOther)
		}

		return h(c)
	}
}

// csrfMiddleware checks the token on every POST from a signed-in user.
// Requests without a session have no token to check, and the handlers behind
// this middleware all require auth anyway.
func csrfMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.Req.Method != http.MethodPost || c.CurrentSession == nil {
			return h(c)
		}

		c.Req.ParseMultipartForm(maxUploadMemory)
		csrfToken := c.Req.Form.Get(auth.CSRFFieldName)
		if csrfToken != c.CurrentSession.CSRFToken {
			c.Logger.Warn().Str("username", c.CurrentUser.Username).Msg("user failed CSRF validation - potential attack?")

			res := c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
			logoutUser(c, &res)

			return res
		}

		return h(c)
	}
}

const maxUploadMemory = 8 << 20

func logContextErrors(c *RequestContext, errs ...error) {
	for _, err := range errs {
		c.Logger.Error().Timestamp().Stack().Str("Requested", c.FullUrl()).Err(err).Msg("error occurred during request")
	}
}

func logContextErrorsMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		logContextErrors(c, res.Errors...)
		return res
	}
}
