package website

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogContextErrors(t *testing.T) {
	err1 := errors.New("test error 1")
	err2 := errors.New("test error 2")

	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Print("sanity check")

	assert.Contains(t, buf.String(), "sanity check")

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) (res ResponseData) {
					c.Logger = &logger
					return h(c)
				}
			},
			logContextErrorsMiddleware,
		},
	}

	routes.GET(regexp.MustCompile("^/test$"), func(c *RequestContext) ResponseData {
		return c.ErrorResponse(http.StatusInternalServerError, err1, err2)
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/test")
	if assert.Nil(t, err) {
		defer res.Body.Close()

		t.Logf("Log contents: %s", buf.String())

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		assert.Contains(t, buf.String(), err1.Error())
		assert.Contains(t, buf.String(), err2.Error())
	}
}

// Everything here works without a database: no session cookie is sent, and
// none of these routes query anything.
func serve(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	NewWebsiteRoutes(nil, nil).ServeHTTP(rec, req)
	return rec
}

func TestNotFound(t *testing.T) {
	rec := serve(t, http.MethodGet, "/definitely/not/here/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestNotFoundPlain(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope.json", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	NewWebsiteRoutes(nil, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
}

func TestAppendSlash(t *testing.T) {
	t.Run("redirects to the slashed route", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/signup?next=1", "")
		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/signup/?next=1", rec.Header().Get("Location"))
	})
	t.Run("not for unknown paths", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/nothing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("not for posts", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/signin", "username=a&password=b")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNeedsAuth(t *testing.T) {
	for _, target := range []string{
		"/latest_posts",
		"/create_post",
		"/update_profile/",
		"/posts/introductions/?page=2",
		"/detail/hello-world/",
		"/search?search=1&q=go&search-type=titles",
		"/logout/",
	} {
		t.Run(target, func(t *testing.T) {
			rec := serve(t, http.MethodGet, target, "")
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, forumurl.BuildSigninWithRedirect(target), rec.Header().Get("Location"))

			loc, err := url.Parse(rec.Header().Get("Location"))
			require.Nil(t, err)
			assert.Equal(t, target, loc.Query().Get("redirect"))
		})
	}

	t.Run("posts too", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/create_post", "title=Hi&content=there&topic=1")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "/signin/")
	})
}

func TestAuthPagesRender(t *testing.T) {
	t.Run("signup", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/signup/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="password2"`)
	})
	t.Run("signin keeps a local redirect", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/signin/?redirect=%2Flatest_posts", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "redirect=%2Flatest_posts")
	})
	t.Run("signin drops a foreign redirect", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/signin/?redirect=https%3A%2F%2Fevil.example", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "evil.example")
	})
}

func TestSignupValidation(t *testing.T) {
	// Invalid input never reaches the database.
	rec := serve(t, http.MethodPost, "/signup/", "username=bad+name&password1=hunter22&password2=hunter23")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "field-error")
	assert.Contains(t, body, `value="bad name"`)
	assert.NotContains(t, body, "hunter22")
}

func TestSigninValidation(t *testing.T) {
	rec := serve(t, http.MethodPost, "/signin/", "username=&password=")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "field-error")
}

func TestPublicFiles(t *testing.T) {
	rec := serve(t, http.MethodGet, forumurl.StaticPath+"/style.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css"))

	rec = serve(t, http.MethodGet, forumurl.StaticPath+"/missing.css", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoticesRoundTrip(t *testing.T) {
	c := &RequestContext{Logger: logging.GlobalLogger()}

	var res ResponseData
	res.AddFutureNotice("success", `Your post "<b>hi</b>" was created.`)
	res.AddFutureNotice("failure", "pipes|are|fine")

	serialized := serializeNoticesForCookie(c, res.FutureNotices)
	require.NotEmpty(t, serialized)
	assert.NotContains(t, serialized, ";")

	notices := deserializeNoticesFromCookie(serialized)
	require.Len(t, notices, 2)
	assert.Equal(t, "success", notices[0].Class)
	assert.Equal(t, res.FutureNotices[0].Content, notices[0].Content)
	assert.NotContains(t, string(notices[0].Content), "<b>")
	assert.Equal(t, "failure", notices[1].Class)
	assert.Equal(t, "pipes|are|fine", string(notices[1].Content))
}

func TestNoticesRejectForgedCookies(t *testing.T) {
	assert.Nil(t, deserializeNoticesFromCookie("not base64!"))

	forged := serializeNoticesForCookie(&RequestContext{Logger: logging.GlobalLogger()}, []templates.Notice{
		{Class: `x" onclick="alert(1)`, Content: "hi"},
		{Class: "success", Content: "<script>alert(1)</script>"},
	})
	notices := deserializeNoticesFromCookie(forged)
	require.Len(t, notices, 1)
	assert.Equal(t, "success", notices[0].Class)
	assert.NotContains(t, string(notices[0].Content), "<script>")
}

func TestLocalReferer(t *testing.T) {
	mk := func(referer string) *RequestContext {
		req := httptest.NewRequest(http.MethodPost, "http://forums.example/detail/x/", nil)
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		return &RequestContext{Req: req}
	}

	assert.Equal(t, "/detail/x/?a=1", localReferer(mk("http://forums.example/detail/x/?a=1")))
	assert.Equal(t, "/latest_posts", localReferer(mk("/latest_posts")))
	assert.Equal(t, "", localReferer(mk("https://evil.example/detail/x/")))
	assert.Equal(t, "", localReferer(mk("")))
}
