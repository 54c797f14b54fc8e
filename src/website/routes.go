package website

import (
	"net/http"

	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewWebsiteRoutes(conn *pgxpool.Pool, perfCollector *perf.PerfCollector) http.Handler {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			panicCatcherMiddleware,
			requestLoggerMiddleware,
			withConn(conn),
			trackRequestPerf(perfCollector),
			logContextErrorsMiddleware,
			storeNoticesInCookieMiddleware,
			loadCommonData,
			csrfMiddleware,
		},
	}
	authed := routes.WithMiddleware(needsAuth)

	routes.GET(forumurl.RegexPublic, servePublic)
	routes.GET(forumurl.RegexPerfmon, Perfmon)

	routes.GET(forumurl.RegexHomepage, Home)

	routes.GET(forumurl.RegexSignup, Signup)
	routes.POST(forumurl.RegexSignup, SignupSubmit)
	routes.GET(forumurl.RegexSignin, Signin)
	routes.POST(forumurl.RegexSignin, SigninSubmit)
	authed.GET(forumurl.RegexLogout, Logout)

	authed.GET(forumurl.RegexTopicPosts, TopicPosts)
	authed.GET(forumurl.RegexPostDetail, PostDetail)
	authed.POST(forumurl.RegexPostDetail, PostDetailSubmit)
	authed.GET(forumurl.RegexCreatePost, CreatePost)
	authed.POST(forumurl.RegexCreatePost, CreatePostSubmit)
	authed.GET(forumurl.RegexLatestPosts, LatestPosts)
	authed.GET(forumurl.RegexSearch, Search)
	authed.GET(forumurl.RegexUpdateProfile, UpdateProfile)
	authed.POST(forumurl.RegexUpdateProfile, UpdateProfileSubmit)

	routes.AnyMethod(forumurl.RegexCatchAll, catchAll)

	return router
}

var publicHTTPFS = http.StripPrefix(forumurl.StaticPath, http.FileServer(http.FS(templates.PublicFS())))

func servePublic(c *RequestContext) ResponseData {
	var res ResponseData
	publicHTTPFS.ServeHTTP(&res, c.Req)
	return res
}
