package forumurl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/oops"
)

var RegexHomepage = regexp.MustCompile("^/$")

func BuildHomepage() string {
	return Url("/", nil)
}

var RegexTopicPosts = regexp.MustCompile(`^/posts/(?P<slug>[^/]+)/$`)

// BuildTopicPosts links to a page of a topic's posts. Page 1 has no query.
func BuildTopicPosts(slug string, page int) string {
	if page < 1 {
		panic(oops.New(nil, "invalid topic page (%d), must be >= 1", page))
	}
	var query []Q
	if page > 1 {
		query = []Q{{"page", strconv.Itoa(page)}}
	}
	return Url("/posts/"+slugSegment(slug)+"/", query)
}

var RegexPostDetail = regexp.MustCompile(`^/detail/(?P<slug>[^/]+)/$`)

func BuildPostDetail(slug string) string {
	return Url("/detail/"+slugSegment(slug)+"/", nil)
}

// BuildComment links to one comment on the post page.
func BuildComment(postSlug string, commentID int) string {
	return BuildPostDetail(postSlug) + "#comment-" + strconv.Itoa(commentID)
}

var RegexCreatePost = regexp.MustCompile("^/create_post$")

func BuildCreatePost() string {
	return Url("/create_post", nil)
}

var RegexLatestPosts = regexp.MustCompile("^/latest_posts$")

func BuildLatestPosts() string {
	return Url("/latest_posts", nil)
}

var RegexSearch = regexp.MustCompile("^/search$")

func BuildSearch() string {
	return Url("/search", nil)
}

// BuildSearchResults links straight to a search, as if the form was submitted.
func BuildSearchResults(query, mode string) string {
	return Url("/search", []Q{{"search", "1"}, {"q", query}, {"search-type", mode}})
}

var RegexSignup = regexp.MustCompile("^/signup/$")

func BuildSignup() string {
	return Url("/signup/", nil)
}

var RegexSignin = regexp.MustCompile("^/signin/$")

func BuildSignin() string {
	return Url("/signin/", nil)
}

// BuildSigninWithRedirect sends the user back to redirectTo once they sign
// in. Only paths on this site are honored when the form comes back.
func BuildSigninWithRedirect(redirectTo string) string {
	if redirectTo == "" {
		return BuildSignin()
	}
	return Url("/signin/", []Q{{"redirect", redirectTo}})
}

var RegexUpdateProfile = regexp.MustCompile("^/update_profile/$")

func BuildUpdateProfile() string {
	return Url("/update_profile/", nil)
}

var RegexLogout = regexp.MustCompile("^/logout/$")

func BuildLogout() string {
	return Url("/logout/", nil)
}

var RegexPerfmon = regexp.MustCompile("^/_perf$")

func BuildPerfmon() string {
	return Url("/_perf", nil)
}

var RegexPublic = regexp.MustCompile("^/public/.+$")

func BuildPublic(filepath string) string {
	filepath = strings.Trim(filepath, "/")
	if len(strings.TrimSpace(filepath)) == 0 {
		panic(oops.New(nil, "attempted to build a /public url with no path"))
	}
	var builder strings.Builder
	builder.WriteString(StaticPath)
	for _, part := range strings.Split(filepath, "/") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			panic(oops.New(nil, "attempted to build a /public url with blank path segments: %s", filepath))
		}
		builder.WriteRune('/')
		builder.WriteString(part)
	}
	return Url(builder.String(), nil)
}

// BuildS3Asset is where an uploaded file can be fetched from.
func BuildS3Asset(s3key string) string {
	root := strings.TrimRight(config.Config.S3.AssetsPublicUrlRoot, "/")
	return root + "/" + strings.TrimLeft(s3key, "/")
}

var RegexCatchAll = regexp.MustCompile("^")

func slugSegment(slug string) string {
	if strings.TrimSpace(slug) == "" {
		panic(oops.New(nil, "attempted to build a url with an empty slug"))
	}
	return url.PathEscape(slug)
}

// IsLocalRedirect reports whether target is a path on this site, and so safe
// to send a user to after signing in.
func IsLocalRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Host == "" && u.Scheme == ""
}
